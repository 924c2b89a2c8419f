package email

import (
	"strings"
	"testing"

	"gestimmo/internal/platform/config"
)

func TestNewDisabledReturnsNoop(t *testing.T) {
	m := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := m.(noopMailer); !ok {
		t.Fatal("disabled email should use the noop mailer")
	}
	m = New(config.Config{EmailEnabled: true})
	if _, ok := m.(noopMailer); !ok {
		t.Fatal("missing host should use the noop mailer")
	}
}

func TestComposeMessage(t *testing.T) {
	msg := string(composeMessage(
		"no-reply@gestimmo.local",
		"user@example.com",
		"Run 05/2026 rejected",
		"Rejected at agency stage: missing bonus lines",
		"https://app.gestimmo.local/payroll/runs/r1",
	))
	if !strings.Contains(msg, "Subject: [Gestimmo] Run 05/2026 rejected\r\n") {
		t.Fatalf("subject missing prefix: %q", msg)
	}
	if !strings.Contains(msg, "\r\n\r\nRejected at agency stage") {
		t.Fatalf("body not separated from headers: %q", msg)
	}
	if !strings.Contains(msg, "https://app.gestimmo.local/payroll/runs/r1") {
		t.Fatalf("link missing from body: %q", msg)
	}
}

func TestComposeMessageStripsHeaderBreaks(t *testing.T) {
	msg := string(composeMessage(
		"from@x", "to@x",
		"hello\r\nBcc: attacker@evil",
		"body", "",
	))
	if strings.Contains(msg, "Bcc:") && strings.Contains(msg, "\r\nBcc:") {
		t.Fatalf("header injection not neutralised: %q", msg)
	}
	if !strings.Contains(msg, "Subject: [Gestimmo] hello Bcc: attacker@evil\r\n") {
		t.Fatalf("subject should be flattened onto one line: %q", msg)
	}
}

func TestResolveLink(t *testing.T) {
	m := &smtpMailer{baseURL: "https://app.gestimmo.local"}
	if got := m.resolveLink("/payroll/runs/r1"); got != "https://app.gestimmo.local/payroll/runs/r1" {
		t.Fatalf("unexpected link: %s", got)
	}
	if got := m.resolveLink("payroll/runs/r1"); got != "https://app.gestimmo.local/payroll/runs/r1" {
		t.Fatalf("relative link not normalised: %s", got)
	}
	if got := (&smtpMailer{}).resolveLink("/payroll/runs/r1"); got != "" {
		t.Fatalf("no base URL should drop the link, got %s", got)
	}
}
