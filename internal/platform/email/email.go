package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"gestimmo/internal/domain/notifications"
	"gestimmo/internal/platform/config"
)

const (
	dialTimeout   = 10 * time.Second
	subjectPrefix = "[Gestimmo] "
)

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string, string, string) error {
	return nil
}

type smtpMailer struct {
	host     string
	port     int
	user     string
	password string
	useTLS   bool
	baseURL  string
}

// New returns the SMTP mirror for in-app notifications, or a no-op mailer
// when email delivery is disabled.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		useTLS:   cfg.SMTPUseTLS,
		baseURL:  strings.TrimRight(cfg.AppBaseURL, "/"),
	}
}

func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body, link string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	msg := composeMessage(from, to, subject, body, s.resolveLink(link))

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", s.host, s.port))
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.useTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}
	if s.user != "" {
		if err := client.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// resolveLink turns the notification's relative deep link into an absolute
// URL. Without a configured base URL the link is left out of the email.
func (s *smtpMailer) resolveLink(link string) string {
	if s.baseURL == "" || link == "" {
		return ""
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return s.baseURL + link
}

func composeMessage(from, to, subject, body, link string) []byte {
	var b strings.Builder
	b.WriteString("From: " + sanitizeHeader(from) + "\r\n")
	b.WriteString("To: " + sanitizeHeader(to) + "\r\n")
	b.WriteString("Subject: " + subjectPrefix + sanitizeHeader(subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	if link != "" {
		b.WriteString("\r\n\r\n" + link)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// sanitizeHeader strips CR and LF so notification text can never inject
// additional headers.
func sanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
