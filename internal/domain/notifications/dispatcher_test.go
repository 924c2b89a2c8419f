package notifications

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/workflow"
)

type recordedNotification struct {
	userID   string
	severity string
	title    string
	body     string
	link     string
}

type fakeStore struct {
	created []recordedNotification
}

func (f *fakeStore) CreateNotification(_ context.Context, userID, severity, title, body, link string) error {
	f.created = append(f.created, recordedNotification{userID, severity, title, body, link})
	return nil
}
func (f *fakeStore) ListNotifications(context.Context, string, int, int) ([]map[string]any, error) {
	return nil, nil
}
func (f *fakeStore) CountUnread(context.Context, string) (int, error) { return 0, nil }
func (f *fakeStore) MarkRead(context.Context, string, string) error   { return nil }
func (f *fakeStore) UserEmail(context.Context, string) (string, error) {
	return "", nil
}

type fakeDirectory struct {
	byPermission map[string][]string
	byAgency     map[string][]string
}

func (f *fakeDirectory) UserIDsWithPermission(_ context.Context, permission string) ([]string, error) {
	return f.byPermission[permission], nil
}
func (f *fakeDirectory) UserIDsForAgency(_ context.Context, agencyID string) ([]string, error) {
	return f.byAgency[agencyID], nil
}

func newTestDispatcher(dir *fakeDirectory) (*Dispatcher, *fakeStore) {
	store := &fakeStore{}
	svc := New(store, nil, zerolog.Nop())
	return NewDispatcher(svc, dir, zerolog.Nop()), store
}

func TestHandleRejectNotifiesOwnerOnly(t *testing.T) {
	dir := &fakeDirectory{byPermission: map[string][]string{
		auth.PermFinanceValidate: {"f1", "f2"},
	}}
	d, store := newTestDispatcher(dir)

	d.Handle(context.Background(), workflow.Event{
		EntityType: workflow.EntityPayrollRun,
		EntityID:   "r1",
		Action:     workflow.ActionReject,
		From:       workflow.StatusPendingGeneral,
		Status:     workflow.StatusAgencyRejected,
		Stage:      workflow.StageFinance,
		OwnerID:    "owner",
		Reason:     "totals do not match the register",
		Label:      "Run 03/2026",
	})

	if len(store.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.created))
	}
	n := store.created[0]
	if n.userID != "owner" {
		t.Fatalf("rejection should go to the owner, got %s", n.userID)
	}
	if n.severity != SeverityWarning {
		t.Fatalf("expected %s severity, got %s", SeverityWarning, n.severity)
	}
	if !strings.Contains(n.body, "totals do not match the register") {
		t.Fatalf("rejection reason missing from body: %q", n.body)
	}
	if n.link != "/payroll/runs/r1" {
		t.Fatalf("unexpected link: %s", n.link)
	}
}

func TestHandleForwardNotifiesNextStage(t *testing.T) {
	dir := &fakeDirectory{byPermission: map[string][]string{
		auth.PermHRValidate: {"hr1", "hr2"},
	}}
	d, store := newTestDispatcher(dir)

	d.Handle(context.Background(), workflow.Event{
		EntityType: workflow.EntityPayrollRun,
		EntityID:   "r1",
		Action:     workflow.ActionApprove,
		From:       workflow.StatusDraft,
		Status:     workflow.StatusHRValidated,
		Stage:      workflow.StageHR,
		OwnerID:    "owner",
	})

	if len(store.created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(store.created))
	}
	got := map[string]bool{}
	for _, n := range store.created {
		got[n.userID] = true
		if n.severity != SeverityInfo {
			t.Fatalf("expected info severity, got %s", n.severity)
		}
	}
	if !got["hr1"] || !got["hr2"] {
		t.Fatalf("HR validators missing from targets: %v", got)
	}
}

func TestHandleDeduplicatesTargets(t *testing.T) {
	// The owner also belongs to the agency; one notification, not two.
	dir := &fakeDirectory{byAgency: map[string][]string{
		"a1": {"owner", "colleague"},
	}}
	d, store := newTestDispatcher(dir)

	d.Handle(context.Background(), workflow.Event{
		EntityType: workflow.EntityPayrollRun,
		EntityID:   "r1",
		Action:     workflow.ActionApprove,
		From:       workflow.StatusDirectionApproved,
		Status:     workflow.StatusPaid,
		Stage:      workflow.StageFinance,
		OwnerID:    "owner",
		AgencyID:   "a1",
		Amount:     decimal.RequireFromString("14250.00"),
	})

	if len(store.created) != 2 {
		t.Fatalf("expected 2 deduplicated notifications, got %d", len(store.created))
	}
	for _, n := range store.created {
		if n.severity != SeveritySuccess {
			t.Fatalf("paid transition should be success, got %s", n.severity)
		}
		if !strings.Contains(n.body, "14250.00") {
			t.Fatalf("amount missing from body: %q", n.body)
		}
	}
}

func TestHandleEmployeePendingGeneralGoesToDirection(t *testing.T) {
	dir := &fakeDirectory{byPermission: map[string][]string{
		auth.PermDirectionApprove: {"dir1"},
		auth.PermFinanceValidate:  {"fin1"},
	}}
	d, store := newTestDispatcher(dir)

	d.Handle(context.Background(), workflow.Event{
		EntityType: workflow.EntityEmployee,
		EntityID:   "e1",
		Action:     workflow.ActionApprove,
		From:       workflow.StatusPendingAgency,
		Status:     workflow.StatusPendingGeneral,
		Stage:      workflow.StageAgency,
		OwnerID:    "owner",
	})

	if len(store.created) != 1 || store.created[0].userID != "dir1" {
		t.Fatalf("employee approval should route to direction, got %+v", store.created)
	}
	if store.created[0].link != "/employees/e1" {
		t.Fatalf("unexpected link: %s", store.created[0].link)
	}
}

func TestBuildMessageFallbackLabel(t *testing.T) {
	msg := buildMessage(workflow.Event{
		EntityType: workflow.EntityTransaction,
		EntityID:   "t9",
		Action:     workflow.ActionApprove,
		Status:     workflow.StatusApproved,
		Stage:      workflow.StageFinance,
	})
	if !strings.Contains(msg.title, "transaction t9") {
		t.Fatalf("fallback label missing: %q", msg.title)
	}
	if msg.severity != SeveritySuccess {
		t.Fatalf("expected success severity, got %s", msg.severity)
	}
}
