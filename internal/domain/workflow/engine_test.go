package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type fakeAuthz struct {
	allowed map[string]bool
	err     error
	asked   []string
}

func (f *fakeAuthz) Can(_ context.Context, _, permission string) (bool, error) {
	f.asked = append(f.asked, permission)
	if f.err != nil {
		return false, f.err
	}
	return f.allowed[permission], nil
}

func allowAll() *fakeAuthz {
	a := &fakeAuthz{allowed: map[string]bool{}}
	for _, entity := range []EntityType{EntityPayrollRun, EntityTransaction, EntityInvoice, EntityEmployee} {
		for _, edge := range transitions[entity] {
			a.allowed[edge.Permission] = true
		}
	}
	return a
}

type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeTx) QueryRow(context.Context, string, ...any) pgx.Row       { return nil }
func (fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }

type fakeRunner struct {
	rolledBack bool
}

func (f *fakeRunner) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := fn(fakeTx{}); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}

type updateCall struct {
	from, to string
	action   Action
	reason   string
}

type fakeAdapter struct {
	rec     Record
	loadErr error
	// statuses to report per UpdateStatus call; false simulates a lost
	// optimistic race. Defaults to success.
	results []bool
	// status the record reads as on each Load after the first.
	reloads []string
	updates []updateCall
	loads   int
}

func (f *fakeAdapter) Load(context.Context, string) (Record, error) {
	f.loads++
	if f.loadErr != nil {
		return Record{}, f.loadErr
	}
	rec := f.rec
	if f.loads > 1 && len(f.reloads) >= f.loads-1 {
		rec.Status = f.reloads[f.loads-2]
	}
	return rec, nil
}

func (f *fakeAdapter) UpdateStatus(_ context.Context, _ Tx, rec Record, to, _ string, action Action, reason string) (bool, error) {
	f.updates = append(f.updates, updateCall{from: rec.Status, to: to, action: action, reason: reason})
	if len(f.results) >= len(f.updates) {
		return f.results[len(f.updates)-1], nil
	}
	return true, nil
}

func newTestEngine(authz AuthorizationPort, adapter Adapter) (*Engine, *fakeRunner) {
	runner := &fakeRunner{}
	e := NewEngine(authz, runner, zerolog.Nop())
	e.Register(EntityPayrollRun, adapter)
	return e, runner
}

func TestApproveSuccessEmitsEvent(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusDraft, OwnerUserID: "u1", Label: "Run 01/2026"}}
	engine, _ := newTestEngine(allowAll(), adapter)

	var events []Event
	engine.Subscribe(func(_ context.Context, evt Event) { events = append(events, evt) })

	res, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.From != StatusDraft || res.Status != StatusHRValidated {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	evt := events[0]
	if evt.From != StatusDraft || evt.Status != StatusHRValidated || evt.ActorID != "actor" || evt.OwnerID != "u1" {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if evt.Stage != StageHR {
		t.Fatalf("expected stage %s, got %s", StageHR, evt.Stage)
	}
}

func TestApproveUnauthorized(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusDraft}}
	engine, _ := newTestEngine(&fakeAuthz{allowed: map[string]bool{}}, adapter)

	_, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(adapter.updates) != 0 {
		t.Fatal("no write should happen for an unauthorized actor")
	}
}

func TestRejectRequiresReason(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusPendingGeneral}}
	engine, _ := newTestEngine(allowAll(), adapter)

	for _, reason := range []string{"", "   "} {
		_, err := engine.Reject(context.Background(), EntityPayrollRun, "r1", "actor", reason)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("reason %q: expected ErrValidation, got %v", reason, err)
		}
	}
	if adapter.loads != 0 {
		t.Fatal("blank reason should fail before loading the record")
	}
}

func TestRejectCarriesReason(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusPendingGeneral}}
	engine, _ := newTestEngine(allowAll(), adapter)

	res, err := engine.Reject(context.Background(), EntityPayrollRun, "r1", "actor", "  totals off  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusAgencyRejected {
		t.Fatalf("expected %s, got %s", StatusAgencyRejected, res.Status)
	}
	if len(adapter.updates) != 1 || adapter.updates[0].reason != "totals off" {
		t.Fatalf("reason not trimmed and forwarded: %+v", adapter.updates)
	}
}

func TestUnknownEntity(t *testing.T) {
	engine, _ := newTestEngine(allowAll(), &fakeAdapter{})
	_, err := engine.Approve(context.Background(), EntityInvoice, "x", "actor")
	if !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestSideEffectFailureRollsBack(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusDirectionApproved}}
	engine, runner := newTestEngine(allowAll(), adapter)

	boom := fmt.Errorf("ledger insert failed")
	engine.OnEnter(EntityPayrollRun, StatusPaid, func(context.Context, Tx, Record, string) error {
		return boom
	})

	var events int
	engine.Subscribe(func(context.Context, Event) { events++ })

	_, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if !errors.Is(err, boom) {
		t.Fatalf("expected side effect error, got %v", err)
	}
	if !runner.rolledBack {
		t.Fatal("transaction should have been rolled back")
	}
	if events != 0 {
		t.Fatal("no event must be published for a rolled back transition")
	}
}

func TestSideEffectRunsOnTargetStatusOnly(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusDraft}}
	engine, _ := newTestEngine(allowAll(), adapter)

	var fired int
	engine.OnEnter(EntityPayrollRun, StatusPaid, func(context.Context, Tx, Record, string) error {
		fired++
		return nil
	})

	if _, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fired != 0 {
		t.Fatal("paid effect must not fire on an intermediate transition")
	}
}

func TestPaidTransitionRunsEffect(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusDirectionApproved, AgencyID: "a1"}}
	engine, _ := newTestEngine(allowAll(), adapter)

	var fired int
	engine.OnEnter(EntityPayrollRun, StatusPaid, func(_ context.Context, _ Tx, rec Record, actorID string) error {
		fired++
		if rec.ID != "r1" || actorID != "actor" {
			t.Fatalf("effect got wrong record/actor: %s/%s", rec.ID, actorID)
		}
		return nil
	})

	res, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", res.Status)
	}
	if fired != 1 {
		t.Fatalf("paid effect should fire once, fired %d times", fired)
	}
}

func TestRejectedEmployeeCannotBeApproved(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "e1", Status: StatusPendingAgency, AgencyID: "a1"}}
	engine := NewEngine(allowAll(), &fakeRunner{}, zerolog.Nop())
	engine.Register(EntityEmployee, adapter)

	res, err := engine.Reject(context.Background(), EntityEmployee, "e1", "actor", "dossier incomplet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", res.Status)
	}
	if adapter.updates[0].reason != "dossier incomplet" {
		t.Fatalf("reason not forwarded: %+v", adapter.updates[0])
	}

	adapter.rec.Status = StatusRejected
	_, err = engine.Approve(context.Background(), EntityEmployee, "e1", "actor")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// statefulAdapter applies updates to its record the way the production
// adapters do: rejections store the reason, forward transitions clear it,
// reverts leave it untouched.
type statefulAdapter struct {
	rec Record
}

func (f *statefulAdapter) Load(context.Context, string) (Record, error) {
	return f.rec, nil
}

func (f *statefulAdapter) UpdateStatus(_ context.Context, _ Tx, rec Record, to, _ string, action Action, reason string) (bool, error) {
	if f.rec.Status != rec.Status {
		return false, nil
	}
	f.rec.Status = to
	switch action {
	case ActionReject:
		f.rec.RejectionReason = reason
	case ActionApprove:
		f.rec.RejectionReason = ""
	}
	return true, nil
}

func TestRejectRevertResubmitRoundTrip(t *testing.T) {
	adapter := &statefulAdapter{rec: Record{ID: "r1", Status: StatusDraft, AgencyID: "a1", OwnerUserID: "u1"}}
	runner := &fakeRunner{}
	engine := NewEngine(allowAll(), runner, zerolog.Nop())
	engine.Register(EntityPayrollRun, adapter)

	ctx := context.Background()

	if _, err := engine.Approve(ctx, EntityPayrollRun, "r1", "hr"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if adapter.rec.Status != StatusPendingAgency {
		t.Fatalf("agency-scoped run should enter %s, got %s", StatusPendingAgency, adapter.rec.Status)
	}

	if _, err := engine.Reject(ctx, EntityPayrollRun, "r1", "manager", "missing bonus lines"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if adapter.rec.Status != StatusAgencyRejected || adapter.rec.RejectionReason != "missing bonus lines" {
		t.Fatalf("rejection not recorded: %+v", adapter.rec)
	}

	res, err := engine.Revert(ctx, EntityPayrollRun, "r1", "hr")
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if res.Status != StatusDraft {
		t.Fatalf("revert should land on draft, got %s", res.Status)
	}
	if adapter.rec.RejectionReason != "missing bonus lines" {
		t.Fatal("reason must survive the revert so the corrector can read it")
	}

	if _, err := engine.Approve(ctx, EntityPayrollRun, "r1", "hr"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if adapter.rec.RejectionReason != "" {
		t.Fatal("first forward transition must clear the reason")
	}

	for adapter.rec.Status != StatusPaid {
		if _, err := engine.Approve(ctx, EntityPayrollRun, "r1", "validator"); err != nil {
			t.Fatalf("approve from %s: %v", adapter.rec.Status, err)
		}
	}

	_, err = engine.Approve(ctx, EntityPayrollRun, "r1", "validator")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("paid is terminal, got %v", err)
	}
}

func TestConflictRetrySucceeds(t *testing.T) {
	// First write loses the race; the re-read shows the status moved one
	// stage forward, and the second attempt from there succeeds.
	adapter := &fakeAdapter{
		rec:     Record{ID: "r1", Status: StatusDraft},
		results: []bool{false, true},
		reloads: []string{StatusHRValidated},
	}
	engine, _ := newTestEngine(allowAll(), adapter)

	res, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.From != StatusHRValidated || res.Status != StatusPendingGeneral {
		t.Fatalf("retry should run from the fresh status: %+v", res)
	}
	if len(adapter.updates) != 2 {
		t.Fatalf("expected 2 update attempts, got %d", len(adapter.updates))
	}
}

func TestConflictSameStatusOnReread(t *testing.T) {
	adapter := &fakeAdapter{
		rec:     Record{ID: "r1", Status: StatusDraft},
		results: []bool{false},
		reloads: []string{StatusDraft},
	}
	engine, _ := newTestEngine(allowAll(), adapter)

	_, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestAuthzErrorPropagates(t *testing.T) {
	adapter := &fakeAdapter{rec: Record{ID: "r1", Status: StatusDraft}}
	authErr := fmt.Errorf("permission lookup: connection refused")
	engine, _ := newTestEngine(&fakeAuthz{err: authErr}, adapter)

	_, err := engine.Approve(context.Background(), EntityPayrollRun, "r1", "actor")
	if !errors.Is(err, authErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
