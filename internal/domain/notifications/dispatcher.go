package notifications

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/workflow"
)

// Directory resolves fan-out targets. Implemented by the auth store.
type Directory interface {
	UserIDsWithPermission(ctx context.Context, permission string) ([]string, error)
	UserIDsForAgency(ctx context.Context, agencyID string) ([]string, error)
}

// Dispatcher turns workflow events into notifications for the stakeholders
// of the next stage, or for the originator on rejection. It runs outside the
// transition's transaction; a failed delivery never rolls a transition back.
type Dispatcher struct {
	svc       *Service
	directory Directory
	log       zerolog.Logger
}

func NewDispatcher(svc *Service, directory Directory, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{svc: svc, directory: directory, log: log}
}

// Subscribe wires the dispatcher onto the engine.
func (d *Dispatcher) Subscribe(engine *workflow.Engine) {
	engine.Subscribe(d.Handle)
}

type message struct {
	severity string
	title    string
	body     string
}

func (d *Dispatcher) Handle(ctx context.Context, evt workflow.Event) {
	msg := buildMessage(evt)
	link := deepLink(evt)

	targets := d.resolveTargets(ctx, evt)
	if len(targets) == 0 {
		return
	}

	seen := make(map[string]bool, len(targets))
	for _, userID := range targets {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		if err := d.svc.Create(ctx, userID, msg.severity, msg.title, msg.body, link); err != nil {
			d.log.Warn().Err(err).
				Str("entity", string(evt.EntityType)).
				Str("id", evt.EntityID).
				Str("user", userID).
				Msg("notification dispatch failed")
		}
	}
}

func (d *Dispatcher) resolveTargets(ctx context.Context, evt workflow.Event) []string {
	if evt.Action == workflow.ActionReject {
		return []string{evt.OwnerID}
	}

	var out []string
	appendPerm := func(perm string) {
		ids, err := d.directory.UserIDsWithPermission(ctx, perm)
		if err != nil {
			d.log.Warn().Err(err).Str("permission", perm).Msg("notification target lookup failed")
			return
		}
		out = append(out, ids...)
	}
	appendAgency := func() {
		if evt.AgencyID == "" {
			return
		}
		ids, err := d.directory.UserIDsForAgency(ctx, evt.AgencyID)
		if err != nil {
			d.log.Warn().Err(err).Str("agency", evt.AgencyID).Msg("notification target lookup failed")
			return
		}
		out = append(out, ids...)
	}

	switch evt.Status {
	case workflow.StatusPendingAgency:
		appendAgency()
	case workflow.StatusHRValidated:
		appendPerm(auth.PermHRValidate)
	case workflow.StatusPendingGeneral:
		if evt.EntityType == workflow.EntityEmployee {
			appendPerm(auth.PermDirectionApprove)
		} else {
			appendPerm(auth.PermFinanceValidate)
		}
	case workflow.StatusFinanceValidated:
		appendPerm(auth.PermDirectionApprove)
	case workflow.StatusDirectionApproved:
		// Direction approved: finance pays next, the owning agency is informed.
		appendPerm(auth.PermFinancePay)
		appendAgency()
	case workflow.StatusPaid, workflow.StatusApproved, workflow.StatusActive:
		out = append(out, evt.OwnerID)
		appendAgency()
	case workflow.StatusPending:
		appendPerm(auth.PermAgencyManage)
	case workflow.StatusSent:
		appendPerm(auth.PermFinanceValidate)
	case workflow.StatusDraft:
		out = append(out, evt.OwnerID)
	}
	return out
}

func buildMessage(evt workflow.Event) message {
	label := evt.Label
	if label == "" {
		label = fmt.Sprintf("%s %s", evt.EntityType, evt.EntityID)
	}

	switch {
	case evt.Action == workflow.ActionReject:
		return message{
			severity: SeverityWarning,
			title:    fmt.Sprintf("%s rejected", label),
			body:     fmt.Sprintf("Rejected at %s stage: %s", evt.Stage, evt.Reason),
		}
	case evt.Action == workflow.ActionRevert:
		return message{
			severity: SeverityInfo,
			title:    fmt.Sprintf("%s reopened", label),
			body:     "Returned to draft for correction.",
		}
	case evt.Status == workflow.StatusPaid:
		return message{
			severity: SeveritySuccess,
			title:    fmt.Sprintf("%s paid", label),
			body:     fmt.Sprintf("Payment of %s recorded.", evt.Amount.StringFixed(2)),
		}
	case evt.Status == workflow.StatusApproved || evt.Status == workflow.StatusActive:
		return message{
			severity: SeveritySuccess,
			title:    fmt.Sprintf("%s approved", label),
			body:     fmt.Sprintf("Validated at %s stage.", evt.Stage),
		}
	default:
		return message{
			severity: SeverityInfo,
			title:    fmt.Sprintf("%s awaiting validation", label),
			body:     fmt.Sprintf("Moved to %s, pending the %s stage.", evt.Status, nextStageLabel(evt.Status)),
		}
	}
}

func nextStageLabel(status string) string {
	switch status {
	case workflow.StatusPendingAgency, workflow.StatusPending:
		return workflow.StageAgency
	case workflow.StatusHRValidated:
		return workflow.StageHR
	case workflow.StatusPendingGeneral:
		return workflow.StageGeneral
	case workflow.StatusFinanceValidated:
		return workflow.StageDirection
	case workflow.StatusDirectionApproved, workflow.StatusSent:
		return workflow.StageFinance
	default:
		return status
	}
}

func deepLink(evt workflow.Event) string {
	switch evt.EntityType {
	case workflow.EntityPayrollRun:
		return "/payroll/runs/" + evt.EntityID
	case workflow.EntityTransaction:
		return "/finance/transactions/" + evt.EntityID
	case workflow.EntityInvoice:
		return "/finance/invoices/" + evt.EntityID
	case workflow.EntityEmployee:
		return "/employees/" + evt.EntityID
	default:
		return "/"
	}
}
