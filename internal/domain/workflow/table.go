package workflow

import "gestimmo/internal/domain/auth"

// Payroll run statuses.
const (
	StatusDraft             = "draft"
	StatusPendingAgency     = "pending_agency"
	StatusHRValidated       = "hr_validated"
	StatusPendingGeneral    = "pending_general"
	StatusFinanceValidated  = "finance_validated"
	StatusDirectionApproved = "direction_approved"
	StatusPaid              = "paid"
	StatusAgencyRejected    = "agency_rejected"
)

// Transaction / expense report statuses.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Invoice statuses. Draft doubles as the reject target so a rejected
// invoice re-enters the chain by being corrected and resubmitted.
const (
	StatusSent = "sent"
)

// Employee onboarding statuses.
const (
	StatusActive     = "active"
	StatusTerminated = "terminated"
)

// Edge is one directed transition. AgencyTo, when set, replaces To for
// agency-scoped records; this is the single branch in the payroll chain.
type Edge struct {
	From       string
	Action     Action
	To         string
	AgencyTo   string
	Stage      string
	Permission string
}

var transitions = map[EntityType][]Edge{
	EntityPayrollRun: {
		{From: StatusDraft, Action: ActionApprove, To: StatusHRValidated, AgencyTo: StatusPendingAgency, Stage: StageHR, Permission: auth.PermPayrollWrite},
		{From: StatusPendingAgency, Action: ActionApprove, To: StatusPendingGeneral, Stage: StageAgency, Permission: auth.PermAgencyManage},
		{From: StatusPendingAgency, Action: ActionReject, To: StatusAgencyRejected, Stage: StageAgency, Permission: auth.PermAgencyManage},
		{From: StatusHRValidated, Action: ActionApprove, To: StatusPendingGeneral, Stage: StageHR, Permission: auth.PermHRValidate},
		{From: StatusHRValidated, Action: ActionReject, To: StatusAgencyRejected, Stage: StageHR, Permission: auth.PermHRValidate},
		{From: StatusPendingGeneral, Action: ActionApprove, To: StatusFinanceValidated, Stage: StageFinance, Permission: auth.PermFinanceValidate},
		{From: StatusPendingGeneral, Action: ActionReject, To: StatusAgencyRejected, Stage: StageFinance, Permission: auth.PermFinanceValidate},
		{From: StatusFinanceValidated, Action: ActionApprove, To: StatusDirectionApproved, Stage: StageDirection, Permission: auth.PermDirectionApprove},
		{From: StatusFinanceValidated, Action: ActionReject, To: StatusAgencyRejected, Stage: StageDirection, Permission: auth.PermDirectionApprove},
		{From: StatusDirectionApproved, Action: ActionApprove, To: StatusPaid, Stage: StageFinance, Permission: auth.PermFinancePay},
		{From: StatusAgencyRejected, Action: ActionRevert, To: StatusDraft, Stage: StageHR, Permission: auth.PermPayrollWrite},
	},
	EntityTransaction: {
		{From: StatusPending, Action: ActionApprove, To: StatusApproved, Stage: StageFinance, Permission: auth.PermFinanceValidate},
		{From: StatusPending, Action: ActionReject, To: StatusRejected, Stage: StageFinance, Permission: auth.PermFinanceValidate},
	},
	EntityInvoice: {
		{From: StatusDraft, Action: ActionApprove, To: StatusPending, Stage: StageAgency, Permission: auth.PermInvoicesWrite},
		{From: StatusPending, Action: ActionApprove, To: StatusSent, Stage: StageAgency, Permission: auth.PermAgencyManage},
		{From: StatusPending, Action: ActionReject, To: StatusDraft, Stage: StageAgency, Permission: auth.PermAgencyManage},
		{From: StatusSent, Action: ActionApprove, To: StatusPaid, Stage: StageFinance, Permission: auth.PermFinanceValidate},
		{From: StatusSent, Action: ActionReject, To: StatusDraft, Stage: StageFinance, Permission: auth.PermFinanceValidate},
	},
	EntityEmployee: {
		{From: StatusPendingAgency, Action: ActionApprove, To: StatusPendingGeneral, Stage: StageAgency, Permission: auth.PermAgencyManage},
		{From: StatusPendingAgency, Action: ActionReject, To: StatusRejected, Stage: StageAgency, Permission: auth.PermAgencyManage},
		{From: StatusPendingGeneral, Action: ActionApprove, To: StatusActive, Stage: StageDirection, Permission: auth.PermDirectionApprove},
		{From: StatusPendingGeneral, Action: ActionReject, To: StatusRejected, Stage: StageDirection, Permission: auth.PermDirectionApprove},
	},
}

var vocabularies = map[EntityType][]string{
	EntityPayrollRun: {
		StatusDraft, StatusPendingAgency, StatusHRValidated, StatusPendingGeneral,
		StatusFinanceValidated, StatusDirectionApproved, StatusPaid, StatusAgencyRejected,
	},
	EntityTransaction: {StatusPending, StatusApproved, StatusRejected, StatusCancelled},
	EntityInvoice:     {StatusDraft, StatusPending, StatusSent, StatusPaid, StatusCancelled},
	EntityEmployee:    {StatusPendingAgency, StatusPendingGeneral, StatusActive, StatusRejected, StatusTerminated},
}

// RejectedStatuses are the states in which a rejection reason must be present.
var RejectedStatuses = map[string]bool{
	StatusAgencyRejected: true,
	StatusRejected:       true,
}

func ValidStatus(entityType EntityType, status string) bool {
	for _, s := range vocabularies[entityType] {
		if s == status {
			return true
		}
	}
	return false
}

func Statuses(entityType EntityType) []string {
	out := make([]string, len(vocabularies[entityType]))
	copy(out, vocabularies[entityType])
	return out
}

// Next resolves the single outgoing edge for (entityType, status, action).
// Returns ErrInvalidTransition when the status has no edge for that action.
func Next(entityType EntityType, status string, action Action, agencyScoped bool) (Edge, error) {
	edges, ok := transitions[entityType]
	if !ok {
		return Edge{}, ErrUnknownEntity
	}
	for _, edge := range edges {
		if edge.From != status || edge.Action != action {
			continue
		}
		if agencyScoped && edge.AgencyTo != "" {
			edge.To = edge.AgencyTo
		}
		return edge, nil
	}
	return Edge{}, ErrInvalidTransition
}
