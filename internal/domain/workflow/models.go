package workflow

import "github.com/shopspring/decimal"

type EntityType string

const (
	EntityPayrollRun  EntityType = "payroll_run"
	EntityTransaction EntityType = "transaction"
	EntityInvoice     EntityType = "invoice"
	EntityEmployee    EntityType = "employee"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionRevert  Action = "revert"
)

const (
	StageHR        = "hr"
	StageAgency    = "agency"
	StageGeneral   = "general"
	StageFinance   = "finance"
	StageDirection = "direction"
)

// Record is the workflow-facing view of an entity. Adapters load it from
// their own tables; the engine never touches entity-specific columns.
type Record struct {
	ID              string
	Status          string
	AgencyID        string // empty for head-office scoped records
	OwnerUserID     string
	Amount          decimal.Decimal
	Label           string
	RejectionReason string
}

func (r Record) AgencyScoped() bool {
	return r.AgencyID != ""
}

type Result struct {
	EntityType EntityType `json:"entityType"`
	ID         string     `json:"id"`
	From       string     `json:"from"`
	Status     string     `json:"status"`
	Stage      string     `json:"stage"`
}
