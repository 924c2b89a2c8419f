package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Run struct {
	ID              string          `json:"id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	AgencyID        string          `json:"agencyId,omitempty"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	ValidatedBy     string          `json:"validatedBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Item struct {
	ID                 string          `json:"id"`
	RunID              string          `json:"runId"`
	EmployeeID         string          `json:"employeeId"`
	BaseSalary         decimal.Decimal `json:"baseSalary"`
	Bonus              decimal.Decimal `json:"bonus"`
	Tax                decimal.Decimal `json:"tax"`
	SocialContribution decimal.Decimal `json:"socialContribution"`
	Advance            decimal.Decimal `json:"advance"`
	LatenessDeduction  decimal.Decimal `json:"latenessDeduction"`
	OtherDeduction     decimal.Decimal `json:"otherDeduction"`
	NetSalary          decimal.Decimal `json:"netSalary"`
}

type RegisterRow struct {
	EmployeeID string
	FirstName  string
	LastName   string
	Matricule  string
	BaseSalary decimal.Decimal
	Bonus      decimal.Decimal
	Deductions decimal.Decimal
	NetSalary  decimal.Decimal
}
