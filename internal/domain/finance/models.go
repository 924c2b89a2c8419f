package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID              string          `json:"id"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	AgencyID        string          `json:"agencyId,omitempty"`
	RecordedBy      string          `json:"recordedBy"`
	ValidatedBy     string          `json:"validatedBy,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Invoice struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	Total           decimal.Decimal `json:"total"`
	AgencyID        string          `json:"agencyId,omitempty"`
	ClientID        string          `json:"clientId,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedBy       string          `json:"createdBy"`
	ValidatedBy     string          `json:"validatedBy,omitempty"`
	Items           []InvoiceItem   `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type InvoiceItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}
