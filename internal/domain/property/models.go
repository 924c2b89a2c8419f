package property

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LotStatusAvailable = "available"
	LotStatusReserved  = "reserved"
	LotStatusSold      = "sold"
	LotStatusBlocked   = "blocked"
)

var LotStatuses = []string{LotStatusAvailable, LotStatusReserved, LotStatusSold, LotStatusBlocked}

type Lot struct {
	ID        string          `json:"id"`
	Reference string          `json:"reference"`
	Location  string          `json:"location,omitempty"`
	Area      decimal.Decimal `json:"area"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	AgencyID  string          `json:"agencyId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
