package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttemptRecord is one persisted submission attempt. The staking core
// keeps no history of its own; this table is an operator audit trail.
type AttemptRecord struct {
	ID        int64
	Product   string
	Operation string
	Amount    decimal.Decimal
	MicroSTX  *int64
	Term      *int
	Status    string
	TxID      *string
	Error     *string
	CreatedAt time.Time
}
