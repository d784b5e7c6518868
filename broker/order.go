package broker

import "time"

// Side is the order direction.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Status is the terminal state of a submitted order.
type Status string

const (
	Filled   Status = "filled"
	Rejected Status = "rejected"
)

// LotSize is the exchange board lot: share counts must be multiples of it.
const LotSize = 100

// Order is a strategy intent plus its fill outcome. It is created per Submit
// call and appended to the broker's order log whether it fills or not.
type Order struct {
	Code   string
	Side   Side
	Price  float64 // requested price
	Shares int
	Date   time.Time

	Status       Status
	FilledPrice  float64
	Commission   float64
	StampTax     float64
	SlippageCost float64
	TotalCost    float64
	RejectReason string
}

// TradeRecord is the immutable log entry for a filled order. The realized
// P&L fields are only populated for sells.
type TradeRecord struct {
	Code       string
	Side       Side
	Price      float64 // fill price
	Shares     int
	Date       time.Time
	Commission float64
	StampTax   float64
	TotalCost  float64

	PnL        float64
	PnLPct     float64
	HoldDays   int
	StopReason string
}

// Lot is a batch of shares acquired in one fill, tracked separately so the
// T+1 settlement rule and FIFO matching can be enforced per batch.
type Lot struct {
	Shares   int
	BuyPrice float64
	BuyDate  time.Time
}

// SellableOn returns how many of the lot's shares may be sold on a date.
// Shares bought on day D become sellable from D+1.
func (l Lot) SellableOn(date time.Time) int {
	if date.Equal(l.BuyDate) {
		return 0
	}
	return l.Shares
}

// PositionView is the flattened average-price projection of an instrument's
// lot inventory. It is recomputed on demand and never stored.
type PositionView struct {
	Code      string
	Shares    int
	AvgPrice  float64
	EntryDate time.Time // earliest lot acquisition date
	Highest   float64   // highest price observed while held
}
