package types

import (
	"time"

	"gorm.io/gorm"
)

// Instrument types.
const (
	TypeRiseFall     = "RISE_FALL"
	TypeHigherLower  = "HIGHER_LOWER"
	TypeTouchNoTouch = "TOUCH_NO_TOUCH"
	TypeCallPut      = "CALL_PUT"
	TypeTurbo        = "TURBO"
)

// Contract sides, per instrument type.
const (
	SideRise    = "RISE"
	SideFall    = "FALL"
	SideHigher  = "HIGHER"
	SideLower   = "LOWER"
	SideTouch   = "TOUCH"
	SideNoTouch = "NO_TOUCH"
	SideCall    = "CALL"
	SidePut     = "PUT"
	SideUp      = "UP"
	SideDown    = "DOWN"
)

// Order statuses. PENDING is the only non-terminal status; an order is
// written to a terminal status at most once.
const (
	StatusPending  = "PENDING"
	StatusWin      = "WIN"
	StatusLoss     = "LOSS"
	StatusDraw     = "DRAW"
	StatusCanceled = "CANCELED"
)

// TURBO duration types.
const (
	DurationTime  = "TIME"
	DurationTicks = "TICKS"
)

// Funding transaction statuses.
const (
	TxPending   = "PENDING"
	TxCompleted = "COMPLETED"
)

// Order is a binary-option contract. Barrier is set for HIGHER_LOWER,
// TOUCH_NO_TOUCH and TURBO; StrikePrice and PayoutPerPoint for CALL_PUT and
// TURBO; DurationType for TURBO only.
type Order struct {
	gorm.Model     `json:"-"`
	OrderID        string    `gorm:"uniqueIndex" json:"order_id"`
	ClientID       string    `json:"client_id"`
	Symbol         string    `json:"symbol"`
	Type           string    `json:"type"`
	Side           string    `json:"side"`
	Amount         float64   `json:"amount"`
	Price          float64   `json:"price"`
	Barrier        float64   `json:"barrier,omitempty"`
	StrikePrice    float64   `json:"strike_price,omitempty"`
	PayoutPerPoint float64   `json:"payout_per_point,omitempty"`
	DurationType   string    `json:"duration_type,omitempty"`
	Profit         float64   `json:"profit"`
	ClosePrice     float64   `json:"close_price"`
	Status         string    `json:"status"`
	IsDemo         bool      `json:"is_demo"`
	ClosedAt       time.Time `json:"closed_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Terminal reports whether the order has reached an absorbing status.
func (o *Order) Terminal() bool {
	return o.Status != StatusPending
}

// NeedsWindowScan reports whether settlement must inspect the candle window
// between creation and expiry rather than a single closing price.
func (o *Order) NeedsWindowScan() bool {
	return o.Type == TypeTouchNoTouch || o.Type == TypeTurbo
}

// Transaction is the funding record for a real-money order, created with the
// stake debit and completed at settlement. ReferenceID links to the order.
type Transaction struct {
	gorm.Model    `json:"-"`
	TransactionID string    `gorm:"uniqueIndex" json:"transaction_id"`
	ReferenceID   string    `gorm:"index" json:"reference_id"`
	ClientID      string    `json:"client_id"`
	Type          string    `json:"type"` // STAKE
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"` // PENDING, COMPLETED
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Wallet holds a client's balance. All mutations happen inside the same
// database transaction as the order/funding update they accompany.
type Wallet struct {
	gorm.Model `json:"-"`
	WalletID   string    `gorm:"uniqueIndex" json:"wallet_id"`
	ClientID   string    `gorm:"uniqueIndex" json:"client_id"`
	Balance    float64   `json:"balance"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Notification is an in-app message about a terminal order.
type Notification struct {
	gorm.Model     `json:"-"`
	NotificationID string    `gorm:"uniqueIndex" json:"notification_id"`
	ClientID       string    `gorm:"index" json:"client_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
