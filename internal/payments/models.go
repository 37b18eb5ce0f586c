package payments

import (
	"time"

	"github.com/google/uuid"
)

// Type distinguishes what a payment settles
type Type string

const (
	TypeBooking   Type = "BOOKING"
	TypeMatchJoin Type = "MATCH_JOIN"
)

// IsValid checks if the payment type is valid
func (t Type) IsValid() bool {
	return t == TypeBooking || t == TypeMatchJoin
}

// Payment is one settlement attempt against the wallet gateway. Exactly one
// of BookingID and MatchPlayerID is set, matching the payment type.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Type          Type       `gorm:"type:varchar(20);not null" json:"type"`
	BookingID     *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	MatchPlayerID *uuid.UUID `gorm:"type:uuid;index" json:"match_player_id,omitempty"`

	// AppTransID is the merchant-side transaction id sent to the gateway.
	// It is the idempotency key for the whole attempt: create, callback and
	// query all reference it.
	AppTransID string `gorm:"type:varchar(64);uniqueIndex;not null" json:"app_trans_id"`

	// ZpTransID is the gateway-side id, known only after a successful
	// callback or query
	ZpTransID *int64 `gorm:"index" json:"zp_trans_id,omitempty"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Status   Status `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	OrderURL string `gorm:"type:text" json:"order_url,omitempty"`

	// CallbackData is the raw verified callback payload, kept for audit
	CallbackData string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Payment
func (Payment) TableName() string {
	return "payments"
}

// CreatePaymentInput is what the reservation and match-join flows hand to
// the payment service
type CreatePaymentInput struct {
	Type          Type
	BookingID     *uuid.UUID
	MatchPlayerID *uuid.UUID
	Amount        int64
	Description   string
}

// StatusResponse is returned from the payment status endpoint
type StatusResponse struct {
	PaymentID  string `json:"payment_id"`
	AppTransID string `json:"app_trans_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	OrderURL   string `json:"order_url,omitempty"`
}

// TransitionEvent is pushed to realtime subscribers and the event stream
// whenever a payment reaches a new state
type TransitionEvent struct {
	PaymentID  string    `json:"payment_id"`
	AppTransID string    `json:"app_trans_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
