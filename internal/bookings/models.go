package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is a reservation of one sub-court slot. A pending booking holds
// the slot only while its lock/payment window is alive; only confirmed
// bookings block availability durably.
type Booking struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubCourtID uuid.UUID  `gorm:"type:uuid;index;not null" json:"sub_court_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GuestName  string     `json:"guest_name,omitempty"`
	GuestPhone string     `json:"guest_phone,omitempty"`
	Date       string     `gorm:"type:date;index;not null" json:"date"`
	StartTime  string     `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime    string     `gorm:"type:varchar(5);not null" json:"end_time"`
	TotalPrice float64    `gorm:"not null" json:"total_price"`
	Status     Status     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Notes      string     `json:"notes,omitempty"`

	// Live slot lock reference for the reservation-to-payment window.
	// Cleared once the lock is released; the lock itself lives only in the
	// lock store and expires there regardless.
	LockFingerprint string `gorm:"type:varchar(64)" json:"-"`
	LockToken       string `gorm:"type:varchar(36)" json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// EffectiveStatus derives the read-time status: a confirmed booking whose
// slot end has passed reads as completed without an eager write.
func (b *Booking) EffectiveStatus(now time.Time) Status {
	if b.Status != StatusConfirmed {
		return b.Status
	}
	end, err := time.ParseInLocation("2006-01-02 15:04", b.Date+" "+b.EndTime, now.Location())
	if err != nil {
		return b.Status
	}
	if !now.Before(end) {
		return StatusCompleted
	}
	return b.Status
}

// IsGuest reports whether the booking was made without an account
func (b *Booking) IsGuest() bool {
	return b.UserID == nil
}

// ReserveSlotRequest is the reservation request body
type ReserveSlotRequest struct {
	SubCourtID string `json:"sub_court_id" binding:"required,uuid"`
	Date       string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime  string `json:"start_time" binding:"required,clock"`
	EndTime    string `json:"end_time" binding:"required,clock"`
	GuestName  string `json:"guest_name"`
	GuestPhone string `json:"guest_phone"`
	Notes      string `json:"notes"`
}

// ReservationResponse is returned from a successful reservation: the
// pending booking plus the payable order from the gateway
type ReservationResponse struct {
	BookingID  string  `json:"booking_id"`
	Status     string  `json:"status"`
	TotalPrice float64 `json:"total_price"`
	PaymentID  string  `json:"payment_id"`
	AppTransID string  `json:"app_trans_id"`
	OrderURL   string  `json:"order_url"`
}

// BookingListQuery filters user booking listings
type BookingListQuery struct {
	Status string `form:"status"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
