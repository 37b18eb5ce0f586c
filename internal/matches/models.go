package matches

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the lifecycle of an organized match
type MatchStatus string

const (
	MatchOpen      MatchStatus = "OPEN"
	MatchFull      MatchStatus = "FULL"
	MatchCancelled MatchStatus = "CANCELLED"
)

// PlayerStatus is the lifecycle of one player's seat in a match
type PlayerStatus string

const (
	PlayerPending   PlayerStatus = "PENDING"
	PlayerConfirmed PlayerStatus = "CONFIRMED"
	PlayerCancelled PlayerStatus = "CANCELLED"
)

// Match is an organized game other players can buy into. A pending player
// holds a seat until their payment settles or expires; expiry frees the seat
// again, unlike bookings where the slot itself was never held.
type Match struct {
	ID             uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizerID    uuid.UUID   `gorm:"type:uuid;index;not null" json:"organizer_id"`
	SubCourtID     uuid.UUID   `gorm:"type:uuid;index;not null" json:"sub_court_id"`
	Title          string      `gorm:"type:varchar(255);not null" json:"title"`
	Description    string      `gorm:"type:text" json:"description,omitempty"`
	Date           string      `gorm:"type:date;index;not null" json:"date"`
	StartTime      string      `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime        string      `gorm:"type:varchar(5);not null" json:"end_time"`
	PricePerPlayer int64       `gorm:"not null" json:"price_per_player"`
	MaxPlayers     int         `gorm:"not null" json:"max_players"`
	Status         MatchStatus `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`

	Players []MatchPlayer `gorm:"foreignKey:MatchID" json:"players,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Match
func (Match) TableName() string {
	return "matches"
}

// MatchPlayer is one seat in a match
type MatchPlayer struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MatchID    uuid.UUID    `gorm:"type:uuid;index;not null" json:"match_id"`
	UserID     *uuid.UUID   `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GuestName  string       `json:"guest_name,omitempty"`
	GuestPhone string       `json:"guest_phone,omitempty"`
	Status     PlayerStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for MatchPlayer
func (MatchPlayer) TableName() string {
	return "match_players"
}

// IsGuest reports whether the seat was taken without an account
func (p *MatchPlayer) IsGuest() bool {
	return p.UserID == nil
}

// CreateMatchRequest is the match creation request body
type CreateMatchRequest struct {
	SubCourtID     string `json:"sub_court_id" binding:"required,uuid"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	Date           string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime      string `json:"start_time" binding:"required,clock"`
	EndTime        string `json:"end_time" binding:"required,clock"`
	PricePerPlayer int64  `json:"price_per_player" binding:"required,gt=0"`
	MaxPlayers     int    `json:"max_players" binding:"required,gt=1"`
}

// JoinMatchRequest is the join request body
type JoinMatchRequest struct {
	GuestName  string `json:"guest_name"`
	GuestPhone string `json:"guest_phone"`
}

// JoinResponse is returned from a successful join: the pending seat plus the
// payable order from the gateway
type JoinResponse struct {
	MatchPlayerID string `json:"match_player_id"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	PaymentID     string `json:"payment_id"`
	AppTransID    string `json:"app_trans_id"`
	OrderURL      string `json:"order_url"`
}
