package courts

import (
	"time"

	"github.com/google/uuid"
)

// DayType classifies a calendar date for pricing purposes
type DayType string

const (
	DayTypeWeekday DayType = "WEEKDAY"
	DayTypeWeekend DayType = "WEEKEND"
	DayTypeHoliday DayType = "HOLIDAY"
)

func (d DayType) IsValid() bool {
	switch d {
	case DayTypeWeekday, DayTypeWeekend, DayTypeHoliday:
		return true
	}
	return false
}

// Court is a court complex with shared opening hours and pricing rules
type Court struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	OpeningTime string    `gorm:"type:varchar(5);not null;default:'05:00'" json:"opening_time"`
	ClosingTime string    `gorm:"type:varchar(5);not null;default:'23:00'" json:"closing_time"`
	Status      string    `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	SubCourts    []SubCourt    `json:"sub_courts,omitempty" gorm:"foreignKey:CourtID;constraint:OnDelete:CASCADE;"`
	PricingRules []PricingRule `json:"pricing_rules,omitempty" gorm:"foreignKey:CourtID;constraint:OnDelete:CASCADE;"`
}

// SubCourt is one bookable playing surface inside a court complex
type SubCourt struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourtID   uuid.UUID `gorm:"type:uuid;index;not null" json:"court_id"`
	Name      string    `gorm:"not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Court *Court `json:"court,omitempty" gorm:"foreignKey:CourtID"`
}

// PricingRule prices a time window for one day type. Multiple rules may
// cover the same window; the narrowest matching window wins.
type PricingRule struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourtID      uuid.UUID `gorm:"type:uuid;index;not null" json:"court_id"`
	DayType      DayType   `gorm:"type:varchar(10);not null" json:"day_type"`
	StartTime    string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime      string    `gorm:"type:varchar(5);not null" json:"end_time"`
	PricePerHour float64   `gorm:"not null" json:"price_per_hour"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SubCourtClosure is a blackout window overriding availability regardless
// of pricing rules. FullDay closures ignore the time range.
type SubCourtClosure struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubCourtID uuid.UUID `gorm:"type:uuid;index;not null" json:"sub_court_id"`
	Date       string    `gorm:"type:date;index;not null" json:"date"`
	FullDay    bool      `gorm:"not null;default:false" json:"full_day"`
	StartTime  string    `gorm:"type:varchar(5)" json:"start_time"`
	EndTime    string    `gorm:"type:varchar(5)" json:"end_time"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// Holiday marks a date as holiday-priced; takes precedence over weekends
type Holiday struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Date      string    `gorm:"type:date;uniqueIndex;not null" json:"date"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Court) TableName() string           { return "courts" }
func (SubCourt) TableName() string        { return "sub_courts" }
func (PricingRule) TableName() string     { return "pricing_rules" }
func (SubCourtClosure) TableName() string { return "sub_court_closures" }
func (Holiday) TableName() string         { return "holidays" }

// Slot is one discrete bookable interval in a day availability response
type Slot struct {
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

// BookedInterval is a confirmed booking interval as seen by the calculator
type BookedInterval struct {
	StartTime string
	EndTime   string
}

// DayAvailability is the response for one sub-court and date
type DayAvailability struct {
	SubCourtID string  `json:"sub_court_id"`
	Date       string  `json:"date"`
	DayType    DayType `json:"day_type"`
	Slots      []Slot  `json:"slots"`
}

// Request DTOs

type CreateCourtRequest struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	OpeningTime string `json:"opening_time" binding:"required,clock"`
	ClosingTime string `json:"closing_time" binding:"required,clock"`
}

type CreateSubCourtRequest struct {
	Name string `json:"name" binding:"required"`
}

type CreatePricingRuleRequest struct {
	DayType      DayType `json:"day_type" binding:"required"`
	StartTime    string  `json:"start_time" binding:"required,clock"`
	EndTime      string  `json:"end_time" binding:"required,clock"`
	PricePerHour float64 `json:"price_per_hour" binding:"required,gt=0"`
}

type CreateClosureRequest struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	FullDay   bool   `json:"full_day"`
	StartTime string `json:"start_time" binding:"omitempty,clock"`
	EndTime   string `json:"end_time" binding:"omitempty,clock"`
	Reason    string `json:"reason"`
}

type CreateHolidayRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
	Name string `json:"name"`
}
