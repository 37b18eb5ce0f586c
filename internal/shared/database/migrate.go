package database

import (
	"courtside/internal/bookings"
	"courtside/internal/courts"
	"courtside/internal/matches"
	"courtside/internal/payments"
	"courtside/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&courts.Court{},
		&courts.SubCourt{},
		&courts.PricingRule{},
		&courts.SubCourtClosure{},
		&courts.Holiday{},
		&bookings.Booking{},
		&matches.Match{},
		&matches.MatchPlayer{},
		&payments.Payment{},
	)
}
