package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"courtside/internal/courts"
	"courtside/internal/matches"
	"courtside/internal/shared/config"
	"courtside/internal/shared/database"
	"courtside/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Courtside Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Order matters due to foreign key constraints
	// Delete in reverse dependency order
	tables := []string{
		"payments",
		"match_players",
		"matches",
		"bookings",
		"sub_court_closures",
		"pricing_rules",
		"sub_courts",
		"holidays",
		"courts",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Disable foreign key constraints temporarily
	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	// Re-enable foreign key constraints
	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	// Seed users first (no dependencies)
	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	// Seed courts with their sub-courts and pricing rules
	subCourtIDs, err := s.SeedCourts()
	if err != nil {
		return fmt.Errorf("failed to seed courts: %w", err)
	}

	// Seed holidays
	if err := s.SeedHolidays(); err != nil {
		return fmt.Errorf("failed to seed holidays: %w", err)
	}

	// Seed an open match organized by the admin
	if err := s.SeedMatches(userIDs["admin"], subCourtIDs); err != nil {
		return fmt.Errorf("failed to seed matches: %w", err)
	}

	// Clear Redis so no stale availability or slot locks survive the reseed
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		log.Printf("Warning: Failed to clear Redis cache: %v", err)
	}

	return nil
}

// SeedUsers creates 3 users: 1 admin and 2 regular users
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	// Hash password for all users (using "qwerty")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		phone     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@courtside.vn", "0900000001", users.RoleAdmin},
		{"user1", "Minh", "Tran", "minh.tran@example.com", "0900000002", users.RoleUser},
		{"user2", "Lan", "Nguyen", "lan.nguyen@example.com", "0900000003", users.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Phone:     userData.phone,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedCourts creates court complexes, their sub-courts and pricing rules
func (s *Seeder) SeedCourts() ([]uuid.UUID, error) {
	fmt.Println("  🏸 Seeding courts...")

	var subCourtIDs []uuid.UUID

	courtsData := []struct {
		name        string
		address     string
		phone       string
		openingTime string
		closingTime string
		subCourts   []string
		rules       []courts.PricingRule
	}{
		{
			name:        "Thanh Da Badminton Center",
			address:     "12 Binh Quoi, Binh Thanh, Ho Chi Minh City",
			phone:       "02838989898",
			openingTime: "05:00",
			closingTime: "23:00",
			subCourts:   []string{"Court 1", "Court 2", "Court 3"},
			rules: []courts.PricingRule{
				// Base day rates plus a narrower evening peak window that wins
				// over the all-day rule
				{DayType: courts.DayTypeWeekday, StartTime: "05:00", EndTime: "23:00", PricePerHour: 80000},
				{DayType: courts.DayTypeWeekday, StartTime: "17:00", EndTime: "21:00", PricePerHour: 120000},
				{DayType: courts.DayTypeWeekend, StartTime: "05:00", EndTime: "23:00", PricePerHour: 110000},
				{DayType: courts.DayTypeHoliday, StartTime: "05:00", EndTime: "23:00", PricePerHour: 150000},
			},
		},
		{
			name:        "Phu Nhuan Pickleball Club",
			address:     "45 Phan Xich Long, Phu Nhuan, Ho Chi Minh City",
			phone:       "02839393939",
			openingTime: "06:00",
			closingTime: "22:00",
			subCourts:   []string{"Court A", "Court B"},
			rules: []courts.PricingRule{
				{DayType: courts.DayTypeWeekday, StartTime: "06:00", EndTime: "22:00", PricePerHour: 100000},
				{DayType: courts.DayTypeWeekend, StartTime: "06:00", EndTime: "22:00", PricePerHour: 140000},
				{DayType: courts.DayTypeHoliday, StartTime: "06:00", EndTime: "22:00", PricePerHour: 180000},
			},
		},
	}

	for _, courtData := range courtsData {
		court := courts.Court{
			ID:          uuid.New(),
			Name:        courtData.name,
			Address:     courtData.address,
			Phone:       courtData.phone,
			OpeningTime: courtData.openingTime,
			ClosingTime: courtData.closingTime,
			Status:      "ACTIVE",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&court).Error; err != nil {
			return nil, fmt.Errorf("failed to create court %s: %w", court.Name, err)
		}
		fmt.Printf("    ✅ Created court: %s\n", court.Name)

		for _, name := range courtData.subCourts {
			subCourt := courts.SubCourt{
				ID:        uuid.New(),
				CourtID:   court.ID,
				Name:      name,
				Status:    "ACTIVE",
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}

			if err := s.db.PostgreSQL.Create(&subCourt).Error; err != nil {
				return nil, fmt.Errorf("failed to create sub-court %s: %w", name, err)
			}

			subCourtIDs = append(subCourtIDs, subCourt.ID)
			fmt.Printf("      ✅ Created sub-court: %s\n", subCourt.Name)
		}

		for _, ruleData := range courtData.rules {
			rule := courts.PricingRule{
				ID:           uuid.New(),
				CourtID:      court.ID,
				DayType:      ruleData.DayType,
				StartTime:    ruleData.StartTime,
				EndTime:      ruleData.EndTime,
				PricePerHour: ruleData.PricePerHour,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}

			if err := s.db.PostgreSQL.Create(&rule).Error; err != nil {
				return nil, fmt.Errorf("failed to create pricing rule: %w", err)
			}
		}
		fmt.Printf("      ✅ Created %d pricing rules\n", len(courtData.rules))
	}

	return subCourtIDs, nil
}

// SeedHolidays marks upcoming public holidays for holiday pricing
func (s *Seeder) SeedHolidays() error {
	fmt.Println("  📅 Seeding holidays...")

	holidaysData := []struct {
		date string
		name string
	}{
		{"2026-09-02", "National Day"},
		{"2027-01-01", "New Year's Day"},
		{"2026-04-30", "Reunification Day"},
	}

	for _, holidayData := range holidaysData {
		holiday := courts.Holiday{
			ID:        uuid.New(),
			Date:      holidayData.date,
			Name:      holidayData.name,
			CreatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&holiday).Error; err != nil {
			return fmt.Errorf("failed to create holiday %s: %w", holiday.Name, err)
		}
		fmt.Printf("    ✅ Created holiday: %s (%s)\n", holiday.Name, holiday.Date)
	}

	return nil
}

// SeedMatches creates an open match other users can buy into
func (s *Seeder) SeedMatches(organizerID uuid.UUID, subCourtIDs []uuid.UUID) error {
	fmt.Println("  🎾 Seeding matches...")

	if len(subCourtIDs) == 0 {
		return fmt.Errorf("no sub-courts available for match seeding")
	}

	match := matches.Match{
		ID:             uuid.New(),
		OrganizerID:    organizerID,
		SubCourtID:     subCourtIDs[0],
		Title:          "Friendly Doubles Night",
		Description:    "Casual doubles, all levels welcome. Shuttles provided.",
		Date:           time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		StartTime:      "19:00",
		EndTime:        "21:00",
		PricePerPlayer: 60000,
		MaxPlayers:     4,
		Status:         matches.MatchOpen,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.db.PostgreSQL.Create(&match).Error; err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.Title, err)
	}
	fmt.Printf("    ✅ Created match: %s (%d players max)\n", match.Title, match.MaxPlayers)

	return nil
}
