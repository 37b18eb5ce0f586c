package courts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	// Catalog
	CreateCourt(ctx context.Context, court *Court) error
	GetCourtByID(ctx context.Context, id uuid.UUID) (*Court, error)
	ListCourts(ctx context.Context) ([]Court, error)
	CreateSubCourt(ctx context.Context, subCourt *SubCourt) error
	GetSubCourtWithCourt(ctx context.Context, id uuid.UUID) (*SubCourt, error)

	// Pricing and schedule inputs
	CreatePricingRule(ctx context.Context, rule *PricingRule) error
	ListPricingRules(ctx context.Context, courtID uuid.UUID) ([]PricingRule, error)
	CreateClosure(ctx context.Context, closure *SubCourtClosure) error
	ListClosures(ctx context.Context, subCourtID uuid.UUID, date string) ([]SubCourtClosure, error)
	CreateHoliday(ctx context.Context, holiday *Holiday) error
	IsHoliday(ctx context.Context, date string) (bool, error)

	// Confirmed booking intervals for the availability calculator. Reads the
	// bookings table directly to keep the calculator input in one place.
	ListConfirmedIntervals(ctx context.Context, subCourtID uuid.UUID, date string) ([]BookedInterval, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCourt(ctx context.Context, court *Court) error {
	return r.db.WithContext(ctx).Create(court).Error
}

func (r *repository) GetCourtByID(ctx context.Context, id uuid.UUID) (*Court, error) {
	var court Court
	err := r.db.WithContext(ctx).
		Preload("SubCourts").
		Preload("PricingRules").
		Where("id = ?", id).
		First(&court).Error
	if err != nil {
		return nil, err
	}
	return &court, nil
}

func (r *repository) ListCourts(ctx context.Context) ([]Court, error) {
	var courts []Court
	err := r.db.WithContext(ctx).
		Preload("SubCourts").
		Where("status = ?", "ACTIVE").
		Order("name").
		Find(&courts).Error
	return courts, err
}

func (r *repository) CreateSubCourt(ctx context.Context, subCourt *SubCourt) error {
	return r.db.WithContext(ctx).Create(subCourt).Error
}

func (r *repository) GetSubCourtWithCourt(ctx context.Context, id uuid.UUID) (*SubCourt, error) {
	var subCourt SubCourt
	err := r.db.WithContext(ctx).
		Preload("Court").
		Where("id = ?", id).
		First(&subCourt).Error
	if err != nil {
		return nil, err
	}
	return &subCourt, nil
}

func (r *repository) CreatePricingRule(ctx context.Context, rule *PricingRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) ListPricingRules(ctx context.Context, courtID uuid.UUID) ([]PricingRule, error) {
	var rules []PricingRule
	err := r.db.WithContext(ctx).
		Where("court_id = ?", courtID).
		Order("start_time").
		Find(&rules).Error
	return rules, err
}

func (r *repository) CreateClosure(ctx context.Context, closure *SubCourtClosure) error {
	return r.db.WithContext(ctx).Create(closure).Error
}

func (r *repository) ListClosures(ctx context.Context, subCourtID uuid.UUID, date string) ([]SubCourtClosure, error) {
	var closures []SubCourtClosure
	err := r.db.WithContext(ctx).
		Where("sub_court_id = ? AND date = ?", subCourtID, date).
		Find(&closures).Error
	return closures, err
}

func (r *repository) CreateHoliday(ctx context.Context, holiday *Holiday) error {
	return r.db.WithContext(ctx).Create(holiday).Error
}

func (r *repository) IsHoliday(ctx context.Context, date string) (bool, error) {
	var holiday Holiday
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&holiday).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) ListConfirmedIntervals(ctx context.Context, subCourtID uuid.UUID, date string) ([]BookedInterval, error) {
	var intervals []BookedInterval
	err := r.db.WithContext(ctx).
		Table("bookings").
		Select("start_time, end_time").
		Where("sub_court_id = ? AND date = ? AND status = ?", subCourtID, date, "CONFIRMED").
		Scan(&intervals).Error
	return intervals, err
}
