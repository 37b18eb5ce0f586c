package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSlotTaken is returned when the transactional overlap re-check finds a
// confirmed booking intersecting the requested interval
var ErrSlotTaken = errors.New("slot overlaps a confirmed booking")

type Repository interface {
	// CreateWithOverlapCheck inserts a pending booking after re-validating,
	// inside the same transaction, that no confirmed booking overlaps the
	// interval. The slot lock only covers the exact interval, so adjacent
	// or partially overlapping requests must be caught here.
	CreateWithOverlapCheck(ctx context.Context, booking *Booking) error

	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// UpdateStatusFrom performs a compare-and-swap on booking status.
	// Returns false when the row was not in the expected state, which the
	// caller must surface as a conflict, not ignore.
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to Status, cancelledAt *time.Time) (bool, error)

	// ClearLock erases the persisted lock reference after release
	ClearLock(ctx context.Context, id uuid.UUID) error

	// UpdateLock stores a fresh lock reference on payment retry
	UpdateLock(ctx context.Context, id uuid.UUID, fingerprint, token string) error

	// HasConfirmedOverlap reports whether a confirmed booking intersects the
	// interval on that sub-court and date
	HasConfirmedOverlap(ctx context.Context, subCourtID uuid.UUID, date, startTime, endTime string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateWithOverlapCheck(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conflicting []Booking
		err := tx.
			Where("sub_court_id = ? AND date = ? AND status = ?", booking.SubCourtID, booking.Date, StatusConfirmed).
			Where("start_time < ? AND end_time > ?", booking.EndTime, booking.StartTime).
			Set("gorm:query_option", "FOR UPDATE").
			Find(&conflicting).Error
		if err != nil {
			return fmt.Errorf("failed to check overlapping bookings: %w", err)
		}
		if len(conflicting) > 0 {
			return ErrSlotTaken
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ?", userID)

	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Order("date DESC, start_time DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func (r *repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to Status, cancelledAt *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ClearLock(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"lock_fingerprint": "",
			"lock_token":       "",
		}).Error
}

func (r *repository) UpdateLock(ctx context.Context, id uuid.UUID, fingerprint, token string) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"lock_fingerprint": fingerprint,
			"lock_token":       token,
		}).Error
}

func (r *repository) HasConfirmedOverlap(ctx context.Context, subCourtID uuid.UUID, date, startTime, endTime string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("sub_court_id = ? AND date = ? AND status = ?", subCourtID, date, StatusConfirmed).
		Where("start_time < ? AND end_time > ?", endTime, startTime).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CalculateTotalPages computes page count for paginated listings
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
