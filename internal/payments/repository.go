package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByAppTransID(ctx context.Context, appTransID string) (*Payment, error)

	// FindLatestPendingForBooking returns the open payment attempt for a
	// booking, if any. Reservation retries reuse it instead of opening a
	// second gateway order for the same slot.
	FindLatestPendingForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
	FindLatestPendingForMatchPlayer(ctx context.Context, matchPlayerID uuid.UUID) (*Payment, error)

	// ExistsSuccess reports whether the target already has a settled
	// successful payment. Exactly one of the ids is set.
	ExistsSuccess(ctx context.Context, bookingID, matchPlayerID *uuid.UUID) (bool, error)

	// MarkOrderURL stores the payable order URL once the gateway accepts
	MarkOrderURL(ctx context.Context, id uuid.UUID, orderURL string) error

	// MarkStatusFrom performs a compare-and-swap from the expected status.
	// Returns false when the row already left that status, which means a
	// concurrent callback, query or sweep won the transition.
	MarkStatusFrom(ctx context.Context, id uuid.UUID, from, to Status, update StatusUpdate) (bool, error)

	// FindStalePending lists pending payments of one type older than the
	// cutoff, bounded by limit, oldest first. Booking and match-join
	// payments are swept as separate batches.
	FindStalePending(ctx context.Context, paymentType Type, cutoff time.Time, limit int) ([]Payment, error)
}

// StatusUpdate carries the optional fields written alongside a transition
type StatusUpdate struct {
	ZpTransID    *int64
	CallbackData string
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) GetByAppTransID(ctx context.Context, appTransID string) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).Where("app_trans_id = ?", appTransID).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindLatestPendingForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status = ?", bookingID, StatusPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindLatestPendingForMatchPlayer(ctx context.Context, matchPlayerID uuid.UUID) (*Payment, error) {
	var payment Payment
	err := r.db.WithContext(ctx).
		Where("match_player_id = ? AND status = ?", matchPlayerID, StatusPending).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ExistsSuccess(ctx context.Context, bookingID, matchPlayerID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&Payment{}).Where("status = ?", StatusSuccess)
	switch {
	case bookingID != nil:
		query = query.Where("booking_id = ?", *bookingID)
	case matchPlayerID != nil:
		query = query.Where("match_player_id = ?", *matchPlayerID)
	default:
		return false, nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) MarkOrderURL(ctx context.Context, id uuid.UUID, orderURL string) error {
	return r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ?", id).
		Update("order_url", orderURL).Error
}

func (r *repository) MarkStatusFrom(ctx context.Context, id uuid.UUID, from, to Status, update StatusUpdate) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if update.ZpTransID != nil {
		updates["zp_trans_id"] = *update.ZpTransID
	}
	if update.CallbackData != "" {
		updates["callback_data"] = update.CallbackData
	}

	result := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindStalePending(ctx context.Context, paymentType Type, cutoff time.Time, limit int) ([]Payment, error) {
	var payments []Payment
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND created_at < ?", paymentType, StatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
