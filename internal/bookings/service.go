package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtside/internal/courts"
	"courtside/internal/locks"
	"courtside/internal/payments"
	"courtside/internal/shared/utils/apperror"
	"courtside/internal/shared/utils/response"
	"courtside/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service interface defines the contract for the reservation flow
type Service interface {
	// ReserveSlot runs the full reservation: slot lock, price quote, pending
	// booking, gateway order. Every failure after the lock is acquired
	// releases it again.
	ReserveSlot(ctx context.Context, userID *uuid.UUID, req ReserveSlotRequest) (*ReservationResponse, error)

	GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, *response.Pagination, error)

	// RetryPayment opens a fresh gateway order for a pending booking whose
	// earlier payment failed or expired
	RetryPayment(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*ReservationResponse, error)

	// CancelBooking cancels a pending or confirmed booking owned by the user
	CancelBooking(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
}

// SettlementService is the booking side of payment settlement. Registered
// with the payment service as its booking hook.
type SettlementService interface {
	Service
	payments.SettlementHook
}

type service struct {
	repo     Repository
	courts   courts.Service
	payments payments.Service
	locks    *locks.Manager
	log      *logger.Logger
}

// NewService creates the booking service
func NewService(repo Repository, courtService courts.Service, paymentService payments.Service, lockManager *locks.Manager, log *logger.Logger) SettlementService {
	return &service{
		repo:     repo,
		courts:   courtService,
		payments: paymentService,
		locks:    lockManager,
		log:      log,
	}
}

func (s *service) ReserveSlot(ctx context.Context, userID *uuid.UUID, req ReserveSlotRequest) (*ReservationResponse, error) {
	subCourtID, err := uuid.Parse(req.SubCourtID)
	if err != nil {
		return nil, apperror.Validation("invalid sub-court id")
	}
	if req.EndTime <= req.StartTime {
		return nil, apperror.Validation("end time must be after start time")
	}
	if userID == nil && (req.GuestName == "" || req.GuestPhone == "") {
		return nil, apperror.Validation("guest bookings require a name and phone number")
	}

	fingerprint := locks.Fingerprint(subCourtID, req.Date, req.StartTime, req.EndTime)
	token, err := s.locks.Acquire(ctx, fingerprint, 0)
	if err != nil {
		return nil, err
	}

	price, err := s.courts.QuoteSlot(ctx, subCourtID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		s.releaseLock(ctx, fingerprint, token)
		return nil, err
	}

	booking := &Booking{
		SubCourtID:      subCourtID,
		UserID:          userID,
		GuestName:       req.GuestName,
		GuestPhone:      req.GuestPhone,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TotalPrice:      price,
		Status:          StatusPending,
		Notes:           req.Notes,
		LockFingerprint: fingerprint,
		LockToken:       token,
	}
	if err := s.repo.CreateWithOverlapCheck(ctx, booking); err != nil {
		s.releaseLock(ctx, fingerprint, token)
		if errors.Is(err, ErrSlotTaken) {
			return nil, apperror.Conflict("slot is already booked")
		}
		return nil, apperror.Internal("failed to create booking", err)
	}

	payment, err := s.payments.CreatePayment(ctx, payments.CreatePaymentInput{
		Type:        payments.TypeBooking,
		BookingID:   &booking.ID,
		Amount:      int64(price),
		Description: fmt.Sprintf("Court booking %s %s-%s", req.Date, req.StartTime, req.EndTime),
	})
	if err != nil {
		// The slot must not stay held behind a reservation that cannot be
		// paid for. The booking stays pending and can be retried.
		s.releaseBookingLock(ctx, booking)
		return nil, err
	}

	s.log.LogSlotReserved(ctx, booking.ID.String(), subCourtID.String(), fingerprint)

	return &ReservationResponse{
		BookingID:  booking.ID.String(),
		Status:     booking.Status.String(),
		TotalPrice: booking.TotalPrice,
		PaymentID:  payment.ID.String(),
		AppTransID: payment.AppTransID,
		OrderURL:   payment.OrderURL,
	}, nil
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("booking not found")
		}
		return nil, apperror.Internal("failed to load booking", err)
	}
	booking.Status = booking.EffectiveStatus(time.Now())
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, *response.Pagination, error) {
	if query.Status != "" && !Status(query.Status).IsValid() {
		return nil, nil, apperror.Validation("invalid booking status filter")
	}

	bookings, totalCount, err := s.repo.GetUserBookings(ctx, userID, query)
	if err != nil {
		return nil, nil, apperror.Internal("failed to list bookings", err)
	}

	now := time.Now()
	for i := range bookings {
		bookings[i].Status = bookings[i].EffectiveStatus(now)
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	pagination := &response.Pagination{
		Page:       query.Page,
		Limit:      query.Limit,
		TotalCount: totalCount,
		TotalPages: CalculateTotalPages(totalCount, query.Limit),
	}
	return bookings, pagination, nil
}

func (s *service) RetryPayment(ctx context.Context, id uuid.UUID, userID *uuid.UUID) (*ReservationResponse, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.UserID != nil && (userID == nil || *booking.UserID != *userID) {
		return nil, apperror.NotFound("booking not found")
	}
	if booking.Status != StatusPending {
		return nil, apperror.Conflict("only pending bookings can be paid")
	}

	// The slot may have been booked by someone else since the earlier
	// attempt released the lock
	taken, err := s.repo.HasConfirmedOverlap(ctx, booking.SubCourtID, booking.Date, booking.StartTime, booking.EndTime)
	if err != nil {
		return nil, apperror.Internal("failed to check slot availability", err)
	}
	if taken {
		return nil, apperror.Conflict("slot is no longer available")
	}

	fingerprint := locks.Fingerprint(booking.SubCourtID, booking.Date, booking.StartTime, booking.EndTime)
	token, err := s.locks.Acquire(ctx, fingerprint, 0)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLock(ctx, booking.ID, fingerprint, token); err != nil {
		s.releaseLock(ctx, fingerprint, token)
		return nil, apperror.Internal("failed to store lock reference", err)
	}
	booking.LockFingerprint = fingerprint
	booking.LockToken = token

	payment, err := s.payments.CreatePayment(ctx, payments.CreatePaymentInput{
		Type:        payments.TypeBooking,
		BookingID:   &booking.ID,
		Amount:      int64(booking.TotalPrice),
		Description: fmt.Sprintf("Court booking %s %s-%s", booking.Date, booking.StartTime, booking.EndTime),
	})
	if err != nil {
		s.releaseBookingLock(ctx, booking)
		return nil, err
	}

	return &ReservationResponse{
		BookingID:  booking.ID.String(),
		Status:     booking.Status.String(),
		TotalPrice: booking.TotalPrice,
		PaymentID:  payment.ID.String(),
		AppTransID: payment.AppTransID,
		OrderURL:   payment.OrderURL,
	}, nil
}

func (s *service) CancelBooking(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.UserID != nil && (userID == nil || *booking.UserID != *userID) {
		return apperror.NotFound("booking not found")
	}
	if !booking.Status.CanBeCancelled() {
		return apperror.Conflict("booking can no longer be cancelled")
	}

	if booking.Status == StatusPending {
		// Abandon any open payment first; its settlement hook releases the
		// slot lock
		if payment, err := s.payments.FindOpenBookingPayment(ctx, booking.ID); err == nil && payment != nil {
			if err := s.payments.CancelPayment(ctx, payment.ID); err != nil && !apperror.IsKind(err, apperror.KindConflict) {
				return err
			}
		}
	}

	now := time.Now()
	swapped, err := s.repo.UpdateStatusFrom(ctx, booking.ID, booking.Status, StatusCancelled, &now)
	if err != nil {
		return apperror.Internal("failed to cancel booking", err)
	}
	if !swapped {
		return apperror.Conflict("booking state changed, try again")
	}

	s.releaseBookingLock(ctx, booking)
	s.courts.InvalidateAvailability(ctx, booking.SubCourtID, booking.Date)
	return nil
}

// OnPaymentSucceeded confirms the booking once its payment settles. Runs as
// the payment service's booking settlement hook.
func (s *service) OnPaymentSucceeded(ctx context.Context, payment *payments.Payment) error {
	if payment.BookingID == nil {
		return apperror.Validation("booking settlement without booking id")
	}

	booking, err := s.repo.GetByID(ctx, *payment.BookingID)
	if err != nil {
		return apperror.Internal("failed to load booking for settlement", err)
	}

	swapped, err := s.repo.UpdateStatusFrom(ctx, booking.ID, StatusPending, StatusConfirmed, nil)
	if err != nil {
		return apperror.Internal("failed to confirm booking", err)
	}
	if !swapped {
		return apperror.Conflict("booking is not pending, cannot confirm")
	}

	s.releaseBookingLock(ctx, booking)
	s.courts.InvalidateAvailability(ctx, booking.SubCourtID, booking.Date)
	s.log.LogBookingConfirmed(ctx, booking.ID.String(), payment.ID.String())
	return nil
}

// OnPaymentFailed frees the slot when a payment fails or expires. The
// booking stays pending: it never blocked availability, and the user may
// retry payment for it later.
func (s *service) OnPaymentFailed(ctx context.Context, payment *payments.Payment) error {
	if payment.BookingID == nil {
		return apperror.Validation("booking settlement without booking id")
	}

	booking, err := s.repo.GetByID(ctx, *payment.BookingID)
	if err != nil {
		return apperror.Internal("failed to load booking for settlement", err)
	}
	if booking.Status != StatusPending {
		return nil
	}

	s.releaseBookingLock(ctx, booking)
	return nil
}

func (s *service) releaseBookingLock(ctx context.Context, booking *Booking) {
	if booking.LockFingerprint == "" || booking.LockToken == "" {
		return
	}
	s.releaseLock(ctx, booking.LockFingerprint, booking.LockToken)
	if err := s.repo.ClearLock(ctx, booking.ID); err != nil {
		s.log.ErrorWithContext(ctx, "failed to clear booking lock reference", err, map[string]interface{}{
			"booking_id": booking.ID.String(),
		})
	}
}

func (s *service) releaseLock(ctx context.Context, fingerprint, token string) {
	if err := s.locks.Release(ctx, fingerprint, token); err != nil {
		// Expiry will free it; log and move on
		s.log.ErrorWithContext(ctx, "failed to release slot lock", err, map[string]interface{}{
			"fingerprint": fingerprint,
		})
	}
}
