package payments

import (
	"context"
	"errors"
	"time"

	"courtside/internal/shared/utils/apperror"
	"courtside/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettlementHook receives the final outcome of a payment. Bookings and match
// joins each register one; the payment type selects which hook runs.
type SettlementHook interface {
	OnPaymentSucceeded(ctx context.Context, payment *Payment) error
	OnPaymentFailed(ctx context.Context, payment *Payment) error
}

// EventPublisher pushes payment transition events to the event stream.
// Implemented by the notifications package; nil disables publishing.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event TransitionEvent) error
}

// Service interface defines the contract for payment settlement
type Service interface {
	// CreatePayment opens a gateway order for a booking or match join. If an
	// open attempt already exists for the same target it is returned as is,
	// so retries never open a second order for one slot.
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*Payment, error)

	// ApplyCallback verifies and applies a gateway callback. Replays of an
	// already-applied callback are no-ops.
	ApplyCallback(ctx context.Context, body []byte) error

	// GetStatus returns the payment status, reconciling a pending payment
	// against the gateway first
	GetStatus(ctx context.Context, paymentID uuid.UUID) (*StatusResponse, error)

	// CancelPayment abandons a pending payment at the user's request
	CancelPayment(ctx context.Context, paymentID uuid.UUID) error

	// FindOpenBookingPayment returns the pending payment attempt for a
	// booking, or nil when there is none
	FindOpenBookingPayment(ctx context.Context, bookingID uuid.UUID) (*Payment, error)

	// ExpireStale sweeps pending payments older than ttl. Each candidate is
	// queried against the gateway one last time before expiring; a late
	// success settles as success, and one still reported as processing is
	// skipped until a later sweep. Returns scanned, expired and skipped
	// counts.
	ExpireStale(ctx context.Context, ttl time.Duration, batchSize int) (int, int, int, error)

	// Notifier exposes the realtime transition hub for the stream endpoint
	Notifier() *Notifier

	SetBookingSettlement(hook SettlementHook)
	SetMatchSettlement(hook SettlementHook)
	SetEventPublisher(publisher EventPublisher)
}

type service struct {
	repo     Repository
	gateway  Gateway
	notifier *Notifier
	log      *logger.Logger

	bookingHook SettlementHook
	matchHook   SettlementHook
	publisher   EventPublisher
}

// NewService creates a payment settlement service
func NewService(repo Repository, gateway Gateway, notifier *Notifier, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		log:      log,
	}
}

func (s *service) SetBookingSettlement(hook SettlementHook) { s.bookingHook = hook }
func (s *service) SetMatchSettlement(hook SettlementHook)   { s.matchHook = hook }
func (s *service) SetEventPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

func (s *service) Notifier() *Notifier {
	return s.notifier
}

func (s *service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	if !input.Type.IsValid() {
		return nil, apperror.Validation("invalid payment type")
	}
	if input.Amount <= 0 {
		return nil, apperror.Validation("payment amount must be positive")
	}
	switch input.Type {
	case TypeBooking:
		if input.BookingID == nil {
			return nil, apperror.Validation("booking payment requires a booking id")
		}
	case TypeMatchJoin:
		if input.MatchPlayerID == nil {
			return nil, apperror.Validation("match join payment requires a match player id")
		}
	}

	settled, err := s.repo.ExistsSuccess(ctx, input.BookingID, input.MatchPlayerID)
	if err != nil {
		return nil, apperror.Internal("failed to check settled payments", err)
	}
	if settled {
		return nil, apperror.Conflict("target already has a successful payment")
	}

	if existing, err := s.findOpenAttempt(ctx, input); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	payment := &Payment{
		Type:          input.Type,
		BookingID:     input.BookingID,
		MatchPlayerID: input.MatchPlayerID,
		AppTransID:    NewAppTransID(time.Now()),
		Amount:        input.Amount,
		Status:        StatusPending,
	}

	// Persist before calling out so the attempt is reconcilable even if the
	// process dies mid-request
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, apperror.Internal("failed to create payment", err)
	}

	embed := make(map[string]string, 1)
	if payment.BookingID != nil {
		embed["booking_id"] = payment.BookingID.String()
	}
	if payment.MatchPlayerID != nil {
		embed["match_player_id"] = payment.MatchPlayerID.String()
	}

	start := time.Now()
	order, err := s.gateway.CreateOrder(ctx, payment.AppTransID, payment.Amount, input.Description, embed)
	s.log.LogGatewayCall(ctx, "create_order", payment.AppTransID, time.Since(start), err)
	if err != nil {
		if apperror.IsKind(err, apperror.KindUpstreamRejected) {
			// Definite rejection: close the attempt so a retry opens a new one
			_ = s.settle(ctx, payment, StatusFailed, StatusUpdate{})
		}
		return nil, err
	}

	payment.OrderURL = order.OrderURL
	if dbErr := s.repo.MarkOrderURL(ctx, payment.ID, order.OrderURL); dbErr != nil {
		return nil, apperror.Internal("failed to store order url", dbErr)
	}
	return payment, nil
}

func (s *service) findOpenAttempt(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	var existing *Payment
	var err error
	switch input.Type {
	case TypeBooking:
		existing, err = s.repo.FindLatestPendingForBooking(ctx, *input.BookingID)
	case TypeMatchJoin:
		existing, err = s.repo.FindLatestPendingForMatchPlayer(ctx, *input.MatchPlayerID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to look up open payment", err)
	}
	return existing, nil
}

func (s *service) ApplyCallback(ctx context.Context, body []byte) error {
	callback, err := s.gateway.VerifyCallback(body)
	if err != nil {
		return err
	}

	payment, err := s.repo.GetByAppTransID(ctx, callback.AppTransID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("payment not found for callback")
		}
		return apperror.Internal("failed to load payment", err)
	}

	if payment.Amount != callback.Amount {
		return apperror.UpstreamRejected("callback amount does not match payment")
	}

	return s.settle(ctx, payment, StatusSuccess, StatusUpdate{
		ZpTransID:    &callback.ZpTransID,
		CallbackData: callback.RawData,
	})
}

func (s *service) GetStatus(ctx context.Context, paymentID uuid.UUID) (*StatusResponse, error) {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("payment not found")
		}
		return nil, apperror.Internal("failed to load payment", err)
	}

	if payment.Status == StatusPending {
		payment = s.reconcilePending(ctx, payment)
	}

	return &StatusResponse{
		PaymentID:  payment.ID.String(),
		AppTransID: payment.AppTransID,
		Status:     payment.Status.String(),
		Amount:     payment.Amount,
		OrderURL:   payment.OrderURL,
	}, nil
}

// reconcilePending asks the gateway for the authoritative state of a pending
// payment. A transient gateway failure leaves the payment pending; the sweep
// catches up later.
func (s *service) reconcilePending(ctx context.Context, payment *Payment) *Payment {
	start := time.Now()
	result, err := s.gateway.QueryOrder(ctx, payment.AppTransID)
	s.log.LogGatewayCall(ctx, "query_order", payment.AppTransID, time.Since(start), err)
	if err != nil {
		return payment
	}

	switch result.Outcome {
	case OutcomeSuccess:
		update := StatusUpdate{ZpTransID: result.ZpTransID}
		if err := s.settle(ctx, payment, StatusSuccess, update); err == nil {
			payment.Status = StatusSuccess
		}
	case OutcomeFailed:
		if err := s.settle(ctx, payment, StatusFailed, StatusUpdate{}); err == nil {
			payment.Status = StatusFailed
		}
	}
	return payment
}

func (s *service) CancelPayment(ctx context.Context, paymentID uuid.UUID) error {
	payment, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("payment not found")
		}
		return apperror.Internal("failed to load payment", err)
	}
	if payment.Status != StatusPending {
		return apperror.Conflict("only pending payments can be cancelled")
	}
	return s.settle(ctx, payment, StatusFailed, StatusUpdate{})
}

func (s *service) FindOpenBookingPayment(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	payment, err := s.repo.FindLatestPendingForBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperror.Internal("failed to look up open payment", err)
	}
	return payment, nil
}

func (s *service) ExpireStale(ctx context.Context, ttl time.Duration, batchSize int) (int, int, int, error) {
	cutoff := time.Now().Add(-ttl)

	var stale []Payment
	for _, paymentType := range []Type{TypeBooking, TypeMatchJoin} {
		batch, err := s.repo.FindStalePending(ctx, paymentType, cutoff, batchSize)
		if err != nil {
			return 0, 0, 0, apperror.Internal("failed to list stale payments", err)
		}
		stale = append(stale, batch...)
	}

	var expired, skipped int
	for i := range stale {
		payment := &stale[i]

		start := time.Now()
		result, err := s.gateway.QueryOrder(ctx, payment.AppTransID)
		s.log.LogGatewayCall(ctx, "query_order", payment.AppTransID, time.Since(start), err)
		if err != nil {
			// Unknown upstream state, never expire blind. Next sweep retries.
			skipped++
			continue
		}

		switch result.Outcome {
		case OutcomeSuccess:
			// Late success beats expiry
			_ = s.settle(ctx, payment, StatusSuccess, StatusUpdate{ZpTransID: result.ZpTransID})
		case OutcomeFailed:
			if err := s.settle(ctx, payment, StatusExpired, StatusUpdate{}); err == nil {
				expired++
			}
		case OutcomeProcessing:
			// Upstream still owns this payment; a late callback may yet
			// arrive. Leave it pending, the next sweep rechecks.
			skipped++
		}
	}
	return len(stale), expired, skipped, nil
}

// settle drives the single pending-to-terminal transition, then runs the
// settlement hook and fans out the event. The CAS on status serializes
// concurrent callbacks, queries and sweeps; exactly one caller wins.
func (s *service) settle(ctx context.Context, payment *Payment, to Status, update StatusUpdate) error {
	if !payment.Status.CanTransitionTo(to) && payment.Status != StatusPending {
		if payment.Status == to {
			return nil
		}
		return apperror.Conflict("payment already settled as " + payment.Status.String())
	}

	swapped, err := s.repo.MarkStatusFrom(ctx, payment.ID, StatusPending, to, update)
	if err != nil {
		return apperror.Internal("failed to update payment status", err)
	}
	if !swapped {
		current, err := s.repo.GetByID(ctx, payment.ID)
		if err != nil {
			return apperror.Internal("failed to reload payment", err)
		}
		if current.Status == to {
			// Replay of an already-applied transition
			return nil
		}
		return apperror.Conflict("payment already settled as " + current.Status.String())
	}

	s.log.LogPaymentTransition(ctx, payment.ID.String(), payment.AppTransID, payment.Status.String(), to.String())
	payment.Status = to
	if update.ZpTransID != nil {
		payment.ZpTransID = update.ZpTransID
	}

	s.runHook(ctx, payment)
	s.fanOut(ctx, payment)
	return nil
}

// runHook applies the downstream effect of the settlement. A hook failure is
// logged, not returned: the payment transition already committed and a
// gateway retry would be a no-op, so the hook cannot be retried through it.
func (s *service) runHook(ctx context.Context, payment *Payment) {
	var hook SettlementHook
	switch payment.Type {
	case TypeBooking:
		hook = s.bookingHook
	case TypeMatchJoin:
		hook = s.matchHook
	}
	if hook == nil {
		return
	}

	var err error
	if payment.Status == StatusSuccess {
		err = hook.OnPaymentSucceeded(ctx, payment)
	} else {
		err = hook.OnPaymentFailed(ctx, payment)
	}
	if err != nil {
		s.log.ErrorWithContext(ctx, "payment settlement hook failed", err, map[string]interface{}{
			"payment_id": payment.ID.String(),
			"type":       string(payment.Type),
			"status":     payment.Status.String(),
		})
	}
}

func (s *service) fanOut(ctx context.Context, payment *Payment) {
	event := TransitionEvent{
		PaymentID:  payment.ID.String(),
		AppTransID: payment.AppTransID,
		Type:       string(payment.Type),
		Status:     payment.Status.String(),
		Amount:     payment.Amount,
		OccurredAt: time.Now(),
	}

	if s.notifier != nil {
		s.notifier.Publish(event)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
			s.log.ErrorWithContext(ctx, "failed to publish payment event", err, map[string]interface{}{
				"payment_id": payment.ID.String(),
			})
		}
	}
}
