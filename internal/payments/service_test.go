package payments

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"courtside/internal/shared/utils/apperror"
	"courtside/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository with the same CAS semantics as
// the database implementation
type fakeRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*Payment
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{payments: make(map[uuid.UUID]*Payment)}
}

func (f *fakeRepository) Create(ctx context.Context, payment *Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	clone := *payment
	f.payments[payment.ID] = &clone
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payment
	return &clone, nil
}

func (f *fakeRepository) GetByAppTransID(ctx context.Context, appTransID string) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.AppTransID == appTransID {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) FindLatestPendingForBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *Payment
	for _, payment := range f.payments {
		if payment.Status != StatusPending || payment.BookingID == nil || *payment.BookingID != bookingID {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *latest
	return &clone, nil
}

func (f *fakeRepository) FindLatestPendingForMatchPlayer(ctx context.Context, matchPlayerID uuid.UUID) (*Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *Payment
	for _, payment := range f.payments {
		if payment.Status != StatusPending || payment.MatchPlayerID == nil || *payment.MatchPlayerID != matchPlayerID {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = payment
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *latest
	return &clone, nil
}

func (f *fakeRepository) ExistsSuccess(ctx context.Context, bookingID, matchPlayerID *uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, payment := range f.payments {
		if payment.Status != StatusSuccess {
			continue
		}
		if bookingID != nil && payment.BookingID != nil && *payment.BookingID == *bookingID {
			return true, nil
		}
		if matchPlayerID != nil && payment.MatchPlayerID != nil && *payment.MatchPlayerID == *matchPlayerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepository) MarkOrderURL(ctx context.Context, id uuid.UUID, orderURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment, ok := f.payments[id]; ok {
		payment.OrderURL = orderURL
	}
	return nil
}

func (f *fakeRepository) MarkStatusFrom(ctx context.Context, id uuid.UUID, from, to Status, update StatusUpdate) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment, ok := f.payments[id]
	if !ok || payment.Status != from {
		return false, nil
	}
	payment.Status = to
	if update.ZpTransID != nil {
		payment.ZpTransID = update.ZpTransID
	}
	if update.CallbackData != "" {
		payment.CallbackData = update.CallbackData
	}
	return true, nil
}

func (f *fakeRepository) FindStalePending(ctx context.Context, paymentType Type, cutoff time.Time, limit int) ([]Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stale []Payment
	for _, payment := range f.payments {
		if payment.Type == paymentType && payment.Status == StatusPending && payment.CreatedAt.Before(cutoff) {
			stale = append(stale, *payment)
		}
		if len(stale) == limit {
			break
		}
	}
	return stale, nil
}

// fakeGateway is a programmable Gateway
type fakeGateway struct {
	createResult *CreateOrderResult
	createErr    error
	createCalls  int

	queryFn    func(appTransID string) (*QueryResult, error)
	queryCalls int

	verifyResult *CallbackResult
	verifyErr    error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, appTransID string, amount int64, description string, embed map[string]string) (*CreateOrderResult, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeGateway) QueryOrder(ctx context.Context, appTransID string) (*QueryResult, error) {
	f.queryCalls++
	if f.queryFn != nil {
		return f.queryFn(appTransID)
	}
	return &QueryResult{Outcome: OutcomeProcessing}, nil
}

func (f *fakeGateway) VerifyCallback(body []byte) (*CallbackResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyResult != nil {
		return f.verifyResult, nil
	}
	var result CallbackResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "malformed callback body", err)
	}
	result.RawData = string(body)
	return &result, nil
}

// recordingHook records settlement callbacks
type recordingHook struct {
	succeeded []uuid.UUID
	failed    []uuid.UUID
}

func (h *recordingHook) OnPaymentSucceeded(ctx context.Context, payment *Payment) error {
	h.succeeded = append(h.succeeded, payment.ID)
	return nil
}

func (h *recordingHook) OnPaymentFailed(ctx context.Context, payment *Payment) error {
	h.failed = append(h.failed, payment.ID)
	return nil
}

func newTestService(repo Repository, gateway Gateway) (Service, *recordingHook) {
	log := logger.GetDefault()
	svc := NewService(repo, gateway, NewNotifier(log), log)
	hook := &recordingHook{}
	svc.SetBookingSettlement(hook)
	svc.SetMatchSettlement(hook)
	return svc, hook
}

func pendingInput() CreatePaymentInput {
	bookingID := uuid.New()
	return CreatePaymentInput{
		Type:        TypeBooking,
		BookingID:   &bookingID,
		Amount:      160000,
		Description: "Court booking",
	}
}

func TestCreatePayment_Validation(t *testing.T) {
	svc, _ := newTestService(newFakeRepository(), &fakeGateway{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreatePaymentInput
	}{
		{"invalid type", CreatePaymentInput{Type: "REFUND", Amount: 100}},
		{"non-positive amount", CreatePaymentInput{Type: TypeBooking, Amount: 0}},
		{"booking payment without booking id", CreatePaymentInput{Type: TypeBooking, Amount: 100}},
		{"match payment without player id", CreatePaymentInput{Type: TypeMatchJoin, Amount: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePayment(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}

func TestCreatePayment_OpensPendingOrder(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, _ := newTestService(repo, gateway)

	payment, err := svc.CreatePayment(context.Background(), pendingInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, payment.Status)
	assert.Equal(t, "https://pay.example/abc", payment.OrderURL)
	assert.NotEmpty(t, payment.AppTransID)
	assert.Equal(t, 1, gateway.createCalls)

	stored, err := repo.GetByID(context.Background(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", stored.OrderURL)
}

func TestCreatePayment_ReusesOpenAttempt(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, _ := newTestService(repo, gateway)
	ctx := context.Background()

	input := pendingInput()
	first, err := svc.CreatePayment(ctx, input)
	require.NoError(t, err)

	second, err := svc.CreatePayment(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "a retry must reuse the open attempt")
	assert.Equal(t, 1, gateway.createCalls, "no second gateway order for the same slot")
}

func TestCreatePayment_ConflictAfterSuccess(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo, &fakeGateway{})
	ctx := context.Background()

	input := pendingInput()
	settled := &Payment{
		Type:       TypeBooking,
		BookingID:  input.BookingID,
		AppTransID: "260907_settled00001",
		Amount:     input.Amount,
		Status:     StatusSuccess,
	}
	require.NoError(t, repo.Create(ctx, settled))

	_, err := svc.CreatePayment(ctx, input)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestCreatePayment_GatewayRejectionClosesAttempt(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createErr: apperror.UpstreamRejected("gateway rejected order")}
	svc, hook := newTestService(repo, gateway)
	ctx := context.Background()

	input := pendingInput()
	_, err := svc.CreatePayment(ctx, input)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamRejected))

	// The attempt must be closed so a retry opens a fresh order
	open, err := svc.FindOpenBookingPayment(ctx, *input.BookingID)
	require.NoError(t, err)
	assert.Nil(t, open)
	assert.Len(t, hook.failed, 1)
}

func TestCreatePayment_TransientErrorLeavesAttemptPending(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createErr: apperror.UpstreamTransient("gateway request failed", nil)}
	svc, _ := newTestService(repo, gateway)
	ctx := context.Background()

	input := pendingInput()
	_, err := svc.CreatePayment(ctx, input)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamTransient))

	// Unknown upstream state: the attempt stays pending for the sweep
	open, err := svc.FindOpenBookingPayment(ctx, *input.BookingID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, StatusPending, open.Status)
}

func TestApplyCallback_SettlesSuccess(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, hook := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	gateway.verifyResult = &CallbackResult{
		AppTransID: payment.AppTransID,
		ZpTransID:  987654,
		Amount:     payment.Amount,
		RawData:    `{"app_trans_id":"` + payment.AppTransID + `"}`,
	}

	require.NoError(t, svc.ApplyCallback(ctx, []byte("{}")))

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, stored.Status)
	require.NotNil(t, stored.ZpTransID)
	assert.Equal(t, int64(987654), *stored.ZpTransID)
	assert.NotEmpty(t, stored.CallbackData)
	assert.Equal(t, []uuid.UUID{payment.ID}, hook.succeeded)
}

func TestApplyCallback_ReplayIsNoOp(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, hook := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	gateway.verifyResult = &CallbackResult{
		AppTransID: payment.AppTransID,
		ZpTransID:  987654,
		Amount:     payment.Amount,
	}

	require.NoError(t, svc.ApplyCallback(ctx, []byte("{}")))
	require.NoError(t, svc.ApplyCallback(ctx, []byte("{}")), "replay must be accepted")

	assert.Len(t, hook.succeeded, 1, "the settlement hook runs exactly once")
}

func TestApplyCallback_AmountMismatchRejected(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, hook := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	gateway.verifyResult = &CallbackResult{
		AppTransID: payment.AppTransID,
		Amount:     payment.Amount + 1,
	}

	err = svc.ApplyCallback(ctx, []byte("{}"))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUpstreamRejected))
	assert.Empty(t, hook.succeeded)
}

func TestApplyCallback_UnknownPayment(t *testing.T) {
	svc, _ := newTestService(newFakeRepository(), &fakeGateway{
		verifyResult: &CallbackResult{AppTransID: "260907_unknown00000", Amount: 100},
	})

	err := svc.ApplyCallback(context.Background(), []byte("{}"))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestCancelPayment(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, hook := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	require.NoError(t, svc.CancelPayment(ctx, payment.ID))
	assert.Equal(t, []uuid.UUID{payment.ID}, hook.failed)

	stored, err := repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)

	// Already settled: no second cancellation
	err = svc.CancelPayment(ctx, payment.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestCallbackAfterCancelConflicts(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, _ := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)
	require.NoError(t, svc.CancelPayment(ctx, payment.ID))

	gateway.verifyResult = &CallbackResult{
		AppTransID: payment.AppTransID,
		Amount:     payment.Amount,
	}

	// Success arriving on a payment already failed is a cross-terminal
	// conflict, never silently applied
	err = svc.ApplyCallback(ctx, []byte("{}"))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestGetStatus_ReconcilesPending(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, hook := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	zpTransID := int64(987654)
	gateway.queryFn = func(appTransID string) (*QueryResult, error) {
		return &QueryResult{Outcome: OutcomeSuccess, ZpTransID: &zpTransID, Amount: payment.Amount}, nil
	}

	status, err := svc.GetStatus(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess.String(), status.Status)
	assert.Len(t, hook.succeeded, 1)
}

func TestGetStatus_TransientQueryLeavesPending(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, _ := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	gateway.queryFn = func(appTransID string) (*QueryResult, error) {
		return nil, apperror.UpstreamTransient("gateway request failed", nil)
	}

	status, err := svc.GetStatus(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending.String(), status.Status)
}

func TestExpireStale(t *testing.T) {
	newStale := func(repo *fakeRepository, appTransID string) *Payment {
		bookingID := uuid.New()
		payment := &Payment{
			Type:       TypeBooking,
			BookingID:  &bookingID,
			AppTransID: appTransID,
			Amount:     160000,
			Status:     StatusPending,
			CreatedAt:  time.Now().Add(-time.Hour),
		}
		require.NoError(t, repo.Create(context.Background(), payment))
		return payment
	}

	t.Run("still processing is left pending", func(t *testing.T) {
		repo := newFakeRepository()
		gateway := &fakeGateway{queryFn: func(string) (*QueryResult, error) {
			return &QueryResult{Outcome: OutcomeProcessing}, nil
		}}
		svc, hook := newTestService(repo, gateway)

		payment := newStale(repo, "260907_stale0000001")
		scanned, expired, skipped, err := svc.ExpireStale(context.Background(), 10*time.Minute, 100)

		require.NoError(t, err)
		assert.Equal(t, 1, scanned)
		assert.Equal(t, 0, expired)
		assert.Equal(t, 1, skipped)

		stored, err := repo.GetByID(context.Background(), payment.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, stored.Status, "a payment the gateway still reports as processing must never be expired")
		assert.Empty(t, hook.failed)
	})

	t.Run("late success beats expiry", func(t *testing.T) {
		repo := newFakeRepository()
		zpTransID := int64(987654)
		gateway := &fakeGateway{queryFn: func(string) (*QueryResult, error) {
			return &QueryResult{Outcome: OutcomeSuccess, ZpTransID: &zpTransID}, nil
		}}
		svc, hook := newTestService(repo, gateway)

		payment := newStale(repo, "260907_stale0000002")
		scanned, expired, _, err := svc.ExpireStale(context.Background(), 10*time.Minute, 100)

		require.NoError(t, err)
		assert.Equal(t, 1, scanned)
		assert.Equal(t, 0, expired)

		stored, err := repo.GetByID(context.Background(), payment.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, stored.Status)
		assert.Len(t, hook.succeeded, 1)
	})

	t.Run("gateway failure settles as expired", func(t *testing.T) {
		repo := newFakeRepository()
		gateway := &fakeGateway{queryFn: func(string) (*QueryResult, error) {
			return &QueryResult{Outcome: OutcomeFailed}, nil
		}}
		svc, hook := newTestService(repo, gateway)

		payment := newStale(repo, "260907_stale0000003")
		_, expired, _, err := svc.ExpireStale(context.Background(), 10*time.Minute, 100)

		require.NoError(t, err)
		assert.Equal(t, 1, expired)

		stored, err := repo.GetByID(context.Background(), payment.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusExpired, stored.Status)
		assert.Len(t, hook.failed, 1)
	})

	t.Run("query error skips, never expires blind", func(t *testing.T) {
		repo := newFakeRepository()
		gateway := &fakeGateway{queryFn: func(string) (*QueryResult, error) {
			return nil, apperror.UpstreamTransient("gateway request failed", nil)
		}}
		svc, _ := newTestService(repo, gateway)

		payment := newStale(repo, "260907_stale0000004")
		scanned, expired, skipped, err := svc.ExpireStale(context.Background(), 10*time.Minute, 100)

		require.NoError(t, err)
		assert.Equal(t, 1, scanned)
		assert.Equal(t, 0, expired)
		assert.Equal(t, 1, skipped)

		stored, err := repo.GetByID(context.Background(), payment.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, stored.Status)
	})

	t.Run("booking and match payments sweep in separate batches", func(t *testing.T) {
		repo := newFakeRepository()
		gateway := &fakeGateway{queryFn: func(string) (*QueryResult, error) {
			return &QueryResult{Outcome: OutcomeFailed}, nil
		}}
		svc, hook := newTestService(repo, gateway)

		booking := newStale(repo, "260907_stale0000005")
		matchPlayerID := uuid.New()
		match := &Payment{
			Type:          TypeMatchJoin,
			MatchPlayerID: &matchPlayerID,
			AppTransID:    "260907_stale0000006",
			Amount:        60000,
			Status:        StatusPending,
			CreatedAt:     time.Now().Add(-time.Hour),
		}
		require.NoError(t, repo.Create(context.Background(), match))

		// The batch size bounds each type's batch, not the whole sweep
		scanned, expired, _, err := svc.ExpireStale(context.Background(), 10*time.Minute, 1)

		require.NoError(t, err)
		assert.Equal(t, 2, scanned)
		assert.Equal(t, 2, expired)
		assert.ElementsMatch(t, []uuid.UUID{booking.ID, match.ID}, hook.failed)

		for _, id := range []uuid.UUID{booking.ID, match.ID} {
			stored, err := repo.GetByID(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, StatusExpired, stored.Status)
		}
	})

	t.Run("fresh pending payments are untouched", func(t *testing.T) {
		repo := newFakeRepository()
		svc, _ := newTestService(repo, &fakeGateway{})

		bookingID := uuid.New()
		require.NoError(t, repo.Create(context.Background(), &Payment{
			Type:       TypeBooking,
			BookingID:  &bookingID,
			AppTransID: "260907_fresh000001",
			Amount:     160000,
			Status:     StatusPending,
		}))

		scanned, _, _, err := svc.ExpireStale(context.Background(), 10*time.Minute, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, scanned)
	})
}

func TestSettle_PublishesTransitionEvent(t *testing.T) {
	repo := newFakeRepository()
	gateway := &fakeGateway{createResult: &CreateOrderResult{OrderURL: "https://pay.example/abc"}}
	svc, _ := newTestService(repo, gateway)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, pendingInput())
	require.NoError(t, err)

	ch := svc.Notifier().Subscribe(payment.ID.String())
	defer svc.Notifier().Unsubscribe(payment.ID.String(), ch)

	require.NoError(t, svc.CancelPayment(ctx, payment.ID))

	select {
	case event := <-ch:
		assert.Equal(t, StatusFailed.String(), event.Status)
		assert.Equal(t, payment.AppTransID, event.AppTransID)
	case <-time.After(time.Second):
		t.Fatal("expected transition event was not published")
	}
}
