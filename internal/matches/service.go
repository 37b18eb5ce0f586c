package matches

import (
	"context"
	"errors"
	"fmt"

	"courtside/internal/payments"
	"courtside/internal/shared/utils/apperror"
	"courtside/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service interface defines the contract for organized matches
type Service interface {
	CreateMatch(ctx context.Context, organizerID uuid.UUID, req CreateMatchRequest) (*Match, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*Match, error)
	ListOpenMatches(ctx context.Context, date string) ([]Match, error)

	// JoinMatch takes a seat in pending state and opens a gateway order for
	// the player's share. The seat is held until the payment settles or
	// expires.
	JoinMatch(ctx context.Context, matchID uuid.UUID, userID *uuid.UUID, req JoinMatchRequest) (*JoinResponse, error)

	// CancelMatch closes an open match at the organizer's request
	CancelMatch(ctx context.Context, id uuid.UUID, organizerID uuid.UUID) error
}

// SettlementService is the match side of payment settlement. Registered
// with the payment service as its match-join hook.
type SettlementService interface {
	Service
	payments.SettlementHook
}

type service struct {
	repo     Repository
	payments payments.Service
	log      *logger.Logger
}

// NewService creates the match service
func NewService(repo Repository, paymentService payments.Service, log *logger.Logger) SettlementService {
	return &service{
		repo:     repo,
		payments: paymentService,
		log:      log,
	}
}

func (s *service) CreateMatch(ctx context.Context, organizerID uuid.UUID, req CreateMatchRequest) (*Match, error) {
	subCourtID, err := uuid.Parse(req.SubCourtID)
	if err != nil {
		return nil, apperror.Validation("invalid sub-court id")
	}
	if req.EndTime <= req.StartTime {
		return nil, apperror.Validation("end time must be after start time")
	}

	match := &Match{
		OrganizerID:    organizerID,
		SubCourtID:     subCourtID,
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		PricePerPlayer: req.PricePerPlayer,
		MaxPlayers:     req.MaxPlayers,
		Status:         MatchOpen,
	}
	if err := s.repo.Create(ctx, match); err != nil {
		return nil, apperror.Internal("failed to create match", err)
	}
	return match, nil
}

func (s *service) GetMatch(ctx context.Context, id uuid.UUID) (*Match, error) {
	match, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("match not found")
		}
		return nil, apperror.Internal("failed to load match", err)
	}
	return match, nil
}

func (s *service) ListOpenMatches(ctx context.Context, date string) ([]Match, error) {
	matches, err := s.repo.ListOpen(ctx, date)
	if err != nil {
		return nil, apperror.Internal("failed to list matches", err)
	}
	return matches, nil
}

func (s *service) JoinMatch(ctx context.Context, matchID uuid.UUID, userID *uuid.UUID, req JoinMatchRequest) (*JoinResponse, error) {
	if userID == nil && (req.GuestName == "" || req.GuestPhone == "") {
		return nil, apperror.Validation("guest players require a name and phone number")
	}

	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	player := &MatchPlayer{
		MatchID:    matchID,
		UserID:     userID,
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		Status:     PlayerPending,
	}
	if err := s.repo.AddPlayerWithCapacityCheck(ctx, player); err != nil {
		switch {
		case errors.Is(err, ErrMatchFull):
			return nil, apperror.Conflict("match has no free seats")
		case errors.Is(err, ErrMatchClosed):
			return nil, apperror.Conflict("match is not open for joining")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperror.NotFound("match not found")
		}
		return nil, apperror.Internal("failed to join match", err)
	}

	payment, err := s.payments.CreatePayment(ctx, payments.CreatePaymentInput{
		Type:          payments.TypeMatchJoin,
		MatchPlayerID: &player.ID,
		Amount:        match.PricePerPlayer,
		Description:   fmt.Sprintf("Match join: %s on %s", match.Title, match.Date),
	})
	if err != nil {
		// Free the seat; the join can be attempted again
		s.cancelPlayer(ctx, player.ID, player.MatchID)
		return nil, err
	}

	return &JoinResponse{
		MatchPlayerID: player.ID.String(),
		Status:        string(player.Status),
		Amount:        match.PricePerPlayer,
		PaymentID:     payment.ID.String(),
		AppTransID:    payment.AppTransID,
		OrderURL:      payment.OrderURL,
	}, nil
}

func (s *service) CancelMatch(ctx context.Context, id uuid.UUID, organizerID uuid.UUID) error {
	match, err := s.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if match.OrganizerID != organizerID {
		return apperror.NotFound("match not found")
	}
	if match.Status == MatchCancelled {
		return nil
	}

	swapped, err := s.repo.UpdateMatchStatusFrom(ctx, id, match.Status, MatchCancelled)
	if err != nil {
		return apperror.Internal("failed to cancel match", err)
	}
	if !swapped {
		return apperror.Conflict("match state changed, try again")
	}
	return nil
}

// OnPaymentSucceeded confirms the player's seat once their share settles.
// Runs as the payment service's match-join settlement hook.
func (s *service) OnPaymentSucceeded(ctx context.Context, payment *payments.Payment) error {
	if payment.MatchPlayerID == nil {
		return apperror.Validation("match settlement without match player id")
	}

	player, err := s.repo.GetPlayerByID(ctx, *payment.MatchPlayerID)
	if err != nil {
		return apperror.Internal("failed to load match player for settlement", err)
	}

	swapped, err := s.repo.UpdatePlayerStatusFrom(ctx, player.ID, PlayerPending, PlayerConfirmed)
	if err != nil {
		return apperror.Internal("failed to confirm match player", err)
	}
	if !swapped {
		return apperror.Conflict("match player is not pending, cannot confirm")
	}
	return nil
}

// OnPaymentFailed frees the player's held seat when their payment fails or
// expires
func (s *service) OnPaymentFailed(ctx context.Context, payment *payments.Payment) error {
	if payment.MatchPlayerID == nil {
		return apperror.Validation("match settlement without match player id")
	}

	player, err := s.repo.GetPlayerByID(ctx, *payment.MatchPlayerID)
	if err != nil {
		return apperror.Internal("failed to load match player for settlement", err)
	}

	s.cancelPlayer(ctx, player.ID, player.MatchID)
	return nil
}

func (s *service) cancelPlayer(ctx context.Context, playerID, matchID uuid.UUID) {
	swapped, err := s.repo.UpdatePlayerStatusFrom(ctx, playerID, PlayerPending, PlayerCancelled)
	if err != nil {
		s.log.ErrorWithContext(ctx, "failed to cancel match player", err, map[string]interface{}{
			"match_player_id": playerID.String(),
		})
		return
	}
	if !swapped {
		return
	}
	// Seat freed; the match may be joinable again
	if err := s.repo.RefreshMatchStatus(ctx, matchID); err != nil {
		s.log.ErrorWithContext(ctx, "failed to refresh match status", err, map[string]interface{}{
			"match_id": matchID.String(),
		})
	}
}
