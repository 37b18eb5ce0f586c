package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrMatchFull is returned when the seat-holding transaction finds no free
// capacity left
var ErrMatchFull = errors.New("match has no free seats")

// ErrMatchClosed is returned when joining a match that is no longer open
var ErrMatchClosed = errors.New("match is not open for joining")

type Repository interface {
	Create(ctx context.Context, match *Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*Match, error)
	GetPlayerByID(ctx context.Context, id uuid.UUID) (*MatchPlayer, error)
	ListOpen(ctx context.Context, date string) ([]Match, error)

	// AddPlayerWithCapacityCheck inserts a pending player inside a
	// transaction that locks the match row and recounts held seats. Pending
	// and confirmed players both hold seats; cancelled ones do not.
	AddPlayerWithCapacityCheck(ctx context.Context, player *MatchPlayer) error

	// UpdatePlayerStatusFrom performs a compare-and-swap on player status
	UpdatePlayerStatusFrom(ctx context.Context, id uuid.UUID, from, to PlayerStatus) (bool, error)

	// RefreshMatchStatus recomputes OPEN/FULL from held seats after a player
	// transition
	RefreshMatchStatus(ctx context.Context, matchID uuid.UUID) error

	UpdateMatchStatusFrom(ctx context.Context, id uuid.UUID, from, to MatchStatus) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, match *Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Match, error) {
	var match Match
	err := r.db.WithContext(ctx).
		Preload("Players", "status <> ?", PlayerCancelled).
		Where("id = ?", id).
		First(&match).Error
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (r *repository) GetPlayerByID(ctx context.Context, id uuid.UUID) (*MatchPlayer, error) {
	var player MatchPlayer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *repository) ListOpen(ctx context.Context, date string) ([]Match, error) {
	var matches []Match
	query := r.db.WithContext(ctx).Where("status = ?", MatchOpen)
	if date != "" {
		query = query.Where("date = ?", date)
	}
	err := query.Order("date ASC, start_time ASC").Find(&matches).Error
	return matches, err
}

func (r *repository) AddPlayerWithCapacityCheck(ctx context.Context, player *MatchPlayer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match Match
		err := tx.
			Select("id, max_players, status").
			Where("id = ?", player.MatchID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&match).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return fmt.Errorf("failed to lock match: %w", err)
		}

		if match.Status != MatchOpen {
			return ErrMatchClosed
		}

		var held int64
		err = tx.Model(&MatchPlayer{}).
			Where("match_id = ? AND status <> ?", player.MatchID, PlayerCancelled).
			Count(&held).Error
		if err != nil {
			return fmt.Errorf("failed to count held seats: %w", err)
		}
		if held >= int64(match.MaxPlayers) {
			return ErrMatchFull
		}

		if err := tx.Create(player).Error; err != nil {
			return fmt.Errorf("failed to add player: %w", err)
		}

		// Last seat just went pending; stop advertising the match as open
		if held+1 >= int64(match.MaxPlayers) {
			if err := tx.Model(&Match{}).
				Where("id = ?", player.MatchID).
				Update("status", MatchFull).Error; err != nil {
				return fmt.Errorf("failed to mark match full: %w", err)
			}
		}
		return nil
	})
}

func (r *repository) UpdatePlayerStatusFrom(ctx context.Context, id uuid.UUID, from, to PlayerStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&MatchPlayer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) RefreshMatchStatus(ctx context.Context, matchID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match Match
		err := tx.
			Select("id, max_players, status").
			Where("id = ?", matchID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&match).Error
		if err != nil {
			return err
		}
		if match.Status == MatchCancelled {
			return nil
		}

		var held int64
		err = tx.Model(&MatchPlayer{}).
			Where("match_id = ? AND status <> ?", matchID, PlayerCancelled).
			Count(&held).Error
		if err != nil {
			return err
		}

		next := MatchOpen
		if held >= int64(match.MaxPlayers) {
			next = MatchFull
		}
		if next == match.Status {
			return nil
		}
		return tx.Model(&Match{}).
			Where("id = ?", matchID).
			Update("status", next).Error
	})
}

func (r *repository) UpdateMatchStatusFrom(ctx context.Context, id uuid.UUID, from, to MatchStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Match{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
