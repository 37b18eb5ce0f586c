package courts

import (
	"context"
	"errors"
	"time"

	"courtside/internal/shared/constants"
	"courtside/internal/shared/utils/apperror"
	"courtside/pkg/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service interface defines the contract for court catalog and availability
type Service interface {
	// Catalog
	CreateCourt(ctx context.Context, req CreateCourtRequest) (*Court, error)
	GetCourt(ctx context.Context, id uuid.UUID) (*Court, error)
	ListCourts(ctx context.Context) ([]Court, error)
	CreateSubCourt(ctx context.Context, courtID uuid.UUID, req CreateSubCourtRequest) (*SubCourt, error)
	CreatePricingRule(ctx context.Context, courtID uuid.UUID, req CreatePricingRuleRequest) (*PricingRule, error)
	CreateClosure(ctx context.Context, subCourtID uuid.UUID, req CreateClosureRequest) (*SubCourtClosure, error)
	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (*Holiday, error)

	// Availability
	GetDayAvailability(ctx context.Context, subCourtID uuid.UUID, date string) (*DayAvailability, error)

	// QuoteSlot prices one requested interval; used by the reservation flow
	QuoteSlot(ctx context.Context, subCourtID uuid.UUID, date, startTime, endTime string) (float64, error)

	// InvalidateAvailability drops the cached day availability after a
	// booking transition changes it
	InvalidateAvailability(ctx context.Context, subCourtID uuid.UUID, date string)
}

type service struct {
	repo     Repository
	cache    cache.Service
	cacheTTL time.Duration
}

// NewService creates a court catalog/availability service. The cache is
// optional; a nil cache disables availability caching.
func NewService(repo Repository, cacheService cache.Service, cacheTTL time.Duration) Service {
	return &service{
		repo:     repo,
		cache:    cacheService,
		cacheTTL: cacheTTL,
	}
}

func (s *service) CreateCourt(ctx context.Context, req CreateCourtRequest) (*Court, error) {
	if _, err := ParseClock(req.OpeningTime); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid opening time", err)
	}
	if _, err := ParseClock(req.ClosingTime); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid closing time", err)
	}

	court := &Court{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
		Status:      "ACTIVE",
	}
	if err := s.repo.CreateCourt(ctx, court); err != nil {
		return nil, apperror.Internal("failed to create court", err)
	}
	return court, nil
}

func (s *service) GetCourt(ctx context.Context, id uuid.UUID) (*Court, error) {
	court, err := s.repo.GetCourtByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("court not found")
		}
		return nil, apperror.Internal("failed to load court", err)
	}
	return court, nil
}

func (s *service) ListCourts(ctx context.Context) ([]Court, error) {
	courts, err := s.repo.ListCourts(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list courts", err)
	}
	return courts, nil
}

func (s *service) CreateSubCourt(ctx context.Context, courtID uuid.UUID, req CreateSubCourtRequest) (*SubCourt, error) {
	if _, err := s.GetCourt(ctx, courtID); err != nil {
		return nil, err
	}

	subCourt := &SubCourt{
		CourtID: courtID,
		Name:    req.Name,
		Status:  "ACTIVE",
	}
	if err := s.repo.CreateSubCourt(ctx, subCourt); err != nil {
		return nil, apperror.Internal("failed to create sub-court", err)
	}
	return subCourt, nil
}

func (s *service) CreatePricingRule(ctx context.Context, courtID uuid.UUID, req CreatePricingRuleRequest) (*PricingRule, error) {
	if !req.DayType.IsValid() {
		return nil, apperror.Validation("invalid day type")
	}
	start, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid start time", err)
	}
	end, err := ParseClock(req.EndTime)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid end time", err)
	}
	if end <= start {
		return nil, apperror.Validation("end time must be after start time")
	}
	if _, err := s.GetCourt(ctx, courtID); err != nil {
		return nil, err
	}

	rule := &PricingRule{
		CourtID:      courtID,
		DayType:      req.DayType,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		PricePerHour: req.PricePerHour,
	}
	if err := s.repo.CreatePricingRule(ctx, rule); err != nil {
		return nil, apperror.Internal("failed to create pricing rule", err)
	}
	return rule, nil
}

func (s *service) CreateClosure(ctx context.Context, subCourtID uuid.UUID, req CreateClosureRequest) (*SubCourtClosure, error) {
	if !req.FullDay {
		if req.StartTime == "" || req.EndTime == "" {
			return nil, apperror.Validation("partial closure requires start and end time")
		}
	}

	if _, err := s.repo.GetSubCourtWithCourt(ctx, subCourtID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sub-court not found")
		}
		return nil, apperror.Internal("failed to load sub-court", err)
	}

	closure := &SubCourtClosure{
		SubCourtID: subCourtID,
		Date:       req.Date,
		FullDay:    req.FullDay,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Reason:     req.Reason,
	}
	if err := s.repo.CreateClosure(ctx, closure); err != nil {
		return nil, apperror.Internal("failed to create closure", err)
	}

	s.InvalidateAvailability(ctx, subCourtID, req.Date)
	return closure, nil
}

func (s *service) CreateHoliday(ctx context.Context, req CreateHolidayRequest) (*Holiday, error) {
	holiday := &Holiday{
		Date: req.Date,
		Name: req.Name,
	}
	if err := s.repo.CreateHoliday(ctx, holiday); err != nil {
		return nil, apperror.Internal("failed to create holiday", err)
	}
	return holiday, nil
}

func (s *service) GetDayAvailability(ctx context.Context, subCourtID uuid.UUID, date string) (*DayAvailability, error) {
	if s.cache == nil {
		return s.computeDayAvailability(ctx, subCourtID, date)
	}

	var availability DayAvailability
	key := availabilityCacheKey(subCourtID, date)
	err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func() (interface{}, error) {
		return s.computeDayAvailability(ctx, subCourtID, date)
	}, &availability)
	if err != nil {
		return nil, err
	}
	return &availability, nil
}

func (s *service) computeDayAvailability(ctx context.Context, subCourtID uuid.UUID, date string) (*DayAvailability, error) {
	input, err := s.buildCalculatorInput(ctx, subCourtID, date)
	if err != nil {
		return nil, err
	}

	slots, err := ComputeDaySlots(*input)
	if err != nil {
		return nil, err
	}

	return &DayAvailability{
		SubCourtID: subCourtID.String(),
		Date:       date,
		DayType:    ResolveDayType(input.Date, input.IsHoliday),
		Slots:      slots,
	}, nil
}

func (s *service) QuoteSlot(ctx context.Context, subCourtID uuid.UUID, date, startTime, endTime string) (float64, error) {
	input, err := s.buildCalculatorInput(ctx, subCourtID, date)
	if err != nil {
		return 0, err
	}
	return QuoteInterval(*input, startTime, endTime)
}

func (s *service) InvalidateAvailability(ctx context.Context, subCourtID uuid.UUID, date string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, availabilityCacheKey(subCourtID, date))
}

// buildCalculatorInput gathers everything the pure calculator needs for one
// sub-court and date
func (s *service) buildCalculatorInput(ctx context.Context, subCourtID uuid.UUID, date string) (*CalculatorInput, error) {
	parsedDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid date", err)
	}

	subCourt, err := s.repo.GetSubCourtWithCourt(ctx, subCourtID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("sub-court not found")
		}
		return nil, apperror.Internal("failed to load sub-court", err)
	}
	if subCourt.Court == nil {
		return nil, apperror.Internal("sub-court has no parent court", nil)
	}
	if subCourt.Status != "ACTIVE" {
		return nil, apperror.Conflict("sub-court is not open for booking")
	}

	isHoliday, err := s.repo.IsHoliday(ctx, date)
	if err != nil {
		return nil, apperror.Internal("failed to resolve holiday", err)
	}

	rules, err := s.repo.ListPricingRules(ctx, subCourt.CourtID)
	if err != nil {
		return nil, apperror.Internal("failed to load pricing rules", err)
	}

	closures, err := s.repo.ListClosures(ctx, subCourtID, date)
	if err != nil {
		return nil, apperror.Internal("failed to load closures", err)
	}

	booked, err := s.repo.ListConfirmedIntervals(ctx, subCourtID, date)
	if err != nil {
		return nil, apperror.Internal("failed to load booked intervals", err)
	}

	return &CalculatorInput{
		Date:        parsedDate,
		IsHoliday:   isHoliday,
		OpeningTime: subCourt.Court.OpeningTime,
		ClosingTime: subCourt.Court.ClosingTime,
		SlotMinutes: DefaultSlotMinutes,
		Rules:       rules,
		Closures:    closures,
		Booked:      booked,
	}, nil
}

func availabilityCacheKey(subCourtID uuid.UUID, date string) string {
	return constants.BuildAvailabilityKey(subCourtID.String(), date)
}
