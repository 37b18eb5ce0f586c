package payments

import (
	"context"
	"time"

	"courtside/internal/shared/config"
	"courtside/pkg/logger"
)

// Scheduler runs the periodic payment expiry sweep. Each tick it asks the
// service to expire stale pending payments; a failed tick is logged and the
// next tick retries from scratch.
type Scheduler struct {
	service Service
	cfg     config.SchedulerConfig
	log     *logger.Logger
	done    chan struct{}
}

// NewScheduler creates the payment expiry scheduler
func NewScheduler(service Service, cfg config.SchedulerConfig, log *logger.Logger) *Scheduler {
	return &Scheduler{
		service: service,
		cfg:     cfg,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; the loop runs until
// Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
	s.log.Info("payment expiry scheduler started",
		"interval", s.cfg.SweepInterval.String(),
		"payment_ttl", s.cfg.PaymentTTL.String())
}

// Stop stops the sweep loop
func (s *Scheduler) Stop() {
	close(s.done)
	s.log.Info("payment expiry scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	scanned, expired, skipped, err := s.service.ExpireStale(ctx, s.cfg.PaymentTTL, s.cfg.BatchSize)
	if err != nil {
		s.log.ErrorWithContext(ctx, "payment expiry sweep failed", err, nil)
		return
	}
	if scanned > 0 {
		s.log.LogExpirySweep(ctx, scanned, expired, skipped)
	}
}
