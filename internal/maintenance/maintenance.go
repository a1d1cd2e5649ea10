package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/garnizeh/jobboard/internal/auth"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// Scheduler runs the periodic housekeeping jobs: sweeping expired login
// nonces and failing payment transactions that never completed. Job failures
// are logged and never abort the schedule.
type Scheduler struct {
	cron         *cron.Cron
	nonces       auth.NonceStore
	transactions repository.TransactionRepo
	pendingTTL   time.Duration
	logger       *slog.Logger
}

func NewScheduler(nonces auth.NonceStore, transactions repository.TransactionRepo, pendingTTL time.Duration, logger *slog.Logger) *Scheduler {
	if pendingTTL <= 0 {
		pendingTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:         cron.New(),
		nonces:       nonces,
		transactions: transactions,
		pendingTTL:   pendingTTL,
		logger:       logger,
	}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("@every 1m", func() { s.sweepNonces(ctx) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@every 10m", func() { s.expirePending(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepNonces(ctx context.Context) {
	if removed := s.nonces.Sweep(ctx); removed > 0 {
		s.logger.Info("swept expired nonces", slog.Int("removed", removed))
	}
}

func (s *Scheduler) expirePending(ctx context.Context) {
	cutoff := time.Now().Add(-s.pendingTTL).UTC().UnixMilli()
	n, err := s.transactions.FailStalePending(ctx, cutoff)
	if err != nil {
		s.logger.Error("expire pending transactions failed", slog.Any("err", err))
		return
	}
	if n > 0 {
		s.logger.Info("expired stale pending transactions", slog.Int64("failed", n))
	}
}
