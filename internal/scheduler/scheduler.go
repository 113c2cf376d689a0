package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/config"
)

const jobTimeout = 2 * time.Minute

// Reporter produces the scheduled outputs.
type Reporter interface {
	SendLowStockAlert(ctx context.Context) error
	WriteValuationSnapshot(ctx context.Context) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	cfg      config.Config
	logger   *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(cfg config.Config, reporter Reporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reporter: reporter,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Register adds the jobs whose integrations are configured and returns how many were added.
func (s *Scheduler) Register() (int, error) {
	registered := 0

	if s.cfg.WhatsApp.Enabled() {
		if _, err := s.cron.AddFunc(s.cfg.Jobs.LowStockSchedule, s.sendLowStockAlert); err != nil {
			return registered, fmt.Errorf("schedule low stock alert %q: %w", s.cfg.Jobs.LowStockSchedule, err)
		}
		registered++
	} else {
		s.logger.Info("whatsapp not configured, low stock alerts disabled")
	}

	if s.cfg.Sheets.Enabled() {
		if _, err := s.cron.AddFunc(s.cfg.Jobs.ValuationSchedule, s.writeValuationSnapshot); err != nil {
			return registered, fmt.Errorf("schedule valuation snapshot %q: %w", s.cfg.Jobs.ValuationSchedule, err)
		}
		registered++
	} else {
		s.logger.Info("sheets not configured, valuation snapshots disabled")
	}

	return registered, nil
}

// Start starts the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendLowStockAlert() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reporter.SendLowStockAlert(ctx); err != nil {
		s.logger.Error("low stock alert failed", zap.Error(err))
	}
}

func (s *Scheduler) writeValuationSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.reporter.WriteValuationSnapshot(ctx); err != nil {
		s.logger.Error("valuation snapshot failed", zap.Error(err))
	}
}
