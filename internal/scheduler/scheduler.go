package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	"github.com/smallbiznis/scriba/internal/clock"
	"github.com/smallbiznis/scriba/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobMonthlyBilling      = "monthly_billing"
	JobSubscriptionRenewal = "subscription_renewal"
)

var ErrInvalidConfig = errors.New("scheduler requires billing service, clock and logger")

type Params struct {
	fx.In

	Log        *zap.Logger
	BillingSvc billingdomain.Service
	Clock      clock.Clock
	Metrics    *metrics.Metrics
	Config     Config `optional:"true"`
}

// Scheduler drives the billing batch jobs. Both jobs target the previous
// calendar month and delegate idempotency to the billing service.
type Scheduler struct {
	log        *zap.Logger
	cfg        Config
	billingSvc billingdomain.Service
	clock      clock.Clock
	metrics    *metrics.Metrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.BillingSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:        p.Config.withDefaults(),
		billingSvc: p.BillingSvc,
		clock:      p.Clock,
		metrics:    p.Metrics,
	}, nil
}

// previousMonth returns the last fully elapsed calendar month.
func (s *Scheduler) previousMonth() (int, int) {
	prev := s.clock.Now().UTC().AddDate(0, -1, 0)
	firstOfPrev := time.Date(prev.Year(), prev.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfPrev.Year(), int(firstOfPrev.Month())
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	err := fn(ctx)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			outcome = "timeout"
		}
	}
	s.metrics.RecordSchedulerRun(name, outcome, elapsed)

	if err == nil {
		return nil
	}
	if outcome == "timeout" {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes the enabled jobs for the previous month in order:
// billing first, then renewal, which requires the billed period.
func (s *Scheduler) RunOnce(parent context.Context) error {
	year, month := s.previousMonth()
	var err error

	if s.cfg.isJobEnabled(JobMonthlyBilling) {
		err = errors.Join(err, s.runJob(parent, JobMonthlyBilling, func(ctx context.Context) error {
			report, jobErr := s.billingSvc.GenerateMonthlyBilling(ctx, year, month)
			if report != nil {
				s.log.Info("monthly billing job finished",
					zap.Int("year", year),
					zap.Int("month", month),
					zap.Int("created", report.Created),
					zap.Int("skipped", report.Skipped),
					zap.Int("failed", report.Failed),
				)
			}
			return jobErr
		}))
	}

	if s.cfg.isJobEnabled(JobSubscriptionRenewal) {
		err = errors.Join(err, s.runJob(parent, JobSubscriptionRenewal, func(ctx context.Context) error {
			report, jobErr := s.billingSvc.RenewSubscriptions(ctx, year, month)
			if errors.Is(jobErr, billingdomain.ErrPeriodNotBilled) {
				s.log.Warn("renewal deferred, period not billed yet",
					zap.Int("year", year),
					zap.Int("month", month),
				)
				return nil
			}
			if report != nil {
				s.log.Info("subscription renewal job finished",
					zap.Int("year", year),
					zap.Int("month", month),
					zap.Int("created", report.Created),
					zap.Int("skipped", report.Skipped),
					zap.Int("failed", report.Failed),
				)
			}
			return jobErr
		}))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
