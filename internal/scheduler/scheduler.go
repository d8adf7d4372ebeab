// Package scheduler runs the recurring property jobs on a fixed tick.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"property-ops-backend/config"
	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/notification"
	"property-ops-backend/internal/payment"
)

// Jobs is the work the scheduler triggers.
type Jobs interface {
	RefreshPaymentStatuses(ctx context.Context) ([]payment.RoomStatus, error)
	SendRentReminders(ctx context.Context) (notification.BatchResult, error)
	SendOverdueNotices(ctx context.Context) (notification.BatchResult, error)
	SendMonthlyInvoices(ctx context.Context) (notification.BatchResult, error)
}

// Syncer pulls new bookings from an external intake source.
type Syncer interface {
	Sync(ctx context.Context) (int, error)
}

// Job names, as they appear in the logs.
const (
	JobStatusRefresh = "status_refresh"
	JobRentReminders = "rent_reminders"
	JobOverdueScan   = "overdue_scan"
	JobInvoices      = "monthly_invoices"
	JobIntakeSync    = "intake_sync"
)

type job struct {
	name string
	// period returns the key of the period now falls in, and whether the job
	// is due at all at now.
	period func(now time.Time) (string, bool)
	run    func(ctx context.Context) error
	last   string
}

// Scheduler checks on every tick which jobs are due. Each job runs at most
// once per period; a failed run is logged and not retried until the next one.
type Scheduler struct {
	cfg    config.ScheduleConfig
	loc    *time.Location
	now    func() time.Time
	jobs   []*job
	logger *zap.Logger
}

// New builds a scheduler for the configured cadences. intake may be nil.
func New(cfg config.ScheduleConfig, loc *time.Location, leadDays int, svc Jobs, intake Syncer, logger *zap.Logger) (*Scheduler, error) {
	weekday, err := config.ParseWeekday(cfg.Weekday)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tick <= 0 {
		cfg.Tick = time.Minute
	}
	s := &Scheduler{
		cfg:    cfg,
		loc:    loc,
		now:    time.Now,
		logger: logger.With(zap.String("component", "scheduler")),
	}

	s.jobs = []*job{
		{
			name:   JobStatusRefresh,
			period: s.daily(),
			run: func(ctx context.Context) error {
				statuses, err := svc.RefreshPaymentStatuses(ctx)
				if err == nil {
					s.logger.Info("Status refresh finished",
						zap.Strings("due", payment.Filter(statuses, model.PaymentDue)),
						zap.Strings("overdue", payment.Filter(statuses, model.PaymentOverdue)),
					)
				}
				return err
			},
		},
		{
			name:   JobRentReminders,
			period: s.beforeMonthEnd(leadDays),
			run:    s.batch(JobRentReminders, svc.SendRentReminders),
		},
		{
			name:   JobOverdueScan,
			period: s.weekly(weekday),
			run:    s.batch(JobOverdueScan, svc.SendOverdueNotices),
		},
		{
			name:   JobInvoices,
			period: s.monthly(cfg.InvoiceDay),
			run:    s.batch(JobInvoices, svc.SendMonthlyInvoices),
		},
	}
	if intake != nil {
		s.jobs = append(s.jobs, &job{
			name:   JobIntakeSync,
			period: s.every(cfg.IntakeSyncInterval),
			run: func(ctx context.Context) error {
				n, err := intake.Sync(ctx)
				if n > 0 {
					s.logger.Info("Intake sync imported bookings", zap.Int("created", n))
				}
				return err
			},
		})
	}
	return s, nil
}

func (s *Scheduler) batch(name string, fn func(context.Context) (notification.BatchResult, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		for _, f := range res.Failures {
			s.logger.Warn("Message not delivered",
				zap.String("job", name),
				zap.String("ref", f.Ref),
				zap.String("recipient", f.Recipient),
				zap.String("error", f.Error),
			)
		}
		return nil
	}
}

func (s *Scheduler) daily() func(time.Time) (string, bool) {
	return func(now time.Time) (string, bool) {
		return now.Format(time.DateOnly), now.Hour() >= s.cfg.Hour
	}
}

func (s *Scheduler) weekly(weekday time.Weekday) func(time.Time) (string, bool) {
	return func(now time.Time) (string, bool) {
		return now.Format(time.DateOnly), now.Weekday() == weekday && now.Hour() >= s.cfg.Hour
	}
}

func (s *Scheduler) monthly(day int) func(time.Time) (string, bool) {
	return func(now time.Time) (string, bool) {
		return now.Format("2006-01"), now.Day() == day && now.Hour() >= s.cfg.Hour
	}
}

// beforeMonthEnd is due leadDays calendar days before the first of next month.
func (s *Scheduler) beforeMonthEnd(leadDays int) func(time.Time) (string, bool) {
	return func(now time.Time) (string, bool) {
		next := dates.LastOfMonth(now).AddDate(0, 0, 1)
		return now.Format("2006-01"), dates.DaysBetween(now, next) == leadDays && now.Hour() >= s.cfg.Hour
	}
}

func (s *Scheduler) every(interval time.Duration) func(time.Time) (string, bool) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return func(now time.Time) (string, bool) {
		return now.Truncate(interval).Format(time.RFC3339), true
	}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("Scheduler is disabled. Not starting.")
		return
	}
	s.logger.Info("Starting scheduler", zap.Duration("tick", s.cfg.Tick))

	s.Tick(ctx)

	timer := time.NewTimer(s.cfg.Tick)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler shutting down.")
			return
		case <-timer.C:
			s.Tick(ctx)
			timer.Reset(s.cfg.Tick)
		}
	}
}

// Tick runs every job that is due now and returns the names of those it ran.
func (s *Scheduler) Tick(ctx context.Context) []string {
	now := s.now().In(s.loc)
	var ran []string
	for _, j := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		key, due := j.period(now)
		if !due || key == j.last {
			continue
		}
		j.last = key
		ran = append(ran, j.name)

		start := time.Now()
		if err := j.run(ctx); err != nil {
			s.logger.Error("Scheduled job failed", zap.String("job", j.name), zap.Error(err))
			continue
		}
		s.logger.Debug("Scheduled job finished", zap.String("job", j.name), zap.Duration("took", time.Since(start)))
	}
	return ran
}
