// Package service runs the property workflows: it loads snapshots from the
// store, calls the pure engines, writes results back and emits notifications.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/notification"
	"property-ops-backend/internal/payment"
	"property-ops-backend/internal/pricing"
	"property-ops-backend/internal/store"
)

// Mailer delivers a batch of e-mails.
type Mailer interface {
	SendBatch(ctx context.Context, msgs []notification.Message) notification.BatchResult
}

// Pusher alerts the managers' browsers.
type Pusher interface {
	Notify(ctx context.Context, kind notification.Kind, title, body string) notification.BatchResult
}

// Options configures a Service.
type Options struct {
	Property         string
	Currency         string
	ManagerEmail     string
	ReminderLeadDays int
	Location         *time.Location
	Now              func() time.Time
}

// Service is the application layer behind the HTTP API and the scheduler.
type Service struct {
	store    store.Store
	mailer   Mailer
	pusher   Pusher
	payments *payment.Engine
	pricing  *pricing.Engine
	opts     Options
	logger   *zap.Logger
}

// New creates a Service. mailer and pusher may be nil, in which case no
// messages are sent.
func New(s store.Store, mailer Mailer, pusher Pusher, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReminderLeadDays <= 0 {
		opts.ReminderLeadDays = 3
	}
	svc := &Service{
		store:  s,
		mailer: mailer,
		pusher: pusher,
		opts:   opts,
		logger: logger.With(zap.String("component", "service")),
	}
	svc.payments = payment.NewEngine(svc.now)
	svc.pricing = pricing.NewEngine(svc.now)
	return svc
}

// now is the service clock in the property's time zone.
func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// Now returns the current time in the property's time zone.
func (s *Service) Now() time.Time { return s.now() }

// Location is the property's time zone.
func (s *Service) Location() *time.Location { return s.opts.Location }

func (s *Service) letterhead() notification.Letterhead {
	return notification.Letterhead{Property: s.opts.Property, Currency: s.opts.Currency}
}

func (s *Service) send(ctx context.Context, msgs []notification.Message) notification.BatchResult {
	if s.mailer == nil || len(msgs) == 0 {
		return notification.BatchResult{}
	}
	return s.mailer.SendBatch(ctx, msgs)
}

func (s *Service) push(ctx context.Context, kind notification.Kind, title, body string) {
	if s.pusher == nil {
		return
	}
	res := s.pusher.Notify(ctx, kind, title, body)
	if len(res.Failures) > 0 {
		s.logger.Warn("Some push notifications failed", zap.Int("failed", len(res.Failures)))
	}
}

// Rooms returns every room.
func (s *Service) Rooms(ctx context.Context) ([]model.Room, error) {
	return s.store.ListRooms(ctx)
}

// tenantFor returns the tenant occupying room on day: the room's recorded
// occupant when it is a known tenant, else the tenant active on that day.
func tenantFor(room model.Room, tenants []model.Tenant, day time.Time) *model.Tenant {
	if room.OccupantID != nil {
		for i := range tenants {
			if tenants[i].ID == *room.OccupantID {
				return &tenants[i]
			}
		}
	}
	for i := range tenants {
		if tenants[i].RoomID == room.ID && tenants[i].ActiveOn(day) {
			return &tenants[i]
		}
	}
	return nil
}

func guestRooms(rooms []model.Room) []model.Room {
	out := make([]model.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Kind == model.RoomKindGuest {
			out = append(out, r)
		}
	}
	return out
}
