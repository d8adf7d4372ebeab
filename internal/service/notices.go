package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/notification"
	"property-ops-backend/internal/sheet"
)

type snapshot struct {
	rooms   []model.Room
	tenants []model.Tenant
}

func (s *Service) snapshot(ctx context.Context) (snapshot, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return snapshot{}, err
	}
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{rooms: rooms, tenants: tenants}, nil
}

func missingTenant(kind notification.Kind, roomID string) notification.Failure {
	return notification.Failure{Kind: kind, Ref: roomID, Error: "no active tenant for room"}
}

// SendRentReminders e-mails the tenants of rooms that are Due, and of Paid
// rooms whose next rent falls due within the reminder lead time.
func (s *Service) SendRentReminders(ctx context.Context) (notification.BatchResult, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return notification.BatchResult{}, err
	}
	now := s.now()
	nextDue := dates.LastOfMonth(now).AddDate(0, 0, 1)

	var (
		res  notification.BatchResult
		msgs []notification.Message
	)
	for _, room := range snap.rooms {
		dueOn := nextDue
		switch s.payments.Status(room.Occupancy, room.LastPaymentDate) {
		case model.PaymentDue:
			dueOn = dates.LastOfMonth(now)
		case model.PaymentPaid:
			if dates.DaysBetween(now, nextDue) > s.opts.ReminderLeadDays {
				continue
			}
		default:
			continue
		}
		tenant := tenantFor(room, snap.tenants, now)
		if tenant == nil {
			res.Failures = append(res.Failures, missingTenant(notification.KindRentReminder, room.ID))
			continue
		}
		msgs = append(msgs, notification.RentReminder(s.letterhead(), *tenant, room, dueOn))
	}

	res.Merge(s.send(ctx, msgs))
	s.logger.Info("Rent reminders sent", zap.Int("sent", res.Sent), zap.Int("failed", len(res.Failures)))
	return res, nil
}

// SendOverdueNotices e-mails the tenant of every Overdue room, sends the
// manager a summary and pushes an alert to the managers' browsers.
func (s *Service) SendOverdueNotices(ctx context.Context) (notification.BatchResult, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return notification.BatchResult{}, err
	}
	now := s.now()

	var (
		res     notification.BatchResult
		msgs    []notification.Message
		overdue []notification.OverdueRoom
	)
	for _, room := range snap.rooms {
		if s.payments.Status(room.Occupancy, room.LastPaymentDate) != model.PaymentOverdue {
			continue
		}
		tenant := tenantFor(room, snap.tenants, now)
		overdue = append(overdue, notification.OverdueRoom{Room: room, Tenant: tenant})
		if tenant == nil {
			res.Failures = append(res.Failures, missingTenant(notification.KindOverdueNotice, room.ID))
			continue
		}
		msgs = append(msgs, notification.OverdueNotice(s.letterhead(), *tenant, room))
	}
	if len(overdue) == 0 {
		return res, nil
	}
	if s.opts.ManagerEmail != "" {
		msgs = append(msgs, notification.OverdueSummary(s.letterhead(), s.opts.ManagerEmail, overdue))
	}

	res.Merge(s.send(ctx, msgs))
	s.push(ctx, notification.KindOverdueSummary, "Overdue rent",
		fmt.Sprintf("%d room(s) are overdue", len(overdue)))
	s.logger.Info("Overdue notices sent",
		zap.Int("overdue", len(overdue)),
		zap.Int("sent", res.Sent),
		zap.Int("failed", len(res.Failures)),
	)
	return res, nil
}

// InvoiceNumber formats the invoice number of a room for a billing month.
func InvoiceNumber(roomID string, period time.Time) string {
	return fmt.Sprintf("INV-%s-%s", period.Format("200601"), roomID)
}

// SendMonthlyInvoices e-mails every tenant of an occupied long-term room an
// invoice for the current month with the workbook attached.
func (s *Service) SendMonthlyInvoices(ctx context.Context) (notification.BatchResult, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return notification.BatchResult{}, err
	}
	now := s.now()
	period := dates.FirstOfMonth(now)

	var (
		res  notification.BatchResult
		msgs []notification.Message
	)
	for _, room := range snap.rooms {
		if room.Kind != model.RoomKindLongTerm || room.Occupancy != model.OccupancyOccupied {
			continue
		}
		tenant := tenantFor(room, snap.tenants, now)
		if tenant == nil {
			res.Failures = append(res.Failures, missingTenant(notification.KindInvoice, room.ID))
			continue
		}

		inv := sheet.Invoice{
			Number:   InvoiceNumber(room.ID, period),
			Property: s.opts.Property,
			Currency: s.opts.Currency,
			Tenant:   *tenant,
			RoomID:   room.ID,
			Period:   period,
			Issued:   now,
			Lines: []sheet.InvoiceLine{{
				Description: fmt.Sprintf("Rent, room %s, %s", room.ID, period.Format("January 2006")),
				Amount:      decimal.NewFromFloat(room.EffectiveRate()).Round(2),
			}},
		}
		workbook, err := sheet.InvoiceWorkbook(inv)
		if err != nil {
			res.Failures = append(res.Failures, notification.Failure{
				Kind: notification.KindInvoice, Ref: room.ID, Recipient: tenant.Email, Error: err.Error(),
			})
			continue
		}
		msgs = append(msgs, notification.InvoiceMail(s.letterhead(), *tenant, room.ID, inv.Number, period, inv.Total(), workbook))
	}

	res.Merge(s.send(ctx, msgs))
	s.logger.Info("Monthly invoices sent",
		zap.String("period", period.Format("2006-01")),
		zap.Int("sent", res.Sent),
		zap.Int("failed", len(res.Failures)),
	)
	return res, nil
}
