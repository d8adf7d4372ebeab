package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/revenue"
	"property-ops-backend/internal/sheet"
)

// ErrInvalidEntry is returned for a ledger entry without a category or amount.
var ErrInvalidEntry = errors.New("ledger entry needs a category and a non-zero amount")

// AppendLedgerEntry records a manual income or expense entry.
func (s *Service) AppendLedgerEntry(ctx context.Context, e model.LedgerEntry) (model.LedgerEntry, error) {
	if e.Category == "" || e.Amount.IsZero() {
		return model.LedgerEntry{}, ErrInvalidEntry
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	if err := s.store.AppendLedgerEntry(ctx, e); err != nil {
		return model.LedgerEntry{}, err
	}
	s.logger.Info("Ledger entry appended",
		zap.String("entry_id", e.ID),
		zap.String("category", e.Category),
		zap.String("amount", e.Amount.String()),
	)
	return e, nil
}

// RevenueReport is a ledger summary plus per-room attribution.
type RevenueReport struct {
	revenue.Summary
	Rooms        []revenue.RoomRevenue `json:"rooms"`
	Unattributed string                `json:"unattributed"`
}

// RevenueReport summarises the ledger over [start, end], both days inclusive.
func (s *Service) RevenueReport(ctx context.Context, start, end time.Time, categories ...string) (RevenueReport, error) {
	report, _, err := s.revenue(ctx, start, end, categories)
	return report, err
}

// RevenueWorkbook renders the revenue report as an xlsx workbook.
func (s *Service) RevenueWorkbook(ctx context.Context, start, end time.Time, categories ...string) ([]byte, error) {
	report, entries, err := s.revenue(ctx, start, end, categories)
	if err != nil {
		return nil, err
	}
	return sheet.RevenueWorkbook(report.Summary, report.Rooms, entries)
}

func (s *Service) revenue(ctx context.Context, start, end time.Time, categories []string) (RevenueReport, []model.LedgerEntry, error) {
	entries, err := s.store.ListLedgerEntries(ctx, start, end)
	if err != nil {
		return RevenueReport{}, nil, err
	}
	entries = revenue.FilterCategories(entries, categories...)
	sum, err := revenue.Summarize(entries, start, end)
	if err != nil {
		return RevenueReport{}, nil, err
	}
	rooms, rest := revenue.ByRoom(entries, start, end)
	return RevenueReport{Summary: sum, Rooms: rooms, Unattributed: rest.StringFixed(2)}, entries, nil
}

// OccupancyReport computes the guest-room occupancy rate over [start, end).
func (s *Service) OccupancyReport(ctx context.Context, start, end time.Time) (revenue.Occupancy, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return revenue.Occupancy{}, err
	}
	guest := guestRooms(rooms)
	ids := make(map[string]bool, len(guest))
	for _, r := range guest {
		ids[r.ID] = true
	}

	all, err := s.store.ListBookings(ctx)
	if err != nil {
		return revenue.Occupancy{}, err
	}
	bookings := make([]model.Booking, 0, len(all))
	for _, b := range all {
		if ids[b.RoomID] {
			bookings = append(bookings, b)
		}
	}
	return revenue.OccupancyRate(bookings, start, end, len(guest))
}
