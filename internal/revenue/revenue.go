// Package revenue aggregates ledger entries and bookings into period reports.
package revenue

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
)

// Summary totals the ledger over an inclusive date range.
type Summary struct {
	Start      time.Time                  `json:"start"`
	End        time.Time                  `json:"end"`
	Income     decimal.Decimal            `json:"income"`
	Expenses   decimal.Decimal            `json:"expenses"`
	Net        decimal.Decimal            `json:"net"`
	ByCategory map[string]decimal.Decimal `json:"byCategory"`
	Entries    int                        `json:"entries"`
}

// Summarize totals entries whose date falls in [start, end], both days
// inclusive. Positive amounts are income, negative amounts are expenses and
// are reported as a positive magnitude; zero amounts count toward neither.
// When categories are given, only entries in one of them are included.
func Summarize(entries []model.LedgerEntry, start, end time.Time, categories ...string) (Summary, error) {
	if end.Before(start) {
		return Summary{}, &errs.InvalidRangeError{Start: start, End: end}
	}
	entries = FilterCategories(entries, categories...)

	s := Summary{
		Start:      start,
		End:        end,
		Income:     decimal.Zero,
		Expenses:   decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, e := range entries {
		if !dates.InRange(e.Date, start, end) {
			continue
		}
		s.Entries++
		switch e.Amount.Sign() {
		case 1:
			s.Income = s.Income.Add(e.Amount)
		case -1:
			s.Expenses = s.Expenses.Add(e.Amount.Abs())
		}
		s.ByCategory[e.Category] = s.ByCategory[e.Category].Add(e.Amount)
	}
	s.Net = s.Income.Sub(s.Expenses)
	return s, nil
}

// FilterCategories keeps the entries in one of categories, compared without
// case. With no categories, or only blank ones, entries is returned as is.
func FilterCategories(entries []model.LedgerEntry, categories ...string) []model.LedgerEntry {
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			want[c] = true
		}
	}
	if len(want) == 0 {
		return entries
	}
	out := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if want[strings.ToLower(e.Category)] {
			out = append(out, e)
		}
	}
	return out
}

// RoomRevenue is the signed ledger total attributed to one room.
type RoomRevenue struct {
	RoomID string          `json:"roomId"`
	Net    decimal.Decimal `json:"net"`
}

// ByRoom attributes in-range entries to rooms through their RoomID reference.
// Entries with no room reference are returned as the unattributed total.
func ByRoom(entries []model.LedgerEntry, start, end time.Time) ([]RoomRevenue, decimal.Decimal) {
	totals := make(map[string]decimal.Decimal)
	unattributed := decimal.Zero
	for _, e := range entries {
		if !dates.InRange(e.Date, start, end) {
			continue
		}
		if e.RoomID == nil || *e.RoomID == "" {
			unattributed = unattributed.Add(e.Amount)
			continue
		}
		totals[*e.RoomID] = totals[*e.RoomID].Add(e.Amount)
	}

	out := make([]RoomRevenue, 0, len(totals))
	for id, net := range totals {
		out = append(out, RoomRevenue{RoomID: id, Net: net})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, unattributed
}

// MonthRange returns the first and last calendar day of t's month.
func MonthRange(t time.Time) (time.Time, time.Time) {
	return dates.FirstOfMonth(t), dates.LastOfMonth(t)
}
