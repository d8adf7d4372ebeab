package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"property-ops-backend/internal/model"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestStatusAt(t *testing.T) {
	now := time.Date(2024, 3, 17, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		occupancy model.Occupancy
		last      *time.Time
		expected  model.PaymentStatus
	}{
		{"paid this month", model.OccupancyOccupied, ptr(at(2024, 3, 5)), model.PaymentPaid},
		{"paid on the first is inclusive", model.OccupancyOccupied, ptr(at(2024, 3, 1)), model.PaymentPaid},
		{"paid last month", model.OccupancyOccupied, ptr(at(2024, 2, 20)), model.PaymentDue},
		{"paid first of last month", model.OccupancyOccupied, ptr(at(2024, 2, 1)), model.PaymentDue},
		{"paid last day of two months ago", model.OccupancyOccupied, ptr(at(2024, 1, 31)), model.PaymentOverdue},
		{"never paid", model.OccupancyOccupied, nil, model.PaymentOverdue},
		{"vacant room", model.OccupancyVacant, nil, model.PaymentNotApplicable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StatusAt(tc.occupancy, tc.last, now))
		})
	}
}

func TestStatusAt_NotOccupiedIgnoresPayment(t *testing.T) {
	now := at(2024, 3, 17)
	payments := []*time.Time{nil, ptr(at(2024, 3, 2)), ptr(at(2024, 2, 2)), ptr(at(2023, 1, 1))}
	for _, occ := range []model.Occupancy{model.OccupancyVacant, model.OccupancyPending, model.OccupancyMaintenance} {
		for _, p := range payments {
			assert.Equal(t, model.PaymentNotApplicable, StatusAt(occ, p, now))
		}
	}
}

func TestStatusAt_JanuaryLooksAtDecember(t *testing.T) {
	now := at(2025, 1, 10)
	assert.Equal(t, model.PaymentDue, StatusAt(model.OccupancyOccupied, ptr(at(2024, 12, 28)), now))
	assert.Equal(t, model.PaymentOverdue, StatusAt(model.OccupancyOccupied, ptr(at(2024, 11, 30)), now))
}

func TestEngine_Evaluate(t *testing.T) {
	engine := NewEngine(func() time.Time { return at(2024, 3, 17) })

	rooms := []model.Room{
		{ID: "101", Occupancy: model.OccupancyOccupied, LastPaymentDate: ptr(at(2024, 3, 2)), PaymentStatus: model.PaymentDue},
		{ID: "102", Occupancy: model.OccupancyOccupied, LastPaymentDate: ptr(at(2024, 2, 2)), PaymentStatus: model.PaymentDue},
		{ID: "103", Occupancy: model.OccupancyOccupied, PaymentStatus: model.PaymentDue},
		{ID: "104", Occupancy: model.OccupancyVacant},
	}

	statuses := engine.Evaluate(rooms)
	assert.Len(t, statuses, 4)
	assert.Equal(t, model.PaymentPaid, statuses[0].Current)
	assert.True(t, statuses[0].Changed())
	assert.False(t, statuses[1].Changed())
	assert.Equal(t, model.PaymentOverdue, statuses[2].Current)
	assert.Equal(t, model.PaymentNotApplicable, statuses[3].Current)

	assert.Equal(t, []string{"102", "103"}, Filter(statuses, model.PaymentDue, model.PaymentOverdue))
	assert.Equal(t, model.PaymentPaid, engine.Status(model.OccupancyOccupied, ptr(at(2024, 3, 1))))
}
