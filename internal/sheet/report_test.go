package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/revenue"
)

func TestRevenueWorkbook(t *testing.T) {
	room := "101"
	entries := []model.LedgerEntry{
		{ID: "e1", Date: day(2024, 3, 5), Category: "rent", Amount: decimal.NewFromInt(800), RoomID: &room},
		{ID: "e2", Date: day(2024, 3, 10), Category: "repairs", Amount: decimal.NewFromInt(-150)},
	}
	sum, err := revenue.Summarize(entries, day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	rooms, _ := revenue.ByRoom(entries, day(2024, 3, 1), day(2024, 3, 31))

	data, err := RevenueWorkbook(sum, rooms, entries)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Entries"}, f.GetSheetList())
	net, err := f.GetCellValue("Summary", "B7")
	require.NoError(t, err)
	assert.Equal(t, "650", net)

	rows, err := f.GetRows("Entries")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "e2", rows[2][0])
	assert.Equal(t, "-150", rows[2][3])
}

func TestInvoiceWorkbook(t *testing.T) {
	inv := Invoice{
		Number:   "INV-202404-101",
		Property: "Maple House",
		Currency: "USD",
		Tenant:   model.Tenant{Name: "Grace", Email: "grace@example.com"},
		RoomID:   "101",
		Period:   day(2024, 4, 1),
		Issued:   time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
		Lines: []InvoiceLine{
			{Description: "Rent April 2024", Amount: decimal.NewFromInt(750)},
			{Description: "Parking", Amount: decimal.RequireFromString("25.50")},
		},
	}
	assert.Equal(t, "775.5", inv.Total().String())

	data, err := InvoiceWorkbook(inv)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	period, err := f.GetCellValue("Invoice", "B4")
	require.NoError(t, err)
	assert.Equal(t, "April 2024", period)
	total, err := f.GetCellValue("Invoice", "B12")
	require.NoError(t, err)
	assert.Equal(t, "775.5", total)
}
