package sheet

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/revenue"
)

// RevenueWorkbook renders a revenue report: a Summary sheet with the totals,
// per-category and per-room breakdowns, and an Entries sheet listing every
// entry in the period.
func RevenueWorkbook(sum revenue.Summary, rooms []revenue.RoomRevenue, entries []model.LedgerEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{"Revenue report"},
		{"From", sum.Start.Format(time.DateOnly)},
		{"To", sum.End.Format(time.DateOnly)},
		{},
		{"Income", money(sum.Income)},
		{"Expenses", money(sum.Expenses)},
		{"Net", money(sum.Net)},
		{"Entries", sum.Entries},
		{},
		{"Category", "Net"},
	}
	for _, c := range sortedCategories(sum.ByCategory) {
		rows = append(rows, []interface{}{c, money(sum.ByCategory[c])})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Room", "Net"})
	for _, r := range rooms {
		rows = append(rows, []interface{}{r.RoomID, money(r.Net)})
	}
	if err := writeRows(f, "Summary", rows); err != nil {
		return nil, err
	}
	for _, cell := range []string{"A1", "A10"} {
		if err := f.SetCellStyle("Summary", cell, cell, bold); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth("Summary", "A", "A", 24); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Entries"); err != nil {
		return nil, err
	}
	if err := writeHeader(f, "Entries", Headers[SheetLedger]); err != nil {
		return nil, err
	}
	t := &table{name: "Entries", cols: columns(Headers[SheetLedger])}
	for _, e := range entries {
		if err := t.appendRow(f, ledgerRow(e)); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes("Entries", &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write revenue workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// InvoiceLine is one billed item.
type InvoiceLine struct {
	Description string
	Amount      decimal.Decimal
}

// Invoice is a monthly rent invoice for one tenant.
type Invoice struct {
	Number   string
	Property string
	Currency string
	Tenant   model.Tenant
	RoomID   string
	Period   time.Time
	Issued   time.Time
	Lines    []InvoiceLine
}

// Total sums the invoice lines.
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// InvoiceWorkbook renders inv as a single-sheet workbook suitable for
// attaching to the invoice e-mail.
func InvoiceWorkbook(inv Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const name = "Invoice"
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{inv.Property},
		{"Invoice", inv.Number},
		{"Issued", inv.Issued.Format(time.DateOnly)},
		{"Period", inv.Period.Format("January 2006")},
		{"Tenant", inv.Tenant.Name},
		{"Email", inv.Tenant.Email},
		{"Room", inv.RoomID},
		{},
		{"Description", "Amount (" + inv.Currency + ")"},
	}
	for _, l := range inv.Lines {
		rows = append(rows, []interface{}{l.Description, money(l.Amount)})
	}
	rows = append(rows, []interface{}{"Total", money(inv.Total())})
	if err := writeRows(f, name, rows); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	totalCell := fmt.Sprintf("A%d", len(rows))
	for _, cell := range []string{"A1", "A9", "B9", totalCell} {
		if err := f.SetCellStyle(name, cell, cell, bold); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(name, "A", "A", 32); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write invoice workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func columns(headers []string) map[string]int {
	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[normalize(h)] = i
	}
	return cols
}

func sortedCategories(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
