// Package sheet implements the tabular store on top of an .xlsx workbook and
// renders report and invoice workbooks.
//
// Each entity lives on its own sheet with a header row. Columns are located by
// header text, so operators may reorder or add columns freely.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/store"
)

const (
	SheetRooms         = "Rooms"
	SheetTenants       = "Tenants"
	SheetBookings      = "Bookings"
	SheetLedger        = "Ledger"
	SheetPricingRules  = "Pricing Rules"
	SheetSubscriptions = "Subscriptions"
)

// Headers lists the columns written when a sheet is created.
var Headers = map[string][]string{
	SheetRooms:         {"ID", "Name", "Kind", "Base Rate", "Negotiated Rate", "Occupancy", "Occupant ID", "Last Payment", "Payment Status", "Version"},
	SheetTenants:       {"ID", "Room", "Name", "Email", "Phone", "Move In", "Move Out"},
	SheetBookings:      {"ID", "Room", "Guest Name", "Guest Email", "Guest Phone", "Guests", "Check In", "Check Out", "Total", "Paid", "Status", "Source", "Notes", "Version", "Created At"},
	SheetLedger:        {"ID", "Date", "Category", "Amount", "Description", "Room", "Booking"},
	SheetPricingRules:  {"Name", "Type", "Condition", "Adjustment", "Priority", "Active"},
	SheetSubscriptions: {"Endpoint", "P256DH", "Auth", "Label", "Created At"},
}

var sheetOrder = []string{SheetRooms, SheetTenants, SheetBookings, SheetLedger, SheetPricingRules, SheetSubscriptions}

// Workbook is a store.Store backed by a single .xlsx file. Every call opens the
// file, and every mutation saves it; a mutex serialises those cycles within
// the process.
type Workbook struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
	log  *zap.Logger
	now  func() time.Time
}

var _ store.Store = (*Workbook)(nil)

// Open returns a Workbook for path, creating the file with empty sheets when
// it does not exist and adding any missing sheet to an existing file.
func Open(path string, loc *time.Location, log *zap.Logger) (*Workbook, error) {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &Workbook{path: path, loc: loc, log: log.With(zap.String("component", "workbook")), now: time.Now}
	if err := w.ensureSheets(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workbook) ensureSheets() error {
	var f *excelize.File
	fresh := false
	_, statErr := os.Stat(w.path)
	switch {
	case statErr == nil:
		var err error
		if f, err = excelize.OpenFile(w.path); err != nil {
			return fmt.Errorf("failed to open workbook %s: %w", w.path, err)
		}
	case errors.Is(statErr, os.ErrNotExist):
		f = excelize.NewFile()
		fresh = true
	default:
		return fmt.Errorf("failed to stat workbook %s: %w", w.path, statErr)
	}
	defer f.Close()

	created := false
	for _, name := range sheetOrder {
		idx, err := f.GetSheetIndex(name)
		if err != nil {
			return err
		}
		if idx >= 0 {
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeHeader(f, name, Headers[name]); err != nil {
			return err
		}
		created = true
	}
	if fresh {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	if !created {
		return nil
	}
	w.log.Info("Initialised workbook sheets", zap.String("path", w.path))
	return f.SaveAs(w.path)
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header on %s: %w", sheet, err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

// table is one sheet read into memory.
type table struct {
	name string
	cols map[string]int
	rows [][]string // data rows; rows[i] is sheet row i+2
}

func readTable(f *excelize.File, name string) (*table, error) {
	all, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	t := &table{name: name, cols: make(map[string]int)}
	if len(all) == 0 {
		return t, nil
	}
	for i, h := range all[0] {
		t.cols[normalize(h)] = i
	}
	t.rows = all[1:]
	return t, nil
}

func normalize(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// get returns the cell under header in data row i, or "" when absent.
func (t *table) get(i int, header string) string {
	col, ok := t.cols[normalize(header)]
	if !ok || col >= len(t.rows[i]) {
		return ""
	}
	return strings.TrimSpace(t.rows[i][col])
}

// find returns the data row whose key column equals key, or -1.
func (t *table) find(header, key string) int {
	for i := range t.rows {
		if t.get(i, header) == key {
			return i
		}
	}
	return -1
}

// set writes value under header in data row i.
func (t *table) set(f *excelize.File, i int, header string, value interface{}) error {
	col, ok := t.cols[normalize(header)]
	if !ok {
		return fmt.Errorf("sheet %s has no %q column", t.name, header)
	}
	cell, err := excelize.CoordinatesToCellName(col+1, i+2)
	if err != nil {
		return err
	}
	if d, ok := value.(decimal.Decimal); ok {
		// numeric cell holding the exact two-place amount
		return f.SetCellDefault(t.name, cell, d.StringFixed(2))
	}
	return f.SetCellValue(t.name, cell, value)
}

// appendRow writes values keyed by header into the first row after the data.
func (t *table) appendRow(f *excelize.File, values map[string]interface{}) error {
	i := len(t.rows)
	for header, v := range values {
		if v == nil {
			continue
		}
		if err := t.set(f, i, header, v); err != nil {
			return err
		}
	}
	t.rows = append(t.rows, nil)
	return nil
}

// read opens the workbook and hands fn the requested sheets.
func (w *Workbook) read(fn func(f *excelize.File) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}
	defer f.Close()
	return fn(f)
}

// mutate is read followed by a save when fn succeeds.
func (w *Workbook) mutate(fn func(f *excelize.File) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}

func (w *Workbook) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetRooms)
		if err != nil {
			return err
		}
		rooms = w.rooms(t)
		return nil
	})
	return rooms, err
}

func (w *Workbook) rooms(t *table) []model.Room {
	var rooms []model.Room
	for i := range t.rows {
		if t.get(i, "ID") == "" {
			continue
		}
		r, err := roomFromRow(t, i, w.loc)
		if err != nil {
			w.log.Warn("Skipping unreadable room row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		rooms = append(rooms, r)
	}
	return rooms
}

func (w *Workbook) GetRoom(ctx context.Context, id string) (model.Room, error) {
	var room model.Room
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetRooms)
		if err != nil {
			return err
		}
		i := t.find("ID", id)
		if i < 0 {
			return errs.NotFound("room", id)
		}
		room, err = roomFromRow(t, i, w.loc)
		return err
	})
	return room, err
}

func (w *Workbook) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetTenants)
		if err != nil {
			return err
		}
		for i := range t.rows {
			if t.get(i, "ID") == "" {
				continue
			}
			tn, err := tenantFromRow(t, i, w.loc)
			if err != nil {
				w.log.Warn("Skipping unreadable tenant row", zap.Int("row", i+2), zap.Error(err))
				continue
			}
			tenants = append(tenants, tn)
		}
		return nil
	})
	return tenants, err
}

func (w *Workbook) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetBookings)
		if err != nil {
			return err
		}
		for i := range t.rows {
			if t.get(i, "ID") == "" {
				continue
			}
			b, err := bookingFromRow(t, i, w.loc)
			if err != nil {
				w.log.Warn("Skipping unreadable booking row", zap.Int("row", i+2), zap.Error(err))
				continue
			}
			bookings = append(bookings, b)
		}
		return nil
	})
	return bookings, err
}

func (w *Workbook) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	var b model.Booking
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetBookings)
		if err != nil {
			return err
		}
		i := t.find("ID", id)
		if i < 0 {
			return errs.NotFound("booking", id)
		}
		b, err = bookingFromRow(t, i, w.loc)
		return err
	})
	return b, err
}

func (w *Workbook) ListLedgerEntries(ctx context.Context, start, end time.Time) ([]model.LedgerEntry, error) {
	from, to := store.LedgerBounds(start, end)
	var entries []model.LedgerEntry
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetLedger)
		if err != nil {
			return err
		}
		for i := range t.rows {
			if t.get(i, "Date") == "" {
				continue
			}
			e, err := ledgerFromRow(t, i, w.loc)
			if err != nil {
				w.log.Warn("Skipping unreadable ledger row", zap.Int("row", i+2), zap.Error(err))
				continue
			}
			if e.Date.Before(from) || !e.Date.Before(to) {
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	return entries, err
}

func (w *Workbook) ListPricingRules(ctx context.Context) ([]model.PricingRule, error) {
	var rules []model.PricingRule
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetPricingRules)
		if err != nil {
			return err
		}
		for i := range t.rows {
			if t.get(i, "Name") == "" {
				continue
			}
			r, err := ruleFromRow(t, i)
			if err != nil {
				w.log.Warn("Skipping unreadable pricing rule row", zap.Int("row", i+2), zap.Error(err))
				continue
			}
			rules = append(rules, r)
		}
		return nil
	})
	return rules, err
}

// updateRoom finds room id and hands fn its row index before bumping Version.
func (w *Workbook) updateRoom(id string, fn func(f *excelize.File, t *table, i int) error) error {
	return w.mutate(func(f *excelize.File) error {
		return editRoom(f, id, fn)
	})
}

// editRoom is updateRoom on an already open workbook.
func editRoom(f *excelize.File, id string, fn func(f *excelize.File, t *table, i int) error) error {
	t, err := readTable(f, SheetRooms)
	if err != nil {
		return err
	}
	i := t.find("ID", id)
	if i < 0 {
		return errs.NotFound("room", id)
	}
	if err := fn(f, t, i); err != nil {
		return err
	}
	version, _ := parseVersion(t.get(i, "Version"))
	return t.set(f, i, "Version", version+1)
}

func setOccupancy(occ model.Occupancy, occupantID *string) func(f *excelize.File, t *table, i int) error {
	return func(f *excelize.File, t *table, i int) error {
		if err := t.set(f, i, "Occupancy", string(occ)); err != nil {
			return err
		}
		occupant := ""
		if occupantID != nil {
			occupant = *occupantID
		}
		return t.set(f, i, "Occupant ID", occupant)
	}
}

func (w *Workbook) WriteRoomStatus(ctx context.Context, roomID string, status model.PaymentStatus) error {
	return w.updateRoom(roomID, func(f *excelize.File, t *table, i int) error {
		return t.set(f, i, "Payment Status", string(status))
	})
}

func (w *Workbook) UpdateRoomOccupancy(ctx context.Context, roomID string, occ model.Occupancy, occupantID *string) error {
	return w.updateRoom(roomID, setOccupancy(occ, occupantID))
}

func (w *Workbook) RecordRoomPayment(ctx context.Context, roomID string, paidOn time.Time, entry model.LedgerEntry) (model.Room, error) {
	var room model.Room
	err := w.updateRoom(roomID, func(f *excelize.File, t *table, i int) error {
		current, err := roomFromRow(t, i, w.loc)
		if err != nil {
			return err
		}
		if current.LastPaymentDate == nil || paidOn.After(*current.LastPaymentDate) {
			if err := t.set(f, i, "Last Payment", paidOn.Format(time.DateOnly)); err != nil {
				return err
			}
			current.LastPaymentDate = &paidOn
		}
		current.Version++
		room = current

		ledger, err := readTable(f, SheetLedger)
		if err != nil {
			return err
		}
		return ledger.appendRow(f, ledgerRow(entry))
	})
	return room, err
}

func (w *Workbook) AppendLedgerEntry(ctx context.Context, entry model.LedgerEntry) error {
	return w.mutate(func(f *excelize.File) error {
		t, err := readTable(f, SheetLedger)
		if err != nil {
			return err
		}
		return t.appendRow(f, ledgerRow(entry))
	})
}

func (w *Workbook) CreateBooking(ctx context.Context, b model.Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = w.now()
	}
	return w.mutate(func(f *excelize.File) error {
		t, err := readTable(f, SheetBookings)
		if err != nil {
			return err
		}
		if t.find("ID", b.ID) >= 0 {
			return fmt.Errorf("booking %s: %w", b.ID, store.ErrDuplicate)
		}
		return t.appendRow(f, bookingRow(b))
	})
}

// updateBooking locates booking id, checks its version and applies fn.
func (w *Workbook) updateBooking(id string, version int64, fn func(f *excelize.File, t *table, i int, b *model.Booking) error) (model.Booking, error) {
	var out model.Booking
	err := w.mutate(func(f *excelize.File) error {
		t, err := readTable(f, SheetBookings)
		if err != nil {
			return err
		}
		i := t.find("ID", id)
		if i < 0 {
			return errs.NotFound("booking", id)
		}
		b, err := bookingFromRow(t, i, w.loc)
		if err != nil {
			return err
		}
		if b.Version != version {
			return fmt.Errorf("booking %s: %w", id, store.ErrStaleWrite)
		}
		if err := fn(f, t, i, &b); err != nil {
			return err
		}
		b.Version = version + 1
		b.UpdatedAt = w.now()
		out = b
		return t.set(f, i, "Version", b.Version)
	})
	return out, err
}

func (w *Workbook) UpdateBookingStatus(ctx context.Context, id string, version int64, status model.BookingStatus) (model.Booking, error) {
	return w.updateBooking(id, version, func(f *excelize.File, t *table, i int, b *model.Booking) error {
		b.Status = status
		return t.set(f, i, "Status", string(status))
	})
}

// MoveGuest saves the status and the room occupancy together; a failed room
// edit leaves the file untouched.
func (w *Workbook) MoveGuest(ctx context.Context, id string, version int64, status model.BookingStatus, occ model.Occupancy, occupantID *string) (model.Booking, error) {
	return w.updateBooking(id, version, func(f *excelize.File, t *table, i int, b *model.Booking) error {
		b.Status = status
		if err := t.set(f, i, "Status", string(status)); err != nil {
			return err
		}
		return editRoom(f, b.RoomID, setOccupancy(occ, occupantID))
	})
}

func (w *Workbook) RecordBookingPayment(ctx context.Context, id string, version int64, entry model.LedgerEntry) (model.Booking, error) {
	return w.updateBooking(id, version, func(f *excelize.File, t *table, i int, b *model.Booking) error {
		b.Paid = b.Paid.Add(entry.Amount)
		if err := t.set(f, i, "Paid", b.Paid); err != nil {
			return err
		}
		ledger, err := readTable(f, SheetLedger)
		if err != nil {
			return err
		}
		return ledger.appendRow(f, ledgerRow(entry))
	})
}

func (w *Workbook) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = w.now()
	}
	return w.mutate(func(f *excelize.File) error {
		t, err := readTable(f, SheetSubscriptions)
		if err != nil {
			return err
		}
		i := t.find("Endpoint", sub.Endpoint)
		if i < 0 {
			return t.appendRow(f, subscriptionRow(sub))
		}
		for _, kv := range [][2]string{{"P256DH", sub.P256DH}, {"Auth", sub.Auth}, {"Label", sub.Label}} {
			if err := t.set(f, i, kv[0], kv[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Workbook) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetSubscriptions)
		if err != nil {
			return err
		}
		i := t.find("Endpoint", endpoint)
		if i < 0 {
			return errs.NotFound("subscription", endpoint)
		}
		sub = subscriptionFromRow(t, i)
		return nil
	})
	return sub, err
}

func (w *Workbook) DeleteSubscription(ctx context.Context, endpoint string) error {
	return w.mutate(func(f *excelize.File) error {
		t, err := readTable(f, SheetSubscriptions)
		if err != nil {
			return err
		}
		i := t.find("Endpoint", endpoint)
		if i < 0 {
			return nil
		}
		return f.RemoveRow(SheetSubscriptions, i+2)
	})
}

func (w *Workbook) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := w.read(func(f *excelize.File) error {
		t, err := readTable(f, SheetSubscriptions)
		if err != nil {
			return err
		}
		for i := range t.rows {
			if t.get(i, "Endpoint") == "" {
				continue
			}
			subs = append(subs, subscriptionFromRow(t, i))
		}
		return nil
	})
	return subs, err
}
