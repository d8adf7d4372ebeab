package sheet

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/parse"
)

func parseVersion(raw string) (int64, error) {
	n, err := parse.Int(raw)
	return int64(n), err
}

func optionalString(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func roomFromRow(t *table, i int, loc *time.Location) (model.Room, error) {
	r := model.Room{
		ID:            t.get(i, "ID"),
		Name:          t.get(i, "Name"),
		Kind:          model.RoomKind(t.get(i, "Kind")),
		Occupancy:     model.Occupancy(t.get(i, "Occupancy")),
		OccupantID:    optionalString(t.get(i, "Occupant ID")),
		PaymentStatus: model.PaymentStatus(t.get(i, "Payment Status")),
	}
	if r.Kind == "" {
		r.Kind = model.RoomKindLongTerm
	}
	if r.Occupancy == "" {
		r.Occupancy = model.OccupancyVacant
	}
	if !r.Occupancy.Valid() {
		return r, fmt.Errorf("room %s: unknown occupancy %q", r.ID, r.Occupancy)
	}

	var err error
	if r.BaseRate, err = parse.Float(t.get(i, "Base Rate")); err != nil {
		return r, fmt.Errorf("room %s: %w", r.ID, err)
	}
	if raw := t.get(i, "Negotiated Rate"); raw != "" {
		rate, err := parse.Float(raw)
		if err != nil {
			return r, fmt.Errorf("room %s: %w", r.ID, err)
		}
		r.NegotiatedRate = &rate
	}
	if r.LastPaymentDate, err = parse.OptionalDate(t.get(i, "Last Payment"), loc); err != nil {
		return r, fmt.Errorf("room %s: %w", r.ID, err)
	}
	if r.Version, err = parseVersion(t.get(i, "Version")); err != nil {
		return r, fmt.Errorf("room %s: %w", r.ID, err)
	}
	return r, nil
}

func tenantFromRow(t *table, i int, loc *time.Location) (model.Tenant, error) {
	tn := model.Tenant{
		ID:     t.get(i, "ID"),
		RoomID: t.get(i, "Room"),
		Name:   t.get(i, "Name"),
		Email:  t.get(i, "Email"),
		Phone:  t.get(i, "Phone"),
	}
	var err error
	if tn.MoveIn, err = parse.Date(t.get(i, "Move In"), loc); err != nil {
		return tn, fmt.Errorf("tenant %s: %w", tn.ID, err)
	}
	if tn.MoveOut, err = parse.OptionalDate(t.get(i, "Move Out"), loc); err != nil {
		return tn, fmt.Errorf("tenant %s: %w", tn.ID, err)
	}
	return tn, nil
}

func bookingFromRow(t *table, i int, loc *time.Location) (model.Booking, error) {
	b := model.Booking{
		ID:         t.get(i, "ID"),
		RoomID:     t.get(i, "Room"),
		GuestName:  t.get(i, "Guest Name"),
		GuestEmail: t.get(i, "Guest Email"),
		GuestPhone: t.get(i, "Guest Phone"),
		Status:     model.BookingStatus(t.get(i, "Status")),
		Source:     t.get(i, "Source"),
		Notes:      t.get(i, "Notes"),
	}
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	wrap := func(err error) error { return fmt.Errorf("booking %s: %w", b.ID, err) }

	var err error
	if b.Guests, err = parse.Int(t.get(i, "Guests")); err != nil {
		return b, wrap(err)
	}
	if b.CheckIn, err = parse.Date(t.get(i, "Check In"), loc); err != nil {
		return b, wrap(err)
	}
	if b.CheckOut, err = parse.Date(t.get(i, "Check Out"), loc); err != nil {
		return b, wrap(err)
	}
	if b.Total, err = parse.Money(t.get(i, "Total")); err != nil {
		return b, wrap(err)
	}
	if b.Paid, err = parse.Money(t.get(i, "Paid")); err != nil {
		return b, wrap(err)
	}
	if b.Version, err = parseVersion(t.get(i, "Version")); err != nil {
		return b, wrap(err)
	}
	if created, err := parse.OptionalDate(t.get(i, "Created At"), loc); err == nil && created != nil {
		b.CreatedAt = *created
	}
	return b, nil
}

func ledgerFromRow(t *table, i int, loc *time.Location) (model.LedgerEntry, error) {
	e := model.LedgerEntry{
		ID:          t.get(i, "ID"),
		Category:    t.get(i, "Category"),
		Description: t.get(i, "Description"),
		RoomID:      optionalString(t.get(i, "Room")),
		BookingID:   optionalString(t.get(i, "Booking")),
	}
	if e.ID == "" {
		e.ID = "row-" + strconv.Itoa(i+2)
	}
	var err error
	if e.Date, err = parse.Date(t.get(i, "Date"), loc); err != nil {
		return e, fmt.Errorf("ledger %s: %w", e.ID, err)
	}
	if e.Amount, err = parse.Money(t.get(i, "Amount")); err != nil {
		return e, fmt.Errorf("ledger %s: %w", e.ID, err)
	}
	return e, nil
}

func ruleFromRow(t *table, i int) (model.PricingRule, error) {
	r := model.PricingRule{
		ID:         int64(i + 1),
		Name:       t.get(i, "Name"),
		Type:       t.get(i, "Type"),
		Condition:  t.get(i, "Condition"),
		Adjustment: t.get(i, "Adjustment"),
	}
	var err error
	if r.Priority, err = parse.Int(t.get(i, "Priority")); err != nil {
		return r, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	if r.Active, err = parse.Bool(t.get(i, "Active")); err != nil {
		return r, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	return r, nil
}

func subscriptionFromRow(t *table, i int) model.PushSubscription {
	sub := model.PushSubscription{
		Endpoint: t.get(i, "Endpoint"),
		P256DH:   t.get(i, "P256DH"),
		Auth:     t.get(i, "Auth"),
		Label:    t.get(i, "Label"),
	}
	if created, err := time.Parse(time.RFC3339, t.get(i, "Created At")); err == nil {
		sub.CreatedAt = created
	}
	return sub
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func ledgerRow(e model.LedgerEntry) map[string]interface{} {
	row := map[string]interface{}{
		"ID":          e.ID,
		"Date":        e.Date.Format(time.DateOnly),
		"Category":    e.Category,
		"Amount":      e.Amount,
		"Description": e.Description,
	}
	if e.RoomID != nil {
		row["Room"] = *e.RoomID
	}
	if e.BookingID != nil {
		row["Booking"] = *e.BookingID
	}
	return row
}

func bookingRow(b model.Booking) map[string]interface{} {
	return map[string]interface{}{
		"ID":          b.ID,
		"Room":        b.RoomID,
		"Guest Name":  b.GuestName,
		"Guest Email": b.GuestEmail,
		"Guest Phone": b.GuestPhone,
		"Guests":      b.Guests,
		"Check In":    b.CheckIn.Format(time.DateOnly),
		"Check Out":   b.CheckOut.Format(time.DateOnly),
		"Total":       b.Total,
		"Paid":        b.Paid,
		"Status":      string(b.Status),
		"Source":      b.Source,
		"Notes":       b.Notes,
		"Version":     b.Version,
		"Created At":  b.CreatedAt.Format(time.DateTime),
	}
}

func subscriptionRow(sub model.PushSubscription) map[string]interface{} {
	return map[string]interface{}{
		"Endpoint":   sub.Endpoint,
		"P256DH":     sub.P256DH,
		"Auth":       sub.Auth,
		"Label":      sub.Label,
		"Created At": sub.CreatedAt.Format(time.RFC3339),
	}
}
