package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"property-ops-backend/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Letterhead identifies the sender in message text.
type Letterhead struct {
	Property string
	Currency string
}

func (l Letterhead) amount(d decimal.Decimal) string {
	return l.Currency + " " + d.StringFixed(2)
}

func (l Letterhead) signature() string {
	return "\n\nKind regards,\n" + l.Property
}

// RentReminder asks a tenant to pay the rent that falls due on dueOn.
func RentReminder(l Letterhead, t model.Tenant, room model.Room, dueOn time.Time) Message {
	rate := decimal.NewFromFloat(room.EffectiveRate())
	return Message{
		Kind:    KindRentReminder,
		Ref:     room.ID,
		To:      []string{t.Email},
		Subject: fmt.Sprintf("%s: rent reminder for room %s", l.Property, room.ID),
		Body: fmt.Sprintf("Dear %s,\n\nThis is a friendly reminder that your rent of %s for room %s is due on %s.",
			t.Name, l.amount(rate), room.ID, dueOn.Format("January 2, 2006")) + l.signature(),
	}
}

// OverdueNotice tells a tenant that no rent has been received for the
// previous month.
func OverdueNotice(l Letterhead, t model.Tenant, room model.Room) Message {
	last := "no payment on record"
	if room.LastPaymentDate != nil {
		last = "last payment received " + room.LastPaymentDate.Format("January 2, 2006")
	}
	return Message{
		Kind:    KindOverdueNotice,
		Ref:     room.ID,
		To:      []string{t.Email},
		Subject: fmt.Sprintf("%s: overdue rent for room %s", l.Property, room.ID),
		Body: fmt.Sprintf("Dear %s,\n\nOur records show the rent for room %s is overdue (%s). "+
			"Please arrange payment of %s at your earliest convenience.",
			t.Name, room.ID, last, l.amount(decimal.NewFromFloat(room.EffectiveRate()))) + l.signature(),
	}
}

// OverdueRoom pairs an overdue room with its current tenant, if known.
type OverdueRoom struct {
	Room   model.Room
	Tenant *model.Tenant
}

// OverdueSummary lists every overdue room for the manager.
func OverdueSummary(l Letterhead, manager string, rooms []OverdueRoom) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%d room(s) are overdue:\n\n", len(rooms))
	for _, r := range rooms {
		name := "unknown tenant"
		if r.Tenant != nil {
			name = r.Tenant.Name
		}
		last := "never"
		if r.Room.LastPaymentDate != nil {
			last = r.Room.LastPaymentDate.Format(time.DateOnly)
		}
		fmt.Fprintf(&b, "- Room %s (%s): %s, last paid %s\n",
			r.Room.ID, name, l.amount(decimal.NewFromFloat(r.Room.EffectiveRate())), last)
	}
	return Message{
		Kind:    KindOverdueSummary,
		To:      []string{manager},
		Subject: fmt.Sprintf("%s: %d overdue room(s)", l.Property, len(rooms)),
		Body:    b.String(),
	}
}

// InvoiceMail sends a monthly invoice with its workbook attached.
func InvoiceMail(l Letterhead, t model.Tenant, roomID, number string, period time.Time, total decimal.Decimal, workbook []byte) Message {
	return Message{
		Kind:    KindInvoice,
		Ref:     roomID,
		To:      []string{t.Email},
		Subject: fmt.Sprintf("%s: invoice %s for %s", l.Property, number, period.Format("January 2006")),
		Body: fmt.Sprintf("Dear %s,\n\nPlease find attached invoice %s for room %s covering %s. Amount due: %s.",
			t.Name, number, roomID, period.Format("January 2006"), l.amount(total)) + l.signature(),
		Attachments: []Attachment{{
			Filename:    number + ".xlsx",
			ContentType: xlsxContentType,
			Content:     workbook,
		}},
	}
}

func stay(b model.Booking) string {
	return fmt.Sprintf("%s to %s", b.CheckIn.Format("Mon Jan 2, 2006"), b.CheckOut.Format("Mon Jan 2, 2006"))
}

// BookingReceived acknowledges a new booking request to the guest.
func BookingReceived(l Letterhead, b model.Booking) Message {
	return Message{
		Kind:    KindBookingReceived,
		Ref:     b.ID,
		To:      []string{b.GuestEmail},
		Subject: fmt.Sprintf("%s: we received your booking request", l.Property),
		Body: fmt.Sprintf("Dear %s,\n\nThank you for your request for room %s, %s. The quoted total is %s. "+
			"We will confirm shortly.\n\nReference: %s", b.GuestName, b.RoomID, stay(b), l.amount(b.Total), b.ID) + l.signature(),
	}
}

// BookingConfirmed tells the guest the booking is confirmed.
func BookingConfirmed(l Letterhead, b model.Booking) Message {
	return Message{
		Kind:    KindBookingConfirmed,
		Ref:     b.ID,
		To:      []string{b.GuestEmail},
		Subject: fmt.Sprintf("%s: booking confirmed", l.Property),
		Body: fmt.Sprintf("Dear %s,\n\nYour stay in room %s, %s, is confirmed. Total %s, balance due %s.\n\nReference: %s",
			b.GuestName, b.RoomID, stay(b), l.amount(b.Total), l.amount(b.Balance()), b.ID) + l.signature(),
	}
}

// BookingCancelled tells the guest the booking was cancelled.
func BookingCancelled(l Letterhead, b model.Booking) Message {
	return Message{
		Kind:    KindBookingCancelled,
		Ref:     b.ID,
		To:      []string{b.GuestEmail},
		Subject: fmt.Sprintf("%s: booking cancelled", l.Property),
		Body: fmt.Sprintf("Dear %s,\n\nYour booking for room %s, %s, has been cancelled.\n\nReference: %s",
			b.GuestName, b.RoomID, stay(b), b.ID) + l.signature(),
	}
}

// NewBookingAlert tells the manager a booking request arrived.
func NewBookingAlert(l Letterhead, manager string, b model.Booking) Message {
	return Message{
		Kind:    KindNewBookingAlert,
		Ref:     b.ID,
		To:      []string{manager},
		Subject: fmt.Sprintf("New booking request: room %s, %s", b.RoomID, b.GuestName),
		Body: fmt.Sprintf("%s <%s> requested room %s for %d guest(s), %s. Quoted total %s. Source: %s.\n\nBooking %s is pending confirmation.",
			b.GuestName, b.GuestEmail, b.RoomID, b.Guests, stay(b), l.amount(b.Total), b.Source, b.ID),
	}
}
