package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"property-ops-backend/internal/availability"
	"property-ops-backend/internal/booking"
	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
	"property-ops-backend/internal/notification"
	"property-ops-backend/internal/pricing"
	"property-ops-backend/internal/store"
)

// ErrUnknownAction is returned for an action name with no target status.
var ErrUnknownAction = errors.New("unknown booking action")

// Availability returns the guest rooms free for [checkIn, checkOut).
func (s *Service) Availability(ctx context.Context, checkIn, checkOut time.Time) ([]model.Room, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	return availability.AvailableRooms(checkIn, checkOut, guestRooms(rooms), bookings)
}

// Quote prices a stay in roomID with the stored pricing rules.
func (s *Service) Quote(ctx context.Context, roomID string, checkIn, checkOut time.Time) (pricing.Quote, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.quote(ctx, room, checkIn, checkOut)
}

func (s *Service) quote(ctx context.Context, room model.Room, checkIn, checkOut time.Time) (pricing.Quote, error) {
	rows, err := s.store.ListPricingRules(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.pricing.QuoteRows(room.EffectiveRate(), checkIn, checkOut, rows)
}

// SubmitBooking validates a booking request, prices it, checks the room is
// free and stores it as Pending. The guest and the manager are notified.
func (s *Service) SubmitBooking(ctx context.Context, form booking.Form) (model.Booking, error) {
	return s.submit(ctx, uuid.NewString(), form)
}

// ImportBooking is SubmitBooking for requests that carry a stable external
// id. A request already imported is returned with created set to false.
func (s *Service) ImportBooking(ctx context.Context, externalID string, form booking.Form) (model.Booking, bool, error) {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(externalID)).String()
	if existing, err := s.store.GetBooking(ctx, id); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return model.Booking{}, false, err
	}
	b, err := s.submit(ctx, id, form)
	if errors.Is(err, store.ErrDuplicate) {
		existing, gerr := s.store.GetBooking(ctx, id)
		return existing, false, gerr
	}
	return b, err == nil, err
}

func (s *Service) submit(ctx context.Context, id string, form booking.Form) (model.Booking, error) {
	if err := booking.Validate(form); err != nil {
		return model.Booking{}, err
	}

	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return model.Booking{}, err
	}
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return model.Booking{}, err
	}

	var room model.Room
	if form.RoomID != "" {
		if room, err = checkGuestRoom(form.RoomID, form.CheckIn, form.CheckOut, rooms, bookings, ""); err != nil {
			return model.Booking{}, err
		}
	} else {
		free, err := availability.AvailableRooms(form.CheckIn, form.CheckOut, guestRooms(rooms), bookings)
		if err != nil {
			return model.Booking{}, err
		}
		if len(free) == 0 {
			return model.Booking{}, fmt.Errorf("no guest room free from %s to %s: %w",
				form.CheckIn.Format(time.DateOnly), form.CheckOut.Format(time.DateOnly), availability.ErrRoomUnavailable)
		}
		room = free[0]
	}

	q, err := s.quote(ctx, room, form.CheckIn, form.CheckOut)
	if err != nil {
		return model.Booking{}, err
	}
	b := booking.New(form, room.ID, q, s.now())
	b.ID = id
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return model.Booking{}, err
	}
	s.logger.Info("Booking created",
		zap.String("booking_id", b.ID),
		zap.String("room_id", b.RoomID),
		zap.String("total", b.Total.String()),
		zap.Strings("rules", q.Applied),
	)

	msgs := []notification.Message{notification.BookingReceived(s.letterhead(), b)}
	if s.opts.ManagerEmail != "" {
		msgs = append(msgs, notification.NewBookingAlert(s.letterhead(), s.opts.ManagerEmail, b))
	}
	s.logFailures("booking received", s.send(ctx, msgs))
	s.push(ctx, notification.KindNewBookingAlert, "New booking request",
		fmt.Sprintf("%s, room %s, %s to %s", b.GuestName, b.RoomID,
			b.CheckIn.Format(time.DateOnly), b.CheckOut.Format(time.DateOnly)))
	return b, nil
}

// checkGuestRoom returns roomID when it is a guest room free for the stay.
// Long-term rooms never take guest bookings.
func checkGuestRoom(roomID string, checkIn, checkOut time.Time, rooms []model.Room, bookings []model.Booking, excludeBookingID string) (model.Room, error) {
	for _, r := range rooms {
		if r.ID != roomID {
			continue
		}
		if r.Kind != model.RoomKindGuest {
			return model.Room{}, &availability.UnavailableError{RoomID: roomID, LongTerm: true}
		}
		if err := availability.CheckRoom(roomID, checkIn, checkOut, guestRooms(rooms), bookings, excludeBookingID); err != nil {
			return model.Room{}, err
		}
		return r, nil
	}
	return model.Room{}, errs.NotFound("room", roomID)
}

// GetBooking returns one booking.
func (s *Service) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// Bookings returns every booking.
func (s *Service) Bookings(ctx context.Context) ([]model.Booking, error) {
	return s.store.ListBookings(ctx)
}

// TransitionBooking applies an operator action. Confirming re-checks the
// room against the other active bookings; checking in marks the room
// Occupied and checking out marks it Vacant.
func (s *Service) TransitionBooking(ctx context.Context, id string, action booking.Action) (model.Booking, error) {
	to, ok := action.Target()
	if !ok {
		return model.Booking{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if _, err := booking.Transition(b, to); err != nil {
		return b, err
	}

	if to == model.BookingConfirmed {
		rooms, err := s.store.ListRooms(ctx)
		if err != nil {
			return b, err
		}
		bookings, err := s.store.ListBookings(ctx)
		if err != nil {
			return b, err
		}
		if _, err := checkGuestRoom(b.RoomID, b.CheckIn, b.CheckOut, rooms, bookings, b.ID); err != nil {
			return b, err
		}
	}

	var updated model.Booking
	switch to {
	case model.BookingCheckedIn:
		updated, err = s.store.MoveGuest(ctx, id, b.Version, to, model.OccupancyOccupied, &b.ID)
	case model.BookingCheckedOut:
		updated, err = s.store.MoveGuest(ctx, id, b.Version, to, model.OccupancyVacant, nil)
	default:
		updated, err = s.store.UpdateBookingStatus(ctx, id, b.Version, to)
	}
	if err != nil {
		return b, err
	}

	switch to {
	case model.BookingConfirmed:
		s.logFailures("booking confirmed", s.send(ctx, []notification.Message{notification.BookingConfirmed(s.letterhead(), updated)}))
	case model.BookingCancelled:
		s.logFailures("booking cancelled", s.send(ctx, []notification.Message{notification.BookingCancelled(s.letterhead(), updated)}))
	}

	s.logger.Info("Booking transitioned",
		zap.String("booking_id", id),
		zap.String("from", string(b.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// GuestPayment is a payment received against a booking.
type GuestPayment struct {
	Amount decimal.Decimal `json:"amount"`
	PaidOn time.Time       `json:"paidOn"`
}

// RecordBookingPayment appends an income entry referencing the booking and
// its room and increases the booking's paid amount.
func (s *Service) RecordBookingPayment(ctx context.Context, id string, p GuestPayment) (model.Booking, error) {
	if !p.Amount.IsPositive() {
		return model.Booking{}, ErrInvalidAmount
	}
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}
	if b.Status == model.BookingCancelled {
		return b, &errs.InvalidTransitionError{BookingID: id, From: string(b.Status), To: "paid"}
	}
	if p.PaidOn.IsZero() {
		p.PaidOn = s.now()
	}

	entry := model.LedgerEntry{
		ID:          uuid.NewString(),
		Date:        p.PaidOn,
		Category:    model.CategoryBooking,
		Amount:      p.Amount,
		Description: fmt.Sprintf("Booking %s, %s", b.ID, b.GuestName),
		RoomID:      &b.RoomID,
		BookingID:   &b.ID,
	}
	return s.store.RecordBookingPayment(ctx, id, b.Version, entry)
}

func (s *Service) logFailures(what string, res notification.BatchResult) {
	for _, f := range res.Failures {
		s.logger.Warn("Notification failed",
			zap.String("workflow", what),
			zap.String("recipient", f.Recipient),
			zap.String("error", f.Error),
		)
	}
}
