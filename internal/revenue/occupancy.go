package revenue

import (
	"time"

	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/model"
)

// Occupancy is the share of room-nights sold over a period.
type Occupancy struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	RoomCount      int       `json:"roomCount"`
	OccupiedNights int       `json:"occupiedNights"`
	PossibleNights int       `json:"possibleNights"`
	Rate           float64   `json:"rate"`
}

// occupying reports whether a booking in status s consumed its nights.
func occupying(s model.BookingStatus) bool {
	return s == model.BookingConfirmed || s == model.BookingCheckedIn || s == model.BookingCheckedOut
}

// OccupancyRate computes occupied over possible room-nights for the half-open
// period [start, end). Each booking is clipped to the period before its nights
// are counted. Pending and Cancelled bookings are ignored.
func OccupancyRate(bookings []model.Booking, start, end time.Time, roomCount int) (Occupancy, error) {
	periodNights, err := dates.NightsBetween(start, end)
	if err != nil {
		return Occupancy{}, err
	}

	occ := Occupancy{Start: start, End: end, RoomCount: roomCount}
	if roomCount <= 0 {
		return occ, nil
	}
	occ.PossibleNights = periodNights * roomCount

	for _, b := range bookings {
		if !occupying(b.Status) {
			continue
		}
		in, out, ok := dates.Clip(b.CheckIn, b.CheckOut, start, end)
		if !ok {
			continue
		}
		n, err := dates.NightsBetween(in, out)
		if err != nil {
			continue
		}
		occ.OccupiedNights += n
	}
	occ.Rate = float64(occ.OccupiedNights) / float64(occ.PossibleNights)
	return occ, nil
}
