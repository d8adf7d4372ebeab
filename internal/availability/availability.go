// Package availability decides which rooms are free for a requested stay.
package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
)

var ErrRoomUnavailable = errors.New("room is not available for the requested dates")

// UnavailableError names the room and the bookings that block it.
type UnavailableError struct {
	RoomID      string
	Maintenance bool
	LongTerm    bool
	Conflicts   []string
}

func (e *UnavailableError) Error() string {
	if e.LongTerm {
		return fmt.Sprintf("room %s is let long-term and takes no guest stays", e.RoomID)
	}
	if e.Maintenance {
		return fmt.Sprintf("room %s is under maintenance", e.RoomID)
	}
	return fmt.Sprintf("room %s is not available: overlaps booking %s", e.RoomID, strings.Join(e.Conflicts, ", "))
}

func (e *UnavailableError) Is(target error) bool { return target == ErrRoomUnavailable }

// byRoom groups bookings by room id, keeping input order within each room.
func byRoom(bookings []model.Booking) map[string][]model.Booking {
	idx := make(map[string][]model.Booking)
	for _, b := range bookings {
		idx[b.RoomID] = append(idx[b.RoomID], b)
	}
	return idx
}

// AvailableRooms returns, in input order, the rooms that are not under
// maintenance and have no Confirmed or CheckedIn booking overlapping
// [checkIn, checkOut). Pending, CheckedOut and Cancelled bookings never block.
//
// Bookings are grouped by room once, so the cost is linear in rooms plus
// bookings; each room still scans every booking that references it.
func AvailableRooms(checkIn, checkOut time.Time, rooms []model.Room, bookings []model.Booking) ([]model.Room, error) {
	if _, err := dates.NightsBetween(checkIn, checkOut); err != nil {
		return nil, err
	}

	idx := byRoom(bookings)
	free := make([]model.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Occupancy == model.OccupancyMaintenance {
			continue
		}
		if len(conflicts(idx[room.ID], checkIn, checkOut, "", true)) > 0 {
			continue
		}
		free = append(free, room)
	}
	return free, nil
}

// Conflicts returns the blocking bookings on candidate's room that overlap
// candidate's stay. The candidate itself is ignored.
func Conflicts(candidate model.Booking, bookings []model.Booking) []model.Booking {
	var same []model.Booking
	for _, b := range bookings {
		if b.RoomID == candidate.RoomID {
			same = append(same, b)
		}
	}
	return conflicts(same, candidate.CheckIn, candidate.CheckOut, candidate.ID, false)
}

// CheckRoom verifies that a single room can take the stay, returning a
// NotFoundError for an unknown room and an UnavailableError when it is blocked.
func CheckRoom(roomID string, checkIn, checkOut time.Time, rooms []model.Room, bookings []model.Booking, excludeBookingID string) error {
	if _, err := dates.NightsBetween(checkIn, checkOut); err != nil {
		return err
	}

	var room *model.Room
	for i := range rooms {
		if rooms[i].ID == roomID {
			room = &rooms[i]
			break
		}
	}
	if room == nil {
		return errs.NotFound("room", roomID)
	}
	if room.Occupancy == model.OccupancyMaintenance {
		return &UnavailableError{RoomID: roomID, Maintenance: true}
	}

	found := conflicts(byRoom(bookings)[roomID], checkIn, checkOut, excludeBookingID, false)
	if len(found) > 0 {
		ids := make([]string, 0, len(found))
		for _, b := range found {
			ids = append(ids, b.ID)
		}
		return &UnavailableError{RoomID: roomID, Conflicts: ids}
	}
	return nil
}

// conflicts scans one room's bookings. With firstOnly it stops at the first hit.
func conflicts(roomBookings []model.Booking, checkIn, checkOut time.Time, excludeID string, firstOnly bool) []model.Booking {
	var out []model.Booking
	for _, b := range roomBookings {
		if !b.Status.Blocking() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		if dates.IntervalsOverlap(checkIn, checkOut, b.CheckIn, b.CheckOut) {
			out = append(out, b)
			if firstOnly {
				return out
			}
		}
	}
	return out
}
