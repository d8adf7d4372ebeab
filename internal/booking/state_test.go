package booking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
)

func TestTransition(t *testing.T) {
	testCases := []struct {
		from model.BookingStatus
		to   model.BookingStatus
		ok   bool
	}{
		{model.BookingPending, model.BookingConfirmed, true},
		{model.BookingPending, model.BookingCancelled, true},
		{model.BookingPending, model.BookingCheckedIn, false},
		{model.BookingPending, model.BookingCheckedOut, false},
		{model.BookingConfirmed, model.BookingCheckedIn, true},
		{model.BookingConfirmed, model.BookingCancelled, true},
		{model.BookingConfirmed, model.BookingPending, false},
		{model.BookingCheckedIn, model.BookingCheckedOut, true},
		{model.BookingCheckedIn, model.BookingCancelled, false},
		{model.BookingCheckedOut, model.BookingCheckedIn, false},
		{model.BookingCancelled, model.BookingConfirmed, false},
		{model.BookingCancelled, model.BookingCancelled, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			b := model.Booking{ID: "b1", Status: tc.from}
			got, err := Transition(b, tc.to)
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, got.Status)
				return
			}
			assert.True(t, errors.Is(err, errs.ErrInvalidTransition))
			assert.Equal(t, tc.from, got.Status)
		})
	}
}

func TestTransition_CheckOutFromPendingLeavesBookingUnmodified(t *testing.T) {
	b := model.Booking{ID: "b1", RoomID: "G1", Status: model.BookingPending, Version: 3}
	before := b

	_, err := Transition(b, model.BookingCheckedOut)

	var terr *errs.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "Pending", terr.From)
	assert.Equal(t, "CheckedOut", terr.To)
	assert.Equal(t, before, b)
}

func TestActionTarget(t *testing.T) {
	to, ok := ActionCheckIn.Target()
	require.True(t, ok)
	assert.Equal(t, model.BookingCheckedIn, to)

	_, ok = Action("archive").Target()
	assert.False(t, ok)
}
