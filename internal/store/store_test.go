package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSQLiteDB opens a migrated in-memory database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Room{}, &model.Tenant{}, &model.Booking{},
		&model.LedgerEntry{}, &model.PricingRule{}, &model.PushSubscription{},
	))
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func str(s string) *string { return &s }

func seedBooking(t *testing.T, db *gorm.DB, id string, status model.BookingStatus) model.Booking {
	b := model.Booking{
		ID:        id,
		RoomID:    "G1",
		GuestName: "Ada",
		Guests:    1,
		CheckIn:   day(2024, 6, 10),
		CheckOut:  day(2024, 6, 15),
		Total:     decimal.NewFromInt(540),
		Paid:      decimal.Zero,
		Status:    status,
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}

func TestGormStore_Rooms(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, db.Create(&[]model.Room{
		{ID: "102", BaseRate: 700, Occupancy: model.OccupancyVacant},
		{ID: "101", BaseRate: 800, Occupancy: model.OccupancyOccupied},
	}).Error)

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "101", rooms[0].ID)

	require.NoError(t, s.WriteRoomStatus(ctx, "101", model.PaymentDue))
	room, err := s.GetRoom(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentDue, room.PaymentStatus)
	assert.Equal(t, int64(1), room.Version)

	require.NoError(t, s.UpdateRoomOccupancy(ctx, "102", model.OccupancyOccupied, str("t-1")))
	room, err = s.GetRoom(ctx, "102")
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyOccupied, room.Occupancy)
	require.NotNil(t, room.OccupantID)
	assert.Equal(t, "t-1", *room.OccupantID)

	err = s.WriteRoomStatus(ctx, "999", model.PaymentPaid)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = s.GetRoom(ctx, "999")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestGormStore_RecordRoomPayment(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, nil)
	ctx := context.Background()

	last := day(2024, 3, 2)
	require.NoError(t, db.Create(&model.Room{ID: "101", BaseRate: 800, Occupancy: model.OccupancyOccupied, LastPaymentDate: &last}).Error)

	room, err := s.RecordRoomPayment(ctx, "101", day(2024, 4, 3), model.LedgerEntry{
		ID: "e1", Date: day(2024, 4, 3), Category: model.CategoryRent, Amount: decimal.NewFromInt(800), RoomID: str("101"),
	})
	require.NoError(t, err)
	require.NotNil(t, room.LastPaymentDate)
	assert.True(t, day(2024, 4, 3).Equal(*room.LastPaymentDate))

	// a late-recorded older payment does not move the date back
	room, err = s.RecordRoomPayment(ctx, "101", day(2024, 2, 1), model.LedgerEntry{
		ID: "e2", Date: day(2024, 2, 1), Category: model.CategoryRent, Amount: decimal.NewFromInt(800), RoomID: str("101"),
	})
	require.NoError(t, err)
	assert.True(t, day(2024, 4, 3).Equal(*room.LastPaymentDate))

	entries, err := s.ListLedgerEntries(ctx, day(2024, 1, 1), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = s.RecordRoomPayment(ctx, "404", day(2024, 4, 3), model.LedgerEntry{ID: "e3"})
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestGormStore_ListLedgerEntriesInclusive(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, nil)
	ctx := context.Background()

	for i, d := range []time.Time{
		day(2024, 2, 29),
		day(2024, 3, 1),
		time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC),
		day(2024, 4, 1),
	} {
		require.NoError(t, s.AppendLedgerEntry(ctx, model.LedgerEntry{
			ID: string(rune('a' + i)), Date: d, Category: "rent", Amount: decimal.NewFromInt(100),
		}))
	}

	entries, err := s.ListLedgerEntries(ctx, day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "c", entries[1].ID)
	assert.True(t, decimal.NewFromInt(100).Equal(entries[0].Amount))
}

func TestGormStore_BookingLifecycle(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, nil)
	ctx := context.Background()

	b := model.Booking{
		ID: "b1", RoomID: "G1", GuestName: "Ada", Guests: 1,
		CheckIn: day(2024, 6, 10), CheckOut: day(2024, 6, 15),
		Total: decimal.NewFromInt(540), Paid: decimal.Zero, Status: model.BookingPending,
	}
	require.NoError(t, s.CreateBooking(ctx, b))
	assert.True(t, errors.Is(s.CreateBooking(ctx, b), ErrDuplicate))

	got, err := s.UpdateBookingStatus(ctx, "b1", 0, model.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)
	assert.Equal(t, int64(1), got.Version)

	_, err = s.UpdateBookingStatus(ctx, "b1", 0, model.BookingCancelled)
	assert.True(t, errors.Is(err, ErrStaleWrite))

	_, err = s.UpdateBookingStatus(ctx, "missing", 0, model.BookingCancelled)
	assert.True(t, errors.Is(err, errs.ErrNotFound))

	got, err = s.RecordBookingPayment(ctx, "b1", 1, model.LedgerEntry{
		ID: "p1", Date: day(2024, 6, 1), Category: model.CategoryBooking,
		Amount: decimal.RequireFromString("200.50"), RoomID: str("G1"), BookingID: str("b1"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("200.50").Equal(got.Paid))
	assert.True(t, decimal.RequireFromString("339.50").Equal(got.Balance()))
	assert.Equal(t, int64(2), got.Version)

	// a stale payment leaves no ledger entry behind
	_, err = s.RecordBookingPayment(ctx, "b1", 1, model.LedgerEntry{
		ID: "p2", Date: day(2024, 6, 2), Category: model.CategoryBooking, Amount: decimal.NewFromInt(10),
	})
	assert.True(t, errors.Is(err, ErrStaleWrite))
	entries, err := s.ListLedgerEntries(ctx, day(2024, 6, 1), day(2024, 6, 30))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1", entries[0].ID)

	bookings, err := s.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestGormStore_MoveGuest(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, nil)
	ctx := context.Background()
	require.NoError(t, db.Create(&model.Room{ID: "G1", Kind: model.RoomKindGuest, BaseRate: 100, Occupancy: model.OccupancyVacant}).Error)
	for _, b := range []model.Booking{
		{ID: "b1", RoomID: "G1", GuestName: "Ada", Guests: 1, CheckIn: day(2024, 6, 10), CheckOut: day(2024, 6, 12), Status: model.BookingConfirmed},
		{ID: "b2", RoomID: "G9", GuestName: "Bo", Guests: 1, CheckIn: day(2024, 6, 10), CheckOut: day(2024, 6, 12), Status: model.BookingConfirmed},
	} {
		require.NoError(t, s.CreateBooking(ctx, b))
	}

	got, err := s.MoveGuest(ctx, "b1", 0, model.BookingCheckedIn, model.OccupancyOccupied, str("b1"))
	require.NoError(t, err)
	assert.Equal(t, model.BookingCheckedIn, got.Status)
	room, err := s.GetRoom(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, model.OccupancyOccupied, room.Occupancy)
	require.NotNil(t, room.OccupantID)
	assert.Equal(t, "b1", *room.OccupantID)

	_, err = s.MoveGuest(ctx, "b1", 0, model.BookingCheckedOut, model.OccupancyVacant, nil)
	assert.True(t, errors.Is(err, ErrStaleWrite))

	// the room update fails, so the status change is rolled back
	_, err = s.MoveGuest(ctx, "b2", 0, model.BookingCheckedIn, model.OccupancyOccupied, nil)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	b2, err := s.GetBooking(ctx, "b2")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, b2.Status)
	assert.Equal(t, int64(0), b2.Version)
}

func TestGormStore_Subscriptions(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, nil)
	ctx := context.Background()

	sub := model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k1", Auth: "a1"}
	require.NoError(t, s.SaveSubscription(ctx, sub))
	sub.Auth = "a2"
	require.NoError(t, s.SaveSubscription(ctx, sub))

	got, err := s.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Auth)

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	require.NoError(t, s.DeleteSubscription(ctx, sub.Endpoint))
	_, err = s.GetSubscription(ctx, sub.Endpoint)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestGormStore_ListPricingRulesOrdered(t *testing.T) {
	db := newSQLiteDB(t)
	s := NewGormStore(db, nil)

	require.NoError(t, db.Create(&[]model.PricingRule{
		{Name: "Long stay", Type: "LengthOfStay", Condition: "7+", Adjustment: "-10%", Priority: 2, Active: true},
		{Name: "Weekend", Type: "DayOfWeek", Condition: "Weekend", Adjustment: "+20%", Priority: 1, Active: true},
		{Name: "Off", Type: "DayOfWeek", Condition: "Weekend", Adjustment: "+5%", Priority: 0, Active: false},
	}).Error)

	rules, err := s.ListPricingRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "Off", rules[0].Name)
	assert.False(t, rules[0].Active)
	assert.Equal(t, "Weekend", rules[1].Name)
}

func TestGormStore_SQLShape(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		run              func(s Store) error
		expectedErr      error
	}{
		{
			name: "stale booking update rolls back",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
					WithArgs(model.BookingCancelled, Any{}, int64(4), "b1", int64(3)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings" WHERE id = $1`)).
					WithArgs("b1", 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "status", "version"}).AddRow("b1", "Confirmed", 5))
				mock.ExpectRollback()
			},
			run: func(s Store) error {
				_, err := s.UpdateBookingStatus(context.Background(), "b1", 3, model.BookingCancelled)
				return err
			},
			expectedErr: ErrStaleWrite,
		},
		{
			name: "room status write on missing room",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`UPDATE "rooms" SET "payment_status"=$1`)).
					WithArgs(model.PaymentOverdue, Any{}, "404").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			run: func(s Store) error {
				return s.WriteRoomStatus(context.Background(), "404", model.PaymentOverdue)
			},
			expectedErr: errs.ErrNotFound,
		},
		{
			name: "ledger range query",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ledger_entries" WHERE date >= $1 AND date < $2 ORDER BY date, id`)).
					WithArgs(day(2024, 3, 1), day(2024, 4, 1)).
					WillReturnRows(sqlmock.NewRows([]string{"id", "date", "category", "amount"}).
						AddRow("e1", day(2024, 3, 5), "rent", "800.00"))
			},
			run: func(s Store) error {
				entries, err := s.ListLedgerEntries(context.Background(), day(2024, 3, 1), day(2024, 3, 31))
				if err == nil && len(entries) != 1 {
					return errors.New("expected one entry")
				}
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			store := NewGormStore(gormDB, nil)

			tc.mockExpectations(mock)

			err := tc.run(store)

			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
