package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
)

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, log *zap.Logger) Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &gormStore{db: db, log: log.With(zap.String("component", "store")), now: time.Now}
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(kind, id)
	}
	return fmt.Errorf("failed to load %s %s: %w", kind, id, err)
}

func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Order("id").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) GetRoom(ctx context.Context, id string) (model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).First(&room, "id = ?", id).Error; err != nil {
		return model.Room{}, notFound("room", id, err)
	}
	return room, nil
}

func (s *gormStore) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.db.WithContext(ctx).Order("room_id, move_in").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

func (s *gormStore) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := s.db.WithContext(ctx).Order("check_in, id").Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	return getBooking(s.db.WithContext(ctx), id)
}

func getBooking(tx *gorm.DB, id string) (model.Booking, error) {
	var b model.Booking
	if err := tx.First(&b, "id = ?", id).Error; err != nil {
		return model.Booking{}, notFound("booking", id, err)
	}
	return b, nil
}

func (s *gormStore) ListLedgerEntries(ctx context.Context, start, end time.Time) ([]model.LedgerEntry, error) {
	from, to := LedgerBounds(start, end)
	var entries []model.LedgerEntry
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date, id").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

func (s *gormStore) ListPricingRules(ctx context.Context) ([]model.PricingRule, error) {
	var rules []model.PricingRule
	if err := s.db.WithContext(ctx).Order("priority, id").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to list pricing rules: %w", err)
	}
	return rules, nil
}

// updateRoom applies values to a room and bumps its version.
func (s *gormStore) updateRoom(tx *gorm.DB, id string, values map[string]interface{}) error {
	values["version"] = gorm.Expr("version + 1")
	values["updated_at"] = s.now()
	res := tx.Model(&model.Room{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update room %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("room", id)
	}
	return nil
}

func (s *gormStore) WriteRoomStatus(ctx context.Context, roomID string, status model.PaymentStatus) error {
	return s.updateRoom(s.db.WithContext(ctx), roomID, map[string]interface{}{"payment_status": status})
}

func occupancyValues(occ model.Occupancy, occupantID *string) map[string]interface{} {
	return map[string]interface{}{
		"occupancy":   occ,
		"occupant_id": occupantID,
	}
}

func (s *gormStore) UpdateRoomOccupancy(ctx context.Context, roomID string, occ model.Occupancy, occupantID *string) error {
	return s.updateRoom(s.db.WithContext(ctx), roomID, occupancyValues(occ, occupantID))
}

func (s *gormStore) RecordRoomPayment(ctx context.Context, roomID string, paidOn time.Time, entry model.LedgerEntry) (model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&room, "id = ?", roomID).Error; err != nil {
			return notFound("room", roomID, err)
		}
		if room.LastPaymentDate == nil || paidOn.After(*room.LastPaymentDate) {
			if err := s.updateRoom(tx, roomID, map[string]interface{}{"last_payment_date": paidOn}); err != nil {
				return err
			}
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		return tx.First(&room, "id = ?", roomID).Error
	})
	if err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (s *gormStore) AppendLedgerEntry(ctx context.Context, entry model.LedgerEntry) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (s *gormStore) CreateBooking(ctx context.Context, b model.Booking) error {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&b)
	if res.Error != nil {
		return fmt.Errorf("failed to create booking %s: %w", b.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("booking %s: %w", b.ID, ErrDuplicate)
	}
	return nil
}

// updateBooking applies values to booking id guarded by version, then reloads it.
func (s *gormStore) updateBooking(tx *gorm.DB, id string, version int64, values map[string]interface{}) (model.Booking, error) {
	values["version"] = version + 1
	values["updated_at"] = s.now()
	res := tx.Model(&model.Booking{}).Where("id = ? AND version = ?", id, version).Updates(values)
	if res.Error != nil {
		return model.Booking{}, fmt.Errorf("failed to update booking %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := getBooking(tx, id); err != nil {
			return model.Booking{}, err
		}
		s.log.Warn("Stale booking write rejected", zap.String("booking_id", id), zap.Int64("version", version))
		return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrStaleWrite)
	}
	return getBooking(tx, id)
}

func (s *gormStore) UpdateBookingStatus(ctx context.Context, id string, version int64, status model.BookingStatus) (model.Booking, error) {
	var out model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.updateBooking(tx, id, version, map[string]interface{}{"status": status})
		out = b
		return err
	})
	return out, err
}

func (s *gormStore) MoveGuest(ctx context.Context, id string, version int64, status model.BookingStatus, occ model.Occupancy, occupantID *string) (model.Booking, error) {
	var out model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.updateBooking(tx, id, version, map[string]interface{}{"status": status})
		if err != nil {
			return err
		}
		if err := s.updateRoom(tx, b.RoomID, occupancyValues(occ, occupantID)); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	return out, nil
}

func (s *gormStore) RecordBookingPayment(ctx context.Context, id string, version int64, entry model.LedgerEntry) (model.Booking, error) {
	var out model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := getBooking(tx, id)
		if err != nil {
			return err
		}
		b, err := s.updateBooking(tx, id, version, map[string]interface{}{"paid": current.Paid.Add(entry.Amount)})
		if err != nil {
			return err
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		out = b
		return nil
	})
	return out, err
}

func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "label"}),
	}).Create(&sub).Error
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return model.PushSubscription{}, notFound("subscription", endpoint, err)
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error
}

func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}
