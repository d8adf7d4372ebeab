package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/payment"
)

// ErrInvalidAmount is returned for payments that are not positive.
var ErrInvalidAmount = errors.New("amount must be positive")

// RefreshPaymentStatuses derives every room's rent status and writes back
// the ones that changed. It returns the full evaluation.
func (s *Service) RefreshPaymentStatuses(ctx context.Context) ([]payment.RoomStatus, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	statuses := s.payments.Evaluate(rooms)

	changed := 0
	for _, st := range statuses {
		if !st.Changed() {
			continue
		}
		if err := s.store.WriteRoomStatus(ctx, st.RoomID, st.Current); err != nil {
			return statuses, fmt.Errorf("failed to write status for room %s: %w", st.RoomID, err)
		}
		changed++
	}
	s.logger.Info("Payment statuses refreshed", zap.Int("rooms", len(statuses)), zap.Int("changed", changed))
	return statuses, nil
}

// RentPayment is a rent payment received for a room.
type RentPayment struct {
	Amount      decimal.Decimal `json:"amount"`
	PaidOn      time.Time       `json:"paidOn"`
	Description string          `json:"description"`
}

// RecordRentPayment appends an income entry for the room, moves its last
// payment date forward and writes back the re-derived status.
func (s *Service) RecordRentPayment(ctx context.Context, roomID string, p RentPayment) (model.Room, error) {
	if !p.Amount.IsPositive() {
		return model.Room{}, ErrInvalidAmount
	}
	if p.PaidOn.IsZero() {
		p.PaidOn = s.now()
	}
	if p.Description == "" {
		p.Description = fmt.Sprintf("Rent %s, room %s", p.PaidOn.Format("January 2006"), roomID)
	}

	entry := model.LedgerEntry{
		ID:          uuid.NewString(),
		Date:        p.PaidOn,
		Category:    model.CategoryRent,
		Amount:      p.Amount,
		Description: p.Description,
		RoomID:      &roomID,
	}
	room, err := s.store.RecordRoomPayment(ctx, roomID, p.PaidOn, entry)
	if err != nil {
		return model.Room{}, err
	}

	status := s.payments.Status(room.Occupancy, room.LastPaymentDate)
	if status != room.PaymentStatus {
		if err := s.store.WriteRoomStatus(ctx, roomID, status); err != nil {
			return room, err
		}
		room.PaymentStatus = status
		room.Version++
	}
	s.logger.Info("Rent payment recorded",
		zap.String("room_id", roomID),
		zap.String("amount", p.Amount.String()),
		zap.String("status", string(status)),
	)
	return room, nil
}
