package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/pricing"
)

// ErrInvalidForm is matched by every *FormError.
var ErrInvalidForm = errors.New("invalid booking form")

// Form is a guest booking request as submitted through the intake form or API.
type Form struct {
	GuestName  string    `json:"guestName" validate:"required,max=256"`
	GuestEmail string    `json:"guestEmail" validate:"required,email,max=256"`
	GuestPhone string    `json:"guestPhone" validate:"omitempty,max=64"`
	Guests     int       `json:"guests" validate:"min=1,max=12"`
	RoomID     string    `json:"roomId" validate:"omitempty,max=32"`
	CheckIn    time.Time `json:"checkIn" validate:"required"`
	CheckOut   time.Time `json:"checkOut" validate:"required,gtfield=CheckIn"`
	Source     string    `json:"source" validate:"max=64"`
	Notes      string    `json:"notes" validate:"max=1024"`
}

// FormError lists the fields of a Form that failed validation.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *FormError) Is(target error) bool { return target == ErrInvalidForm }

var validate = validator.New()

// Validate checks f against its field rules.
func Validate(f Form) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return &FormError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Minimum is %s", fe.Param())
	case "max":
		return fmt.Sprintf("Maximum is %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("Must be after %s", fe.Param())
	default:
		return fmt.Sprintf("Invalid %s field", fe.Field())
	}
}

// New builds a Pending booking for roomID from a validated form, priced by q.
func New(f Form, roomID string, q pricing.Quote, now time.Time) model.Booking {
	source := f.Source
	if source == "" {
		source = "form"
	}
	return model.Booking{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		GuestName:  strings.TrimSpace(f.GuestName),
		GuestEmail: strings.TrimSpace(f.GuestEmail),
		GuestPhone: strings.TrimSpace(f.GuestPhone),
		Guests:     f.Guests,
		CheckIn:    f.CheckIn,
		CheckOut:   f.CheckOut,
		Total:      decimal.NewFromFloat(q.Total).Round(2),
		Paid:       decimal.Zero,
		Status:     model.BookingPending,
		Source:     source,
		Notes:      f.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
