package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"property-ops-backend/internal/booking"
	"property-ops-backend/internal/service"
)

type bookingRequest struct {
	GuestName  string `json:"guestName"`
	GuestEmail string `json:"guestEmail"`
	GuestPhone string `json:"guestPhone"`
	Guests     int    `json:"guests"`
	RoomID     string `json:"roomId"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Notes      string `json:"notes"`
}

// PostBooking handles POST /api/bookings.
func (h *Handler) PostBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	checkIn, err := h.date(req.CheckIn, time.Time{})
	if err != nil {
		badRequest(c, "checkIn: "+err.Error())
		return
	}
	checkOut, err := h.date(req.CheckOut, time.Time{})
	if err != nil {
		badRequest(c, "checkOut: "+err.Error())
		return
	}

	b, err := h.svc.SubmitBooking(c.Request.Context(), booking.Form{
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
		Guests:     req.Guests,
		RoomID:     req.RoomID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Source:     "api",
		Notes:      req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBookings handles GET /api/bookings.
func (h *Handler) GetBookings(c *gin.Context) {
	bookings, err := h.svc.Bookings(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// GetBooking handles GET /api/bookings/:id.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.svc.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Transition returns the handler for POST /api/bookings/:id/<action>.
func (h *Handler) Transition(action booking.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := h.svc.TransitionBooking(c.Request.Context(), c.Param("id"), action)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

type guestPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	PaidOn string          `json:"paidOn"`
}

// PostBookingPayment handles POST /api/bookings/:id/payments.
func (h *Handler) PostBookingPayment(c *gin.Context) {
	var req guestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	paidOn, err := h.date(req.PaidOn, time.Time{})
	if err != nil {
		badRequest(c, "paidOn: "+err.Error())
		return
	}

	b, err := h.svc.RecordBookingPayment(c.Request.Context(), c.Param("id"), service.GuestPayment{
		Amount: req.Amount,
		PaidOn: paidOn,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}
