package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"property-ops-backend/internal/service"
)

// GetRooms handles GET /api/rooms.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.svc.Rooms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type roomStatusResponse struct {
	RoomID   string `json:"roomId"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Changed  bool   `json:"changed"`
}

// RefreshStatuses handles POST /api/rooms/status/refresh.
func (h *Handler) RefreshStatuses(c *gin.Context) {
	statuses, err := h.svc.RefreshPaymentStatuses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]roomStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, roomStatusResponse{
			RoomID:   s.RoomID,
			Previous: string(s.Previous),
			Current:  string(s.Current),
			Changed:  s.Changed(),
		})
	}
	c.JSON(http.StatusOK, out)
}

type rentPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaidOn      string          `json:"paidOn"`
	Description string          `json:"description"`
}

// PostRentPayment handles POST /api/rooms/:id/payments.
func (h *Handler) PostRentPayment(c *gin.Context) {
	var req rentPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	paidOn, err := h.date(req.PaidOn, time.Time{})
	if err != nil {
		badRequest(c, "paidOn: "+err.Error())
		return
	}

	room, err := h.svc.RecordRentPayment(c.Request.Context(), c.Param("id"), service.RentPayment{
		Amount:      req.Amount,
		PaidOn:      paidOn,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetAvailability handles GET /api/availability?check_in=&check_out=.
func (h *Handler) GetAvailability(c *gin.Context) {
	checkIn, err := h.date(c.Query("check_in"), time.Time{})
	if err != nil || checkIn.IsZero() {
		badRequest(c, "check_in must be a date")
		return
	}
	checkOut, err := h.date(c.Query("check_out"), time.Time{})
	if err != nil || checkOut.IsZero() {
		badRequest(c, "check_out must be a date")
		return
	}

	rooms, err := h.svc.Availability(c.Request.Context(), checkIn, checkOut)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

type quoteRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
}

// PostQuote handles POST /api/pricing/quote.
func (h *Handler) PostQuote(c *gin.Context) {
	var req quoteRequest
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

	q, err := h.svc.Quote(c.Request.Context(), req.RoomID, checkIn, checkOut)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"roomId":   req.RoomID,
		"baseRate": q.BaseRate,
		"rate":     q.Rate,
		"nights":   q.Nights,
		"total":    decimal.NewFromFloat(q.Total).Round(2),
		"applied":  q.Applied,
	})
}
