package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"property-ops-backend/internal/model"
	"property-ops-backend/internal/revenue"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ledgerRequest struct {
	Date        string          `json:"date"`
	Category    string          `json:"category" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	RoomID      *string         `json:"roomId"`
	BookingID   *string         `json:"bookingId"`
}

// PostLedgerEntry handles POST /api/ledger.
func (h *Handler) PostLedgerEntry(c *gin.Context) {
	var req ledgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	date, err := h.date(req.Date, h.svc.Now())
	if err != nil {
		badRequest(c, "date: "+err.Error())
		return
	}

	entry, err := h.svc.AppendLedgerEntry(c.Request.Context(), model.LedgerEntry{
		Date:        date,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		RoomID:      req.RoomID,
		BookingID:   req.BookingID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ledgerRange reads the inclusive start and end query parameters,
// defaulting to the current month.
func (h *Handler) ledgerRange(c *gin.Context) (time.Time, time.Time, bool) {
	first, last := revenue.MonthRange(h.svc.Now())
	start, err := h.date(c.Query("start"), first)
	if err != nil {
		badRequest(c, "start: "+err.Error())
		return start, start, false
	}
	end, err := h.date(c.Query("end"), last)
	if err != nil {
		badRequest(c, "end: "+err.Error())
		return start, end, false
	}
	return start, end, true
}

// GetRevenue handles GET /api/reports/revenue?start=&end=&category=.
// Both days are inclusive; the range defaults to the current month.
func (h *Handler) GetRevenue(c *gin.Context) {
	start, end, ok := h.ledgerRange(c)
	if !ok {
		return
	}

	report, err := h.svc.RevenueReport(c.Request.Context(), start, end, c.QueryArray("category")...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetRevenueWorkbook handles GET /api/reports/revenue.xlsx.
func (h *Handler) GetRevenueWorkbook(c *gin.Context) {
	start, end, ok := h.ledgerRange(c)
	if !ok {
		return
	}

	data, err := h.svc.RevenueWorkbook(c.Request.Context(), start, end, c.QueryArray("category")...)
	if err != nil {
		h.fail(c, err)
		return
	}
	name := fmt.Sprintf("revenue-%s-%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetOccupancy handles GET /api/reports/occupancy?start=&end=. The period is
// half-open and defaults to the current month.
func (h *Handler) GetOccupancy(c *gin.Context) {
	first, last := revenue.MonthRange(h.svc.Now())
	start, err := h.date(c.Query("start"), first)
	if err != nil {
		badRequest(c, "start: "+err.Error())
		return
	}
	end, err := h.date(c.Query("end"), last.AddDate(0, 0, 1))
	if err != nil {
		badRequest(c, "end: "+err.Error())
		return
	}

	occ, err := h.svc.OccupancyReport(c.Request.Context(), start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, occ)
}
