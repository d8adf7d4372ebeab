// Package api exposes the property service over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-ops-backend/internal/availability"
	"property-ops-backend/internal/booking"
	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/parse"
	"property-ops-backend/internal/service"
	"property-ops-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *service.Service
	subs    store.Store
	webpush *webpush.Options
	logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Service, s store.Store, webpushOptions *webpush.Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:     svc,
		subs:    s,
		webpush: webpushOptions,
		logger:  logger.With(zap.String("component", "api")),
	}
}

// statusFor maps an error onto the HTTP status the client sees.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidForm),
		errors.Is(err, errs.ErrInvalidRange),
		errors.Is(err, errs.ErrInvalidRule),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidEntry),
		errors.Is(err, service.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, availability.ErrRoomUnavailable),
		errors.Is(err, store.ErrStaleWrite),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": err.Error()}
	var formErr *booking.FormError
	if errors.As(err, &formErr) {
		body["fields"] = formErr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// date reads a date parameter in the property's time zone. A blank value
// yields fallback.
func (h *Handler) date(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	return parse.Date(raw, h.svc.Location())
}
