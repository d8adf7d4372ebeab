package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"property-ops-backend/config"
	"property-ops-backend/internal/booking"
	"property-ops-backend/internal/mw"
	"property-ops-backend/internal/service"
	"property-ops-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, svc *service.Service, s store.Store, webpushOptions *webpush.Options, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", mw.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", mw.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	handler := NewHandler(svc, s, webpushOptions, logger)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		api.GET("/rooms", handler.GetRooms)
		api.POST("/rooms/status/refresh", handler.RefreshStatuses)
		api.POST("/rooms/:id/payments", handler.PostRentPayment)

		api.GET("/availability", handler.GetAvailability)
		api.POST("/pricing/quote", handler.PostQuote)

		api.GET("/bookings", handler.GetBookings)
		api.POST("/bookings", handler.PostBooking)
		api.GET("/bookings/:id", handler.GetBooking)
		api.POST("/bookings/:id/confirm", handler.Transition(booking.ActionConfirm))
		api.POST("/bookings/:id/check-in", handler.Transition(booking.ActionCheckIn))
		api.POST("/bookings/:id/check-out", handler.Transition(booking.ActionCheckOut))
		api.POST("/bookings/:id/cancel", handler.Transition(booking.ActionCancel))
		api.POST("/bookings/:id/payments", handler.PostBookingPayment)

		api.POST("/ledger", handler.PostLedgerEntry)
		api.GET("/reports/revenue", caching, handler.GetRevenue)
		api.GET("/reports/revenue.xlsx", caching, handler.GetRevenueWorkbook)
		api.GET("/reports/occupancy", caching, handler.GetOccupancy)

		api.POST("/notifications/reminders", handler.Trigger(svc.SendRentReminders))
		api.POST("/notifications/overdue", handler.Trigger(svc.SendOverdueNotices))
		api.POST("/notifications/invoices", handler.Trigger(svc.SendMonthlyInvoices))

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
