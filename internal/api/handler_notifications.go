package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"property-ops-backend/internal/notification"
)

// Trigger returns a handler that runs one of the scheduled notification jobs
// on demand and reports its BatchResult.
func (h *Handler) Trigger(job func(context.Context) (notification.BatchResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := job(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		if res.Failures == nil {
			res.Failures = []notification.Failure{}
		}
		c.JSON(http.StatusOK, res)
	}
}
