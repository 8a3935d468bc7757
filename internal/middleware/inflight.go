package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// InFlight bounds how many requests run the wrapped handlers at once. Frontier
// and plan requests each load the whole collection, so excess callers are
// turned away with 503 instead of queueing behind them.
func InFlight(limit int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(limit)

	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			c.Header("Retry-After", "1")
			respondError(c, http.StatusServiceUnavailable, "busy", "too many computations in flight")

			return
		}
		defer sem.Release(1)

		c.Next()
	}
}
