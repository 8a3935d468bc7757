package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/httputil"
	"github.com/persistorai/vchain/internal/metrics"
	"github.com/persistorai/vchain/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeInternalError    = "internal_error"
	ErrCodeStoreUnavailable = "store_unavailable"
	ErrCodeEmptyPlan        = "empty_plan"
)

func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondStoreError maps a store or planner failure to 503 or 500 and logs it.
func respondStoreError(c *gin.Context, log *logrus.Logger, err error, msg string) {
	if errors.Is(err, models.ErrStoreUnavailable) {
		log.WithError(err).Warn(msg)
		respondError(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "edge store unavailable")

		return
	}

	log.WithError(err).Error(msg)
	respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}
