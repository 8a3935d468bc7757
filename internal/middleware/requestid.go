// Package middleware provides gin middleware for the vchain status API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/httputil"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = httputil.RequestIDKey

	// ClientRequestIDKey holds the caller's own X-Request-ID, if it sent one.
	ClientRequestIDKey = "client_request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"
)

// maxClientRequestID bounds how much of a caller-supplied ID is kept for logging.
const maxClientRequestID = 128

// RequestID assigns every request a fresh server-side UUID. A caller-supplied
// X-Request-ID is kept alongside it for correlation but never replaces it.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			if len(clientID) > maxClientRequestID {
				clientID = clientID[:maxClientRequestID]
			}

			c.Set(ClientRequestIDKey, clientID)
			log.WithFields(logrus.Fields{
				"request_id":        id,
				"client_request_id": clientID,
			}).Debug("client request ID mapped")
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
