package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/middleware"
)

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if cid := c.GetString(middleware.ClientRequestIDKey); cid != "" {
			fields["client_request_id"] = cid
		}
		log.WithFields(fields).Info("request")
	}
}

const (
	maxPaginationLimit  = 1000
	maxPaginationOffset = 1_000_000
	maxSeeds            = 100
	maxIdentifierLen    = 255
)

func parseLimit(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	return min(v, maxPaginationLimit)
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	return min(v, maxPaginationOffset)
}

// parseSeeds accepts repeated seed parameters and comma-separated lists.
// Identifiers such as "AAPL US" contain spaces, so only commas split.
func parseSeeds(c *gin.Context) ([]string, error) {
	var seeds []string

	for _, raw := range c.QueryArray("seed") {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if len(s) > maxIdentifierLen {
				return nil, fmt.Errorf("seed exceeds maximum length of %d", maxIdentifierLen)
			}
			seeds = append(seeds, s)
		}
	}

	if len(seeds) > maxSeeds {
		return nil, fmt.Errorf("at most %d seeds are allowed", maxSeeds)
	}

	return seeds, nil
}

// parseBound reads a non-negative integer query parameter, falling back when absent.
func parseBound(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}

	return v, nil
}
