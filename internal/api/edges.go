package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/selection"
)

// EdgeHandler lists stored edges.
type EdgeHandler struct {
	planner    PlanService
	store      StatusStore
	collection string
	predicate  *selection.Predicate
	log        *logrus.Logger
}

// NewEdgeHandler creates an EdgeHandler over the collection.
func NewEdgeHandler(planner PlanService, store StatusStore, collection string, pred *selection.Predicate, log *logrus.Logger) *EdgeHandler {
	return &EdgeHandler{planner: planner, store: store, collection: collection, predicate: pred, log: log}
}

// List handles GET /api/v1/edges. Only edges passing the configured selection
// are listed; parent narrows to one parent.
func (h *EdgeHandler) List(c *gin.Context) {
	parent := c.Query("parent")
	if len(parent) > maxIdentifierLen {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "parent exceeds maximum length")
		return
	}

	limit := parseLimit(c.DefaultQuery("limit", "100"), 100)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	edges, err := h.planner.Selected(c.Request.Context(), h.collection, h.predicate)
	if err != nil {
		respondStoreError(c, h.log, err, "listing edges")
		return
	}

	if parent != "" {
		kept := edges[:0]
		for i := range edges {
			if edges[i].ParentID == parent {
				kept = append(kept, edges[i])
			}
		}
		edges = kept
	}

	total := len(edges)
	page := []models.Edge{}
	if offset < total {
		page = edges[offset:min(offset+limit, total)]
	}

	c.JSON(http.StatusOK, gin.H{
		"collection": h.collection,
		"selection":  h.predicate.String(),
		"edges":      page,
		"total":      total,
		"has_more":   offset+len(page) < total,
	})
}

// Bad handles GET /api/v1/bad, optionally filtered by reason.
func (h *EdgeHandler) Bad(c *gin.Context) {
	var want models.Reason
	if raw := c.Query("reason"); raw != "" {
		r, err := models.ParseReason(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
			return
		}
		want = r
	}

	records, err := h.store.LoadBad(c.Request.Context(), h.collection)
	if err != nil {
		respondStoreError(c, h.log, err, "listing bad identifiers")
		return
	}

	out := make([]models.BadIdentifier, 0, len(records))
	for _, b := range records {
		if want == "" || b.Reason == want {
			out = append(out, b)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"collection": h.collection,
		"bad":        out,
		"count":      len(out),
	})
}
