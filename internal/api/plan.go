package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/frontier"
	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/selection"
	"github.com/persistorai/vchain/internal/service"
)

// PlanDefaults are applied when a request omits a bound.
type PlanDefaults struct {
	Collection string
	Predicate  *selection.Predicate
	Seeds      []string
	MaxDepth   int
	MaxFetch   int
}

// PlanHandler serves frontier and fetch-plan previews.
type PlanHandler struct {
	planner  PlanService
	defaults PlanDefaults
	log      *logrus.Logger
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(planner PlanService, defaults PlanDefaults, log *logrus.Logger) *PlanHandler {
	return &PlanHandler{planner: planner, defaults: defaults, log: log}
}

type frontierResponse struct {
	Collection    string         `json:"collection"`
	Seeds         []string       `json:"seeds"`
	MaxDepth      int            `json:"max_depth"`
	Hops          int            `json:"hops"`
	Size          int            `json:"size"`
	Order         []string       `json:"order"`
	Depth         map[string]int `json:"depth"`
	SelectedEdges int            `json:"selected_edges"`
	TotalEdges    int            `json:"total_edges"`
}

type planResponse struct {
	Collection   string   `json:"collection"`
	Seeds        []string `json:"seeds"`
	MaxDepth     int      `json:"max_depth"`
	MaxFetch     int      `json:"max_fetch"`
	Plan         []string `json:"plan"`
	FrontierSize int      `json:"frontier_size"`
	Fetched      int      `json:"fetched"`
	Bad          int      `json:"bad"`
}

// params resolves query parameters over the defaults. It writes a 400 and
// returns false when they are invalid.
func (h *PlanHandler) params(c *gin.Context) (service.PlanParams, bool) {
	p := service.PlanParams{
		Collection: h.defaults.Collection,
		Predicate:  h.defaults.Predicate,
		Seeds:      h.defaults.Seeds,
		MaxDepth:   h.defaults.MaxDepth,
		MaxFetch:   h.defaults.MaxFetch,
	}

	seeds, err := parseSeeds(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return p, false
	}
	if len(seeds) > 0 {
		p.Seeds = seeds
	}

	if p.MaxDepth, err = parseBound(c, "depth", p.MaxDepth); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return p, false
	}

	if p.MaxFetch, err = parseBound(c, "max_fetch", p.MaxFetch); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return p, false
	}

	return p, true
}

// prepare runs the planner and reports whether the plan came back empty.
// On failure it writes the error response and returns ok false.
func (h *PlanHandler) prepare(c *gin.Context, p service.PlanParams) (prep *service.Prepared, empty, ok bool) {
	prep, err := h.planner.Prepare(c.Request.Context(), p)
	switch {
	case err == nil:
		return prep, false, true
	case errors.Is(err, models.ErrEmptyPlan):
		return prep, true, true
	case errors.Is(err, frontier.ErrNoSeeds), errors.Is(err, frontier.ErrInvalidDepth):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	default:
		respondStoreError(c, h.log, err, "preparing plan")
	}

	return nil, false, false
}

// Frontier handles GET /api/v1/frontier.
func (h *PlanHandler) Frontier(c *gin.Context) {
	p, ok := h.params(c)
	if !ok {
		return
	}

	prep, _, ok := h.prepare(c, p)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, frontierResponse{
		Collection:    p.Collection,
		Seeds:         p.Seeds,
		MaxDepth:      p.MaxDepth,
		Hops:          prep.Frontier.Hops,
		Size:          prep.Frontier.Len(),
		Order:         prep.Frontier.Order,
		Depth:         prep.Frontier.Depth,
		SelectedEdges: prep.Selected,
		TotalEdges:    prep.TotalEdges,
	})
}

// Plan handles GET /api/v1/plan. An empty plan is reported as 422.
func (h *PlanHandler) Plan(c *gin.Context) {
	p, ok := h.params(c)
	if !ok {
		return
	}

	prep, empty, ok := h.prepare(c, p)
	if !ok {
		return
	}

	if empty {
		respondError(c, http.StatusUnprocessableEntity, ErrCodeEmptyPlan, "nothing left to fetch under the current selection")
		return
	}

	c.JSON(http.StatusOK, planResponse{
		Collection:   p.Collection,
		Seeds:        p.Seeds,
		MaxDepth:     p.MaxDepth,
		MaxFetch:     p.MaxFetch,
		Plan:         prep.Plan,
		FrontierSize: prep.Frontier.Len(),
		Fetched:      len(prep.Fetched),
		Bad:          len(prep.Bad),
	})
}
