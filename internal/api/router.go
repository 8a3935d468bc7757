package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Store       StatusStore
	Planner     PlanService
	Defaults    PlanDefaults
	Backend     string
	CORSOrigins []string
	Version     string
}

// Router-level limits.
const (
	maxBodySize  = 64 << 10 // read-only API; no handler reads a body
	maxInFlight  = 4        // concurrent full-collection computations
	corsMaxAge   = time.Hour
	metricsRoute = "/metrics"
)

func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))

	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodOptions},
			AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
			ExposeHeaders: []string{middleware.RequestIDHeader},
			MaxAge:        corsMaxAge,
		}))
	}

	r.Use(middleware.Prometheus())

	r.GET(metricsRoute, gin.WrapH(promhttp.Handler()))
}

func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	health := NewHealthHandler(deps.Store, deps.Log, deps.Version, deps.Backend)
	plans := NewPlanHandler(deps.Planner, deps.Defaults, deps.Log)
	edges := NewEdgeHandler(deps.Planner, deps.Store, deps.Defaults.Collection, deps.Defaults.Predicate, deps.Log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	api.GET("/bad", edges.Bad)

	// Each of these loads the whole collection.
	heavy := api.Group("", middleware.InFlight(maxInFlight))
	heavy.GET("/frontier", plans.Frontier)
	heavy.GET("/plan", plans.Plan)
	heavy.GET("/edges", edges.List)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
