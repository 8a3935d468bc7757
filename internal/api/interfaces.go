package api

import (
	"context"

	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/selection"
	"github.com/persistorai/vchain/internal/service"
)

// PlanService computes frontiers and plans; *service.Planner satisfies it.
type PlanService interface {
	Prepare(ctx context.Context, params service.PlanParams) (*service.Prepared, error)
	Selected(ctx context.Context, collection string, pred *selection.Predicate) ([]models.Edge, error)
}

// StatusStore is the slice of the edge store read directly by handlers.
type StatusStore interface {
	LoadBad(ctx context.Context, collection string) ([]models.BadIdentifier, error)
	Ping(ctx context.Context) error
}
