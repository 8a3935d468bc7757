package api_test

import (
	"context"

	"github.com/persistorai/vchain/internal/models"
	"github.com/persistorai/vchain/internal/selection"
	"github.com/persistorai/vchain/internal/service"
)

// mockPlanner implements api.PlanService for testing.
type mockPlanner struct {
	prepareFn  func(ctx context.Context, params service.PlanParams) (*service.Prepared, error)
	selectedFn func(ctx context.Context, collection string, pred *selection.Predicate) ([]models.Edge, error)

	lastParams service.PlanParams
}

func (m *mockPlanner) Prepare(ctx context.Context, params service.PlanParams) (*service.Prepared, error) {
	m.lastParams = params
	return m.prepareFn(ctx, params)
}

func (m *mockPlanner) Selected(ctx context.Context, collection string, pred *selection.Predicate) ([]models.Edge, error) {
	return m.selectedFn(ctx, collection, pred)
}

// mockStore implements api.StatusStore for testing.
type mockStore struct {
	bad     []models.BadIdentifier
	loadErr error
	pingErr error
}

func (m *mockStore) LoadBad(_ context.Context, _ string) ([]models.BadIdentifier, error) {
	return m.bad, m.loadErr
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}
