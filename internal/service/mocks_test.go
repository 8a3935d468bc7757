package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vchain/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func ptr[T any](v T) *T { return &v }

var testFetchTime = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

// mockStore is an in-memory EdgeStore that records calls. Hooks, when set,
// run before the in-memory behaviour and may short-circuit it with an error.
type mockStore struct {
	mu    sync.Mutex
	calls []string

	edges map[string][]models.Edge // parent -> batch
	order []string                 // parents in insertion order
	bad   []models.BadIdentifier

	loadAllErr  error
	loadBadErr  error
	insertErr   error
	existsHook  func(parentID string) (bool, bool) // (exists, override)
	insertCount int
}

func newMockStore() *mockStore {
	return &mockStore{edges: make(map[string][]models.Edge)}
}

func (m *mockStore) record(name string) {
	m.calls = append(m.calls, name)
}

func (m *mockStore) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockStore) LoadAll(_ context.Context, _ string) ([]models.Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("LoadAll")

	if m.loadAllErr != nil {
		return nil, m.loadAllErr
	}

	var out []models.Edge
	for _, p := range m.order {
		out = append(out, m.edges[p]...)
	}
	return out, nil
}

func (m *mockStore) LoadBad(_ context.Context, _ string) ([]models.BadIdentifier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("LoadBad")

	if m.loadBadErr != nil {
		return nil, m.loadBadErr
	}
	return append([]models.BadIdentifier(nil), m.bad...), nil
}

func (m *mockStore) Exists(_ context.Context, _ string, parentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exists")

	if m.existsHook != nil {
		if exists, override := m.existsHook(parentID); override {
			return exists, nil
		}
	}

	_, ok := m.edges[parentID]
	return ok, nil
}

func (m *mockStore) InsertBatch(_ context.Context, collection string, edges []models.Edge) (models.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("InsertBatch")

	if m.insertErr != nil {
		return models.InsertResult{}, m.insertErr
	}

	parent, err := models.BatchParent(edges)
	if err != nil {
		return models.InsertResult{}, err
	}

	if _, ok := m.edges[parent]; ok {
		return models.InsertResult{Duplicate: true}, nil
	}

	id := uuid.New()
	batch := make([]models.Edge, len(edges))
	for i, e := range edges {
		e.Collection = collection
		e.BatchID = id
		batch[i] = e
	}

	m.edges[parent] = batch
	m.order = append(m.order, parent)
	m.insertCount++

	return models.InsertResult{BatchID: id, Inserted: len(batch)}, nil
}

func (m *mockStore) InsertBad(_ context.Context, _ string, bad models.BadIdentifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("InsertBad")

	m.bad = append(m.bad, bad)
	return nil
}

func (m *mockStore) Ping(_ context.Context) error { return nil }

func (m *mockStore) Close() error { return nil }

// seed stores a batch directly, bypassing call recording.
func (m *mockStore) seed(edges ...models.Edge) {
	parent := edges[0].ParentID
	if _, ok := m.edges[parent]; !ok {
		m.order = append(m.order, parent)
	}
	m.edges[parent] = append(m.edges[parent], edges...)
}

func (m *mockStore) badReasons() map[string]models.Reason {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]models.Reason, len(m.bad))
	for _, b := range m.bad {
		out[b.Identifier] = b.Reason
	}
	return out
}

// mockFetcher answers FetchReport from a table of responses and records requested identifiers.
type mockFetcher struct {
	mu        sync.Mutex
	requested []string

	reports  map[string]*models.Extract
	failures map[string]error
	fallback func(ctx context.Context, id string) (*models.Extract, error)
}

func (f *mockFetcher) FetchReport(ctx context.Context, id string) (*models.Extract, error) {
	f.mu.Lock()
	f.requested = append(f.requested, id)
	f.mu.Unlock()

	if err, ok := f.failures[id]; ok {
		return nil, err
	}
	if x, ok := f.reports[id]; ok {
		return x, nil
	}
	if f.fallback != nil {
		return f.fallback(ctx, id)
	}
	return nil, &models.FetchFailure{Identifier: id, Reason: models.ReasonNoResults}
}

func (f *mockFetcher) wasRequested(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.requested {
		if r == id {
			return true
		}
	}
	return false
}

// report builds an extract for parent listing the given supplier identifiers.
func report(parent string, suppliers ...string) *models.Extract {
	x := &models.Extract{ParentID: parent, ParentName: parent + " Corp", FetchTime: testFetchTime}
	for _, s := range suppliers {
		x.Rows = append(x.Rows, models.ExtractRow{
			Identifier:      s,
			CompanyName:     s + " Inc",
			Relationship:    "Supplier",
			ConfidenceScore: ptr(95.0),
		})
	}
	return x
}

func supplierEdge(parent, counterparty string, score float64) models.Edge {
	return models.Edge{
		ParentID:        parent,
		CounterpartyID:  counterparty,
		Relationship:    models.RelationshipSupplier,
		ConfidenceScore: ptr(score),
		FetchTime:       testFetchTime,
	}
}
