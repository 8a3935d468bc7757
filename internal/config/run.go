package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/persistorai/vchain/internal/selection"
)

// Run parameter defaults.
const (
	DefaultMaxDepth       = 7
	DefaultMaxFetchPerRun = 40
	DefaultMaxErrorBudget = 10
	DefaultPasses         = 4
)

// RunParams configures one crawl or plan invocation.
type RunParams struct {
	// Selection maps a field to its minimum bound.
	Selection map[string]any `yaml:"selection"`
	// Criteria adds comparisons other than ">=".
	Criteria       []selection.Criterion `yaml:"criteria"`
	Industries     []string              `yaml:"industries"`
	Seeds          []string              `yaml:"seeds"`
	MaxDepth       int                   `yaml:"max_depth"`
	MaxFetchPerRun int                   `yaml:"max_fetch_per_run"`
	MaxErrorBudget int                   `yaml:"max_error_budget"`
	Passes         int                   `yaml:"passes"`
}

// DefaultRunParams returns the parameters used when no file is given.
func DefaultRunParams() RunParams {
	return RunParams{
		MaxDepth:       DefaultMaxDepth,
		MaxFetchPerRun: DefaultMaxFetchPerRun,
		MaxErrorBudget: DefaultMaxErrorBudget,
		Passes:         DefaultPasses,
	}
}

// LoadRunParams reads a YAML parameter file over the defaults. An empty path
// returns the defaults. The result is not validated; call Validate once flag
// overrides are applied.
func LoadRunParams(path string) (RunParams, error) {
	p := DefaultRunParams()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is user-supplied on the command line.
	if err != nil {
		return p, fmt.Errorf("reading run params: %w", err)
	}

	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing run params %s: %w", path, err)
	}

	return p, nil
}

// Validate checks the parameter bounds and that the selection compiles.
func (p RunParams) Validate() error {
	var errs []error

	if len(p.Seeds) == 0 {
		errs = append(errs, errors.New("at least one seed is required"))
	}
	if p.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be at least 1, got %d", p.MaxDepth))
	}
	if p.MaxFetchPerRun < 0 {
		errs = append(errs, fmt.Errorf("max_fetch_per_run must not be negative, got %d", p.MaxFetchPerRun))
	}
	if p.MaxErrorBudget < 0 {
		errs = append(errs, fmt.Errorf("max_error_budget must not be negative, got %d", p.MaxErrorBudget))
	}
	if p.Passes < 1 {
		errs = append(errs, fmt.Errorf("passes must be at least 1, got %d", p.Passes))
	}
	if _, err := p.Predicate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Predicate compiles the selection minimums and explicit criteria into one predicate.
func (p RunParams) Predicate() (*selection.Predicate, error) {
	criteria := append(selection.Minimums(p.Selection), p.Criteria...)

	pred, err := selection.New(criteria, p.Industries)
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}

	return pred, nil
}
