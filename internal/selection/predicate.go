// Package selection decides which stored edges are eligible seeds for the
// next traversal.
//
// A Predicate is a conjunction of typed (field, comparator, bound) criteria
// plus an optional industry allow-list. There is no OR: every configured
// criterion must hold. An edge missing a compared field never matches.
package selection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/persistorai/vchain/internal/models"
)

// Op is a comparison operator.
type Op string

// Supported comparators. OpGTE is the default when none is given.
const (
	OpGTE Op = ">="
	OpGT  Op = ">"
	OpLTE Op = "<="
	OpLT  Op = "<"
	OpEQ  Op = "=="
)

func parseOp(s string) (Op, error) {
	switch op := Op(strings.TrimSpace(s)); op {
	case "":
		return OpGTE, nil
	case OpGTE, OpGT, OpLTE, OpLT, OpEQ:
		return op, nil
	default:
		return "", fmt.Errorf("unsupported comparator %q", s)
	}
}

// Criterion is one configured comparison. Bound is a number for numeric
// fields and a date string (or time.Time) for date fields.
type Criterion struct {
	Field string `yaml:"field" json:"field"`
	Op    string `yaml:"op" json:"op,omitempty"`
	Bound any    `yaml:"value" json:"value"`
}

// compiled is a validated criterion bound to a field accessor.
type compiled struct {
	field string
	op    Op
	bound float64
	get   accessor
}

// Predicate evaluates edges against the compiled criteria.
type Predicate struct {
	criteria   []compiled
	industries map[string]struct{}
}

// New validates criteria and returns a Predicate. Field names are resolved
// through the field registry, so original report column names are accepted.
func New(criteria []Criterion, industries []string) (*Predicate, error) {
	p := &Predicate{criteria: make([]compiled, 0, len(criteria))}

	for _, c := range criteria {
		fld, ok := lookupField(c.Field)
		if !ok {
			return nil, fmt.Errorf("unknown selection field %q", c.Field)
		}

		op, err := parseOp(c.Op)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", c.Field, err)
		}

		bound, err := fld.normalize(c.Bound)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", c.Field, err)
		}

		p.criteria = append(p.criteria, compiled{field: fld.name, op: op, bound: bound, get: fld.get})
	}

	if len(industries) > 0 {
		p.industries = make(map[string]struct{}, len(industries))
		for _, ind := range industries {
			p.industries[ind] = struct{}{}
		}
	}

	return p, nil
}

// FromMinimums builds a Predicate from a field -> minimum bound mapping.
func FromMinimums(minimums map[string]any, industries []string) (*Predicate, error) {
	return New(Minimums(minimums), industries)
}

// Minimums converts a field -> minimum bound mapping into ">=" criteria in
// field-name order, so errors are reproducible.
func Minimums(minimums map[string]any) []Criterion {
	fields := make([]string, 0, len(minimums))
	for f := range minimums {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	criteria := make([]Criterion, 0, len(fields))
	for _, f := range fields {
		criteria = append(criteria, Criterion{Field: f, Op: string(OpGTE), Bound: minimums[f]})
	}

	return criteria
}

// Empty reports whether the predicate selects every edge.
func (p *Predicate) Empty() bool {
	return p == nil || (len(p.criteria) == 0 && len(p.industries) == 0)
}

// Evaluate returns true only if every criterion holds and, when an industry
// set is configured, the edge's industry is a member of it.
func (p *Predicate) Evaluate(e *models.Edge) bool {
	if p == nil {
		return true
	}

	for _, c := range p.criteria {
		v, ok := c.get(e)
		if !ok {
			return false
		}

		if !compare(v, c.op, c.bound) {
			return false
		}
	}

	if p.industries != nil {
		if _, ok := p.industries[e.Industry]; !ok {
			return false
		}
	}

	return true
}

// Match implements store.Matcher.
func (p *Predicate) Match(e models.Edge) bool {
	return p.Evaluate(&e)
}

// Filter returns the edges accepted by the predicate, preserving order.
func (p *Predicate) Filter(edges []models.Edge) []models.Edge {
	if p.Empty() {
		return edges
	}

	out := make([]models.Edge, 0, len(edges))
	for i := range edges {
		if p.Evaluate(&edges[i]) {
			out = append(out, edges[i])
		}
	}

	return out
}

// String renders the predicate for logs.
func (p *Predicate) String() string {
	if p.Empty() {
		return "select-all"
	}

	parts := make([]string, 0, len(p.criteria)+1)
	for _, c := range p.criteria {
		parts = append(parts, fmt.Sprintf("%s %s %g", c.field, c.op, c.bound))
	}

	if len(p.industries) > 0 {
		inds := make([]string, 0, len(p.industries))
		for ind := range p.industries {
			inds = append(inds, ind)
		}

		sort.Strings(inds)
		parts = append(parts, fmt.Sprintf("industry in [%s]", strings.Join(inds, ", ")))
	}

	return strings.Join(parts, " AND ")
}

func compare(v float64, op Op, bound float64) bool {
	switch op {
	case OpGT:
		return v > bound
	case OpLTE:
		return v <= bound
	case OpLT:
		return v < bound
	case OpEQ:
		return v == bound
	default:
		return v >= bound
	}
}

// dayOrdinal maps a time to days since the Unix epoch, so dates compare as numbers.
// Division floors so that times before 1970 land on their own calendar day.
func dayOrdinal(t time.Time) float64 {
	secs := t.UTC().Unix()

	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}

	return float64(days)
}
