// Package solver provides a small pseudo-boolean modeling layer together with
// an in-process SAT-backed implementation of it. A Model holds boolean
// variables, linear constraints over weighted sums of those variables and an
// optional minimization objective; a Solver executes the model within a time
// budget and reports one of four statuses. The modeling layer is deliberately
// generic: callers encode their domain into it and must not rely on any
// particular search order of the backend.
package solver

import "time"

// Status is the verdict of a solve call. Unknown (budget exhausted without a
// verdict) is distinct from Infeasible (proven unsatisfiable) and callers must
// never treat the former as the latter.
type Status int

const (
	StatusUnknown Status = iota
	StatusInfeasible
	StatusFeasible
	StatusOptimal
)

func (s Status) String() string {
	switch s {
	case StatusInfeasible:
		return "infeasible"
	case StatusFeasible:
		return "feasible"
	case StatusOptimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// Solved reports whether the solver produced a total variable assignment.
func (s Status) Solved() bool {
	return s == StatusFeasible || s == StatusOptimal
}

// BoolVar identifies a boolean variable within one Model. Variables are
// scoped to the model that created them and must not be mixed across models.
type BoolVar int

// Term is one weighted variable of a linear sum. Weights may be negative;
// the backend rewrites negative weights onto negated literals.
type Term struct {
	Var    BoolVar
	Weight int
}

// Sum builds unit-weight terms over vars.
func Sum(vars []BoolVar) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Weight: 1}
	}
	return terms
}

type constraintKind int

const (
	kindEquality constraintKind = iota
	kindAtMost
	kindAtLeast
	kindEquivalence
)

type constraint struct {
	kind  constraintKind
	terms []Term
	bound int
	a, b  BoolVar // kindEquivalence only
}

// Model is a mutable arena of variables and constraints built up during
// compilation and handed to a Solver. It is not safe for concurrent use;
// each solve session builds its own.
type Model struct {
	names       []string
	constraints []constraint
	objective   []Term
}

func NewModel() *Model {
	return &Model{}
}

// NewBoolVar allocates a fresh boolean variable. The name is kept for
// debugging only and has no semantic meaning.
func (m *Model) NewBoolVar(name string) BoolVar {
	m.names = append(m.names, name)
	return BoolVar(len(m.names) - 1)
}

func (m *Model) NumVars() int { return len(m.names) }

func (m *Model) NumConstraints() int { return len(m.constraints) }

// AddEquality constrains the weighted sum of terms to equal bound.
func (m *Model) AddEquality(terms []Term, bound int) {
	m.constraints = append(m.constraints, constraint{kind: kindEquality, terms: terms, bound: bound})
}

// AddAtMost constrains the weighted sum of terms to be <= bound.
func (m *Model) AddAtMost(terms []Term, bound int) {
	m.constraints = append(m.constraints, constraint{kind: kindAtMost, terms: terms, bound: bound})
}

// AddAtLeast constrains the weighted sum of terms to be >= bound.
func (m *Model) AddAtLeast(terms []Term, bound int) {
	m.constraints = append(m.constraints, constraint{kind: kindAtLeast, terms: terms, bound: bound})
}

// AddEquivalence constrains two variables to take the same value.
func (m *Model) AddEquivalence(a, b BoolVar) {
	m.constraints = append(m.constraints, constraint{kind: kindEquivalence, a: a, b: b})
}

// FixTrue forces v to 1.
func (m *Model) FixTrue(v BoolVar) {
	m.AddEquality([]Term{{Var: v, Weight: 1}}, 1)
}

// FixFalse forces v to 0.
func (m *Model) FixFalse(v BoolVar) {
	m.AddEquality([]Term{{Var: v, Weight: 1}}, 0)
}

// Minimize appends terms to the minimization objective. Objective weights
// must be positive; feasibility never depends on the objective.
func (m *Model) Minimize(terms ...Term) {
	for _, t := range terms {
		if t.Weight <= 0 {
			panic("solver: objective weights must be positive")
		}
	}
	m.objective = append(m.objective, terms...)
}

// HasObjective reports whether any objective terms were added.
func (m *Model) HasObjective() bool { return len(m.objective) > 0 }

// Result carries the verdict of a solve and, when Status.Solved(), a total
// assignment plus the achieved objective value.
type Result struct {
	Status    Status
	Objective int
	values    []bool
}

// Value returns the solved value of v. Only meaningful when Status.Solved().
func (r Result) Value(v BoolVar) bool {
	if int(v) >= len(r.values) {
		return false
	}
	return r.values[v]
}

// Solver executes a compiled model within a wall-clock budget. The call is
// blocking and atomic from the caller's point of view; cancellation is
// budget-only.
type Solver interface {
	Solve(m *Model, budget time.Duration) (Result, error)
}
