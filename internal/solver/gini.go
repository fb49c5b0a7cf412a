package solver

import (
	"time"

	"github.com/irifrance/gini"
	"github.com/irifrance/gini/logic"
	"github.com/irifrance/gini/z"
)

// giniSolver runs models on the gini CDCL engine. Linear constraints are
// translated into sorting-network cardinality constraints (logic.CardSort):
// a term of weight w contributes w copies of its literal to the network, and
// a term of negative weight contributes |w| copies of the negated literal
// while shifting the bound by |w|. The objective is minimized by binary
// search over the Leq outputs of one objective network under assumptions.
type giniSolver struct{}

// NewGiniSolver returns a Solver backed by the in-process gini SAT engine.
func NewGiniSolver() Solver {
	return &giniSolver{}
}

func (gs *giniSolver) Solve(m *Model, budget time.Duration) (Result, error) {
	deadline := time.Now().Add(budget)

	g := gini.New()
	circ := logic.NewC()
	lits := make([]z.Lit, m.NumVars())
	for i := range lits {
		lits[i] = circ.Lit()
	}

	for _, c := range m.constraints {
		if !addConstraint(g, circ, lits, c) {
			// Constraint is unsatisfiable by inspection (e.g. an empty sum
			// required to reach a positive bound).
			return Result{Status: StatusInfeasible}, nil
		}
	}

	if !m.HasObjective() {
		circ.ToCnf(g)
		switch try(g, deadline) {
		case 1:
			return Result{Status: StatusOptimal, values: snapshot(g, lits)}, nil
		case -1:
			return Result{Status: StatusInfeasible}, nil
		default:
			return Result{Status: StatusUnknown}, nil
		}
	}

	objLits, _ := expand(lits, m.objective, 0)
	card := logic.NewCardSort(objLits, circ)
	circ.ToCnf(g)

	switch try(g, deadline) {
	case -1:
		return Result{Status: StatusInfeasible}, nil
	case 0:
		return Result{Status: StatusUnknown}, nil
	}

	best := snapshot(g, lits)
	bestObj := evalObjective(m.objective, best)

	// Tighten the bound until the incumbent is proven optimal or the budget
	// runs out. The Leq literal is assumed, not asserted, so every bound is
	// retractable.
	lo, hi := 0, bestObj
	for lo < hi {
		mid := lo + (hi-1-lo)/2
		g.Assume(card.Leq(mid))
		switch try(g, deadline) {
		case 1:
			best = snapshot(g, lits)
			bestObj = evalObjective(m.objective, best)
			hi = bestObj
		case -1:
			lo = mid + 1
		default:
			return Result{Status: StatusFeasible, Objective: bestObj, values: best}, nil
		}
	}
	return Result{Status: StatusOptimal, Objective: bestObj, values: best}, nil
}

// addConstraint encodes one constraint into g. It returns false when the
// constraint cannot be satisfied by any assignment, in which case nothing
// further needs solving.
func addConstraint(g *gini.Gini, circ *logic.C, lits []z.Lit, c constraint) bool {
	if c.kind == kindEquivalence {
		a, b := lits[c.a], lits[c.b]
		g.Add(a.Not())
		g.Add(b)
		g.Add(0)
		g.Add(a)
		g.Add(b.Not())
		g.Add(0)
		return true
	}

	ms, bound := expand(lits, c.terms, c.bound)
	n := len(ms)

	needLeq := c.kind == kindEquality || c.kind == kindAtMost
	needGeq := c.kind == kindEquality || c.kind == kindAtLeast

	if needLeq && bound < 0 {
		return false
	}
	if needGeq && bound > n {
		return false
	}

	if needLeq && bound == 0 {
		for _, l := range ms {
			g.Add(l.Not())
			g.Add(0)
		}
		needLeq = false
		needGeq = false // sum is zero, any lower bound <= 0 already held
	}
	if needGeq && bound == n {
		for _, l := range ms {
			g.Add(l)
			g.Add(0)
		}
		needGeq = false
		needLeq = false // sum is n, any upper bound >= n already held
	}
	if needLeq && bound >= n {
		needLeq = false
	}
	if needGeq && bound <= 0 {
		needGeq = false
	}
	if !needLeq && !needGeq {
		return true
	}

	card := logic.NewCardSort(ms, circ)
	if needLeq {
		g.Add(card.Leq(bound))
		g.Add(0)
	}
	if needGeq {
		g.Add(card.Geq(bound))
		g.Add(0)
	}
	return true
}

// expand turns weighted terms into a multiset of literals suitable for a
// cardinality network, folding negative weights into negated literals and
// adjusting the bound accordingly.
func expand(lits []z.Lit, terms []Term, bound int) ([]z.Lit, int) {
	var ms []z.Lit
	for _, t := range terms {
		w, lit := t.Weight, lits[t.Var]
		if w < 0 {
			w, lit = -w, lit.Not()
			bound += w
		}
		for i := 0; i < w; i++ {
			ms = append(ms, lit)
		}
	}
	return ms, bound
}

func try(g *gini.Gini, deadline time.Time) int {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0
	}
	return g.Try(remaining)
}

func snapshot(g *gini.Gini, lits []z.Lit) []bool {
	values := make([]bool, len(lits))
	for i, l := range lits {
		values[i] = g.Value(l)
	}
	return values
}

func evalObjective(objective []Term, values []bool) int {
	total := 0
	for _, t := range objective {
		if values[t.Var] {
			total += t.Weight
		}
	}
	return total
}
