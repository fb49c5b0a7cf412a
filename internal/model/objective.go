package model

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// Penalty weights. Repeat violations dominate soft teacher preferences.
const (
	repeatPenaltyWeight     = 10
	preferencePenaltyWeight = 1
)

// buildObjective adds the two soft-penalty families to an already compiled
// model. Feasibility never depends on it: every hard constraint stands on
// its own and the objective only ranks among feasible solutions.
func (c *compiler) buildObjective(m *solver.Model, vars *sessionVars) {
	c.repeatPenalties(m, vars)
	c.preferencePenalties(m, vars)
}

// repeatPenalties discourages a second block of the same subject on the same
// day without forbidding it. For each (class, subject, day) a set of excess
// indicators satisfies blocks - excess <= 1, so minimization drives the paid
// excess to max(0, blocks-1).
func (c *compiler) repeatPenalties(m *solver.Model, vars *sessionVars) {
	numPeriods := c.req.Calendar.NumPeriods()
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			maxBlocksPerDay := numPeriods / max(1, subj.MinContiguous)
			if maxBlocksPerDay < 2 {
				continue
			}
			for d := range c.req.Calendar.Days {
				starts := vars.startsOn(cs.Class, subj, d)
				if len(starts) < 2 {
					continue
				}
				terms := solver.Sum(starts)
				for i := 0; i < maxBlocksPerDay-1; i++ {
					excess := m.NewBoolVar(fmt.Sprintf("excess__%v__%v__%v__%v", cs.Class, subj.Name, d, i))
					terms = append(terms, solver.Term{Var: excess, Weight: -1})
					m.Minimize(solver.Term{Var: excess, Weight: repeatPenaltyWeight})
				}
				m.AddAtMost(terms, 1)
			}
		}
	}
}

// preferencePenalties charges one unit for every occupied period outside a
// teacher's preferred-period set.
func (c *compiler) preferencePenalties(m *solver.Model, vars *sessionVars) {
	teachers := lo.Keys(c.req.Teachers)
	sort.Strings(teachers)
	for _, name := range teachers {
		spec := c.req.Teachers[name]
		if len(spec.PreferredPeriods) == 0 {
			continue
		}
		preferred := map[int]bool{}
		for _, period := range spec.PreferredPeriods {
			if p, ok := c.req.Calendar.PeriodIndex(period); ok {
				preferred[p] = true
			}
		}
		for d := range c.req.Calendar.Days {
			for p := range c.req.Calendar.Periods {
				if preferred[p] {
					continue
				}
				for _, term := range c.teacherSlotTerms(vars, name, d, p) {
					m.Minimize(solver.Term{Var: term.Var, Weight: preferencePenaltyWeight})
				}
			}
		}
	}
}
