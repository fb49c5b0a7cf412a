package model

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// isolationOrder is the fixed sequence of optional groups the diagnoser
// enables one at a time on top of the fully relaxed baseline. Teacher hard
// limits are deliberately absent: a failure caused solely by teacher caps or
// unavailability falls through to the interaction report.
var isolationOrder = []struct {
	name   string
	groups constraintGroups
	hint   string
}{
	{
		name:   "minimum scheduled load",
		groups: constraintGroups{minimumLoad: true},
		hint:   "a configured minimum periods/week cannot be met; lower min_classes_per_week or add subject periods",
	},
	{
		name:   "tag daily caps",
		groups: constraintGroups{tagCaps: true},
		hint:   "a max_periods_per_day_by_tag limit is too tight for the tagged subjects; raise the cap or retag subjects",
	},
	{
		name:   "placement rules",
		groups: constraintGroups{placement: true},
		hint:   "blocked periods, allowed starts and fixed sessions leave no room for some subject; loosen one of them",
	},
}

// diagnose localizes the failing constraint family of an infeasible request:
// static necessary-condition checks first, then a fully relaxed baseline
// solve, then single-group isolation in a fixed order. Every re-solve builds
// a fresh model; nothing is reused across steps. The result is an ordered,
// human-readable explanation, best-effort rather than a minimal core.
func (c *compiler) diagnose(s solver.Solver, budget time.Duration, log *zap.Logger) ([]string, error) {
	if lines := c.staticPrecheck(); len(lines) > 0 {
		log.Info("diagnosis settled by static prechecks", zap.Int("causes", len(lines)))
		return lines, nil
	}

	solveWith := func(groups constraintGroups) (solver.Status, error) {
		m, _, err := c.compile(groups)
		if err != nil {
			return solver.StatusUnknown, err
		}
		// Preferences never affect feasibility; no objective here.
		res, err := s.Solve(m, budget)
		return res.Status, err
	}

	baseline, err := solveWith(constraintGroups{})
	if err != nil {
		return nil, err
	}
	log.Info("baseline relaxation solved", zap.Stringer("status", baseline))
	switch baseline {
	case solver.StatusInfeasible:
		return []string{
			"the model is infeasible even with placement rules, tag caps, minimum load and teacher hard limits all disabled",
			"likely structural causes: a teacher is needed by too many classes at once, contiguous blocks do not fit the day, or a weekly load cannot be split into blocks of the configured durations",
		}, nil
	case solver.StatusUnknown:
		return []string{"diagnosis inconclusive: the relaxed model hit the time budget before reaching a verdict"}, nil
	}

	for _, step := range isolationOrder {
		status, err := solveWith(step.groups)
		if err != nil {
			return nil, err
		}
		log.Info("isolated group solved", zap.String("group", step.name), zap.Stringer("status", status))
		switch status {
		case solver.StatusInfeasible:
			return []string{
				fmt.Sprintf("constraint group %q makes the model infeasible on its own", step.name),
				step.hint,
			}, nil
		case solver.StatusUnknown:
			return []string{fmt.Sprintf(
				"diagnosis inconclusive: isolating constraint group %q hit the time budget before reaching a verdict", step.name)}, nil
		}
	}

	return []string{
		"every optional constraint group is satisfiable in isolation; the infeasibility comes from an interaction across groups (possibly involving teacher caps or unavailability)",
		"relax constraints manually and re-solve to narrow it down",
	}, nil
}
