package model

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// Solution is the projected outcome of one solve. Classes and Teachers are
// populated only when Status.Solved(); Blocks carries the placed sessions
// that produced the grids.
type Solution struct {
	Status    solver.Status
	Objective int
	Classes   map[string]ClassGrid
	Blocks    map[string][]Block
	Teachers  map[string]TeacherLoad
}

// Scheduler is the engine's public surface: compile-and-solve, infeasibility
// diagnosis, and independent verification of a solved timetable.
type Scheduler interface {
	// Solve compiles the request and runs the solver within the budget.
	// Configuration errors come back as *ConfigError; an infeasible or
	// unknown verdict is a normal outcome carried in Solution.Status.
	Solve(req Request, budget time.Duration) (*Solution, error)

	// Diagnose localizes why a request has no valid schedule. Advisory and
	// best-effort: the returned lines are ordered hints, not a proof.
	Diagnose(req Request, budget time.Duration) ([]string, error)

	// Verify re-checks a projected solution against every hard constraint
	// of the request, independently of the solver.
	Verify(req Request, sol *Solution) bool
}

// NewScheduler builds a Scheduler on the given solver backend. A nil logger
// disables logging.
func NewScheduler(s solver.Solver, logger *zap.Logger) Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &scheduler{solver: s, logger: logger}
}

type scheduler struct {
	solver solver.Solver
	logger *zap.Logger
}

func (sch *scheduler) Solve(req Request, budget time.Duration) (*Solution, error) {
	log := sch.logger.With(zap.String("solve_id", uuid.NewString()))

	c := newCompiler(req)
	if err := c.sanityCheck(); err != nil {
		return nil, err
	}
	m, vars, err := c.compile(allGroups())
	if err != nil {
		return nil, err
	}
	c.buildObjective(m, vars)
	log.Info("model compiled",
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()))

	started := time.Now()
	res, err := sch.solver.Solve(m, budget)
	if err != nil {
		return nil, err
	}
	log.Info("solve finished",
		zap.Stringer("status", res.Status),
		zap.Int("objective", res.Objective),
		zap.Duration("elapsed", time.Since(started)))

	sol := &Solution{Status: res.Status, Objective: res.Objective}
	if res.Status.Solved() {
		sol.Classes, sol.Blocks, sol.Teachers = project(req, vars, res)
	}
	return sol, nil
}

func (sch *scheduler) Diagnose(req Request, budget time.Duration) ([]string, error) {
	log := sch.logger.With(zap.String("diagnose_id", uuid.NewString()))

	c := newCompiler(req)
	if err := c.sanityCheck(); err != nil {
		return nil, err
	}
	return c.diagnose(sch.solver, budget, log)
}
