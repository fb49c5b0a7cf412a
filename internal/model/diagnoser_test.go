package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// failSolver guards the precheck-only paths: reaching the backend at all
// fails the test.
type failSolver struct{ t *testing.T }

func (f failSolver) Solve(_ *solver.Model, _ time.Duration) (solver.Result, error) {
	f.t.Fatal("solver must not be called when static prechecks settle the diagnosis")
	return solver.Result{}, nil
}

func TestDiagnoseTeacherOverloadWithoutSolving(t *testing.T) {
	// Each class fits its 25-slot week comfortably; carol, the only teacher
	// of both, would need 26 slots.
	subjects := func(name string) []SubjectSpec {
		return []SubjectSpec{{
			Name: name, Teachers: []string{"carol"},
			PeriodsPerWeek: 13, MinContiguous: 1, MaxContiguous: 1,
		}}
	}
	req := Request{
		Calendar: testCalendar(5, 5),
		Specs: []ClassSemesterSpec{
			{Class: "7A", Semester: "S1", Subjects: subjects("Math")},
			{Class: "7B", Semester: "S1", Subjects: subjects("Physics")},
		},
	}

	lines, err := NewScheduler(failSolver{t}, nil).Diagnose(req, testBudget)

	assert.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "carol")
	assert.Contains(t, lines[0], "cannot be in two classes at once")
}

func TestDiagnoseTagOverloadWithoutSolving(t *testing.T) {
	req := Request{
		Calendar: testCalendar(5, 5),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Chemistry", Teachers: []string{"alice"},
				PeriodsPerWeek: 6, MinContiguous: 1, MaxContiguous: 1,
				Tags: []string{"sci"},
			}},
		}},
		Constraints: Constraints{MaxPeriodsPerDayByTag: map[string]int{"sci": 1}},
	}

	lines, err := NewScheduler(failSolver{t}, nil).Diagnose(req, testBudget)

	assert.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"sci"`)
	assert.Contains(t, lines[0], "cap")
}

func TestDiagnoseIsolatesPlacementRules(t *testing.T) {
	// 4 periods fit the 6-slot week, but blocking all of Monday leaves only
	// 3 usable slots. Every static precheck passes; only the placement group
	// is infeasible on its own.
	req := Request{
		Calendar: testCalendar(2, 3),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Math", Teachers: []string{"alice"},
				PeriodsPerWeek: 4, MinContiguous: 1, MaxContiguous: 1,
			}},
			BlockedPeriods: []DayPeriod{
				{Day: "Mon", Period: "P1"},
				{Day: "Mon", Period: "P2"},
				{Day: "Mon", Period: "P3"},
			},
		}},
	}

	lines, err := newTestScheduler().Diagnose(req, testBudget)

	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"placement rules"`)
	assert.Contains(t, lines[0], "on its own")
}

func TestDiagnoseIsolatesTagCaps(t *testing.T) {
	// The weekly tagged load of 3 stays under the aggregate bound of 2/day
	// over 2 days, so the precheck passes; but an indivisible 3-period block
	// always lands on one day and breaks the cap.
	req := Request{
		Calendar: testCalendar(2, 3),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Workshop", Teachers: []string{"alice"},
				PeriodsPerWeek: 3, MinContiguous: 3, MaxContiguous: 3,
				Tags: []string{"hard"},
			}},
		}},
		Constraints: Constraints{MaxPeriodsPerDayByTag: map[string]int{"hard": 2}},
	}

	lines, err := newTestScheduler().Diagnose(req, testBudget)

	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"tag daily caps"`)
}

func TestDiagnoseReportsBaselineStructuralInfeasibility(t *testing.T) {
	// A weekly load of 3 cannot be tiled by blocks of exactly 2 periods, so
	// even the fully relaxed model is infeasible.
	req := Request{
		Calendar: testCalendar(5, 5),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Math", Teachers: []string{"alice"},
				PeriodsPerWeek: 3, MinContiguous: 2, MaxContiguous: 2,
			}},
		}},
	}

	lines, err := newTestScheduler().Diagnose(req, testBudget)

	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "infeasible even with")
}

func TestDiagnoseFallsBackToInteractionForTeacherLimits(t *testing.T) {
	// Teacher hard limits are never isolated, so an infeasibility caused by
	// unavailability alone ends up in the interaction bucket.
	req := Request{
		Calendar: testCalendar(1, 2),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Math", Teachers: []string{"dan"},
				PeriodsPerWeek: 2, MinContiguous: 1, MaxContiguous: 1,
			}},
		}},
		Teachers: map[string]TeacherSpec{
			"dan": {Name: "dan", UnavailablePeriods: []DayPeriod{
				{Day: "Mon", Period: "P1"},
				{Day: "Mon", Period: "P2"},
			}},
		},
	}

	lines, err := newTestScheduler().Diagnose(req, testBudget)

	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "interaction")
	assert.Contains(t, lines[0], "teacher")
}

func TestDiagnoseInconclusiveOnZeroBudget(t *testing.T) {
	req := Request{
		Calendar: testCalendar(2, 3),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Math", Teachers: []string{"alice"},
				PeriodsPerWeek: 2, MinContiguous: 1, MaxContiguous: 1,
			}},
		}},
	}

	lines, err := newTestScheduler().Diagnose(req, 0)

	assert.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "inconclusive")
}

func TestDiagnoseRejectsBrokenConfig(t *testing.T) {
	req := Request{
		Calendar: testCalendar(1, 2),
		Specs: []ClassSemesterSpec{{
			Class:    "7A",
			Semester: "S1",
			Subjects: []SubjectSpec{{
				Name: "Math", Teachers: []string{"alice"},
				PeriodsPerWeek: 3, MinContiguous: 1, MaxContiguous: 1,
			}},
		}},
	}

	_, err := NewScheduler(failSolver{t}, nil).Diagnose(req, testBudget)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
