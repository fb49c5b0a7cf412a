package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

func TestSessionVarsPruneStartsBeyondTheDay(t *testing.T) {
	m := solver.NewModel()
	subj := SubjectSpec{
		Name: "Math", Teachers: []string{"alice"},
		PeriodsPerWeek: 4, MinContiguous: 2, MaxContiguous: 3,
	}
	vars := newSessionVars(m, testCalendar(1, 4), []ClassSemesterSpec{
		{Class: "7A", Semester: "S1", Subjects: []SubjectSpec{subj}},
	})

	type placement struct{ start, dur int }
	var seen []placement
	vars.forEachStart("7A", subj, func(d, start, dur int, _ solver.BoolVar) {
		assert.Equal(t, 0, d)
		assert.LessOrEqual(t, start+dur, 4)
		seen = append(seen, placement{start, dur})
	})
	// Starts are visited in day/start/duration order, and a block never
	// spills past the last period.
	assert.Equal(t, []placement{
		{0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 2},
	}, seen)
}

func TestWeightedStartsCarryDurations(t *testing.T) {
	m := solver.NewModel()
	subj := SubjectSpec{
		Name: "Math", Teachers: []string{"alice"},
		PeriodsPerWeek: 2, MinContiguous: 1, MaxContiguous: 2,
	}
	vars := newSessionVars(m, testCalendar(1, 2), []ClassSemesterSpec{
		{Class: "7A", Semester: "S1", Subjects: []SubjectSpec{subj}},
	})

	weights := map[int]int{}
	for _, term := range vars.weightedStarts("7A", subj) {
		weights[term.Weight]++
	}
	// Two singleton placements and one 2-period placement.
	assert.Equal(t, map[int]int{1: 2, 2: 1}, weights)
}

func TestCoveringStarts(t *testing.T) {
	m := solver.NewModel()
	subj := SubjectSpec{
		Name: "Math", Teachers: []string{"alice"},
		PeriodsPerWeek: 2, MinContiguous: 2, MaxContiguous: 2,
	}
	vars := newSessionVars(m, testCalendar(1, 3), []ClassSemesterSpec{
		{Class: "7A", Semester: "S1", Subjects: []SubjectSpec{subj}},
	})

	// Placements are [0,1] and [1,2]: the middle period is covered by both,
	// the edges by one each.
	assert.Len(t, vars.coveringStarts("7A", subj, 0, 0), 1)
	assert.Len(t, vars.coveringStarts("7A", subj, 0, 1), 2)
	assert.Len(t, vars.coveringStarts("7A", subj, 0, 2), 1)
}

func TestTeacherVarsOnlyForListedTeachers(t *testing.T) {
	m := solver.NewModel()
	vars := newSessionVars(m, testCalendar(1, 1), []ClassSemesterSpec{
		{Class: "7A", Semester: "S1", Subjects: []SubjectSpec{
			{Name: "Math", Teachers: []string{"alice"}, PeriodsPerWeek: 1, MinContiguous: 1, MaxContiguous: 1},
		}},
	})

	_, ok := vars.teacherOccupies[teacherSlotKey{"7A", "Math", "alice", 0, 0}]
	assert.True(t, ok)
	_, ok = vars.teacherOccupies[teacherSlotKey{"7A", "Math", "ben", 0, 0}]
	assert.False(t, ok)
}
