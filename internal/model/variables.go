package model

import (
	"fmt"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// Variable keys. Days, start periods and durations are calendar indices, not
// names, so key equality is cheap and unambiguous.
type startKey struct {
	class, subject        string
	day, start, duration int
}

type slotKey struct {
	class       string
	day, period int
}

type subjectSlotKey struct {
	class, subject string
	day, period    int
}

type teacherSlotKey struct {
	class, subject, teacher string
	day, period             int
}

// sessionVars is the decision-variable arena of one solve session. It
// allocates exactly the variables a spec can legally use: start variables
// exist only for durations inside the subject's contiguous range that fit
// the day, and teacher occupancy variables only for teachers actually listed
// on the subject. Nothing here survives the session; every diagnostic
// re-solve builds a fresh arena.
type sessionVars struct {
	cal Calendar

	start           map[startKey]solver.BoolVar
	occupies        map[slotKey]solver.BoolVar
	subjectOccupies map[subjectSlotKey]solver.BoolVar
	teacherOccupies map[teacherSlotKey]solver.BoolVar
}

func newSessionVars(m *solver.Model, cal Calendar, specs []ClassSemesterSpec) *sessionVars {
	v := &sessionVars{
		cal:             cal,
		start:           map[startKey]solver.BoolVar{},
		occupies:        map[slotKey]solver.BoolVar{},
		subjectOccupies: map[subjectSlotKey]solver.BoolVar{},
		teacherOccupies: map[teacherSlotKey]solver.BoolVar{},
	}

	numPeriods := cal.NumPeriods()
	for _, cs := range specs {
		for d := range cal.Days {
			for p := range cal.Periods {
				v.occupies[slotKey{cs.Class, d, p}] = m.NewBoolVar(
					fmt.Sprintf("occ__%v__%v__%v", cs.Class, d, p))
			}
		}
		for _, subj := range cs.Subjects {
			for d := range cal.Days {
				for p := range cal.Periods {
					v.subjectOccupies[subjectSlotKey{cs.Class, subj.Name, d, p}] = m.NewBoolVar(
						fmt.Sprintf("occsubj__%v__%v__%v__%v", cs.Class, subj.Name, d, p))
					for _, t := range subj.Teachers {
						v.teacherOccupies[teacherSlotKey{cs.Class, subj.Name, t, d, p}] = m.NewBoolVar(
							fmt.Sprintf("occteach__%v__%v__%v__%v__%v", cs.Class, subj.Name, t, d, p))
					}
				}
				for start := 0; start < numPeriods; start++ {
					for dur := subj.MinContiguous; dur <= subj.MaxContiguous; dur++ {
						if start+dur <= numPeriods {
							v.start[startKey{cs.Class, subj.Name, d, start, dur}] = m.NewBoolVar(
								fmt.Sprintf("start__%v__%v__%v__%v__%v", cs.Class, subj.Name, d, start, dur))
						}
					}
				}
			}
		}
	}
	return v
}

// forEachStart visits every start variable of a subject in deterministic
// day/start/duration order.
func (v *sessionVars) forEachStart(class string, subj SubjectSpec, fn func(day, start, dur int, b solver.BoolVar)) {
	numPeriods := v.cal.NumPeriods()
	for d := range v.cal.Days {
		for start := 0; start < numPeriods; start++ {
			for dur := subj.MinContiguous; dur <= subj.MaxContiguous; dur++ {
				if b, ok := v.start[startKey{class, subj.Name, d, start, dur}]; ok {
					fn(d, start, dur, b)
				}
			}
		}
	}
}

// weightedStarts returns each start variable weighted by its duration, so
// the sum counts occupied periods rather than blocks.
func (v *sessionVars) weightedStarts(class string, subj SubjectSpec) []solver.Term {
	var terms []solver.Term
	v.forEachStart(class, subj, func(_, _, dur int, b solver.BoolVar) {
		terms = append(terms, solver.Term{Var: b, Weight: dur})
	})
	return terms
}

// startsOn returns the start variables of a subject on one day.
func (v *sessionVars) startsOn(class string, subj SubjectSpec, day int) []solver.BoolVar {
	var vars []solver.BoolVar
	v.forEachStart(class, subj, func(d, _, _ int, b solver.BoolVar) {
		if d == day {
			vars = append(vars, b)
		}
	})
	return vars
}

// coveringStarts returns the start variables whose block covers the given
// period of the given day.
func (v *sessionVars) coveringStarts(class string, subj SubjectSpec, day, period int) []solver.BoolVar {
	var vars []solver.BoolVar
	v.forEachStart(class, subj, func(d, start, dur int, b solver.BoolVar) {
		if d == day && start <= period && period < start+dur {
			vars = append(vars, b)
		}
	})
	return vars
}
