package model

import (
	"github.com/samber/lo"

	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// constraintGroups selects which optional constraint families a compilation
// emits. The diagnoser re-compiles with different selections; the meaning of
// each group lives here and nowhere else. Load, occupancy linkage, class
// non-overlap, teaching modes and teacher exclusivity are structural and
// always emitted.
type constraintGroups struct {
	placement     bool // blocked periods, allowed starts, fixed sessions
	minimumLoad   bool // minimum scheduled periods per class
	tagCaps       bool // per-tag daily period caps
	teacherLimits bool // weekly caps and unavailability
}

func allGroups() constraintGroups {
	return constraintGroups{placement: true, minimumLoad: true, tagCaps: true, teacherLimits: true}
}

// compiler turns one Request into solver models. It holds no solver state;
// every compile call builds a fresh model and variable arena.
type compiler struct {
	req Request
}

func newCompiler(req Request) *compiler {
	return &compiler{req: req}
}

func (c *compiler) compile(groups constraintGroups) (*solver.Model, *sessionVars, error) {
	m := solver.NewModel()
	vars := newSessionVars(m, c.req.Calendar, c.req.Specs)

	c.weeklyLoad(m, vars)
	c.linkSubjectOccupancy(m, vars)
	c.classNonOverlap(m, vars)
	if groups.placement {
		if err := c.blockedPeriods(m, vars); err != nil {
			return nil, nil, err
		}
		if err := c.allowedStarts(m, vars); err != nil {
			return nil, nil, err
		}
		if err := c.fixedSessions(m, vars); err != nil {
			return nil, nil, err
		}
	}
	c.teachingModes(m, vars)
	c.teacherExclusivity(m, vars)
	if groups.teacherLimits {
		if err := c.teacherLimits(m, vars); err != nil {
			return nil, nil, err
		}
	}
	if groups.minimumLoad {
		c.minimumLoad(m, vars)
	}
	if groups.tagCaps {
		c.tagCaps(m, vars)
	}
	return m, vars, nil
}

// weeklyLoad fixes each subject's occupied periods exactly: the
// duration-weighted sum of its start variables equals periods_per_week.
func (c *compiler) weeklyLoad(m *solver.Model, vars *sessionVars) {
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			m.AddEquality(vars.weightedStarts(cs.Class, subj), subj.PeriodsPerWeek)
		}
	}
}

// linkSubjectOccupancy channels start variables into per-period subject
// occupancy: occupancy equals the sum of covering blocks. The boolean
// domain of the target already forbids overlapping blocks of the same
// subject; the explicit at-most-one over covering starts is stated anyway
// so the exclusion is auditable rather than implicit.
func (c *compiler) linkSubjectOccupancy(m *solver.Model, vars *sessionVars) {
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			for d := range c.req.Calendar.Days {
				for p := range c.req.Calendar.Periods {
					occ := vars.subjectOccupies[subjectSlotKey{cs.Class, subj.Name, d, p}]
					covering := vars.coveringStarts(cs.Class, subj, d, p)
					if len(covering) == 0 {
						m.FixFalse(occ)
						continue
					}
					m.AddAtMost(solver.Sum(covering), 1)
					terms := append(solver.Sum(covering), solver.Term{Var: occ, Weight: -1})
					m.AddEquality(terms, 0)
				}
			}
		}
	}
}

// classNonOverlap keeps a class in at most one subject per slot and channels
// subject occupancy into class occupancy.
func (c *compiler) classNonOverlap(m *solver.Model, vars *sessionVars) {
	for _, cs := range c.req.Specs {
		for d := range c.req.Calendar.Days {
			for p := range c.req.Calendar.Periods {
				subjTerms := make([]solver.Term, 0, len(cs.Subjects))
				for _, subj := range cs.Subjects {
					subjTerms = append(subjTerms, solver.Term{
						Var: vars.subjectOccupies[subjectSlotKey{cs.Class, subj.Name, d, p}], Weight: 1})
				}
				m.AddAtMost(subjTerms, 1)
				occ := vars.occupies[slotKey{cs.Class, d, p}]
				m.AddEquality(append(subjTerms, solver.Term{Var: occ, Weight: -1}), 0)
			}
		}
	}
}

// blockedPeriods empties every class-level blocked slot.
func (c *compiler) blockedPeriods(m *solver.Model, vars *sessionVars) error {
	for _, cs := range c.req.Specs {
		for _, bp := range cs.BlockedPeriods {
			d, p, err := c.slotIndices(cs.Class, "", "blocked_periods", bp.Day, bp.Period)
			if err != nil {
				return err
			}
			m.FixFalse(vars.occupies[slotKey{cs.Class, d, p}])
		}
	}
	return nil
}

// allowedStarts zeroes every start variable outside a subject's allow-list.
func (c *compiler) allowedStarts(m *solver.Model, vars *sessionVars) error {
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			if len(subj.AllowedStarts) == 0 {
				continue
			}
			allowed := map[[2]int]bool{}
			for _, a := range subj.AllowedStarts {
				d, p, err := c.slotIndices(cs.Class, subj.Name, "allowed_starts", a.Day, a.Period)
				if err != nil {
					return err
				}
				allowed[[2]int{d, p}] = true
			}
			vars.forEachStart(cs.Class, subj, func(d, start, _ int, b solver.BoolVar) {
				if !allowed[[2]int{d, start}] {
					m.FixFalse(b)
				}
			})
		}
	}
	return nil
}

// fixedSessions pins configured sessions. A fully specified pin forces its
// single start variable; leaving out the day or the duration turns the pin
// into an exactly-one over the matching candidates. A pin that matches no
// variable at all is a configuration error, raised here rather than left to
// surface as solver infeasibility.
func (c *compiler) fixedSessions(m *solver.Model, vars *sessionVars) error {
	numPeriods := c.req.Calendar.NumPeriods()
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			for _, fs := range subj.FixedSessions {
				start, ok := c.req.Calendar.PeriodIndex(fs.Period)
				if !ok {
					return configErrorf(cs.Class, subj.Name, "fixed_sessions period %q is not in calendar.periods", fs.Period)
				}
				day := -1
				if fs.Day != "" {
					if day, ok = c.req.Calendar.DayIndex(fs.Day); !ok {
						return configErrorf(cs.Class, subj.Name, "fixed_sessions day %q is not in calendar.days", fs.Day)
					}
				}
				if fs.Duration != 0 {
					if fs.Duration < subj.MinContiguous || fs.Duration > subj.MaxContiguous {
						return configErrorf(cs.Class, subj.Name,
							"fixed_sessions duration %v must be within [%v, %v]", fs.Duration, subj.MinContiguous, subj.MaxContiguous)
					}
					if start+fs.Duration > numPeriods {
						return configErrorf(cs.Class, subj.Name,
							"fixed_sessions (%v %v) with duration %v does not fit in the day", fs.Day, fs.Period, fs.Duration)
					}
				}

				var candidates []solver.BoolVar
				vars.forEachStart(cs.Class, subj, func(d, s, dur int, b solver.BoolVar) {
					if s != start {
						return
					}
					if day >= 0 && d != day {
						return
					}
					if fs.Duration != 0 && dur != fs.Duration {
						return
					}
					candidates = append(candidates, b)
				})
				if len(candidates) == 0 {
					return configErrorf(cs.Class, subj.Name,
						"fixed_sessions (%v %v, dur=%v) matches no valid start/duration", fs.Day, fs.Period, fs.Duration)
				}
				if len(candidates) == 1 && day >= 0 && fs.Duration != 0 {
					m.FixTrue(candidates[0])
					continue
				}
				m.AddEquality(solver.Sum(candidates), 1)
			}
		}
	}
	return nil
}

// teachingModes links teacher occupancy to subject occupancy. all_of: every
// listed teacher is present whenever the subject runs. any_of: exactly one
// listed teacher per occupied slot.
func (c *compiler) teachingModes(m *solver.Model, vars *sessionVars) {
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			for d := range c.req.Calendar.Days {
				for p := range c.req.Calendar.Periods {
					subjOcc := vars.subjectOccupies[subjectSlotKey{cs.Class, subj.Name, d, p}]
					if subj.Mode() == TeachAllOf {
						for _, t := range subj.Teachers {
							m.AddEquivalence(vars.teacherOccupies[teacherSlotKey{cs.Class, subj.Name, t, d, p}], subjOcc)
						}
						continue
					}
					terms := make([]solver.Term, 0, len(subj.Teachers)+1)
					for _, t := range subj.Teachers {
						terms = append(terms, solver.Term{
							Var: vars.teacherOccupies[teacherSlotKey{cs.Class, subj.Name, t, d, p}], Weight: 1})
					}
					terms = append(terms, solver.Term{Var: subjOcc, Weight: -1})
					m.AddEquality(terms, 0)
				}
			}
		}
	}
}

// teacherExclusivity keeps a teacher in at most one class per slot.
func (c *compiler) teacherExclusivity(m *solver.Model, vars *sessionVars) {
	for _, teacher := range c.req.ReferencedTeachers() {
		for d := range c.req.Calendar.Days {
			for p := range c.req.Calendar.Periods {
				terms := c.teacherSlotTerms(vars, teacher, d, p)
				if len(terms) > 1 {
					m.AddAtMost(terms, 1)
				}
			}
		}
	}
}

// teacherLimits emits weekly caps and unavailability for teachers that have
// them configured.
func (c *compiler) teacherLimits(m *solver.Model, vars *sessionVars) error {
	for _, teacher := range c.req.ReferencedTeachers() {
		if weekCap, ok := c.req.TeacherCap(teacher); ok {
			var weekly []solver.Term
			for d := range c.req.Calendar.Days {
				for p := range c.req.Calendar.Periods {
					weekly = append(weekly, c.teacherSlotTerms(vars, teacher, d, p)...)
				}
			}
			m.AddAtMost(weekly, weekCap)
		}
		spec, ok := c.req.Teachers[teacher]
		if !ok {
			continue
		}
		for _, dp := range spec.UnavailablePeriods {
			d, p, err := c.slotIndices("", "", "teacher "+teacher+" unavailable_periods", dp.Day, dp.Period)
			if err != nil {
				return err
			}
			for _, term := range c.teacherSlotTerms(vars, teacher, d, p) {
				m.FixFalse(term.Var)
			}
		}
	}
	return nil
}

// minimumLoad enforces the minimum scheduled periods per week where one is
// configured, with per-class overrides winning over the global minimum.
func (c *compiler) minimumLoad(m *solver.Model, vars *sessionVars) {
	for _, cs := range c.req.Specs {
		required, ok := c.req.RequiredMinLoad(cs.Class)
		if !ok {
			continue
		}
		var weekly []solver.Term
		for d := range c.req.Calendar.Days {
			for p := range c.req.Calendar.Periods {
				weekly = append(weekly, solver.Term{Var: vars.occupies[slotKey{cs.Class, d, p}], Weight: 1})
			}
		}
		m.AddAtLeast(weekly, required)
	}
}

// tagCaps limits, per class and day, the periods occupied by subjects
// carrying a capped tag.
func (c *compiler) tagCaps(m *solver.Model, vars *sessionVars) {
	if len(c.req.Constraints.MaxPeriodsPerDayByTag) == 0 {
		return
	}
	tags := sortedKeys(c.req.Constraints.MaxPeriodsPerDayByTag)
	for _, cs := range c.req.Specs {
		for _, tag := range tags {
			tagged := lo.Filter(cs.Subjects, func(s SubjectSpec, _ int) bool {
				return lo.Contains(s.Tags, tag)
			})
			if len(tagged) == 0 {
				continue
			}
			limit := c.req.Constraints.MaxPeriodsPerDayByTag[tag]
			for d := range c.req.Calendar.Days {
				var terms []solver.Term
				for _, subj := range tagged {
					for p := range c.req.Calendar.Periods {
						terms = append(terms, solver.Term{
							Var: vars.subjectOccupies[subjectSlotKey{cs.Class, subj.Name, d, p}], Weight: 1})
					}
				}
				m.AddAtMost(terms, limit)
			}
		}
	}
}

// teacherSlotTerms gathers every occupancy variable that puts the teacher in
// front of some class at the given slot.
func (c *compiler) teacherSlotTerms(vars *sessionVars, teacher string, d, p int) []solver.Term {
	var terms []solver.Term
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			if b, ok := vars.teacherOccupies[teacherSlotKey{cs.Class, subj.Name, teacher, d, p}]; ok {
				terms = append(terms, solver.Term{Var: b, Weight: 1})
			}
		}
	}
	return terms
}

func (c *compiler) slotIndices(class, subject, field, day, period string) (int, int, error) {
	d, ok := c.req.Calendar.DayIndex(day)
	if !ok {
		return 0, 0, configErrorf(class, subject, "%v day %q is not in calendar.days", field, day)
	}
	p, ok := c.req.Calendar.PeriodIndex(period)
	if !ok {
		return 0, 0, configErrorf(class, subject, "%v period %q is not in calendar.periods", field, period)
	}
	return d, p, nil
}
