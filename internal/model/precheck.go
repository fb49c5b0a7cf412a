package model

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

func sortedKeys(m map[string]int) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

// sanityCheck fails fast on specs no solver call could ever satisfy: weekly
// loads beyond the slot universe, contiguous bounds beyond the day, subjects
// with no feasible (start, duration) pair. These are configuration errors,
// reported with the offending class and subject, and are a different tier
// from solver-reported infeasibility.
func (c *compiler) sanityCheck() error {
	cal := c.req.Calendar
	numPeriods, numSlots := cal.NumPeriods(), cal.NumSlots()

	for _, cs := range c.req.Specs {
		total := lo.SumBy(cs.Subjects, func(s SubjectSpec) int { return s.PeriodsPerWeek })
		if total > numSlots {
			return configErrorf(cs.Class, "",
				"subjects require %v periods/week but the calendar only has %v slots/week", total, numSlots)
		}
		for _, subj := range cs.Subjects {
			if subj.MinContiguous > numPeriods || subj.MaxContiguous > numPeriods {
				return configErrorf(cs.Class, subj.Name,
					"contiguous periods cannot exceed periods/day (%v)", numPeriods)
			}
			if !hasFeasibleStart(subj, numPeriods) {
				return configErrorf(cs.Class, subj.Name, "no feasible (start, duration) fits into a day")
			}
		}
	}
	return nil
}

func hasFeasibleStart(subj SubjectSpec, numPeriods int) bool {
	for start := 0; start < numPeriods; start++ {
		for dur := subj.MinContiguous; dur <= subj.MaxContiguous; dur++ {
			if start+dur <= numPeriods {
				return true
			}
		}
	}
	return false
}

// staticPrecheck evaluates necessary conditions that need no solver call.
// Any returned line is a definite cause of infeasibility; the diagnoser
// reports them and skips the relaxation search entirely.
func (c *compiler) staticPrecheck() []string {
	cal := c.req.Calendar
	numDays, numSlots := cal.NumDays(), cal.NumSlots()
	var lines []string

	for _, cs := range c.req.Specs {
		total := lo.SumBy(cs.Subjects, func(s SubjectSpec) int { return s.PeriodsPerWeek })
		if total > numSlots {
			lines = append(lines, fmt.Sprintf(
				"class %q: subjects require %v periods/week but the calendar only has %v slots/week",
				cs.Class, total, numSlots))
		}
		if required, ok := c.req.RequiredMinLoad(cs.Class); ok {
			if required > total {
				lines = append(lines, fmt.Sprintf(
					"class %q: minimum scheduled load %v exceeds the class's fixed weekly load of %v periods",
					cs.Class, required, total))
			}
			if required > numSlots {
				lines = append(lines, fmt.Sprintf(
					"class %q: minimum scheduled load %v exceeds the %v slots of the week",
					cs.Class, required, numSlots))
			}
		}
	}

	// A teacher's definite load counts subjects that put the teacher in the
	// room unconditionally: all_of co-teaching, or any_of with that teacher
	// as the only candidate.
	definite := map[string]int{}
	for _, cs := range c.req.Specs {
		for _, subj := range cs.Subjects {
			if subj.Mode() == TeachAllOf || len(subj.Teachers) == 1 {
				for _, t := range subj.Teachers {
					definite[t] += subj.PeriodsPerWeek
				}
			}
		}
	}
	for _, teacher := range c.req.ReferencedTeachers() {
		load := definite[teacher]
		if load > numSlots {
			lines = append(lines, fmt.Sprintf(
				"teacher %q must teach %v periods/week but a teacher can occupy at most %v slots: a teacher cannot be in two classes at once",
				teacher, load, numSlots))
		}
		if weekCap, ok := c.req.TeacherCap(teacher); ok && load > weekCap {
			lines = append(lines, fmt.Sprintf(
				"teacher %q must teach %v periods/week, above the configured weekly cap of %v",
				teacher, load, weekCap))
		}
	}

	for _, cs := range c.req.Specs {
		taggedLoad := map[string]int{}
		for _, subj := range cs.Subjects {
			for _, tag := range subj.Tags {
				taggedLoad[tag] += subj.PeriodsPerWeek
			}
		}
		for _, tag := range sortedKeys(c.req.Constraints.MaxPeriodsPerDayByTag) {
			limit := c.req.Constraints.MaxPeriodsPerDayByTag[tag]
			if load := taggedLoad[tag]; load > limit*numDays {
				lines = append(lines, fmt.Sprintf(
					"class %q: subjects tagged %q require %v periods/week but a cap of %v/day allows at most %v",
					cs.Class, tag, load, limit, limit*numDays))
			}
		}
	}
	return lines
}
