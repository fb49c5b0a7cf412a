package model

import (
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Verify re-derives every hard constraint from the projected solution and
// checks them without consulting the solver. A feasible result must pass all
// of them; any mismatch means the encoding or the projection is broken.
func (sch *scheduler) Verify(req Request, sol *Solution) bool {
	if sol == nil || !sol.Status.Solved() {
		return false
	}
	v := &verifier{req: req, sol: sol, log: sch.logger}
	return v.run()
}

type verifier struct {
	req Request
	sol *Solution
	log *zap.Logger
}

func (v *verifier) fail(reason string, fields ...zap.Field) bool {
	v.log.Debug("verification failed: "+reason, fields...)
	return false
}

func (v *verifier) run() bool {
	cal := v.req.Calendar
	numDays, numPeriods := cal.NumDays(), cal.NumPeriods()

	// teacher -> day -> period occupancy across all classes
	teacherBusy := map[string][]bool{}
	slot := func(d, p int) int { return d*numPeriods + p }

	for _, cs := range v.req.Specs {
		grid, ok := v.sol.Classes[cs.Class]
		if !ok {
			return v.fail("missing class grid", zap.String("class", cs.Class))
		}
		blocks := v.sol.Blocks[cs.Class]

		// Rebuild per-subject coverage from the placed blocks.
		coverage := map[subjectSlotKey]int{}
		for _, b := range blocks {
			subj, found := lo.Find(cs.Subjects, func(s SubjectSpec) bool { return s.Name == b.Subject })
			if !found {
				return v.fail("block for unknown subject", zap.String("subject", b.Subject))
			}
			if b.Duration < subj.MinContiguous || b.Duration > subj.MaxContiguous {
				return v.fail("block duration outside contiguous bounds",
					zap.String("subject", b.Subject), zap.Int("duration", b.Duration))
			}
			if b.Day < 0 || b.Day >= numDays || b.Start < 0 || b.Start+b.Duration > numPeriods {
				return v.fail("block outside the calendar", zap.String("subject", b.Subject))
			}
			for p := b.Start; p < b.Start+b.Duration; p++ {
				coverage[subjectSlotKey{cs.Class, b.Subject, b.Day, p}]++
			}
		}

		for _, subj := range cs.Subjects {
			// Exact weekly load in periods.
			placed := lo.SumBy(blocks, func(b Block) int {
				if b.Subject == subj.Name {
					return b.Duration
				}
				return 0
			})
			if placed != subj.PeriodsPerWeek {
				return v.fail("weekly load mismatch",
					zap.String("class", cs.Class), zap.String("subject", subj.Name),
					zap.Int("placed", placed), zap.Int("required", subj.PeriodsPerWeek))
			}

			// Allowed starts restrict where blocks begin.
			if len(subj.AllowedStarts) > 0 {
				allowed := map[[2]int]bool{}
				for _, a := range subj.AllowedStarts {
					d, _ := cal.DayIndex(a.Day)
					p, _ := cal.PeriodIndex(a.Period)
					allowed[[2]int{d, p}] = true
				}
				for _, b := range blocks {
					if b.Subject == subj.Name && !allowed[[2]int{b.Day, b.Start}] {
						return v.fail("block starts outside the allow-list",
							zap.String("subject", subj.Name), zap.Int("day", b.Day), zap.Int("start", b.Start))
					}
				}
			}

			if !v.fixedSessionsMatched(cs, subj, blocks) {
				return v.fail("fixed sessions not all matched by placed blocks",
					zap.String("class", cs.Class), zap.String("subject", subj.Name))
			}
		}

		// Grid and coverage must agree cell by cell; a class never runs two
		// subjects at once and never uses a blocked slot.
		for d := 0; d < numDays; d++ {
			for p := 0; p < numPeriods; p++ {
				var covering []SubjectSpec
				for _, subj := range cs.Subjects {
					n := coverage[subjectSlotKey{cs.Class, subj.Name, d, p}]
					if n > 1 {
						return v.fail("subject overlaps itself", zap.String("subject", subj.Name))
					}
					if n == 1 {
						covering = append(covering, subj)
					}
				}
				if len(covering) > 1 {
					return v.fail("two subjects share a slot", zap.String("class", cs.Class))
				}
				cell := grid[d][p]
				if (cell == nil) != (len(covering) == 0) {
					return v.fail("grid disagrees with placed blocks", zap.String("class", cs.Class))
				}
				if cell == nil {
					continue
				}
				subj := covering[0]
				if cell.Subject != subj.Name {
					return v.fail("grid names the wrong subject", zap.String("class", cs.Class))
				}

				// Teaching-mode teacher counts.
				switch subj.Mode() {
				case TeachAllOf:
					want := slices.Clone(subj.Teachers)
					got := slices.Clone(cell.Teachers)
					slices.Sort(want)
					slices.Sort(got)
					if !slices.Equal(want, got) {
						return v.fail("co-teaching slot missing a teacher", zap.String("subject", subj.Name))
					}
				default:
					if len(cell.Teachers) != 1 || !lo.Contains(subj.Teachers, cell.Teachers[0]) {
						return v.fail("slot must name exactly one listed teacher", zap.String("subject", subj.Name))
					}
				}
				for _, t := range cell.Teachers {
					if teacherBusy[t] == nil {
						teacherBusy[t] = make([]bool, numDays*numPeriods)
					}
					if teacherBusy[t][slot(d, p)] {
						return v.fail("teacher in two classes at once", zap.String("teacher", t))
					}
					teacherBusy[t][slot(d, p)] = true
				}
			}
		}

		for _, bp := range cs.BlockedPeriods {
			d, _ := cal.DayIndex(bp.Day)
			p, _ := cal.PeriodIndex(bp.Period)
			if grid[d][p] != nil {
				return v.fail("blocked slot is occupied", zap.String("class", cs.Class))
			}
		}

		occupied := 0
		for d := 0; d < numDays; d++ {
			for p := 0; p < numPeriods; p++ {
				if grid[d][p] != nil {
					occupied++
				}
			}
		}
		if required, ok := v.req.RequiredMinLoad(cs.Class); ok && occupied < required {
			return v.fail("minimum scheduled load unmet", zap.String("class", cs.Class))
		}

		for _, tag := range sortedKeys(v.req.Constraints.MaxPeriodsPerDayByTag) {
			limit := v.req.Constraints.MaxPeriodsPerDayByTag[tag]
			for d := 0; d < numDays; d++ {
				count := 0
				for _, subj := range cs.Subjects {
					if !lo.Contains(subj.Tags, tag) {
						continue
					}
					for p := 0; p < numPeriods; p++ {
						count += coverage[subjectSlotKey{cs.Class, subj.Name, d, p}]
					}
				}
				if count > limit {
					return v.fail("tag daily cap exceeded", zap.String("tag", tag), zap.Int("day", d))
				}
			}
		}
	}

	// Teacher hard limits over the combined week.
	for teacher, busy := range teacherBusy {
		total := lo.CountBy(busy, func(b bool) bool { return b })
		if weekCap, ok := v.req.TeacherCap(teacher); ok && total > weekCap {
			return v.fail("teacher weekly cap exceeded", zap.String("teacher", teacher))
		}
		spec, ok := v.req.Teachers[teacher]
		if !ok {
			continue
		}
		for _, dp := range spec.UnavailablePeriods {
			d, _ := cal.DayIndex(dp.Day)
			p, _ := cal.PeriodIndex(dp.Period)
			if busy[slot(d, p)] {
				return v.fail("teacher scheduled while unavailable", zap.String("teacher", teacher))
			}
		}
	}
	return true
}

// fixedSessionsMatched checks that every configured pin of the subject is
// satisfied by a distinct placed block, via maximum bipartite matching
// between pins and blocks.
func (v *verifier) fixedSessionsMatched(cs ClassSemesterSpec, subj SubjectSpec, blocks []Block) bool {
	if len(subj.FixedSessions) == 0 {
		return true
	}
	subjBlocks := lo.Filter(blocks, func(b Block, _ int) bool { return b.Subject == subj.Name })

	satisfies := func(pinAny any, blockAny any) (bool, error) {
		pin := pinAny.(FixedSession)
		block := blockAny.(Block)

		p, ok := v.req.Calendar.PeriodIndex(pin.Period)
		if !ok || block.Start != p {
			return false, nil
		}
		if pin.Day != "" {
			if d, ok := v.req.Calendar.DayIndex(pin.Day); !ok || block.Day != d {
				return false, nil
			}
		}
		if pin.Duration != 0 && block.Duration != pin.Duration {
			return false, nil
		}
		return true, nil
	}

	pinsAny := lo.Map(subj.FixedSessions, func(fs FixedSession, _ int) any { return fs })
	blocksAny := lo.Map(subjBlocks, func(b Block, _ int) any { return b })

	graph, err := bipartitegraph.NewBipartiteGraph(pinsAny, blocksAny, satisfies)
	if err != nil {
		return false
	}
	return len(graph.LargestMatching()) == len(subj.FixedSessions)
}
