package model

import "github.com/chakravarthiponmudi/timetable-planner/internal/solver"

// SlotAssignment is what a class does in one slot: the subject and the
// teacher(s) standing in front of it.
type SlotAssignment struct {
	Subject  string
	Teachers []string
}

// ClassGrid is a [day][period] grid of assignments; nil cells are free.
type ClassGrid [][]*SlotAssignment

// Block is one placed session: a contiguous run of Duration periods starting
// at (Day, Start).
type Block struct {
	Subject  string
	Day      int
	Start    int
	Duration int
}

// Assignment identifies a (class, subject) pair in teacher tallies.
type Assignment struct {
	Class   string
	Subject string
}

// TeacherLoad tallies a teacher's solved week.
type TeacherLoad struct {
	Total         int
	PerAssignment map[Assignment]int
}

// project reads solved variable values back into per-class grids, per-class
// block lists and per-teacher load tallies. Pure read projection: no
// constraint logic, no formatting.
func project(req Request, vars *sessionVars, res solver.Result) (map[string]ClassGrid, map[string][]Block, map[string]TeacherLoad) {
	cal := req.Calendar
	classes := make(map[string]ClassGrid, len(req.Specs))
	blocks := make(map[string][]Block, len(req.Specs))
	teachers := map[string]TeacherLoad{}

	for _, cs := range req.Specs {
		grid := make(ClassGrid, cal.NumDays())
		for d := range grid {
			grid[d] = make([]*SlotAssignment, cal.NumPeriods())
		}
		for _, subj := range cs.Subjects {
			for d := range cal.Days {
				for p := range cal.Periods {
					if !res.Value(vars.subjectOccupies[subjectSlotKey{cs.Class, subj.Name, d, p}]) {
						continue
					}
					slot := &SlotAssignment{Subject: subj.Name}
					for _, t := range subj.Teachers {
						if res.Value(vars.teacherOccupies[teacherSlotKey{cs.Class, subj.Name, t, d, p}]) {
							slot.Teachers = append(slot.Teachers, t)
							load := teachers[t]
							if load.PerAssignment == nil {
								load.PerAssignment = map[Assignment]int{}
							}
							load.Total++
							load.PerAssignment[Assignment{cs.Class, subj.Name}]++
							teachers[t] = load
						}
					}
					grid[d][p] = slot
				}
			}
			vars.forEachStart(cs.Class, subj, func(d, start, dur int, b solver.BoolVar) {
				if res.Value(b) {
					blocks[cs.Class] = append(blocks[cs.Class], Block{Subject: subj.Name, Day: d, Start: start, Duration: dur})
				}
			})
		}
		classes[cs.Class] = grid
	}
	return classes, blocks, teachers
}
