// Package model holds the timetable specification types and the engine that
// compiles them into a pseudo-boolean model, solves it, projects results and
// diagnoses infeasibility.
package model

import "slices"

// TeachingMode states how a subject's teacher set is used: all_of means
// every listed teacher co-teaches each session, any_of means exactly one of
// them is chosen per occupied slot.
type TeachingMode string

const (
	TeachAnyOf TeachingMode = "any_of"
	TeachAllOf TeachingMode = "all_of"
)

// Calendar is the fixed weekly grid: ordered day names by ordered period
// names. Immutable once a solve begins.
type Calendar struct {
	Days    []string `mapstructure:"days"`
	Periods []string `mapstructure:"periods"`
}

func (c Calendar) NumDays() int { return len(c.Days) }

func (c Calendar) NumPeriods() int { return len(c.Periods) }

// NumSlots is the slot universe size, days x periods.
func (c Calendar) NumSlots() int { return len(c.Days) * len(c.Periods) }

func (c Calendar) DayIndex(name string) (int, bool) {
	i := slices.Index(c.Days, name)
	return i, i >= 0
}

func (c Calendar) PeriodIndex(name string) (int, bool) {
	i := slices.Index(c.Periods, name)
	return i, i >= 0
}

// DayPeriod names one slot of the calendar.
type DayPeriod struct {
	Day    string `mapstructure:"day"`
	Period string `mapstructure:"period"`
}

// FixedSession pins one session of a subject. An empty Day leaves the day to
// the solver; a zero Duration allows any duration within the subject's
// contiguous range.
type FixedSession struct {
	Day      string `mapstructure:"day"`
	Period   string `mapstructure:"period"`
	Duration int    `mapstructure:"duration"`
}

// SubjectSpec describes one subject taught to one class during a semester.
type SubjectSpec struct {
	Name         string       `mapstructure:"name"`
	Teachers     []string     `mapstructure:"teachers"`
	TeachingMode TeachingMode `mapstructure:"teaching_mode"`

	// TeacherShareMinPercent is accepted from input but has no constraint in
	// the compiler; its intended semantics are unconfirmed. See DESIGN.md.
	TeacherShareMinPercent map[string]int `mapstructure:"teacher_share_min_percent"`

	// PeriodsPerWeek is the exact weekly load in periods, not a minimum.
	PeriodsPerWeek int `mapstructure:"periods_per_week"`

	MinContiguous int `mapstructure:"min_contiguous_periods"`
	MaxContiguous int `mapstructure:"max_contiguous_periods"`

	Tags          []string       `mapstructure:"tags"`
	AllowedStarts []DayPeriod    `mapstructure:"allowed_starts"`
	FixedSessions []FixedSession `mapstructure:"fixed_sessions"`
}

// Mode returns the effective teaching mode, defaulting to any_of.
func (s SubjectSpec) Mode() TeachingMode {
	if s.TeachingMode == TeachAllOf {
		return TeachAllOf
	}
	return TeachAnyOf
}

// ClassSemesterSpec is the scheduling unit: one class during one semester.
type ClassSemesterSpec struct {
	Class          string
	Semester       string
	Subjects       []SubjectSpec
	BlockedPeriods []DayPeriod
}

// TeacherSpec carries optional per-teacher hard limits and the soft period
// preference. Teachers without an entry have no limits of their own.
type TeacherSpec struct {
	Name               string      `mapstructure:"name"`
	MaxPeriodsPerWeek  *int        `mapstructure:"max_periods_per_week"`
	UnavailablePeriods []DayPeriod `mapstructure:"unavailable_periods"`
	PreferredPeriods   []string    `mapstructure:"preferred_periods"`
}

// Constraints are the request-level optional constraints.
type Constraints struct {
	MinPeriodsPerWeek        *int           `mapstructure:"min_classes_per_week"`
	MinPeriodsPerWeekByClass map[string]int `mapstructure:"min_classes_per_week_by_class"`
	MaxPeriodsPerDayByTag    map[string]int `mapstructure:"max_periods_per_day_by_tag"`

	// TeacherMaxPeriodsPerWeek is a default weekly cap applied to every
	// referenced teacher that has no explicit cap of its own.
	TeacherMaxPeriodsPerWeek *int `mapstructure:"teacher_max_periods_per_week"`
}

// Request is one validated, self-contained solve request. It is read-only
// during solving; diagnostic re-solves share it without copying.
type Request struct {
	Calendar    Calendar
	Specs       []ClassSemesterSpec
	Constraints Constraints
	Teachers    map[string]TeacherSpec
}

// RequiredMinLoad resolves the minimum scheduled load for a class: the
// per-class override wins over the global minimum.
func (r Request) RequiredMinLoad(class string) (int, bool) {
	if v, ok := r.Constraints.MinPeriodsPerWeekByClass[class]; ok {
		return v, true
	}
	if r.Constraints.MinPeriodsPerWeek != nil {
		return *r.Constraints.MinPeriodsPerWeek, true
	}
	return 0, false
}

// TeacherCap resolves the weekly period cap for a teacher: an explicit
// per-teacher cap wins over the global default.
func (r Request) TeacherCap(name string) (int, bool) {
	if t, ok := r.Teachers[name]; ok && t.MaxPeriodsPerWeek != nil {
		return *t.MaxPeriodsPerWeek, true
	}
	if r.Constraints.TeacherMaxPeriodsPerWeek != nil {
		return *r.Constraints.TeacherMaxPeriodsPerWeek, true
	}
	return 0, false
}

// ReferencedTeachers returns the sorted set of teachers referenced by any
// subject of the request.
func (r Request) ReferencedTeachers() []string {
	seen := map[string]bool{}
	var names []string
	for _, cs := range r.Specs {
		for _, subj := range cs.Subjects {
			for _, t := range subj.Teachers {
				if !seen[t] {
					seen[t] = true
					names = append(names, t)
				}
			}
		}
	}
	slices.Sort(names)
	return names
}
