package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
)

// SemesterInput is one semester of one class as it appears in the input file.
type SemesterInput struct {
	Subjects       []SubjectSpec `mapstructure:"subjects"`
	BlockedPeriods []DayPeriod   `mapstructure:"blocked_periods"`
}

// ClassInput is one class with its per-semester configuration.
type ClassInput struct {
	Name      string                   `mapstructure:"name"`
	Semesters map[string]SemesterInput `mapstructure:"semesters"`
}

// TimetableInput is the decoded input file. It covers every semester; a
// Request is extracted per semester before solving.
type TimetableInput struct {
	Calendar    Calendar      `mapstructure:"calendar"`
	Constraints Constraints   `mapstructure:"constraints"`
	Teachers    []TeacherSpec `mapstructure:"teachers"`
	Classes     []ClassInput  `mapstructure:"classes"`
}

// InputFromJSON decodes a timetable input file. Missing calendar entries
// fall back to a Mon-Fri, five-period default.
func InputFromJSON(file string) (TimetableInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return TimetableInput{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return TimetableInput{}, err
	}

	var input TimetableInput
	if err := mapstructure.Decode(raw, &input); err != nil {
		return TimetableInput{}, err
	}
	if len(input.Calendar.Days) == 0 {
		input.Calendar.Days = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}
	}
	if len(input.Calendar.Periods) == 0 {
		input.Calendar.Periods = []string{"P1", "P2", "P3", "P4", "P5"}
	}
	return input, nil
}

// ValidateReferences checks that every day and period named anywhere in the
// input exists in the calendar.
func (input TimetableInput) ValidateReferences() error {
	cal := input.Calendar
	checkSlot := func(scope string, dp DayPeriod) error {
		if _, ok := cal.DayIndex(dp.Day); !ok {
			return fmt.Errorf("%v: day %q is not in calendar.days", scope, dp.Day)
		}
		if _, ok := cal.PeriodIndex(dp.Period); !ok {
			return fmt.Errorf("%v: period %q is not in calendar.periods", scope, dp.Period)
		}
		return nil
	}

	for _, c := range input.Classes {
		for semester, sem := range c.Semesters {
			scope := fmt.Sprintf("class %q %v", c.Name, semester)
			for _, bp := range sem.BlockedPeriods {
				if err := checkSlot(scope+" blocked_periods", bp); err != nil {
					return err
				}
			}
			for _, subj := range sem.Subjects {
				subjScope := fmt.Sprintf("%v subject %q", scope, subj.Name)
				for _, a := range subj.AllowedStarts {
					if err := checkSlot(subjScope+" allowed_starts", a); err != nil {
						return err
					}
				}
				for _, fs := range subj.FixedSessions {
					if fs.Day != "" {
						if _, ok := cal.DayIndex(fs.Day); !ok {
							return fmt.Errorf("%v fixed_sessions: day %q is not in calendar.days", subjScope, fs.Day)
						}
					}
					if _, ok := cal.PeriodIndex(fs.Period); !ok {
						return fmt.Errorf("%v fixed_sessions: period %q is not in calendar.periods", subjScope, fs.Period)
					}
				}
			}
		}
	}
	for _, t := range input.Teachers {
		for _, dp := range t.UnavailablePeriods {
			if err := checkSlot(fmt.Sprintf("teacher %q unavailable_periods", t.Name), dp); err != nil {
				return err
			}
		}
		for _, p := range t.PreferredPeriods {
			if _, ok := cal.PeriodIndex(p); !ok {
				return fmt.Errorf("teacher %q preferred_periods: period %q is not in calendar.periods", t.Name, p)
			}
		}
	}
	return nil
}

// Request extracts the solve request for one semester. Classes that do not
// define the semester are skipped and reported, supporting inputs where not
// every class runs in every semester.
func (input TimetableInput) Request(semester string) (Request, []string, error) {
	var specs []ClassSemesterSpec
	var skipped []string
	for _, c := range input.Classes {
		sem, ok := c.Semesters[semester]
		if !ok {
			skipped = append(skipped, c.Name)
			continue
		}
		specs = append(specs, ClassSemesterSpec{
			Class:          c.Name,
			Semester:       semester,
			Subjects:       sem.Subjects,
			BlockedPeriods: sem.BlockedPeriods,
		})
	}
	if len(specs) == 0 {
		return Request{}, skipped, fmt.Errorf("no classes define semester %q", semester)
	}

	teachers := make(map[string]TeacherSpec, len(input.Teachers))
	for _, t := range input.Teachers {
		teachers[t.Name] = t
	}
	return Request{
		Calendar:    input.Calendar,
		Specs:       specs,
		Constraints: input.Constraints,
		Teachers:    teachers,
	}, skipped, nil
}
