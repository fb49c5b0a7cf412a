package model

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleInput = `{
	"calendar": {
		"days": ["Mon", "Tue"],
		"periods": ["P1", "P2", "P3"]
	},
	"constraints": {
		"min_classes_per_week": 2,
		"min_classes_per_week_by_class": {"7B": 1},
		"max_periods_per_day_by_tag": {"sci": 2},
		"teacher_max_periods_per_week": 10
	},
	"teachers": [
		{
			"name": "alice",
			"max_periods_per_week": 6,
			"unavailable_periods": [{"day": "Mon", "period": "P1"}],
			"preferred_periods": ["P2"]
		}
	],
	"classes": [
		{
			"name": "7A",
			"semesters": {
				"S1": {
					"subjects": [
						{
							"name": "Math",
							"teachers": ["alice", "ben"],
							"teaching_mode": "all_of",
							"periods_per_week": 2,
							"min_contiguous_periods": 1,
							"max_contiguous_periods": 2,
							"tags": ["sci"],
							"allowed_starts": [{"day": "Mon", "period": "P2"}],
							"fixed_sessions": [{"day": "Mon", "period": "P2", "duration": 2}]
						}
					],
					"blocked_periods": [{"day": "Tue", "period": "P3"}]
				}
			}
		},
		{
			"name": "7B",
			"semesters": {
				"S2": {
					"subjects": [
						{
							"name": "Art",
							"teachers": ["ben"],
							"periods_per_week": 1,
							"min_contiguous_periods": 1,
							"max_contiguous_periods": 1
						}
					]
				}
			}
		}
	]
}`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	file := path.Join(t.TempDir(), "input.json")
	assert.NoError(t, os.WriteFile(file, []byte(content), 0666))
	return file
}

func TestInputFromJSON(t *testing.T) {
	input, err := InputFromJSON(writeInput(t, sampleInput))

	assert.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue"}, input.Calendar.Days)
	assert.Equal(t, []string{"P1", "P2", "P3"}, input.Calendar.Periods)

	assert.NotNil(t, input.Constraints.MinPeriodsPerWeek)
	assert.Equal(t, 2, *input.Constraints.MinPeriodsPerWeek)
	assert.Equal(t, map[string]int{"7B": 1}, input.Constraints.MinPeriodsPerWeekByClass)
	assert.Equal(t, map[string]int{"sci": 2}, input.Constraints.MaxPeriodsPerDayByTag)
	assert.NotNil(t, input.Constraints.TeacherMaxPeriodsPerWeek)
	assert.Equal(t, 10, *input.Constraints.TeacherMaxPeriodsPerWeek)

	assert.Len(t, input.Teachers, 1)
	alice := input.Teachers[0]
	assert.Equal(t, "alice", alice.Name)
	assert.NotNil(t, alice.MaxPeriodsPerWeek)
	assert.Equal(t, 6, *alice.MaxPeriodsPerWeek)
	assert.Equal(t, []DayPeriod{{Day: "Mon", Period: "P1"}}, alice.UnavailablePeriods)
	assert.Equal(t, []string{"P2"}, alice.PreferredPeriods)

	assert.Len(t, input.Classes, 2)
	math := input.Classes[0].Semesters["S1"].Subjects[0]
	assert.Equal(t, "Math", math.Name)
	assert.Equal(t, TeachAllOf, math.Mode())
	assert.Equal(t, 2, math.PeriodsPerWeek)
	assert.Equal(t, 1, math.MinContiguous)
	assert.Equal(t, 2, math.MaxContiguous)
	assert.Equal(t, []string{"sci"}, math.Tags)
	assert.Equal(t, []DayPeriod{{Day: "Mon", Period: "P2"}}, math.AllowedStarts)
	assert.Equal(t, []FixedSession{{Day: "Mon", Period: "P2", Duration: 2}}, math.FixedSessions)

	art := input.Classes[1].Semesters["S2"].Subjects[0]
	assert.Equal(t, TeachAnyOf, art.Mode())
}

func TestInputFromJSONDefaultsCalendar(t *testing.T) {
	input, err := InputFromJSON(writeInput(t, `{"classes": []}`))

	assert.NoError(t, err)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri"}, input.Calendar.Days)
	assert.Equal(t, []string{"P1", "P2", "P3", "P4", "P5"}, input.Calendar.Periods)
}

func TestInputFromJSONErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := InputFromJSON(path.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := InputFromJSON(writeInput(t, `{"classes": [`))
		assert.Error(t, err)
	})
}

func TestValidateReferences(t *testing.T) {
	input, err := InputFromJSON(writeInput(t, sampleInput))
	assert.NoError(t, err)

	assert.NoError(t, input.ValidateReferences())

	t.Run("unknown blocked day", func(t *testing.T) {
		bad := input
		bad.Classes = []ClassInput{{
			Name: "7A",
			Semesters: map[string]SemesterInput{"S1": {
				BlockedPeriods: []DayPeriod{{Day: "Sun", Period: "P1"}},
			}},
		}}
		err := bad.ValidateReferences()
		assert.ErrorContains(t, err, "Sun")
	})

	t.Run("unknown preferred period", func(t *testing.T) {
		bad := input
		bad.Teachers = []TeacherSpec{{Name: "bob", PreferredPeriods: []string{"P9"}}}
		err := bad.ValidateReferences()
		assert.ErrorContains(t, err, "P9")
	})

	t.Run("unknown fixed session period", func(t *testing.T) {
		bad := input
		bad.Classes = []ClassInput{{
			Name: "7A",
			Semesters: map[string]SemesterInput{"S1": {
				Subjects: []SubjectSpec{{
					Name: "Math", Teachers: []string{"alice"},
					PeriodsPerWeek: 1, MinContiguous: 1, MaxContiguous: 1,
					FixedSessions: []FixedSession{{Period: "P7"}},
				}},
			}},
		}}
		err := bad.ValidateReferences()
		assert.ErrorContains(t, err, "P7")
	})
}

func TestRequestExtraction(t *testing.T) {
	input, err := InputFromJSON(writeInput(t, sampleInput))
	assert.NoError(t, err)

	t.Run("classes without the semester are skipped", func(t *testing.T) {
		req, skipped, err := input.Request("S1")

		assert.NoError(t, err)
		assert.Equal(t, []string{"7B"}, skipped)
		assert.Len(t, req.Specs, 1)
		assert.Equal(t, "7A", req.Specs[0].Class)
		assert.Equal(t, "S1", req.Specs[0].Semester)
		assert.Equal(t, input.Calendar, req.Calendar)
		assert.Contains(t, req.Teachers, "alice")
	})

	t.Run("unknown semester fails", func(t *testing.T) {
		_, skipped, err := input.Request("S9")

		assert.Error(t, err)
		assert.ElementsMatch(t, []string{"7A", "7B"}, skipped)
	})
}
