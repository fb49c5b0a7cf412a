package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chakravarthiponmudi/timetable-planner/internal/model"
	"github.com/chakravarthiponmudi/timetable-planner/internal/solver"
)

// Exit codes follow the SAT-solver convention: 10 solved, 20 infeasible,
// 30 no verdict within the budget, 15 a solved timetable failed the
// independent verification pass.
const (
	exitSolved     = 10
	exitVerifyFail = 15
	exitInfeasible = 20
	exitUnknown    = 30
)

func main() {
	filePtr := flag.String("file", "", "Path to the input JSON file")
	semesterPtr := flag.String("semester", "", "Semester key to solve, e.g. \"S1\"")
	configPtr := flag.String("config", "", "Optional config file with defaults for time_limit_s and log_level")
	timeLimitPtr := flag.Float64("time-limit", 0, "Solver time limit in seconds (overrides config)")
	teachersPtr := flag.Bool("teachers", false, "Also print per-teacher timetables")
	flag.Parse()

	viper.SetDefault("time_limit_s", 10.0)
	viper.SetDefault("log_level", "info")
	viper.SetEnvPrefix("timetable")
	viper.AutomaticEnv()
	if *configPtr != "" {
		viper.SetConfigFile(*configPtr)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("cannot read config file: %v", err)
		}
	}
	timeLimit := viper.GetFloat64("time_limit_s")
	if *timeLimitPtr > 0 {
		timeLimit = *timeLimitPtr
	}

	// Validate arguments
	if *filePtr == "" {
		log.Fatal("an input file must be specified")
	} else if *semesterPtr == "" {
		log.Fatal("a semester must be specified")
	}

	logger := newLogger(viper.GetString("log_level"))
	defer logger.Sync()

	// Extract input
	input, err := model.InputFromJSON(*filePtr)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}
	if err := input.ValidateReferences(); err != nil {
		log.Fatalf("invalid input: %v", err)
	}
	req, skipped, err := input.Request(*semesterPtr)
	if len(skipped) > 0 {
		fmt.Printf("Note: classes without semester %q were skipped: %v\n", *semesterPtr, strings.Join(skipped, ", "))
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	scheduler := model.NewScheduler(solver.NewGiniSolver(), logger)
	budget := time.Duration(timeLimit * float64(time.Second))

	sol, err := scheduler.Solve(req, budget)
	if err != nil {
		log.Fatalf("an error occurred during timetable construction: %v", err)
	}

	fmt.Printf("Status: %v\n", sol.Status)
	switch sol.Status {
	case solver.StatusInfeasible:
		lines, err := scheduler.Diagnose(req, budget)
		if err != nil {
			log.Fatalf("diagnosis failed: %v", err)
		}
		fmt.Println("No feasible timetable exists. Diagnosis:")
		for _, line := range lines {
			fmt.Printf("  - %v\n", line)
		}
		os.Exit(exitInfeasible)
	case solver.StatusUnknown:
		fmt.Println("No verdict within the time limit; raise -time-limit and retry.")
		os.Exit(exitUnknown)
	}

	fmt.Printf("Objective (lower is better): %v\n\n", sol.Objective)
	for _, cs := range req.Specs {
		fmt.Println(formatClassTimetable(req.Calendar, cs.Class, sol.Classes[cs.Class]))
		fmt.Println()
	}
	if *teachersPtr {
		for _, teacher := range req.ReferencedTeachers() {
			fmt.Println(formatTeacherTimetable(req, sol, teacher))
			fmt.Println()
		}
	}
	fmt.Println(formatTeacherAllocation(sol.Teachers))

	// Verify timetable correctness
	if !scheduler.Verify(req, sol) {
		logger.Error("solved timetable failed verification")
		os.Exit(exitVerifyFail)
	}
	os.Exit(exitSolved)
}

func newLogger(level string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if strings.EqualFold(level, "debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	return logger
}

func formatClassTimetable(cal model.Calendar, class string, grid model.ClassGrid) string {
	cells := make([][]string, cal.NumDays())
	for d := range cal.Days {
		cells[d] = make([]string, cal.NumPeriods())
		for p := range cal.Periods {
			cells[d][p] = "-"
			if slot := grid[d][p]; slot != nil {
				cells[d][p] = fmt.Sprintf("%v(%v)", slot.Subject, strings.Join(slot.Teachers, "+"))
			}
		}
	}
	return renderGrid(cal, fmt.Sprintf("Class: %v", class), cells)
}

func formatTeacherTimetable(req model.Request, sol *model.Solution, teacher string) string {
	cal := req.Calendar
	cells := make([][]string, cal.NumDays())
	for d := range cal.Days {
		cells[d] = make([]string, cal.NumPeriods())
		for p := range cal.Periods {
			cells[d][p] = "-"
			for _, cs := range req.Specs {
				slot := sol.Classes[cs.Class][d][p]
				if slot != nil && lo.Contains(slot.Teachers, teacher) {
					cells[d][p] = fmt.Sprintf("%v:%v", cs.Class, slot.Subject)
					break
				}
			}
		}
	}
	return renderGrid(cal, fmt.Sprintf("Teacher: %v", teacher), cells)
}

func formatTeacherAllocation(loads map[string]model.TeacherLoad) string {
	teachers := lo.Keys(loads)
	sort.Strings(teachers)

	var builder strings.Builder
	builder.WriteString("Teacher allocation (periods/week):\n")
	for _, teacher := range teachers {
		load := loads[teacher]
		fmt.Fprintf(&builder, "%v: %v\n", teacher, load.Total)
		assignments := lo.Keys(load.PerAssignment)
		sort.Slice(assignments, func(i, j int) bool {
			if assignments[i].Class != assignments[j].Class {
				return assignments[i].Class < assignments[j].Class
			}
			return assignments[i].Subject < assignments[j].Subject
		})
		for _, a := range assignments {
			fmt.Fprintf(&builder, "  %v / %v: %v\n", a.Class, a.Subject, load.PerAssignment[a])
		}
	}
	return strings.TrimRight(builder.String(), "\n")
}

// renderGrid pretty-prints a day-by-period grid with aligned columns.
func renderGrid(cal model.Calendar, title string, cells [][]string) string {
	colWidths := make([]int, cal.NumPeriods())
	for p := range cal.Periods {
		colWidths[p] = len(cal.Periods[p])
		for d := range cal.Days {
			colWidths[p] = max(colWidths[p], len(cells[d][p]))
		}
	}
	dayWidth := 0
	for _, day := range cal.Days {
		dayWidth = max(dayWidth, len(day))
	}

	var builder strings.Builder
	builder.WriteString(title + "\n")
	builder.WriteString(strings.Repeat(" ", dayWidth+2))
	for p, period := range cal.Periods {
		fmt.Fprintf(&builder, "%-*v  ", colWidths[p], period)
	}
	builder.WriteString("\n")
	for d, day := range cal.Days {
		fmt.Fprintf(&builder, "%-*v  ", dayWidth, day)
		for p := range cal.Periods {
			fmt.Fprintf(&builder, "%-*v  ", colWidths[p], cells[d][p])
		}
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n")
}
