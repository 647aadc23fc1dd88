package services

import (
	"strings"
	"testing"
	"time"

	"github.com/ivaaanrm/PaceUp/internal/types"
)

func TestBuildPlanPromptDeterministic(t *testing.T) {
	pr := "22:30 5k"
	kms := 40.0
	input := PlanRequestInput{
		DistanceObjective:   "10k",
		PaceOrTimeObjective: "sub 45 minutes",
		PersonalRecord:      &pr,
		WeeklyKms:           &kms,
		PlanDurationWeeks:   8,
		TrainingDays:        []string{"Monday", "Wednesday", "Saturday"},
	}

	first := BuildPlanPrompt(input, "")
	second := BuildPlanPrompt(input, "")
	if first != second {
		t.Fatal("prompt is not deterministic for identical input")
	}
}

func TestBuildPlanPromptEchoesConstraints(t *testing.T) {
	input := PlanRequestInput{
		DistanceObjective:   "Marathon",
		PaceOrTimeObjective: "finish under 4 hours",
		PlanDurationWeeks:   12,
		TrainingDays:        []string{"Tuesday", "Thursday", "Sunday"},
	}
	prompt := BuildPlanPrompt(input, "")

	if !strings.Contains(prompt, "Plan Duration: 12 weeks") {
		t.Error("plan duration not echoed")
	}
	if !strings.Contains(prompt, "The plan covers all 12 weeks") {
		t.Error("plan duration not repeated in constraints")
	}
	for _, day := range input.TrainingDays {
		if !strings.Contains(prompt, day) {
			t.Errorf("training day %q not echoed", day)
		}
	}
	if !strings.Contains(prompt, "Tuesday, Thursday, Sunday") {
		t.Error("training days not echoed verbatim in order")
	}
	if !strings.Contains(prompt, "Personal Record (PR): Not specified") {
		t.Error("missing PR should render as Not specified")
	}
	if !strings.Contains(prompt, `"training_plan"`) {
		t.Error("JSON schema key missing from prompt")
	}
	if strings.Contains(prompt, "Historical Context:") {
		t.Error("historical context section present without context")
	}
}

func TestBuildPlanPromptIncludesContext(t *testing.T) {
	input := PlanRequestInput{
		DistanceObjective:   "5k",
		PaceOrTimeObjective: "sub 25",
		PlanDurationWeeks:   4,
		TrainingDays:        []string{"Monday"},
	}
	prompt := BuildPlanPrompt(input, "Previous Activities (Last 4 weeks):\nWeek 1: 3 runs")
	if !strings.Contains(prompt, "Historical Context:") {
		t.Fatal("historical context section missing")
	}
	if !strings.Contains(prompt, "Week 1: 3 runs") {
		t.Fatal("context body missing")
	}
}

func TestFormatPace(t *testing.T) {
	if got := formatPace(nil); got != "N/A" {
		t.Fatalf("formatPace(nil) = %q", got)
	}
	if got := formatPace(fp(5.5)); got != "5:30" {
		t.Fatalf("formatPace(5.5) = %q, want 5:30", got)
	}
	if got := formatPace(fp(4.0)); got != "4:00" {
		t.Fatalf("formatPace(4.0) = %q, want 4:00", got)
	}
}

func TestRenderActivitiesContext(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := RenderActivitiesContext(nil, now); got != "No previous activities found in the last 4 weeks." {
		t.Fatalf("empty context = %q", got)
	}

	activities := []*types.Activity{
		runActivity(1, now.AddDate(0, 0, -2), 10000, fp(3)),
		runActivity(2, now.AddDate(0, 0, -3), 5000, fp(2.5)),
		runActivity(3, now.AddDate(0, 0, -10), 8000, fp(3)),
	}
	got := RenderActivitiesContext(activities, now)
	if !strings.HasPrefix(got, "Previous Activities (Last 4 weeks):") {
		t.Fatalf("header missing: %q", got)
	}
	if !strings.Contains(got, "Week 1: 2 runs, 15.0km total") {
		t.Fatalf("week 1 summary wrong: %q", got)
	}
	if !strings.Contains(got, "Week 2: 1 runs, 8.0km total") {
		t.Fatalf("week 2 summary wrong: %q", got)
	}
}

func TestRenderAnalysisContext(t *testing.T) {
	athlete := &types.Athlete{ID: 1, FirstName: "Ana", LastName: "Ruiz", City: "Girona", Country: "Spain"}
	summary := &TrainingSummary{
		Period:          "Last 4 weeks",
		TotalRuns:       6,
		TotalDistanceKm: 52.3,
		WeeklyBreakdown: []WeeklyStats{
			{WeekNumber: 4, WeekStart: "2026-03-03", WeekEnd: "2026-03-10", RunCount: 2, TotalDistanceKm: 15},
		},
	}
	trends := &PerformanceTrends{PeriodDays: 30, TotalRuns: 6, PaceTrend: "stable"}
	activities := []ActivitySummary{
		{ID: 1, Name: "Morning Run", Date: "2026-03-09T08:00:00Z", DistanceKm: 10, DurationMinutes: 55},
	}

	got := RenderAnalysisContext(athlete, activities, summary, trends)
	for _, want := range []string{
		"Name: Ana Ruiz",
		"Location: Girona, Spain",
		"Weight: Not specified kg",
		"TRAINING SUMMARY (Last 4 weeks):",
		"- Total Runs: 6",
		"Week 4 (2026-03-03 to 2026-03-10):",
		"Pace trend: stable",
		"- 2026-03-09T08:00:00Z: Morning Run",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestBuildAnalysisPromptShape(t *testing.T) {
	prompt := BuildAnalysisPrompt("CONTEXT BODY")
	if !strings.Contains(prompt, "CONTEXT BODY") {
		t.Fatal("context not embedded")
	}
	for _, key := range []string{`"summary"`, `"training_load_insight"`, `"tips"`} {
		if !strings.Contains(prompt, key) {
			t.Errorf("response schema key %s missing", key)
		}
	}
}
