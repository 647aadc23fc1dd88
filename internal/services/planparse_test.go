package services

import (
	"errors"
	"strings"
	"testing"
)

const validPlanJSON = `{
  "training_plan": [
    {
      "week": 1,
      "days": [
        {"day": "Monday", "activity_type": "Easy Run", "details": "5km easy"},
        {"day": "Sunday", "activity_type": "Long Run", "details": "10km steady"}
      ]
    }
  ]
}`

func TestParsePlanResponseShapes(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name:     "fenced json block",
			response: "1. Insights on the Objective: solid goal.\n\n2. Summary of the Plan Objective: endurance.\n\nJSON:\n```json\n" + validPlanJSON + "\n```\n",
		},
		{
			name:     "fenced block without language tag",
			response: "```\n" + validPlanJSON + "\n```",
		},
		{
			name:     "bare json with surrounding prose",
			response: "Here is your plan.\n\n" + validPlanJSON + "\n\nGood luck!",
		},
		{
			name:     "json only",
			response: validPlanJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParsePlanResponse(tt.response)
			if err != nil {
				t.Fatalf("ParsePlanResponse: %v", err)
			}
			if len(parsed.Tree.TrainingPlan) != 1 {
				t.Fatalf("weeks = %d, want 1", len(parsed.Tree.TrainingPlan))
			}
			week := parsed.Tree.TrainingPlan[0]
			if week.Week != 1 || len(week.Days) != 2 {
				t.Fatalf("week = %+v", week)
			}
			if week.Days[0].Day != "Monday" || week.Days[0].ActivityType != "Easy Run" {
				t.Fatalf("day[0] = %+v", week.Days[0])
			}
		})
	}
}

func TestParsePlanResponseTrailingCommas(t *testing.T) {
	response := `{
  "training_plan": [
    {
      "week": 1,
      "days": [
        {"day": "Monday", "activity_type": "Easy Run", "details": "5km easy",},
      ],
    },
  ],
}`
	parsed, err := ParsePlanResponse(response)
	if err != nil {
		t.Fatalf("ParsePlanResponse: %v", err)
	}
	if got := parsed.Tree.TotalActivities(); got != 1 {
		t.Fatalf("TotalActivities = %d, want 1", got)
	}
}

func TestParsePlanResponseNoJSON(t *testing.T) {
	_, err := ParsePlanResponse("Sorry, I cannot produce a plan right now.")
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if extractionErr.ResponseLen == 0 {
		t.Fatalf("ResponseLen not populated: %+v", extractionErr)
	}
}

func TestParsePlanResponseTruncatedJSON(t *testing.T) {
	// Opening brace with no matching close: the greedy fallback still needs
	// at least one closing brace, so truncation surfaces as a parse error.
	response := `{"training_plan": [{"week": 1, "days": [{"day": "Mon"}`
	_, err := ParsePlanResponse(response)
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestParsePlanResponseMalformedJSON(t *testing.T) {
	response := `{"training_plan": [{"week": oops}]}`
	_, err := ParsePlanResponse(response)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want ParseError", err)
	}
	if parseErr.Line < 1 {
		t.Fatalf("Line = %d", parseErr.Line)
	}
}

func TestParsePlanResponseMissingKey(t *testing.T) {
	_, err := ParsePlanResponse(`{"plan": [{"week": 1}]}`)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if !strings.Contains(validationErr.Reason, "training_plan") {
		t.Fatalf("Reason = %q", validationErr.Reason)
	}
}

func TestParsePlanResponseEmptyPlan(t *testing.T) {
	_, err := ParsePlanResponse(`{"training_plan": []}`)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestParsePlanResponseSections(t *testing.T) {
	response := "1. Insights on the Objective:\nYou are well prepared.\n\n" +
		"2. Summary of the Plan Objective:\nBuild endurance with two quality sessions.\n\n" +
		"3. JSON Formatted Training Plan:\n" + validPlanJSON

	parsed, err := ParsePlanResponse(response)
	if err != nil {
		t.Fatalf("ParsePlanResponse: %v", err)
	}
	if !strings.Contains(parsed.Insights, "You are well prepared.") {
		t.Fatalf("Insights = %q", parsed.Insights)
	}
	if !strings.Contains(parsed.Summary, "Build endurance") {
		t.Fatalf("Summary = %q", parsed.Summary)
	}
	// The insights section must stop before the summary heading.
	if strings.Contains(parsed.Insights, "Build endurance") {
		t.Fatalf("Insights leaked into summary: %q", parsed.Insights)
	}
}

func TestExtractSectionMissingMarkers(t *testing.T) {
	if got := ExtractSection("no markers here", "Insights on the Objective", "Summary"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
	// Missing end marker extends to end of text.
	got := ExtractSection("Summary of the Plan Objective: run far", "Summary of the Plan Objective", "JSON")
	if got != ": run far" {
		t.Fatalf("got %q", got)
	}
}

func TestBalancedBracesIgnoresTrailingText(t *testing.T) {
	span, ok := balancedBraces(`prefix {"a": {"b": 1}} trailing {unclosed`)
	if !ok {
		t.Fatal("expected a span")
	}
	if span != `{"a": {"b": 1}}` {
		t.Fatalf("span = %q", span)
	}
}
