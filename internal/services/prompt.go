package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivaaanrm/PaceUp/internal/types"
)

// Prompt construction is deterministic: the same inputs always yield the
// same string. Anything the user constrained (plan duration, training days)
// is echoed into the prompt verbatim so the model cannot silently drop it.

const planSystemPrompt = `You are an expert running coach and personal trainer. Your task is to generate a personalized running training plan based on the user's data and objectives. You will provide insightful analysis, a summary of the training plan, and a detailed, structured workout schedule in JSON format.`

const analysisSystemPrompt = `You are an expert running coach and sports scientist.
Analyze the provided training data and provide actionable insights.
Focus on:
1. Training load and volume trends
2. Recovery and fatigue indicators
3. Performance progression
4. Specific recommendations for upcoming runs

Be concise, supportive, and specific in your recommendations.`

// PlanRequestInput is the user-supplied shape a plan is generated from.
type PlanRequestInput struct {
	DistanceObjective   string   `json:"distance_objective" binding:"required"`
	PaceOrTimeObjective string   `json:"pace_or_time_objective" binding:"required"`
	PersonalRecord      *string  `json:"personal_record"`
	WeeklyKms           *float64 `json:"weekly_kms"`
	PlanDurationWeeks   int      `json:"plan_duration_weeks" binding:"required,min=1"`
	TrainingDays        []string `json:"training_days" binding:"required,min=1"`
	UseActivityContext  bool     `json:"get_previous_activities_context"`
}

func orNotSpecified(v *string) string {
	if v == nil || *v == "" {
		return "Not specified"
	}
	return *v
}

func weeklyKmsText(v *float64) string {
	if v == nil {
		return "Not specified"
	}
	return fmt.Sprintf("%v", *v)
}

// BuildPlanPrompt assembles the user prompt for plan generation.
// activitiesContext is "" when historical context was not requested.
func BuildPlanPrompt(input PlanRequestInput, activitiesContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Please create a personalized running training plan based on the following specifications.

User Data & Objectives:

Primary Goal:
- Distance Objective: %s
- Pace or Time Objective: %s

Current Fitness Level:
- Personal Record (PR): %s
- Average Weekly Kilometers: %s km

Training Plan Structure:
- Plan Duration: %d weeks
- Training Days: %s
`,
		input.DistanceObjective,
		input.PaceOrTimeObjective,
		orNotSpecified(input.PersonalRecord),
		weeklyKmsText(input.WeeklyKms),
		input.PlanDurationWeeks,
		strings.Join(input.TrainingDays, ", "),
	)

	if activitiesContext != "" {
		fmt.Fprintf(&b, "\nHistorical Context:\n%s\n", activitiesContext)
	}

	fmt.Fprintf(&b, `
Output Format:

Your response must be divided into three distinct sections:

1. Insights on the Objective: Provide a brief analysis of the user's goal based on their current fitness level. Comment on the achievability and offer a motivational and encouraging perspective.

2. Summary of the Plan Objective: Briefly summarize the training plan's focus, such as building endurance, improving speed, or a combination. Mention the key types of workouts that will be included.

3. JSON Formatted Training Plan: Generate a JSON object with a clear, hierarchical structure. The root object should contain a key "training_plan". This key should hold an array of objects, where each object represents a week. Each week object should contain the week number and a "days" array with objects for each training session. Each session object must include the day of the week, the type of training (e.g., "Easy Run," "Intervals," "Long Run," "Rest"), and a detailed description of the activity.

IMPORTANT: The JSON must be valid JSON. Do not include any markdown formatting around the JSON - output it as plain JSON text. The JSON should start with { and end with }.

Example of JSON Structure:
{
  "training_plan": [
    {
      "week": 1,
      "days": [
        {
          "day": "Monday",
          "activity_type": "Easy Run",
          "details": "5km at a conversational pace. Focus on consistency."
        },
        {
          "day": "Wednesday",
          "activity_type": "Intervals",
          "details": "1km warm-up. 6x400m at target 5k pace with 400m easy jog recovery. 1km cool-down."
        },
        {
          "day": "Friday",
          "activity_type": "Rest",
          "details": "Rest day. Light stretching or a short walk is optional."
        },
        {
          "day": "Sunday",
          "activity_type": "Long Run",
          "details": "8km at a comfortable, steady pace. This is about building endurance."
        }
      ]
    }
  ]
}

Please ensure that:
- The plan covers all %d weeks
- Training sessions are scheduled only on the specified days: %s
- The plan progressively builds towards the goal
- The plan is realistic and considers the user's current fitness level
- The JSON is valid and properly formatted (no trailing commas, all strings properly quoted)
`,
		input.PlanDurationWeeks,
		strings.Join(input.TrainingDays, ", "),
	)

	return b.String()
}

// formatPace renders min/km as "m:ss".
func formatPace(pace *float64) string {
	if pace == nil {
		return "N/A"
	}
	mins := int(*pace)
	secs := int((*pace - float64(mins)) * 60)
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// RenderActivitiesContext summarizes the last four weeks of runs, grouped
// into rolling 7-day buckets, for the plan prompt's historical section.
func RenderActivitiesContext(activities []*types.Activity, now time.Time) string {
	if len(activities) == 0 {
		return "No previous activities found in the last 4 weeks."
	}

	var summaries []string
	for week := 0; week < 4; week++ {
		weekStart := now.AddDate(0, 0, -7*(week+1))
		weekEnd := now.AddDate(0, 0, -7*week)

		var bucket []*types.Activity
		for _, a := range activities {
			if !a.StartDate.Before(weekStart) && a.StartDate.Before(weekEnd) {
				bucket = append(bucket, a)
			}
		}
		if len(bucket) == 0 {
			continue
		}

		var totalDistance float64
		var totalTime int
		for _, a := range bucket {
			totalDistance += a.Distance
			totalTime += a.MovingTime
		}

		var parts []string
		limit := len(bucket)
		if limit > 5 {
			limit = 5
		}
		for _, a := range bucket[:limit] {
			parts = append(parts, fmt.Sprintf("%.1fkm (%s min/km)",
				a.Distance/1000, formatPace(paceMinPerKm(a.AverageSpeed))))
		}

		summaries = append(summaries, fmt.Sprintf("Week %d: %d runs, %.1fkm total, %d minutes - %s",
			week+1, len(bucket), totalDistance/1000, totalTime/60, strings.Join(parts, ", ")))
	}

	return "Previous Activities (Last 4 weeks):\n" + strings.Join(summaries, "\n")
}

func naFloat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", *v)
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

// RenderAnalysisContext flattens the gathered training data into the text
// block the analysis prompt embeds.
func RenderAnalysisContext(athlete *types.Athlete, activities []ActivitySummary, summary *TrainingSummary, trends *PerformanceTrends) string {
	var b strings.Builder

	weight := "Not specified"
	if athlete.Weight != nil {
		weight = fmt.Sprintf("%v", *athlete.Weight)
	}
	fmt.Fprintf(&b, `
ATHLETE PROFILE:
Name: %s %s
Weight: %s kg
Location: %s, %s

TRAINING SUMMARY (%s):
- Total Runs: %d
- Total Distance: %v km
- Total Time: %v hours
- Total Elevation: %v m

WEEKLY BREAKDOWN:
`,
		orUnknown(athlete.FirstName), athlete.LastName,
		weight,
		orUnknown(athlete.City), orUnknown(athlete.Country),
		summary.Period,
		summary.TotalRuns, summary.TotalDistanceKm, summary.TotalDurationHours, summary.TotalElevationM,
	)

	for _, week := range summary.WeeklyBreakdown {
		fmt.Fprintf(&b, `
Week %d (%s to %s):
  - Runs: %d
  - Distance: %v km
  - Duration: %v hours
  - Avg Pace: %s min/km
`,
			week.WeekNumber, week.WeekStart, week.WeekEnd,
			week.RunCount, week.TotalDistanceKm, week.TotalDurationHours,
			naFloat(week.AvgPaceMinPerKm),
		)
	}

	fmt.Fprintf(&b, `

PERFORMANCE TRENDS:
- Total runs analyzed: %d
- Pace trend: %s
- First half avg pace: %s min/km
- Second half avg pace: %s min/km
- Pace change: %s min/km
- Average heart rate: %s bpm
- Recent avg distance: %v km
- Older avg distance: %v km

RECENT ACTIVITIES (Last %d runs):
`,
		trends.TotalRuns, trends.PaceTrend,
		naFloat(trends.FirstHalfAvgPace), naFloat(trends.SecondHalfAvgPace),
		naFloat(trends.PaceChangeMinPerKm), naFloat(trends.AverageHeartrate),
		trends.RecentAvgDistance, trends.OlderAvgDistance,
		min(len(activities), 10),
	)

	limit := len(activities)
	if limit > 10 {
		limit = 10
	}
	for _, a := range activities[:limit] {
		fmt.Fprintf(&b, `
- %s: %s
  Distance: %v km, Duration: %v min
  Pace: %s min/km
  Elevation: %v m
  HR: %s bpm (avg)
`,
			a.Date, a.Name,
			a.DistanceKm, a.DurationMinutes,
			naFloat(a.PaceMinPerKm),
			a.ElevationGainM,
			naFloat(a.AverageHeartrate),
		)
	}

	return b.String()
}

// BuildAnalysisPrompt wraps the rendered context with the analysis task and
// the JSON shape the model must answer in.
func BuildAnalysisPrompt(context string) string {
	return fmt.Sprintf(`Analyze this runner's training data and provide insights:

%s

Please provide:
1. A brief summary (2-3 sentences) of their current training status
2. Detailed training load insight analyzing their volume, intensity, and progression
3. Specific, actionable tips for their next runs (3-5 recommendations)

Format your response as JSON with the following structure:
{
    "summary": "brief summary here",
    "training_load_insight": "detailed analysis here",
    "tips": "tip 1\ntip 2\ntip 3..."
}`, context)
}
