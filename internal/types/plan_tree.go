package types

// PlanTree is the structured plan extracted from a model completion:
// weeks -> day sessions. It round-trips through the training_plan_json
// column unchanged.
type PlanTree struct {
	TrainingPlan []PlanWeek `json:"training_plan"`
}

type PlanWeek struct {
	Week int       `json:"week"`
	Days []PlanDay `json:"days"`
}

type PlanDay struct {
	Day          string `json:"day"`
	ActivityType string `json:"activity_type"`
	Details      string `json:"details"`
}

// TotalActivities walks the tree and counts day sessions. Callers use this
// instead of a stored counter so edits to the tree stay consistent.
func (p PlanTree) TotalActivities() int {
	total := 0
	for _, w := range p.TrainingPlan {
		total += len(w.Days)
	}
	return total
}
