package types

import (
	"time"

	"gorm.io/datatypes"
)

// TrainingRequest captures the user input that produced a plan. Rows are
// append-only: a request survives a failed generation so the operation can
// be retried without re-collecting input.
type TrainingRequest struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	AthleteID int64    `gorm:"not null;index;column:athlete_id" json:"athlete_id"`
	Athlete   *Athlete `gorm:"constraint:OnDelete:CASCADE;foreignKey:AthleteID;references:ID" json:"-"`

	DistanceObjective   string         `gorm:"size:100;not null;column:distance_objective" json:"distance_objective"`
	PaceOrTimeObjective string         `gorm:"size:100;not null;column:pace_or_time_objective" json:"pace_or_time_objective"`
	PersonalRecord      *string        `gorm:"size:100;column:personal_record" json:"personal_record,omitempty"`
	WeeklyKms           *float64       `gorm:"column:weekly_kms" json:"weekly_kms,omitempty"`
	PlanDurationWeeks   int            `gorm:"not null;column:plan_duration_weeks" json:"plan_duration_weeks"`
	TrainingDays        datatypes.JSON `gorm:"not null;column:training_days" json:"training_days"`
	UseActivityContext  bool           `gorm:"not null;default:false;column:use_activity_context" json:"use_activity_context"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (TrainingRequest) TableName() string { return "training_requests" }

// TrainingPlan holds the AI narrative plus the structured plan tree. Exactly
// one plan exists per request; the plan references the request, deleting a
// plan never deletes its request.
type TrainingPlan struct {
	ID        uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID uint             `gorm:"not null;uniqueIndex;column:request_id" json:"request_id"`
	Request   *TrainingRequest `gorm:"foreignKey:RequestID;references:ID" json:"request,omitempty"`
	AthleteID int64            `gorm:"not null;index;column:athlete_id" json:"athlete_id"`

	Insights         string         `gorm:"type:text;not null;column:insights" json:"insights"`
	Summary          string         `gorm:"type:text;not null;column:summary" json:"summary"`
	TrainingPlanJSON datatypes.JSON `gorm:"not null;column:training_plan_json" json:"training_plan_json"`
	RawResponse      datatypes.JSON `gorm:"column:raw_response" json:"raw_response,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (TrainingPlan) TableName() string { return "training_plans" }

// TrainingPlanActivity is one completion record, addressed by the composite
// (plan, week, day, index) key. Absence means "not completed".
type TrainingPlanActivity struct {
	ID            uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	PlanID        uint          `gorm:"not null;index:idx_plan_week_day_activity,unique;column:plan_id" json:"plan_id"`
	Plan          *TrainingPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"-"`
	WeekNumber    int           `gorm:"not null;index:idx_plan_week_day_activity,unique;column:week_number" json:"week_number"`
	Day           string        `gorm:"size:20;not null;index:idx_plan_week_day_activity,unique;column:day" json:"day"`
	ActivityIndex int           `gorm:"not null;index:idx_plan_week_day_activity,unique;column:activity_index" json:"activity_index"`

	IsCompleted bool       `gorm:"not null;default:false;column:is_completed" json:"is_completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (TrainingPlanActivity) TableName() string { return "training_plan_activities" }
