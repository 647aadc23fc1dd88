package types

import (
	"time"

	"gorm.io/datatypes"
)

// TrainingAnalysis is append-only; the latest row by CreatedAt is the
// current view for an athlete.
type TrainingAnalysis struct {
	ID        uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	AthleteID int64    `gorm:"not null;index;column:athlete_id" json:"athlete_id"`
	Athlete   *Athlete `gorm:"constraint:OnDelete:CASCADE;foreignKey:AthleteID;references:ID" json:"-"`

	Summary             string `gorm:"type:text;not null;column:summary" json:"summary"`
	TrainingLoadInsight string `gorm:"type:text;not null;column:training_load_insight" json:"training_load_insight"`
	Tips                string `gorm:"type:text;not null;column:tips" json:"tips"`

	ActivitiesAnalyzedCount int       `gorm:"not null;column:activities_analyzed_count" json:"activities_analyzed_count"`
	AnalysisPeriodStart     time.Time `gorm:"not null;column:analysis_period_start" json:"analysis_period_start"`
	AnalysisPeriodEnd       time.Time `gorm:"not null;column:analysis_period_end" json:"analysis_period_end"`

	RawResponse datatypes.JSON `gorm:"column:raw_response" json:"raw_response,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (TrainingAnalysis) TableName() string { return "training_analyses" }
