package types

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is one synced Strava activity. Raw provider payload is retained
// verbatim in RawData for forward compatibility.
type Activity struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	AthleteID          int64     `gorm:"not null;index;column:athlete_id" json:"athlete_id"`
	Athlete            *Athlete  `gorm:"constraint:OnDelete:CASCADE;foreignKey:AthleteID;references:ID" json:"athlete,omitempty"`
	Name               string    `gorm:"size:255;column:name" json:"name"`
	Distance           float64   `gorm:"column:distance" json:"distance"`
	MovingTime         int       `gorm:"column:moving_time" json:"moving_time"`
	ElapsedTime        int       `gorm:"column:elapsed_time" json:"elapsed_time"`
	TotalElevationGain float64   `gorm:"column:total_elevation_gain" json:"total_elevation_gain"`
	SportType          string    `gorm:"size:50;column:sport_type" json:"sport_type"`
	StartDate          time.Time `gorm:"index;column:start_date" json:"start_date"`
	StartDateLocal     time.Time `gorm:"column:start_date_local" json:"start_date_local"`
	Timezone           string    `gorm:"size:100;column:timezone" json:"timezone"`

	AverageSpeed     *float64 `gorm:"column:average_speed" json:"average_speed,omitempty"`
	MaxSpeed         *float64 `gorm:"column:max_speed" json:"max_speed,omitempty"`
	AverageHeartrate *float64 `gorm:"column:average_heartrate" json:"average_heartrate,omitempty"`
	MaxHeartrate     *float64 `gorm:"column:max_heartrate" json:"max_heartrate,omitempty"`
	AverageCadence   *float64 `gorm:"column:average_cadence" json:"average_cadence,omitempty"`

	StartLatitude  *float64 `gorm:"column:start_latitude" json:"start_latitude,omitempty"`
	StartLongitude *float64 `gorm:"column:start_longitude" json:"start_longitude,omitempty"`
	EndLatitude    *float64 `gorm:"column:end_latitude" json:"end_latitude,omitempty"`
	EndLongitude   *float64 `gorm:"column:end_longitude" json:"end_longitude,omitempty"`

	AchievementCount *int `gorm:"column:achievement_count" json:"achievement_count,omitempty"`
	KudosCount       *int `gorm:"column:kudos_count" json:"kudos_count,omitempty"`
	CommentCount     *int `gorm:"column:comment_count" json:"comment_count,omitempty"`
	AthleteCount     *int `gorm:"column:athlete_count" json:"athlete_count,omitempty"`

	RawData datatypes.JSON `gorm:"column:raw_data" json:"raw_data,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Laps []Lap `gorm:"foreignKey:ActivityID;references:ID" json:"laps,omitempty"`
}

func (Activity) TableName() string { return "activities" }
