package types

import (
	"time"

	"gorm.io/datatypes"
)

// Lap rows are fully replaced on every resync of their activity, so LapIndex
// is only meaningful within one sync generation.
type Lap struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ActivityID int64     `gorm:"not null;index:idx_activity_lap,unique;column:activity_id" json:"activity_id"`
	Activity   *Activity `gorm:"constraint:OnDelete:CASCADE;foreignKey:ActivityID;references:ID" json:"activity,omitempty"`
	LapIndex   int       `gorm:"not null;index:idx_activity_lap,unique;column:lap_index" json:"lap_index"`

	Name               string   `gorm:"size:255;column:name" json:"name"`
	Distance           float64  `gorm:"column:distance" json:"distance"`
	MovingTime         int      `gorm:"column:moving_time" json:"moving_time"`
	ElapsedTime        int      `gorm:"column:elapsed_time" json:"elapsed_time"`
	TotalElevationGain *float64 `gorm:"column:total_elevation_gain" json:"total_elevation_gain,omitempty"`

	AverageSpeed     *float64 `gorm:"column:average_speed" json:"average_speed,omitempty"`
	MaxSpeed         *float64 `gorm:"column:max_speed" json:"max_speed,omitempty"`
	AverageHeartrate *float64 `gorm:"column:average_heartrate" json:"average_heartrate,omitempty"`
	MaxHeartrate     *float64 `gorm:"column:max_heartrate" json:"max_heartrate,omitempty"`
	AverageCadence   *float64 `gorm:"column:average_cadence" json:"average_cadence,omitempty"`

	PaceZone  *int       `gorm:"column:pace_zone" json:"pace_zone,omitempty"`
	StartDate *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`

	RawData datatypes.JSON `gorm:"column:raw_data" json:"raw_data,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Lap) TableName() string { return "laps" }
