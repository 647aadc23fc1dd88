package types

import (
	"time"

	"gorm.io/datatypes"
)

// Athlete mirrors the Strava athlete profile. The primary key is the
// external Strava athlete id, never generated locally.
type Athlete struct {
	ID             int64          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username       string         `gorm:"size:100;column:username" json:"username"`
	FirstName      string         `gorm:"size:100;column:firstname" json:"firstname"`
	LastName       string         `gorm:"size:100;column:lastname" json:"lastname"`
	City           string         `gorm:"size:100;column:city" json:"city"`
	State          string         `gorm:"size:100;column:state" json:"state"`
	Country        string         `gorm:"size:100;column:country" json:"country"`
	Sex            string         `gorm:"size:1;column:sex" json:"sex"`
	Weight         *float64       `gorm:"column:weight" json:"weight,omitempty"`
	Profile        string         `gorm:"type:text;column:profile" json:"profile"`
	Stats          datatypes.JSON `gorm:"column:stats" json:"stats,omitempty"`
	StatsUpdatedAt *time.Time     `gorm:"column:stats_updated_at" json:"stats_updated_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`

	Activities []Activity `gorm:"foreignKey:AthleteID;references:ID" json:"activities,omitempty"`
}

func (Athlete) TableName() string { return "athletes" }
