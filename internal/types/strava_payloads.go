package types

import (
	"encoding/json"
	"time"
)

// Typed views over the raw Strava payloads. Known fields are decoded
// explicitly; the untouched payload is kept in Raw so nothing the provider
// sends is lost.

type AthletePayload struct {
	ID        int64    `json:"id"`
	Username  *string  `json:"username"`
	Firstname *string  `json:"firstname"`
	Lastname  *string  `json:"lastname"`
	City      *string  `json:"city"`
	State     *string  `json:"state"`
	Country   *string  `json:"country"`
	Sex       *string  `json:"sex"`
	Weight    *float64 `json:"weight"`
	Profile   *string  `json:"profile"`

	Raw json.RawMessage `json:"-"`
}

func (p *AthletePayload) UnmarshalJSON(data []byte) error {
	type alias AthletePayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = AthletePayload(a)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

type ActivityPayload struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	Distance           float64    `json:"distance"`
	MovingTime         int        `json:"moving_time"`
	ElapsedTime        int        `json:"elapsed_time"`
	TotalElevationGain float64    `json:"total_elevation_gain"`
	SportType          string     `json:"sport_type"`
	Type               string     `json:"type"`
	StartDate          time.Time  `json:"start_date"`
	StartDateLocal     *time.Time `json:"start_date_local"`
	Timezone           *string    `json:"timezone"`

	AverageSpeed     *float64 `json:"average_speed"`
	MaxSpeed         *float64 `json:"max_speed"`
	AverageHeartrate *float64 `json:"average_heartrate"`
	MaxHeartrate     *float64 `json:"max_heartrate"`
	AverageCadence   *float64 `json:"average_cadence"`

	StartLatlng []float64 `json:"start_latlng"`
	EndLatlng   []float64 `json:"end_latlng"`

	AchievementCount *int `json:"achievement_count"`
	KudosCount       *int `json:"kudos_count"`
	CommentCount     *int `json:"comment_count"`
	AthleteCount     *int `json:"athlete_count"`

	Raw json.RawMessage `json:"-"`
}

func (p *ActivityPayload) UnmarshalJSON(data []byte) error {
	type alias ActivityPayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = ActivityPayload(a)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Sport returns sport_type, falling back to the legacy type field.
func (p *ActivityPayload) Sport() string {
	if p.SportType != "" {
		return p.SportType
	}
	if p.Type != "" {
		return p.Type
	}
	return "Unknown"
}

type LapPayload struct {
	ID                 int64      `json:"id"`
	Name               *string    `json:"name"`
	LapIndex           int        `json:"lap_index"`
	Distance           float64    `json:"distance"`
	MovingTime         int        `json:"moving_time"`
	ElapsedTime        int        `json:"elapsed_time"`
	TotalElevationGain *float64   `json:"total_elevation_gain"`
	AverageSpeed       *float64   `json:"average_speed"`
	MaxSpeed           *float64   `json:"max_speed"`
	AverageHeartrate   *float64   `json:"average_heartrate"`
	MaxHeartrate       *float64   `json:"max_heartrate"`
	AverageCadence     *float64   `json:"average_cadence"`
	PaceZone           *int       `json:"pace_zone"`
	StartDate          *time.Time `json:"start_date"`

	Raw json.RawMessage `json:"-"`
}

func (p *LapPayload) UnmarshalJSON(data []byte) error {
	type alias LapPayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = LapPayload(a)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}
