package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

// ErrNoActivities signals that the requested window holds nothing to analyze.
var ErrNoActivities = errors.New("no activities found in the specified period")

// ActivitySummary is the per-activity slice of context handed to the model.
type ActivitySummary struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Date             string   `json:"date"`
	DistanceKm       float64  `json:"distance_km"`
	DurationMinutes  float64  `json:"duration_minutes"`
	PaceMinPerKm     *float64 `json:"pace_min_per_km"`
	ElevationGainM   float64  `json:"elevation_gain_m"`
	AverageHeartrate *float64 `json:"average_heartrate"`
	MaxHeartrate     *float64 `json:"max_heartrate"`
	SportType        string   `json:"sport_type"`
}

type LapSummary struct {
	LapNumber        int      `json:"lap_number"`
	DistanceKm       float64  `json:"distance_km"`
	DurationMinutes  float64  `json:"duration_minutes"`
	PaceMinPerKm     *float64 `json:"pace_min_per_km"`
	AverageHeartrate *float64 `json:"average_heartrate"`
}

type ActivityDetail struct {
	ActivitySummary
	Laps []LapSummary `json:"laps"`
}

type WeeklyStats struct {
	WeekNumber         int      `json:"week_number"`
	WeekStart          string   `json:"week_start"`
	WeekEnd            string   `json:"week_end"`
	RunCount           int      `json:"run_count"`
	TotalDistanceKm    float64  `json:"total_distance_km"`
	TotalDurationHours float64  `json:"total_duration_hours"`
	TotalElevationM    float64  `json:"total_elevation_m"`
	AvgPaceMinPerKm    *float64 `json:"avg_pace_min_per_km"`
}

type TrainingSummary struct {
	Period             string        `json:"period"`
	TotalRuns          int           `json:"total_runs"`
	TotalDistanceKm    float64       `json:"total_distance_km"`
	TotalDurationHours float64       `json:"total_duration_hours"`
	TotalElevationM    float64       `json:"total_elevation_m"`
	WeeklyBreakdown    []WeeklyStats `json:"weekly_breakdown"`
}

type PerformanceTrends struct {
	PeriodDays         int      `json:"period_days"`
	TotalRuns          int      `json:"total_runs"`
	FirstHalfAvgPace   *float64 `json:"first_half_avg_pace_min_per_km"`
	SecondHalfAvgPace  *float64 `json:"second_half_avg_pace_min_per_km"`
	PaceChangeMinPerKm *float64 `json:"pace_change_min_per_km"`
	PaceTrend          string   `json:"pace_trend"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	RecentAvgDistance  float64  `json:"recent_avg_distance_km"`
	OlderAvgDistance   float64  `json:"older_avg_distance_km"`
}

// ContextService assembles model context from the activity store: recent
// activities, rolling weekly training load and pace/volume trends.
type ContextService interface {
	Activities(ctx context.Context, athleteID int64, days int, sportType string) ([]ActivitySummary, error)
	ActivityDetail(ctx context.Context, activityID int64) (*ActivityDetail, error)
	TrainingSummary(ctx context.Context, athleteID int64, weeks int) (*TrainingSummary, error)
	PerformanceTrends(ctx context.Context, athleteID int64, days int) (*PerformanceTrends, error)
}

type contextService struct {
	log          *logger.Logger
	activityRepo repos.ActivityRepo
	lapRepo      repos.LapRepo

	// Clock boundary for the rolling windows. Defaults to time.Now.
	now func() time.Time
}

func NewContextService(log *logger.Logger, activityRepo repos.ActivityRepo, lapRepo repos.LapRepo) ContextService {
	return &contextService{
		log:          log.With("service", "ContextService"),
		activityRepo: activityRepo,
		lapRepo:      lapRepo,
		now:          time.Now,
	}
}

// paceMinPerKm converts m/s into min/km; zero and missing speeds have no pace.
func paceMinPerKm(speed *float64) *float64 {
	if speed == nil || *speed <= 0 {
		return nil
	}
	p := 1000 / (*speed * 60)
	return &p
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2p(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}

func round0p(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v)
	return &r
}

func summarizeActivity(a *types.Activity) ActivitySummary {
	return ActivitySummary{
		ID:               a.ID,
		Name:             a.Name,
		Date:             a.StartDate.Format(time.RFC3339),
		DistanceKm:       round2(a.Distance / 1000),
		DurationMinutes:  round1(float64(a.MovingTime) / 60),
		PaceMinPerKm:     round2p(paceMinPerKm(a.AverageSpeed)),
		ElevationGainM:   round1(a.TotalElevationGain),
		AverageHeartrate: round0p(a.AverageHeartrate),
		MaxHeartrate:     round0p(a.MaxHeartrate),
		SportType:        a.SportType,
	}
}

func (s *contextService) Activities(ctx context.Context, athleteID int64, days int, sportType string) ([]ActivitySummary, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	activities, err := s.activityRepo.GetByAthleteSince(ctx, nil, athleteID, cutoff, sportType, true)
	if err != nil {
		return nil, err
	}

	summaries := make([]ActivitySummary, 0, len(activities))
	for _, a := range activities {
		summaries = append(summaries, summarizeActivity(a))
	}
	return summaries, nil
}

func (s *contextService) ActivityDetail(ctx context.Context, activityID int64) (*ActivityDetail, error) {
	activity, err := s.activityRepo.GetByID(ctx, nil, activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, fmt.Errorf("activity %d not found", activityID)
	}

	laps, err := s.lapRepo.GetByActivityID(ctx, nil, activityID)
	if err != nil {
		return nil, err
	}

	lapSummaries := make([]LapSummary, 0, len(laps))
	for _, lap := range laps {
		lapSummaries = append(lapSummaries, LapSummary{
			LapNumber:        lap.LapIndex,
			DistanceKm:       round2(lap.Distance / 1000),
			DurationMinutes:  round2(float64(lap.MovingTime) / 60),
			PaceMinPerKm:     round2p(paceMinPerKm(lap.AverageSpeed)),
			AverageHeartrate: round0p(lap.AverageHeartrate),
		})
	}

	return &ActivityDetail{
		ActivitySummary: summarizeActivity(activity),
		Laps:            lapSummaries,
	}, nil
}

func (s *contextService) TrainingSummary(ctx context.Context, athleteID int64, weeks int) (*TrainingSummary, error) {
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -7*weeks)

	activities, err := s.activityRepo.GetByAthleteSince(ctx, nil, athleteID, cutoff, "", true)
	if err != nil {
		return nil, err
	}

	// Rolling 7-day buckets anchored to now, not calendar weeks: bucket 0
	// covers [now-7d, now), bucket 1 the seven days before that, and so on.
	weekly := make([]WeeklyStats, 0, weeks)
	for week := 0; week < weeks; week++ {
		weekStart := now.AddDate(0, 0, -7*(week+1))
		weekEnd := now.AddDate(0, 0, -7*week)

		var (
			count          int
			totalDistance  float64
			totalTime      int
			totalElevation float64
			speedSum       float64
			speedCount     int
		)
		for _, a := range activities {
			if a.StartDate.Before(weekStart) || !a.StartDate.Before(weekEnd) {
				continue
			}
			count++
			totalDistance += a.Distance
			totalTime += a.MovingTime
			totalElevation += a.TotalElevationGain
			if a.AverageSpeed != nil && *a.AverageSpeed > 0 {
				speedSum += *a.AverageSpeed
				speedCount++
			}
		}

		var avgPace *float64
		if speedCount > 0 {
			avgSpeed := speedSum / float64(speedCount)
			avgPace = round2p(paceMinPerKm(&avgSpeed))
		}

		weekly = append(weekly, WeeklyStats{
			WeekNumber:         weeks - week,
			WeekStart:          weekStart.Format("2006-01-02"),
			WeekEnd:            weekEnd.Format("2006-01-02"),
			RunCount:           count,
			TotalDistanceKm:    round2(totalDistance / 1000),
			TotalDurationHours: round1(float64(totalTime) / 3600),
			TotalElevationM:    round1(totalElevation),
			AvgPaceMinPerKm:    avgPace,
		})
	}

	var (
		totalDistance  float64
		totalTime      int
		totalElevation float64
	)
	for _, a := range activities {
		totalDistance += a.Distance
		totalTime += a.MovingTime
		totalElevation += a.TotalElevationGain
	}

	return &TrainingSummary{
		Period:             fmt.Sprintf("Last %d weeks", weeks),
		TotalRuns:          len(activities),
		TotalDistanceKm:    round2(totalDistance / 1000),
		TotalDurationHours: round1(float64(totalTime) / 3600),
		TotalElevationM:    round1(totalElevation),
		WeeklyBreakdown:    weekly,
	}, nil
}

func avgPaceOf(activities []*types.Activity) *float64 {
	var sum float64
	var n int
	for _, a := range activities {
		if a.AverageSpeed != nil && *a.AverageSpeed > 0 {
			sum += *a.AverageSpeed
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return paceMinPerKm(&avg)
}

func (s *contextService) PerformanceTrends(ctx context.Context, athleteID int64, days int) (*PerformanceTrends, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days)

	// Ascending order: the halves split chronologically.
	activities, err := s.activityRepo.GetByAthleteSince(ctx, nil, athleteID, cutoff, "", false)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, ErrNoActivities
	}

	mid := len(activities) / 2
	firstHalfPace := avgPaceOf(activities[:mid])
	secondHalfPace := avgPaceOf(activities[mid:])

	var paceChange *float64
	trend := "stable"
	if firstHalfPace != nil && secondHalfPace != nil {
		// Negative change means faster pace, i.e. improving.
		delta := *secondHalfPace - *firstHalfPace
		paceChange = &delta
		if delta < 0 {
			trend = "improving"
		} else if delta > 0 {
			trend = "declining"
		}
	}

	var hrSum float64
	var hrCount int
	for _, a := range activities {
		if a.AverageHeartrate != nil {
			hrSum += *a.AverageHeartrate
			hrCount++
		}
	}
	var avgHR *float64
	if hrCount > 0 {
		v := hrSum / float64(hrCount)
		avgHR = &v
	}

	recent := activities
	var older []*types.Activity
	if len(activities) >= 7 {
		recent = activities[len(activities)-7:]
		older = activities[:len(activities)-7]
	}
	avgDistance := func(acts []*types.Activity) float64 {
		if len(acts) == 0 {
			return 0
		}
		var sum float64
		for _, a := range acts {
			sum += a.Distance
		}
		return sum / float64(len(acts))
	}

	return &PerformanceTrends{
		PeriodDays:         days,
		TotalRuns:          len(activities),
		FirstHalfAvgPace:   round2p(firstHalfPace),
		SecondHalfAvgPace:  round2p(secondHalfPace),
		PaceChangeMinPerKm: round2p(paceChange),
		PaceTrend:          trend,
		AverageHeartrate:   round0p(avgHR),
		RecentAvgDistance:  round2(avgDistance(recent) / 1000),
		OlderAvgDistance:   round2(avgDistance(older) / 1000),
	}, nil
}
