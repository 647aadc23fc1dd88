package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/ivaaanrm/PaceUp/internal/clients/redis"
	"github.com/ivaaanrm/PaceUp/internal/clients/strava"
	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/types"
	"github.com/ivaaanrm/PaceUp/internal/utils"
)

// SyncResult reports what one sync pass touched.
type SyncResult struct {
	Message            string `json:"message"`
	SyncedCount        int    `json:"synced_count"`
	NewActivitiesCount int    `json:"new_activities_count,omitempty"`
	LapsCount          int    `json:"laps_count,omitempty"`
}

// SyncService pulls athlete, activity and lap data from Strava into the
// store. Individual item failures are logged and skipped; a provider rate
// limit aborts the whole pass and propagates unwrapped.
type SyncService interface {
	SyncAthlete(ctx context.Context) (*types.Athlete, error)
	SyncActivities(ctx context.Context, after, before *time.Time) (*SyncResult, error)
	SyncAll(ctx context.Context, after, before *time.Time, includeLaps bool) (*SyncResult, error)
	SyncActivityLaps(ctx context.Context, activityID int64) (*SyncResult, error)
	DefaultSyncAfter() time.Time
}

type syncService struct {
	db           *gorm.DB
	log          *logger.Logger
	strava       strava.Client
	cache        redisclient.Cache
	athleteRepo  repos.AthleteRepo
	activityRepo repos.ActivityRepo
	lapRepo      repos.LapRepo

	defaultAfter time.Time
}

func NewSyncService(
	db *gorm.DB,
	log *logger.Logger,
	stravaClient strava.Client,
	cache redisclient.Cache,
	athleteRepo repos.AthleteRepo,
	activityRepo repos.ActivityRepo,
	lapRepo repos.LapRepo,
) SyncService {
	scoped := log.With("service", "SyncService")

	defaultAfter := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	if raw := utils.GetEnv("SYNC_DEFAULT_AFTER", "", scoped); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			defaultAfter = parsed
		} else {
			scoped.Warn("Invalid SYNC_DEFAULT_AFTER, using built-in default", "value", raw)
		}
	}

	return &syncService{
		db:           db,
		log:          scoped,
		strava:       stravaClient,
		cache:        cache,
		athleteRepo:  athleteRepo,
		activityRepo: activityRepo,
		lapRepo:      lapRepo,
		defaultAfter: defaultAfter,
	}
}

func (s *syncService) DefaultSyncAfter() time.Time { return s.defaultAfter }

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func athleteFromPayload(p *types.AthletePayload) *types.Athlete {
	return &types.Athlete{
		ID:        p.ID,
		Username:  deref(p.Username),
		FirstName: deref(p.Firstname),
		LastName:  deref(p.Lastname),
		City:      deref(p.City),
		State:     deref(p.State),
		Country:   deref(p.Country),
		Sex:       deref(p.Sex),
		Weight:    p.Weight,
		Profile:   deref(p.Profile),
	}
}

func activityFromPayload(p *types.ActivityPayload, athleteID int64) *types.Activity {
	a := &types.Activity{
		ID:                 p.ID,
		AthleteID:          athleteID,
		Name:               p.Name,
		Distance:           p.Distance,
		MovingTime:         p.MovingTime,
		ElapsedTime:        p.ElapsedTime,
		TotalElevationGain: p.TotalElevationGain,
		SportType:          p.Sport(),
		StartDate:          p.StartDate,
		Timezone:           deref(p.Timezone),
		AverageSpeed:       p.AverageSpeed,
		MaxSpeed:           p.MaxSpeed,
		AverageHeartrate:   p.AverageHeartrate,
		MaxHeartrate:       p.MaxHeartrate,
		AverageCadence:     p.AverageCadence,
		AchievementCount:   p.AchievementCount,
		KudosCount:         p.KudosCount,
		CommentCount:       p.CommentCount,
		AthleteCount:       p.AthleteCount,
		RawData:            datatypes.JSON(p.Raw),
	}
	if p.StartDateLocal != nil {
		a.StartDateLocal = *p.StartDateLocal
	} else {
		a.StartDateLocal = p.StartDate
	}
	if len(p.StartLatlng) == 2 {
		a.StartLatitude = &p.StartLatlng[0]
		a.StartLongitude = &p.StartLatlng[1]
	}
	if len(p.EndLatlng) == 2 {
		a.EndLatitude = &p.EndLatlng[0]
		a.EndLongitude = &p.EndLatlng[1]
	}
	return a
}

func lapFromPayload(p *types.LapPayload, activityID int64) *types.Lap {
	return &types.Lap{
		ActivityID:         activityID,
		LapIndex:           p.LapIndex,
		Name:               deref(p.Name),
		Distance:           p.Distance,
		MovingTime:         p.MovingTime,
		ElapsedTime:        p.ElapsedTime,
		TotalElevationGain: p.TotalElevationGain,
		AverageSpeed:       p.AverageSpeed,
		MaxSpeed:           p.MaxSpeed,
		AverageHeartrate:   p.AverageHeartrate,
		MaxHeartrate:       p.MaxHeartrate,
		AverageCadence:     p.AverageCadence,
		PaceZone:           p.PaceZone,
		StartDate:          p.StartDate,
		RawData:            datatypes.JSON(p.Raw),
	}
}

// SyncAthlete refreshes the athlete profile and, best-effort, its stats blob.
func (s *syncService) SyncAthlete(ctx context.Context) (*types.Athlete, error) {
	payload, err := s.strava.GetAthlete(ctx)
	if err != nil {
		return nil, err
	}

	athlete := athleteFromPayload(payload)
	if err := s.athleteRepo.Upsert(ctx, nil, athlete); err != nil {
		return nil, err
	}

	if stats, err := s.strava.GetAthleteStats(ctx, athlete.ID); err != nil {
		if errors.Is(err, strava.ErrRateLimited) {
			return nil, err
		}
		s.log.Warn("Could not fetch athlete stats", "athlete_id", athlete.ID, "error", err)
	} else if err := s.athleteRepo.UpdateStats(ctx, nil, athlete.ID, datatypes.JSON(stats), time.Now().UTC()); err != nil {
		s.log.Warn("Could not persist athlete stats", "athlete_id", athlete.ID, "error", err)
	} else {
		s.log.Info("Updated athlete stats", "athlete_id", athlete.ID)
	}

	s.cache.Delete(ctx, fmt.Sprintf("strava:athlete:%d", athlete.ID))
	return athlete, nil
}

func (s *syncService) SyncActivities(ctx context.Context, after, before *time.Time) (*SyncResult, error) {
	result, err := s.syncActivities(ctx, after, before, false)
	if err != nil {
		return nil, err
	}
	result.Message = fmt.Sprintf("Successfully synced %d activities", result.SyncedCount)
	return result, nil
}

func (s *syncService) SyncAll(ctx context.Context, after, before *time.Time, includeLaps bool) (*SyncResult, error) {
	result, err := s.syncActivities(ctx, after, before, includeLaps)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Successfully synced %d activities", result.SyncedCount)
	if result.NewActivitiesCount > 0 {
		message += fmt.Sprintf(" (%d new)", result.NewActivitiesCount)
	}
	if includeLaps {
		message += fmt.Sprintf(" and %d laps", result.LapsCount)
	}
	result.Message = message
	return result, nil
}

func (s *syncService) syncActivities(ctx context.Context, after, before *time.Time, includeLaps bool) (*SyncResult, error) {
	athlete, err := s.SyncAthlete(ctx)
	if err != nil {
		return nil, err
	}

	syncAfter := s.defaultAfter
	if after != nil {
		syncAfter = *after
	}
	s.log.Info("Syncing activities", "after", syncAfter, "include_laps", includeLaps)

	payloads, err := s.strava.GetAllActivities(ctx, &syncAfter, before)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, payload := range payloads {
		existing, err := s.activityRepo.GetByID(ctx, nil, payload.ID)
		if err != nil {
			s.log.Error("Error checking activity", "activity_id", payload.ID, "error", err)
			continue
		}
		isNew := existing == nil

		if err := s.activityRepo.Upsert(ctx, nil, activityFromPayload(payload, athlete.ID)); err != nil {
			s.log.Error("Error saving activity", "activity_id", payload.ID, "error", err)
			continue
		}
		result.SyncedCount++
		if isNew {
			result.NewActivitiesCount++
		}

		if !includeLaps {
			continue
		}
		// Only fetch laps for activities that don't have them yet; lap
		// fetches are one API call each and burn through the quota fast.
		if !isNew {
			laps, err := s.lapRepo.GetByActivityID(ctx, nil, payload.ID)
			if err == nil && len(laps) > 0 {
				s.log.Info("Skipping lap fetch, laps already present", "activity_id", payload.ID)
				continue
			}
		}
		lapPayloads, err := s.strava.GetActivityLaps(ctx, payload.ID)
		if err != nil {
			if errors.Is(err, strava.ErrRateLimited) {
				return nil, err
			}
			s.log.Warn("Could not fetch laps", "activity_id", payload.ID, "error", err)
			continue
		}
		if err := s.replaceLaps(ctx, payload.ID, lapPayloads); err != nil {
			s.log.Warn("Could not save laps", "activity_id", payload.ID, "error", err)
			continue
		}
		result.LapsCount += len(lapPayloads)
		s.log.Info("Fetched laps", "activity_id", payload.ID, "count", len(lapPayloads))
	}

	s.cache.DeletePattern(ctx, "strava:activity:*")
	return result, nil
}

func (s *syncService) replaceLaps(ctx context.Context, activityID int64, payloads []*types.LapPayload) error {
	rows := make([]*types.Lap, 0, len(payloads))
	for _, p := range payloads {
		rows = append(rows, lapFromPayload(p, activityID))
	}
	return s.lapRepo.ReplaceForActivity(ctx, nil, activityID, rows)
}

func (s *syncService) SyncActivityLaps(ctx context.Context, activityID int64) (*SyncResult, error) {
	payloads, err := s.strava.GetActivityLaps(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := s.replaceLaps(ctx, activityID, payloads); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, fmt.Sprintf("strava:activity:%d:laps", activityID))
	return &SyncResult{
		Message:     fmt.Sprintf("Successfully synced %d laps for activity %d", len(payloads), activityID),
		SyncedCount: len(payloads),
		LapsCount:   len(payloads),
	}, nil
}
