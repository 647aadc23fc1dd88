package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/clients/strava"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type fakeStravaClient struct {
	athlete    *types.AthletePayload
	stats      json.RawMessage
	statsErr   error
	activities []*types.ActivityPayload
	laps       map[int64][]*types.LapPayload
	lapErrs    map[int64]error

	lapCalls map[int64]int
}

func (f *fakeStravaClient) GetAthlete(ctx context.Context) (*types.AthletePayload, error) {
	return f.athlete, nil
}

func (f *fakeStravaClient) GetAthleteStats(ctx context.Context, athleteID int64) (json.RawMessage, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeStravaClient) GetActivities(ctx context.Context, before, after *time.Time, page, perPage int) ([]*types.ActivityPayload, error) {
	if page > 1 {
		return nil, nil
	}
	return f.activities, nil
}

func (f *fakeStravaClient) GetAllActivities(ctx context.Context, after, before *time.Time) ([]*types.ActivityPayload, error) {
	return f.activities, nil
}

func (f *fakeStravaClient) GetActivityByID(ctx context.Context, activityID int64) (*types.ActivityPayload, error) {
	for _, a := range f.activities {
		if a.ID == activityID {
			return a, nil
		}
	}
	return nil, fmt.Errorf("activity %d not found", activityID)
}

func (f *fakeStravaClient) GetActivityLaps(ctx context.Context, activityID int64) ([]*types.LapPayload, error) {
	if f.lapCalls == nil {
		f.lapCalls = map[int64]int{}
	}
	f.lapCalls[activityID]++
	if err := f.lapErrs[activityID]; err != nil {
		return nil, err
	}
	return f.laps[activityID], nil
}

type fakeCache struct {
	store           map[string]string
	deletedKeys     []string
	deletedPatterns []string
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	value, ok := f.store[key]
	return value, ok
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if f.store == nil {
		f.store = map[string]string{}
	}
	f.store[key] = value
}
func (f *fakeCache) Delete(ctx context.Context, key string) {
	f.deletedKeys = append(f.deletedKeys, key)
}
func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) int {
	f.deletedPatterns = append(f.deletedPatterns, pattern)
	return 0
}
func (f *fakeCache) Ping(ctx context.Context) error         { return nil }
func (f *fakeCache) Stats(ctx context.Context) map[string]any { return nil }
func (f *fakeCache) Enabled() bool                          { return true }

func sp(s string) *string { return &s }

func athletePayload(id int64) *types.AthletePayload {
	return &types.AthletePayload{
		ID:        id,
		Username:  sp("runner"),
		Firstname: sp("Test"),
		Lastname:  sp("Runner"),
		Raw:       json.RawMessage(`{}`),
	}
}

func activityPayload(id int64, name string) *types.ActivityPayload {
	return &types.ActivityPayload{
		ID:        id,
		Name:      name,
		Distance:  10000,
		SportType: "Run",
		StartDate: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Raw:       json.RawMessage(`{}`),
	}
}

func lapPayload(index int) *types.LapPayload {
	return &types.LapPayload{
		LapIndex: index,
		Name:     sp(fmt.Sprintf("Lap %d", index)),
		Distance: 1000,
		Raw:      json.RawMessage(`{}`),
	}
}

func newTestSyncService(t *testing.T, db *gorm.DB, client strava.Client, cache *fakeCache) SyncService {
	t.Helper()
	log := testLogger(t)
	return NewSyncService(
		db, log, client, cache,
		repos.NewAthleteRepo(db, log),
		repos.NewActivityRepo(db, log),
		repos.NewLapRepo(db, log),
	)
}

func TestSyncAllPersistsActivitiesAndLaps(t *testing.T) {
	db := openTestDB(t)
	client := &fakeStravaClient{
		athlete: athletePayload(7),
		stats:   json.RawMessage(`{"all_run_totals":{"count":12}}`),
		activities: []*types.ActivityPayload{
			activityPayload(101, "Morning Run"),
			activityPayload(102, "Evening Run"),
		},
		laps: map[int64][]*types.LapPayload{
			101: {lapPayload(1), lapPayload(2)},
			102: {lapPayload(1)},
		},
	}
	cache := &fakeCache{}
	svc := newTestSyncService(t, db, client, cache)

	result, err := svc.SyncAll(context.Background(), nil, nil, true)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if result.SyncedCount != 2 || result.NewActivitiesCount != 2 || result.LapsCount != 3 {
		t.Fatalf("result = %+v", result)
	}
	if !strings.Contains(result.Message, "2 activities") || !strings.Contains(result.Message, "3 laps") {
		t.Fatalf("message = %q", result.Message)
	}

	var athlete types.Athlete
	if err := db.First(&athlete, 7).Error; err != nil {
		t.Fatalf("athlete row: %v", err)
	}
	if athlete.FirstName != "Test" || len(athlete.Stats) == 0 {
		t.Fatalf("athlete = %+v", athlete)
	}

	var activities int64
	db.Model(&types.Activity{}).Count(&activities)
	if activities != 2 {
		t.Fatalf("activities = %d", activities)
	}
	var laps int64
	db.Model(&types.Lap{}).Count(&laps)
	if laps != 3 {
		t.Fatalf("laps = %d", laps)
	}

	found := false
	for _, p := range cache.deletedPatterns {
		if p == "strava:activity:*" {
			found = true
		}
	}
	if !found {
		t.Fatalf("activity cache not invalidated, patterns = %v", cache.deletedPatterns)
	}
}

func TestSyncRateLimitAbortsBatch(t *testing.T) {
	db := openTestDB(t)
	client := &fakeStravaClient{
		athlete: athletePayload(7),
		activities: []*types.ActivityPayload{
			activityPayload(101, "First"),
			activityPayload(102, "Second"),
		},
		laps: map[int64][]*types.LapPayload{
			101: {lapPayload(1)},
		},
		lapErrs: map[int64]error{
			102: &strava.RateLimitError{Limit: "100,1000", Usage: "100,400"},
		},
	}
	svc := newTestSyncService(t, db, client, &fakeCache{})

	_, err := svc.SyncAll(context.Background(), nil, nil, true)
	if !errors.Is(err, strava.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// Work done before the limit hit stays persisted.
	var activities int64
	db.Model(&types.Activity{}).Count(&activities)
	if activities != 2 {
		t.Fatalf("activities = %d, want 2", activities)
	}
	var laps int64
	db.Model(&types.Lap{}).Count(&laps)
	if laps != 1 {
		t.Fatalf("laps = %d, want 1", laps)
	}
}

func TestSyncSkipsLapFetchWhenAlreadyStored(t *testing.T) {
	db := openTestDB(t)
	client := &fakeStravaClient{
		athlete:    athletePayload(7),
		activities: []*types.ActivityPayload{activityPayload(101, "Known Run")},
		laps: map[int64][]*types.LapPayload{
			101: {lapPayload(1)},
		},
	}
	cache := &fakeCache{}
	svc := newTestSyncService(t, db, client, cache)

	// First pass fetches laps, second pass finds them stored and skips.
	if _, err := svc.SyncAll(context.Background(), nil, nil, true); err != nil {
		t.Fatalf("first SyncAll: %v", err)
	}
	if client.lapCalls[101] != 1 {
		t.Fatalf("lap calls after first pass = %d", client.lapCalls[101])
	}

	result, err := svc.SyncAll(context.Background(), nil, nil, true)
	if err != nil {
		t.Fatalf("second SyncAll: %v", err)
	}
	if client.lapCalls[101] != 1 {
		t.Fatalf("lap calls after second pass = %d, want 1", client.lapCalls[101])
	}
	if result.NewActivitiesCount != 0 || result.SyncedCount != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestSyncAthleteStatsBestEffort(t *testing.T) {
	db := openTestDB(t)
	client := &fakeStravaClient{
		athlete:  athletePayload(7),
		statsErr: fmt.Errorf("stats endpoint down"),
	}
	svc := newTestSyncService(t, db, client, &fakeCache{})

	athlete, err := svc.SyncAthlete(context.Background())
	if err != nil {
		t.Fatalf("SyncAthlete: %v", err)
	}
	if athlete.ID != 7 {
		t.Fatalf("athlete = %+v", athlete)
	}

	// A rate limit on the stats call is not best-effort: it aborts.
	client.statsErr = &strava.RateLimitError{}
	if _, err := svc.SyncAthlete(context.Background()); !errors.Is(err, strava.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestSyncActivityLapsReplaces(t *testing.T) {
	db := openTestDB(t)
	if err := db.Create(&types.Athlete{ID: 7}).Error; err != nil {
		t.Fatalf("seed athlete: %v", err)
	}
	if err := db.Create(&types.Activity{ID: 101, AthleteID: 7, Name: "Run"}).Error; err != nil {
		t.Fatalf("seed activity: %v", err)
	}
	if err := db.Create(&types.Lap{ActivityID: 101, LapIndex: 1, Name: "Stale"}).Error; err != nil {
		t.Fatalf("seed lap: %v", err)
	}

	client := &fakeStravaClient{
		athlete: athletePayload(7),
		laps: map[int64][]*types.LapPayload{
			101: {lapPayload(1), lapPayload(2), lapPayload(3)},
		},
	}
	cache := &fakeCache{}
	svc := newTestSyncService(t, db, client, cache)

	result, err := svc.SyncActivityLaps(context.Background(), 101)
	if err != nil {
		t.Fatalf("SyncActivityLaps: %v", err)
	}
	if result.LapsCount != 3 {
		t.Fatalf("result = %+v", result)
	}

	var laps []types.Lap
	if err := db.Where("activity_id = ?", 101).Order("lap_index").Find(&laps).Error; err != nil {
		t.Fatalf("load laps: %v", err)
	}
	if len(laps) != 3 {
		t.Fatalf("laps = %d, want 3", len(laps))
	}
	for _, lap := range laps {
		if lap.Name == "Stale" {
			t.Fatal("stale lap survived replacement")
		}
	}

	found := false
	for _, key := range cache.deletedKeys {
		if key == "strava:activity:101:laps" {
			found = true
		}
	}
	if !found {
		t.Fatalf("lap cache key not invalidated, keys = %v", cache.deletedKeys)
	}
}

func TestDefaultSyncAfter(t *testing.T) {
	db := openTestDB(t)
	svc := newTestSyncService(t, db, &fakeStravaClient{athlete: athletePayload(7)}, &fakeCache{})

	got := svc.DefaultSyncAfter()
	want := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DefaultSyncAfter = %v, want %v", got, want)
	}
}
