package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ivaaanrm/PaceUp/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type stubAPI struct {
	tokenCalls int
	apiCalls   map[string]int
	handler    http.HandlerFunc
}

// newStubClient spins up one test server that answers both the token
// endpoint and the API, and a client pointed at it.
func newStubClient(t *testing.T, handler http.HandlerFunc) (Client, *stubAPI) {
	t.Helper()
	stub := &stubAPI{apiCalls: map[string]int{}, handler: handler}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			stub.tokenCalls++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"test-token","expires_in":3600}`)
			return
		}
		stub.apiCalls[r.URL.Path]++
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		stub.handler(w, r)
	}))
	t.Cleanup(server.Close)

	t.Setenv("STRAVA_CLIENT_ID", "id")
	t.Setenv("STRAVA_CLIENT_SECRET", "secret")
	t.Setenv("STRAVA_REFRESH_TOKEN", "refresh")
	t.Setenv("STRAVA_TOKEN_URL", server.URL+"/oauth/token")
	t.Setenv("STRAVA_API_BASE_URL", server.URL)

	client, err := NewClient(testLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, stub
}

func TestTokenRefreshedOnceAcrossCalls(t *testing.T) {
	client, stub := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":42,"firstname":"Test"}`)
	})

	for i := 0; i < 3; i++ {
		athlete, err := client.GetAthlete(context.Background())
		if err != nil {
			t.Fatalf("GetAthlete: %v", err)
		}
		if athlete.ID != 42 {
			t.Fatalf("athlete = %+v", athlete)
		}
	}
	if stub.tokenCalls != 1 {
		t.Fatalf("token refreshed %d times, want 1", stub.tokenCalls)
	}
	if stub.apiCalls["/athlete"] != 3 {
		t.Fatalf("athlete calls = %d", stub.apiCalls["/athlete"])
	}
}

func TestRateLimitResponse(t *testing.T) {
	client, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "100,472")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetAthlete(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if rateErr.Limit != "100,1000" || rateErr.Usage != "100,472" {
		t.Fatalf("rateErr = %+v", rateErr)
	}
}

func TestGetAllActivitiesPaginates(t *testing.T) {
	pages := map[string]int{"1": 200, "2": 200, "3": 50}
	client, stub := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		count := pages[page]

		items := make([]map[string]any, count)
		base := 0
		switch page {
		case "2":
			base = 200
		case "3":
			base = 400
		}
		for i := range items {
			items[i] = map[string]any{"id": base + i + 1, "name": "Run", "sport_type": "Run"}
		}
		json.NewEncoder(w).Encode(items)
	})

	activities, err := client.GetAllActivities(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("GetAllActivities: %v", err)
	}
	if len(activities) != 450 {
		t.Fatalf("len = %d, want 450", len(activities))
	}
	if activities[0].ID != 1 || activities[449].ID != 450 {
		t.Fatalf("ids = %d..%d", activities[0].ID, activities[449].ID)
	}
	// A short final page ends the walk without an extra empty-page probe.
	if stub.apiCalls["/athlete/activities"] != 3 {
		t.Fatalf("page fetches = %d, want 3", stub.apiCalls["/athlete/activities"])
	}
}

func TestGetActivitiesQueryWindow(t *testing.T) {
	var gotBefore, gotAfter, gotPerPage string
	client, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBefore = r.URL.Query().Get("before")
		gotAfter = r.URL.Query().Get("after")
		gotPerPage = r.URL.Query().Get("per_page")
		fmt.Fprint(w, `[]`)
	})

	after := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.GetActivities(context.Background(), &before, &after, 1, 500)
	if err != nil {
		t.Fatalf("GetActivities: %v", err)
	}
	if gotAfter != fmt.Sprintf("%d", after.Unix()) || gotBefore != fmt.Sprintf("%d", before.Unix()) {
		t.Fatalf("window = before %s after %s", gotBefore, gotAfter)
	}
	if gotPerPage != "200" {
		t.Fatalf("per_page = %s, want clamped to 200", gotPerPage)
	}
}

func TestGetActivityLapsKeepsRawPayload(t *testing.T) {
	client, _ := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"lap_index":1,"distance":1000,"unknown_field":"kept"}]`)
	})

	laps, err := client.GetActivityLaps(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetActivityLaps: %v", err)
	}
	if len(laps) != 1 || laps[0].LapIndex != 1 {
		t.Fatalf("laps = %+v", laps)
	}

	var raw map[string]any
	if err := json.Unmarshal(laps[0].Raw, &raw); err != nil {
		t.Fatalf("raw: %v", err)
	}
	if raw["unknown_field"] != "kept" {
		t.Fatalf("raw = %v, provider field lost", raw)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "")
	t.Setenv("STRAVA_CLIENT_SECRET", "")
	t.Setenv("STRAVA_REFRESH_TOKEN", "")

	if _, err := NewClient(testLogger(t)); err == nil {
		t.Fatal("client created without credentials")
	}
}
