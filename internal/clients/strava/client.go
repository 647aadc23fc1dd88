package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
	"github.com/ivaaanrm/PaceUp/internal/utils"
)

// ErrRateLimited is the distinct signal for an upstream 429. It must reach
// the caller unmodified through every intermediate layer: batch sync aborts
// on it instead of skipping the item.
var ErrRateLimited = errors.New("strava rate limit exceeded")

// RateLimitError carries the provider's usage headers alongside ErrRateLimited.
type RateLimitError struct {
	Limit string
	Usage string
}

func (e *RateLimitError) Error() string {
	if e.Limit != "" || e.Usage != "" {
		return fmt.Sprintf("strava rate limit exceeded (usage %s of %s)", e.Usage, e.Limit)
	}
	return "strava rate limit exceeded"
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

type Client interface {
	GetAthlete(ctx context.Context) (*types.AthletePayload, error)
	GetAthleteStats(ctx context.Context, athleteID int64) (json.RawMessage, error)
	GetActivities(ctx context.Context, before, after *time.Time, page, perPage int) ([]*types.ActivityPayload, error)
	GetAllActivities(ctx context.Context, after, before *time.Time) ([]*types.ActivityPayload, error)
	GetActivityByID(ctx context.Context, activityID int64) (*types.ActivityPayload, error)
	GetActivityLaps(ctx context.Context, activityID int64) ([]*types.LapPayload, error)
}

type client struct {
	log          *logger.Logger
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	apiBaseURL   string
	httpClient   *http.Client

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func NewClient(log *logger.Logger) (Client, error) {
	clientID := utils.GetEnv("STRAVA_CLIENT_ID", "", log)
	clientSecret := utils.GetEnv("STRAVA_CLIENT_SECRET", "", log)
	refreshToken := utils.GetEnv("STRAVA_REFRESH_TOKEN", "", log)
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("missing STRAVA_CLIENT_ID / STRAVA_CLIENT_SECRET / STRAVA_REFRESH_TOKEN")
	}
	tokenURL := utils.GetEnv("STRAVA_TOKEN_URL", "https://www.strava.com/oauth/token", log)
	apiBaseURL := utils.GetEnv("STRAVA_API_BASE_URL", "https://www.strava.com/api/v3", log)
	timeoutSec := utils.GetEnvAsInt("STRAVA_TIMEOUT_SECONDS", 30, log)

	return &client{
		log:          log.With("client", "StravaClient"),
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		tokenURL:     tokenURL,
		apiBaseURL:   apiBaseURL,
		httpClient:   &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}, nil
}

func (c *client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.accessToken, nil
	}

	c.log.Info("Refreshing Strava access token")
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("strava token refresh: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", c.rateLimitError(resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("strava token refresh failed: http %d: %s", resp.StatusCode, string(raw))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("strava token decode: %w", err)
	}

	c.accessToken = payload.AccessToken
	// Refresh five minutes early so in-flight requests never race expiry.
	c.tokenExpiresAt = time.Now().Add(time.Duration(payload.ExpiresIn-300) * time.Second)
	return c.accessToken, nil
}

func (c *client) rateLimitError(resp *http.Response) error {
	return fmt.Errorf("%w", &RateLimitError{
		Limit: resp.Header.Get("X-RateLimit-Limit"),
		Usage: resp.Header.Get("X-RateLimit-Usage"),
	})
}

func (c *client) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.apiBaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("strava %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return c.rateLimitError(resp)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("strava %s failed: http %d: %s", path, resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("strava %s decode: %w", path, err)
	}
	return nil
}

func (c *client) GetAthlete(ctx context.Context) (*types.AthletePayload, error) {
	var payload types.AthletePayload
	if err := c.get(ctx, "/athlete", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *client) GetAthleteStats(ctx context.Context, athleteID int64) (json.RawMessage, error) {
	var payload json.RawMessage
	if err := c.get(ctx, fmt.Sprintf("/athletes/%d/stats", athleteID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *client) GetActivities(ctx context.Context, before, after *time.Time, page, perPage int) ([]*types.ActivityPayload, error) {
	if perPage > 200 {
		perPage = 200
	}
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	if before != nil {
		params.Set("before", fmt.Sprintf("%d", before.Unix()))
	}
	if after != nil {
		params.Set("after", fmt.Sprintf("%d", after.Unix()))
	}

	var payloads []*types.ActivityPayload
	if err := c.get(ctx, "/athlete/activities", params, &payloads); err != nil {
		return nil, err
	}
	return payloads, nil
}

func (c *client) GetAllActivities(ctx context.Context, after, before *time.Time) ([]*types.ActivityPayload, error) {
	const perPage = 200

	var all []*types.ActivityPayload
	for page := 1; ; page++ {
		batch, err := c.GetActivities(ctx, before, after, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		c.log.Info("Fetched activities page", "page", page, "count", len(batch))
		if len(batch) < perPage {
			break
		}
	}
	c.log.Info("Total activities fetched", "count", len(all))
	return all, nil
}

func (c *client) GetActivityByID(ctx context.Context, activityID int64) (*types.ActivityPayload, error) {
	var payload types.ActivityPayload
	if err := c.get(ctx, fmt.Sprintf("/activities/%d", activityID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *client) GetActivityLaps(ctx context.Context, activityID int64) ([]*types.LapPayload, error) {
	var payloads []*types.LapPayload
	if err := c.get(ctx, fmt.Sprintf("/activities/%d/laps", activityID), nil, &payloads); err != nil {
		return nil, err
	}
	return payloads, nil
}
