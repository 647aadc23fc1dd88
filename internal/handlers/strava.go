package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/services"
)

type StravaHandler struct {
	log          *logger.Logger
	syncService  services.SyncService
	athleteRepo  repos.AthleteRepo
	activityRepo repos.ActivityRepo
	lapRepo      repos.LapRepo
}

func NewStravaHandler(
	log *logger.Logger,
	syncService services.SyncService,
	athleteRepo repos.AthleteRepo,
	activityRepo repos.ActivityRepo,
	lapRepo repos.LapRepo,
) *StravaHandler {
	return &StravaHandler{
		log:          log.With("handler", "StravaHandler"),
		syncService:  syncService,
		athleteRepo:  athleteRepo,
		activityRepo: activityRepo,
		lapRepo:      lapRepo,
	}
}

// GetAthlete serves the profile from the store, pulling from Strava only
// when nothing has been synced yet.
func (h *StravaHandler) GetAthlete(c *gin.Context) {
	ctx := c.Request.Context()
	athlete, err := h.athleteRepo.First(ctx, nil)
	if err != nil {
		HandleError(c, err)
		return
	}
	if athlete == nil {
		h.log.Info("Athlete not found in database, fetching from Strava")
		athlete, err = h.syncService.SyncAthlete(ctx)
		if err != nil {
			HandleError(c, err)
			return
		}
	}
	RespondOK(c, athlete)
}

func (h *StravaHandler) GetAthleteStats(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	if len(athlete.Stats) == 0 {
		RespondError(c, http.StatusNotFound, "STATS_NOT_FOUND",
			fmt.Errorf("athlete stats not found, sync activities to fetch stats"))
		return
	}
	c.Data(http.StatusOK, "application/json", athlete.Stats)
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s date %q", name, raw)
}

func (h *StravaHandler) SyncActivities(c *gin.Context) {
	after, err := parseTimeQuery(c, "after")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_QUERY", err)
		return
	}
	before, err := parseTimeQuery(c, "before")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_QUERY", err)
		return
	}

	result, err := h.syncService.SyncActivities(c.Request.Context(), after, before)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *StravaHandler) SyncAll(c *gin.Context) {
	after, err := parseTimeQuery(c, "after")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_QUERY", err)
		return
	}
	before, err := parseTimeQuery(c, "before")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_QUERY", err)
		return
	}
	includeLaps := c.Query("include_laps") == "true"

	result, err := h.syncService.SyncAll(c.Request.Context(), after, before, includeLaps)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *StravaHandler) SyncActivityLaps(c *gin.Context) {
	activityID, err := strconv.ParseInt(c.Param("activity_id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", fmt.Errorf("invalid activity id"))
		return
	}
	result, err := h.syncService.SyncActivityLaps(c.Request.Context(), activityID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

func (h *StravaHandler) GetActivities(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	activities, err := h.activityRepo.ListByAthlete(c.Request.Context(), nil, athlete.ID, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, activities)
}

func (h *StravaHandler) GetActivity(c *gin.Context) {
	activityID, err := strconv.ParseInt(c.Param("activity_id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", fmt.Errorf("invalid activity id"))
		return
	}
	activity, err := h.activityRepo.GetByID(c.Request.Context(), nil, activityID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if activity == nil {
		RespondError(c, http.StatusNotFound, "ACTIVITY_NOT_FOUND", fmt.Errorf("activity not found"))
		return
	}
	RespondOK(c, activity)
}

func (h *StravaHandler) GetActivityLaps(c *gin.Context) {
	activityID, err := strconv.ParseInt(c.Param("activity_id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", fmt.Errorf("invalid activity id"))
		return
	}
	laps, err := h.lapRepo.GetByActivityID(c.Request.Context(), nil, activityID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, laps)
}
