package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/apierr"
	"github.com/ivaaanrm/PaceUp/internal/clients/strava"
	"github.com/ivaaanrm/PaceUp/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps service errors onto HTTP responses. Typed apierr values
// carry their own status; known sentinels get their dedicated codes; anything
// else is a 500.
func HandleError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
		return
	}
	if errors.Is(err, strava.ErrRateLimited) {
		RespondError(c, http.StatusTooManyRequests, "STRAVA_RATE_LIMITED",
			errors.New("Strava API rate limit exceeded. Please wait 15 minutes before trying again."))
		return
	}
	if errors.Is(err, services.ErrNoActivities) {
		RespondError(c, http.StatusNotFound, "NO_ACTIVITIES", err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "INTERNAL", err)
}
