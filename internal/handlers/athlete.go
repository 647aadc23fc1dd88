package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/apierr"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/requestdata"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

// resolveAthlete finds the athlete the request acts on: the caller's linked
// athlete when the account carries one, otherwise the single synced athlete.
func resolveAthlete(c *gin.Context, athleteRepo repos.AthleteRepo) (*types.Athlete, error) {
	ctx := c.Request.Context()

	if rd := requestdata.GetRequestData(ctx); rd != nil && rd.AthleteID != 0 {
		athlete, err := athleteRepo.GetByID(ctx, nil, rd.AthleteID)
		if err != nil {
			return nil, err
		}
		if athlete != nil {
			return athlete, nil
		}
	}

	athlete, err := athleteRepo.First(ctx, nil)
	if err != nil {
		return nil, err
	}
	if athlete == nil {
		return nil, apierr.New(http.StatusNotFound, "ATHLETE_NOT_FOUND",
			fmt.Errorf("athlete not found, please sync activities first"))
	}
	return athlete, nil
}
