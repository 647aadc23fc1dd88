package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/services"
)

type TrainingHandler struct {
	log         *logger.Logger
	planService services.PlanService
	athleteRepo repos.AthleteRepo
	requestRepo repos.TrainingRequestRepo
}

func NewTrainingHandler(
	log *logger.Logger,
	planService services.PlanService,
	athleteRepo repos.AthleteRepo,
	requestRepo repos.TrainingRequestRepo,
) *TrainingHandler {
	return &TrainingHandler{
		log:         log.With("handler", "TrainingHandler"),
		planService: planService,
		athleteRepo: athleteRepo,
		requestRepo: requestRepo,
	}
}

func parsePlanID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("plan_id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid plan id")
	}
	return uint(id), nil
}

func (h *TrainingHandler) GeneratePlan(c *gin.Context) {
	var input services.PlanRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}

	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}

	plan, err := h.planService.Generate(c.Request.Context(), athlete.ID, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *TrainingHandler) GetLatestPlan(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	plan, err := h.planService.Latest(c.Request.Context(), athlete.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (h *TrainingHandler) GetAllPlans(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	plans, err := h.planService.List(c.Request.Context(), athlete.ID, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plans)
}

func (h *TrainingHandler) GetPlan(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", err)
		return
	}
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	plan, err := h.planService.Get(c.Request.Context(), athlete.ID, planID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (h *TrainingHandler) GetPlanByRequestID(c *gin.Context) {
	requestID, err := strconv.ParseUint(c.Param("request_id"), 10, 32)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", fmt.Errorf("invalid request id"))
		return
	}
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	plan, err := h.planService.GetByRequestID(c.Request.Context(), athlete.ID, uint(requestID))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, plan)
}

func (h *TrainingHandler) DeletePlan(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", err)
		return
	}
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	if err := h.planService.Delete(c.Request.Context(), athlete.ID, planID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": fmt.Sprintf("Training plan %d deleted", planID)})
}

func (h *TrainingHandler) UpdateActivityCompletion(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", err)
		return
	}
	var input services.CompletionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", err)
		return
	}
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	completion, err := h.planService.RecordCompletion(c.Request.Context(), athlete.ID, planID, input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, completion)
}

func (h *TrainingHandler) GetPlanProgress(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", err)
		return
	}
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	progress, err := h.planService.Progress(c.Request.Context(), athlete.ID, planID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, progress)
}

func (h *TrainingHandler) GetPlanCompletions(c *gin.Context) {
	planID, err := parsePlanID(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PARAM", err)
		return
	}
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	completions, err := h.planService.Completions(c.Request.Context(), athlete.ID, planID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, completions)
}

func (h *TrainingHandler) GetRequests(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	requests, err := h.requestRepo.ListByAthlete(c.Request.Context(), nil, athlete.ID, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, requests)
}
