package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/services"
)

type AnalysisHandler struct {
	log             *logger.Logger
	analysisService services.AnalysisService
	athleteRepo     repos.AthleteRepo
}

func NewAnalysisHandler(log *logger.Logger, analysisService services.AnalysisService, athleteRepo repos.AthleteRepo) *AnalysisHandler {
	return &AnalysisHandler{
		log:             log.With("handler", "AnalysisHandler"),
		analysisService: analysisService,
		athleteRepo:     athleteRepo,
	}
}

func (h *AnalysisHandler) GenerateAnalysis(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	analysis, err := h.analysisService.Generate(c.Request.Context(), athlete.ID, days)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, analysis)
}

func (h *AnalysisHandler) GetLatestAnalysis(c *gin.Context) {
	athlete, err := resolveAthlete(c, h.athleteRepo)
	if err != nil {
		HandleError(c, err)
		return
	}
	analysis, err := h.analysisService.Latest(c.Request.Context(), athlete.ID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, analysis)
}

func (h *AnalysisHandler) GetAllAnalyses(c *gin.Context) {
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

	analyses, err := h.analysisService.List(c.Request.Context(), athlete.ID, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, analyses)
}
