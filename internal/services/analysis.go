package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/apierr"
	redisclient "github.com/ivaaanrm/PaceUp/internal/clients/redis"
	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

const latestAnalysisCacheTTL = time.Hour

type AnalysisService interface {
	Generate(ctx context.Context, athleteID int64, days int) (*types.TrainingAnalysis, error)
	Latest(ctx context.Context, athleteID int64) (*types.TrainingAnalysis, error)
	List(ctx context.Context, athleteID int64, limit int) ([]*types.TrainingAnalysis, error)
}

type analysisService struct {
	db           *gorm.DB
	log          *logger.Logger
	athleteRepo  repos.AthleteRepo
	analysisRepo repos.TrainingAnalysisRepo
	contextSvc   ContextService
	openai       OpenAIClient
	cache        redisclient.Cache

	now func() time.Time
}

func NewAnalysisService(
	db *gorm.DB,
	log *logger.Logger,
	athleteRepo repos.AthleteRepo,
	analysisRepo repos.TrainingAnalysisRepo,
	contextSvc ContextService,
	openai OpenAIClient,
	cache redisclient.Cache,
) AnalysisService {
	return &analysisService{
		db:           db,
		log:          log.With("service", "AnalysisService"),
		athleteRepo:  athleteRepo,
		analysisRepo: analysisRepo,
		contextSvc:   contextSvc,
		openai:       openai,
		cache:        cache,
		now:          time.Now,
	}
}

func latestAnalysisCacheKey(athleteID int64) string {
	return fmt.Sprintf("strava:analysis:%d:latest", athleteID)
}

// analysisResponse is the JSON shape the model is told to answer in.
type analysisResponse struct {
	Summary             string `json:"summary"`
	TrainingLoadInsight string `json:"training_load_insight"`
	Tips                string `json:"tips"`
}

// Generate gathers the athlete's training context, asks the model for a
// training-load analysis and appends the result. Analyses are append-only;
// each call produces a new row.
func (s *analysisService) Generate(ctx context.Context, athleteID int64, days int) (*types.TrainingAnalysis, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		return nil, err
	}
	if athlete == nil {
		return nil, apierr.New(http.StatusNotFound, "ATHLETE_NOT_FOUND",
			fmt.Errorf("athlete %d not found", athleteID))
	}

	activities, err := s.contextSvc.Activities(ctx, athleteID, days, "")
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, ErrNoActivities
	}
	summary, err := s.contextSvc.TrainingSummary(ctx, athleteID, 4)
	if err != nil {
		return nil, err
	}
	trends, err := s.contextSvc.PerformanceTrends(ctx, athleteID, days)
	if err != nil {
		return nil, err
	}

	contextText := RenderAnalysisContext(athlete, activities, summary, trends)

	s.log.Info("Generating training analysis", "athlete_id", athleteID, "days", days, "activities", len(activities))
	raw, err := s.openai.CompleteJSON(ctx, analysisSystemPrompt, BuildAnalysisPrompt(contextText))
	if err != nil {
		return nil, fmt.Errorf("analysis generation: %w", err)
	}

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("analysis response decode: %w", err)
	}
	if parsed.Summary == "" {
		parsed.Summary = "Analysis completed"
	}

	rawBlob, err := json.Marshal(map[string]any{
		"openai_response": json.RawMessage(raw),
		"training_data": map[string]any{
			"activities_count":   len(activities),
			"training_summary":   summary,
			"performance_trends": trends,
		},
	})
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	analysis := &types.TrainingAnalysis{
		AthleteID:               athleteID,
		Summary:                 parsed.Summary,
		TrainingLoadInsight:     parsed.TrainingLoadInsight,
		Tips:                    parsed.Tips,
		ActivitiesAnalyzedCount: len(activities),
		AnalysisPeriodStart:     end.AddDate(0, 0, -days),
		AnalysisPeriodEnd:       end,
		RawResponse:             datatypes.JSON(rawBlob),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.analysisRepo.Create(ctx, tx, analysis)
	})
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(analysis); err == nil {
		s.cache.Set(ctx, latestAnalysisCacheKey(athleteID), string(encoded), latestAnalysisCacheTTL)
	}

	s.log.Info("Training analysis generated", "analysis_id", analysis.ID, "athlete_id", athleteID)
	return analysis, nil
}

func (s *analysisService) Latest(ctx context.Context, athleteID int64) (*types.TrainingAnalysis, error) {
	if cached, ok := s.cache.Get(ctx, latestAnalysisCacheKey(athleteID)); ok {
		var analysis types.TrainingAnalysis
		if err := json.Unmarshal([]byte(cached), &analysis); err == nil {
			return &analysis, nil
		}
	}

	analysis, err := s.analysisRepo.LatestByAthlete(ctx, nil, athleteID)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, apierr.New(http.StatusNotFound, "ANALYSIS_NOT_FOUND",
			fmt.Errorf("no analysis found for athlete %d", athleteID))
	}

	if encoded, err := json.Marshal(analysis); err == nil {
		s.cache.Set(ctx, latestAnalysisCacheKey(athleteID), string(encoded), latestAnalysisCacheTTL)
	}
	return analysis, nil
}

func (s *analysisService) List(ctx context.Context, athleteID int64, limit int) ([]*types.TrainingAnalysis, error) {
	return s.analysisRepo.ListByAthlete(ctx, nil, athleteID, limit)
}
