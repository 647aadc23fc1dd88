package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/apierr"
	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

// CompletionInput addresses one session inside a plan by its position.
type CompletionInput struct {
	WeekNumber    int    `json:"week_number" binding:"required,min=1"`
	Day           string `json:"day" binding:"required"`
	ActivityIndex int    `json:"activity_index"`
	IsCompleted   bool   `json:"is_completed"`
}

// PlanProgress is the recomputed completion state of a plan.
type PlanProgress struct {
	PlanID              uint    `json:"plan_id"`
	TotalActivities     int     `json:"total_activities"`
	CompletedActivities int     `json:"completed_activities"`
	ProgressPercentage  float64 `json:"progress_percentage"`
}

type PlanService interface {
	Generate(ctx context.Context, athleteID int64, input PlanRequestInput) (*types.TrainingPlan, error)
	Latest(ctx context.Context, athleteID int64) (*types.TrainingPlan, error)
	List(ctx context.Context, athleteID int64, limit int) ([]*types.TrainingPlan, error)
	Get(ctx context.Context, athleteID int64, planID uint) (*types.TrainingPlan, error)
	GetByRequestID(ctx context.Context, athleteID int64, requestID uint) (*types.TrainingPlan, error)
	Delete(ctx context.Context, athleteID int64, planID uint) error
	RecordCompletion(ctx context.Context, athleteID int64, planID uint, input CompletionInput) (*types.TrainingPlanActivity, error)
	Progress(ctx context.Context, athleteID int64, planID uint) (*PlanProgress, error)
	Completions(ctx context.Context, athleteID int64, planID uint) ([]*types.TrainingPlanActivity, error)
}

type planService struct {
	db           *gorm.DB
	log          *logger.Logger
	athleteRepo  repos.AthleteRepo
	activityRepo repos.ActivityRepo
	requestRepo  repos.TrainingRequestRepo
	planRepo     repos.TrainingPlanRepo
	planActRepo  repos.PlanActivityRepo
	openai       OpenAIClient

	now func() time.Time
}

func NewPlanService(
	db *gorm.DB,
	log *logger.Logger,
	athleteRepo repos.AthleteRepo,
	activityRepo repos.ActivityRepo,
	requestRepo repos.TrainingRequestRepo,
	planRepo repos.TrainingPlanRepo,
	planActRepo repos.PlanActivityRepo,
	openai OpenAIClient,
) PlanService {
	return &planService{
		db:           db,
		log:          log.With("service", "PlanService"),
		athleteRepo:  athleteRepo,
		activityRepo: activityRepo,
		requestRepo:  requestRepo,
		planRepo:     planRepo,
		planActRepo:  planActRepo,
		openai:       openai,
		now:          time.Now,
	}
}

func errPlanNotFound() error {
	return apierr.New(http.StatusNotFound, "PLAN_NOT_FOUND", fmt.Errorf("training plan not found"))
}

func errAccessDenied() error {
	return apierr.New(http.StatusForbidden, "ACCESS_DENIED", fmt.Errorf("access denied"))
}

// Generate persists the request, prompts the model, extracts the plan and
// persists it. The request commit is separate from the plan transaction on
// purpose: a failed generation still leaves an auditable request row.
func (s *planService) Generate(ctx context.Context, athleteID int64, input PlanRequestInput) (*types.TrainingPlan, error) {
	athlete, err := s.athleteRepo.GetByID(ctx, nil, athleteID)
	if err != nil {
		return nil, err
	}
	if athlete == nil {
		return nil, apierr.New(http.StatusNotFound, "ATHLETE_NOT_FOUND",
			fmt.Errorf("athlete not found, sync activities first"))
	}

	daysJSON, err := json.Marshal(input.TrainingDays)
	if err != nil {
		return nil, err
	}
	request := &types.TrainingRequest{
		AthleteID:           athleteID,
		DistanceObjective:   input.DistanceObjective,
		PaceOrTimeObjective: input.PaceOrTimeObjective,
		PersonalRecord:      input.PersonalRecord,
		WeeklyKms:           input.WeeklyKms,
		PlanDurationWeeks:   input.PlanDurationWeeks,
		TrainingDays:        datatypes.JSON(daysJSON),
		UseActivityContext:  input.UseActivityContext,
	}
	if err := s.requestRepo.Create(ctx, nil, request); err != nil {
		return nil, err
	}
	s.log.Info("Saved training request", "request_id", request.ID, "athlete_id", athleteID)

	activitiesContext := ""
	if input.UseActivityContext {
		cutoff := s.now().UTC().AddDate(0, 0, -28)
		runs, err := s.activityRepo.GetByAthleteSince(ctx, nil, athleteID, cutoff, "Run", true)
		if err != nil {
			s.log.Warn("Could not load activity context", "error", err)
			activitiesContext = "Unable to retrieve previous activities."
		} else {
			activitiesContext = RenderActivitiesContext(runs, s.now().UTC())
		}
	}

	prompt := BuildPlanPrompt(input, activitiesContext)

	s.log.Info("Generating training plan", "athlete_id", athleteID, "request_id", request.ID)
	response, err := s.openai.Complete(ctx, planSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("plan generation: %w", err)
	}

	parsed, err := ParsePlanResponse(response)
	if err != nil {
		s.log.Error("Could not parse plan from model response",
			"request_id", request.ID, "response_len", len(response), "error", err)
		return nil, err
	}

	// The raw response is free text; store it JSON-encoded so the column
	// stays a valid JSON document.
	rawBlob, err := json.Marshal(map[string]string{"model_response": response})
	if err != nil {
		return nil, err
	}
	// A JSON-only response carries no narrative sections; store the stock
	// text instead of empty columns.
	insights := parsed.Insights
	if insights == "" {
		insights = "Training plan generated successfully."
	}
	summary := parsed.Summary
	if summary == "" {
		summary = "A personalized training plan has been created for you."
	}

	plan := &types.TrainingPlan{
		AthleteID:        athleteID,
		RequestID:        request.ID,
		Insights:         insights,
		Summary:          summary,
		TrainingPlanJSON: datatypes.JSON(parsed.RawJSON),
		RawResponse:      datatypes.JSON(rawBlob),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.planRepo.Create(ctx, tx, plan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Training plan generated", "plan_id", plan.ID, "weeks", len(parsed.Tree.TrainingPlan))
	return plan, nil
}

func (s *planService) Latest(ctx context.Context, athleteID int64) (*types.TrainingPlan, error) {
	plan, err := s.planRepo.LatestByAthlete(ctx, nil, athleteID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errPlanNotFound()
	}
	return plan, nil
}

func (s *planService) List(ctx context.Context, athleteID int64, limit int) ([]*types.TrainingPlan, error) {
	return s.planRepo.ListByAthlete(ctx, nil, athleteID, limit)
}

// getOwned loads a plan and enforces that it belongs to the athlete. The
// two failure modes stay distinct: missing plan is 404, wrong owner is 403.
func (s *planService) getOwned(ctx context.Context, athleteID int64, planID uint) (*types.TrainingPlan, error) {
	plan, err := s.planRepo.GetByID(ctx, nil, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errPlanNotFound()
	}
	if plan.AthleteID != athleteID {
		return nil, errAccessDenied()
	}
	return plan, nil
}

func (s *planService) Get(ctx context.Context, athleteID int64, planID uint) (*types.TrainingPlan, error) {
	return s.getOwned(ctx, athleteID, planID)
}

func (s *planService) GetByRequestID(ctx context.Context, athleteID int64, requestID uint) (*types.TrainingPlan, error) {
	plan, err := s.planRepo.GetByRequestID(ctx, nil, requestID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errPlanNotFound()
	}
	if plan.AthleteID != athleteID {
		return nil, errAccessDenied()
	}
	return plan, nil
}

func (s *planService) Delete(ctx context.Context, athleteID int64, planID uint) error {
	if _, err := s.getOwned(ctx, athleteID, planID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.planRepo.DeleteByID(ctx, tx, planID)
	})
}

// RecordCompletion upserts the completion row for one session. Re-marking an
// already-completed session refreshes its timestamp; un-marking clears it.
func (s *planService) RecordCompletion(ctx context.Context, athleteID int64, planID uint, input CompletionInput) (*types.TrainingPlanActivity, error) {
	if _, err := s.getOwned(ctx, athleteID, planID); err != nil {
		return nil, err
	}

	var result *types.TrainingPlanActivity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.planActRepo.GetByCompositeKey(ctx, tx, planID, input.WeekNumber, input.Day, input.ActivityIndex)
		if err != nil {
			return err
		}

		var completedAt *time.Time
		if input.IsCompleted {
			now := s.now().UTC()
			completedAt = &now
		}

		if existing != nil {
			existing.IsCompleted = input.IsCompleted
			existing.CompletedAt = completedAt
			if err := s.planActRepo.Save(ctx, tx, existing); err != nil {
				return err
			}
			result = existing
			return nil
		}

		created := &types.TrainingPlanActivity{
			PlanID:        planID,
			WeekNumber:    input.WeekNumber,
			Day:           input.Day,
			ActivityIndex: input.ActivityIndex,
			IsCompleted:   input.IsCompleted,
			CompletedAt:   completedAt,
		}
		if err := s.planActRepo.Create(ctx, tx, created); err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Updated activity completion",
		"plan_id", planID, "week", input.WeekNumber, "day", input.Day, "completed", input.IsCompleted)
	return result, nil
}

// Progress recomputes totals from the stored plan document every time, so
// completion rows addressing sessions outside the plan never skew it.
func (s *planService) Progress(ctx context.Context, athleteID int64, planID uint) (*PlanProgress, error) {
	plan, err := s.getOwned(ctx, athleteID, planID)
	if err != nil {
		return nil, err
	}

	var tree types.PlanTree
	if err := json.Unmarshal(plan.TrainingPlanJSON, &tree); err != nil {
		return nil, fmt.Errorf("stored plan document unreadable: %w", err)
	}
	total := tree.TotalActivities()

	completed, err := s.planActRepo.CountCompleted(ctx, nil, planID)
	if err != nil {
		return nil, err
	}

	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(completed)/float64(total)*100*100) / 100
	}

	return &PlanProgress{
		PlanID:              planID,
		TotalActivities:     total,
		CompletedActivities: int(completed),
		ProgressPercentage:  pct,
	}, nil
}

func (s *planService) Completions(ctx context.Context, athleteID int64, planID uint) ([]*types.TrainingPlanActivity, error) {
	if _, err := s.getOwned(ctx, athleteID, planID); err != nil {
		return nil, err
	}
	return s.planActRepo.ListByPlan(ctx, nil, planID)
}
