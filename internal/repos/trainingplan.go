package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type TrainingPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlan) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.TrainingPlan, error)
	GetByRequestID(ctx context.Context, tx *gorm.DB, requestID uint) (*types.TrainingPlan, error)
	LatestByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64) (*types.TrainingPlan, error)
	ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.TrainingPlan, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error
}

type trainingPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainingPlanRepo(db *gorm.DB, baseLog *logger.Logger) TrainingPlanRepo {
	repoLog := baseLog.With("repo", "TrainingPlanRepo")
	return &trainingPlanRepo{db: db, log: repoLog}
}

func (r *trainingPlanRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlan) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *trainingPlanRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.TrainingPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrainingPlan
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *trainingPlanRepo) GetByRequestID(ctx context.Context, tx *gorm.DB, requestID uint) (*types.TrainingPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrainingPlan
	err := transaction.WithContext(ctx).Where("request_id = ?", requestID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *trainingPlanRepo) LatestByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64) (*types.TrainingPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrainingPlan
	err := transaction.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *trainingPlanRepo) ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.TrainingPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.TrainingPlan
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteByID removes the plan and its completion records in one transaction.
// The database cascade covers this on postgres; deleting explicitly keeps the
// invariant independent of the driver.
func (r *trainingPlanRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	run := func(inner *gorm.DB) error {
		if err := inner.WithContext(ctx).
			Where("plan_id = ?", id).
			Delete(&types.TrainingPlanActivity{}).Error; err != nil {
			return err
		}
		return inner.WithContext(ctx).
			Where("id = ?", id).
			Delete(&types.TrainingPlan{}).Error
	}

	if tx != nil {
		return run(transaction)
	}
	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		return run(inner)
	})
}
