package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type PlanActivityRepo interface {
	GetByCompositeKey(ctx context.Context, tx *gorm.DB, planID uint, weekNumber int, day string, activityIndex int) (*types.TrainingPlanActivity, error)
	Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlanActivity) error
	Save(ctx context.Context, tx *gorm.DB, row *types.TrainingPlanActivity) error
	CountCompleted(ctx context.Context, tx *gorm.DB, planID uint) (int64, error)
	ListByPlan(ctx context.Context, tx *gorm.DB, planID uint) ([]*types.TrainingPlanActivity, error)
}

type planActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanActivityRepo(db *gorm.DB, baseLog *logger.Logger) PlanActivityRepo {
	repoLog := baseLog.With("repo", "PlanActivityRepo")
	return &planActivityRepo{db: db, log: repoLog}
}

func (r *planActivityRepo) GetByCompositeKey(ctx context.Context, tx *gorm.DB, planID uint, weekNumber int, day string, activityIndex int) (*types.TrainingPlanActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrainingPlanActivity
	err := transaction.WithContext(ctx).
		Where("plan_id = ? AND week_number = ? AND day = ? AND activity_index = ?",
			planID, weekNumber, day, activityIndex).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *planActivityRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TrainingPlanActivity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *planActivityRepo) Save(ctx context.Context, tx *gorm.DB, row *types.TrainingPlanActivity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	// Save writes all fields so CompletedAt can transition back to NULL.
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *planActivityRepo) CountCompleted(ctx context.Context, tx *gorm.DB, planID uint) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.TrainingPlanActivity{}).
		Where("plan_id = ? AND is_completed = ?", planID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *planActivityRepo) ListByPlan(ctx context.Context, tx *gorm.DB, planID uint) ([]*types.TrainingPlanActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TrainingPlanActivity
	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("week_number ASC, day ASC, activity_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
