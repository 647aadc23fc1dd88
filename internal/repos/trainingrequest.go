package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type TrainingRequestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.TrainingRequest) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.TrainingRequest, error)
	ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.TrainingRequest, error)
}

type trainingRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainingRequestRepo(db *gorm.DB, baseLog *logger.Logger) TrainingRequestRepo {
	repoLog := baseLog.With("repo", "TrainingRequestRepo")
	return &trainingRequestRepo{db: db, log: repoLog}
}

func (r *trainingRequestRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TrainingRequest) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *trainingRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.TrainingRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrainingRequest
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *trainingRequestRepo) ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.TrainingRequest, error) {
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

	var results []*types.TrainingRequest
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
