package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type TrainingAnalysisRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.TrainingAnalysis) error
	LatestByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64) (*types.TrainingAnalysis, error)
	ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.TrainingAnalysis, error)
}

type trainingAnalysisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainingAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) TrainingAnalysisRepo {
	repoLog := baseLog.With("repo", "TrainingAnalysisRepo")
	return &trainingAnalysisRepo{db: db, log: repoLog}
}

func (r *trainingAnalysisRepo) Create(ctx context.Context, tx *gorm.DB, row *types.TrainingAnalysis) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *trainingAnalysisRepo) LatestByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64) (*types.TrainingAnalysis, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TrainingAnalysis
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

func (r *trainingAnalysisRepo) ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.TrainingAnalysis, error) {
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

	var results []*types.TrainingAnalysis
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
