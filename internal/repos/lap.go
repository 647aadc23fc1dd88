package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type LapRepo interface {
	// ReplaceForActivity deletes every lap of the activity and inserts the
	// new set. Lap counts and splits can change between provider-side
	// recalculations, so partial updates are never attempted.
	ReplaceForActivity(ctx context.Context, tx *gorm.DB, activityID int64, rows []*types.Lap) error
	GetByActivityID(ctx context.Context, tx *gorm.DB, activityID int64) ([]*types.Lap, error)
}

type lapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLapRepo(db *gorm.DB, baseLog *logger.Logger) LapRepo {
	repoLog := baseLog.With("repo", "LapRepo")
	return &lapRepo{db: db, log: repoLog}
}

func (r *lapRepo) ReplaceForActivity(ctx context.Context, tx *gorm.DB, activityID int64, rows []*types.Lap) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	run := func(inner *gorm.DB) error {
		if err := inner.WithContext(ctx).
			Where("activity_id = ?", activityID).
			Delete(&types.Lap{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return inner.WithContext(ctx).Create(&rows).Error
	}

	if tx != nil {
		return run(transaction)
	}
	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		return run(inner)
	})
}

func (r *lapRepo) GetByActivityID(ctx context.Context, tx *gorm.DB, activityID int64) ([]*types.Lap, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lap
	if err := transaction.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("lap_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
