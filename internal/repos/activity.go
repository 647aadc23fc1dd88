package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type ActivityRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Activity) error
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Activity, error)
	// GetByAthleteSince returns activities starting within [since, now],
	// newest first when desc is set, optionally filtered by sport type.
	GetByAthleteSince(ctx context.Context, tx *gorm.DB, athleteID int64, since time.Time, sportType string, desc bool) ([]*types.Activity, error)
	ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.Activity, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	repoLog := baseLog.With("repo", "ActivityRepo")
	return &activityRepo{db: db, log: repoLog}
}

func (r *activityRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Activity) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	var existing types.Activity
	err := transaction.WithContext(ctx).Where("id = ?", row.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return transaction.WithContext(ctx).Create(row).Error
	}
	if err != nil {
		return err
	}

	row.CreatedAt = existing.CreatedAt
	return transaction.WithContext(ctx).
		Model(&types.Activity{}).
		Where("id = ?", row.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(row).Error
}

func (r *activityRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Activity
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *activityRepo) GetByAthleteSince(ctx context.Context, tx *gorm.DB, athleteID int64, since time.Time, sportType string, desc bool) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("athlete_id = ? AND start_date >= ?", athleteID, since)
	if sportType != "" {
		query = query.Where("sport_type = ?", sportType)
	}
	order := "start_date ASC"
	if desc {
		order = "start_date DESC"
	}

	var results []*types.Activity
	if err := query.Order(order).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) ListByAthlete(ctx context.Context, tx *gorm.DB, athleteID int64, limit int) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("athlete_id = ?", athleteID).
		Order("start_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.Activity
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
