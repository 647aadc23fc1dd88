package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type AthleteRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Athlete) error
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Athlete, error)
	First(ctx context.Context, tx *gorm.DB) (*types.Athlete, error)
	UpdateStats(ctx context.Context, tx *gorm.DB, id int64, stats datatypes.JSON, at time.Time) error
}

type athleteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAthleteRepo(db *gorm.DB, baseLog *logger.Logger) AthleteRepo {
	repoLog := baseLog.With("repo", "AthleteRepo")
	return &athleteRepo{db: db, log: repoLog}
}

func (r *athleteRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Athlete) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	var existing types.Athlete
	err := transaction.WithContext(ctx).Where("id = ?", row.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return transaction.WithContext(ctx).Create(row).Error
	}
	if err != nil {
		return err
	}

	// Profile fields refresh on every sync; stats are updated separately.
	updates := map[string]interface{}{
		"username":  row.Username,
		"firstname": row.FirstName,
		"lastname":  row.LastName,
		"city":      row.City,
		"state":     row.State,
		"country":   row.Country,
		"sex":       row.Sex,
		"weight":    row.Weight,
		"profile":   row.Profile,
	}
	return transaction.WithContext(ctx).
		Model(&types.Athlete{}).
		Where("id = ?", row.ID).
		Updates(updates).Error
}

func (r *athleteRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Athlete, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Athlete
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *athleteRepo) First(ctx context.Context, tx *gorm.DB) (*types.Athlete, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Athlete
	err := transaction.WithContext(ctx).Order("id ASC").First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *athleteRepo) UpdateStats(ctx context.Context, tx *gorm.DB, id int64, stats datatypes.JSON, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Athlete{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stats":            stats,
			"stats_updated_at": at,
		}).Error
}
