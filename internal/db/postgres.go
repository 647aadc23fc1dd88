package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/types"
	"github.com/ivaaanrm/PaceUp/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "paceup", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Athlete{},
		&types.Activity{},
		&types.Lap{},
		&types.TrainingAnalysis{},
		&types.TrainingRequest{},
		&types.TrainingPlan{},
		&types.TrainingPlanActivity{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table string
		name  string
		ddl   string
	}{
		{
			// Activities cannot outlive their athlete.
			table: "activities",
			name:  "fk_activities_athlete_id",
			ddl: `ALTER TABLE "activities"
				ADD CONSTRAINT "fk_activities_athlete_id"
				FOREIGN KEY ("athlete_id") REFERENCES "athletes"("id")
				ON DELETE CASCADE`,
		},
		{
			// Laps cannot outlive their activity.
			table: "laps",
			name:  "fk_laps_activity_id",
			ddl: `ALTER TABLE "laps"
				ADD CONSTRAINT "fk_laps_activity_id"
				FOREIGN KEY ("activity_id") REFERENCES "activities"("id")
				ON DELETE CASCADE`,
		},
		{
			// Completion records cascade with their plan.
			table: "training_plan_activities",
			name:  "fk_training_plan_activities_plan_id",
			ddl: `ALTER TABLE "training_plan_activities"
				ADD CONSTRAINT "fk_training_plan_activities_plan_id"
				FOREIGN KEY ("plan_id") REFERENCES "training_plans"("id")
				ON DELETE CASCADE`,
		},
		{
			// Forward reference only: deleting a plan never deletes its request.
			table: "training_plans",
			name:  "fk_training_plans_request_id",
			ddl: `ALTER TABLE "training_plans"
				ADD CONSTRAINT "fk_training_plans_request_id"
				FOREIGN KEY ("request_id") REFERENCES "training_requests"("id")`,
		},
	}
	for _, c := range constraints {
		if err := s.db.Exec(fmt.Sprintf(`ALTER TABLE ONLY %q DROP CONSTRAINT IF EXISTS %q`, c.table, c.name)).Error; err != nil {
			return fmt.Errorf("failed to reset %s: %w", c.name, err)
		}
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
