package database

import (
	"fmt"

	"github.com/lshigami/examhub/config"
	"github.com/lshigami/examhub/internal/logger"
	"github.com/lshigami/examhub/internal/model"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.Name).Msg("Database connected")
	return db, nil
}

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.ReadingPassage{},
		&model.ListeningResource{},
		&model.Question{},
		&model.Answer{},
		&model.ExamStructure{},
		&model.StructurePart{},
		&model.Exam{},
		&model.ExamPart{},
		&model.ExamQuestion{},
		&model.TestAttempt{},
		&model.TestResult{},
		&model.ImportLog{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info().Msg("Database migration completed")
	return nil
}
