package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
)

type foreignKey struct {
	table, column, refTable, name string
}

// Tracking rows must point at a real lesson. Models carry no gorm relations,
// so the constraints are added by hand on Postgres.
var trackingForeignKeys = []foreignKey{
	{table: "lesson_progress", column: "lesson_id", refTable: "lesson", name: "fk_lesson_progress_lesson"},
	{table: "learning_sessions", column: "lesson_id", refTable: "lesson", name: "fk_learning_sessions_lesson"},
	{table: "event_log", column: "lesson_id", refTable: "lesson", name: "fk_event_log_lesson"},
}

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, fk := range trackingForeignKeys {
		stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (id);
	END IF;
END $$;`, fk.name, fk.table, fk.name, fk.column, fk.refTable)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Running auto migrations")
	return AutoMigrateAll(s.db)
}
