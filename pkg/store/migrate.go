package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 2

var schema = []struct {
	name string
	ddl  string
}{
	{"tasks table", `
		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			domain TEXT NULL,
			subdomain TEXT NULL,
			impact_type TEXT NOT NULL,
			energy_type TEXT NOT NULL,
			priority INTEGER NOT NULL,
			estimated_time INTEGER NOT NULL,
			due_date TEXT NULL,
			status TEXT NOT NULL,
			money_impact INTEGER NOT NULL DEFAULT 0,
			recurrence_type TEXT NULL,
			recurrence_rule TEXT NULL,
			focus_today INTEGER NOT NULL DEFAULT 0,
			reminder_level INTEGER NOT NULL DEFAULT 0,
			delay_count INTEGER NOT NULL DEFAULT 0,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			archived_at TEXT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`},
	{"task_logs table", `
		CREATE TABLE IF NOT EXISTS task_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NULL,
			user_id TEXT NOT NULL,
			action TEXT NOT NULL,
			previous_state TEXT NULL,
			new_state TEXT NULL,
			created_at TEXT NOT NULL
		);`},
	{"user_settings table", `
		CREATE TABLE IF NOT EXISTS user_settings (
			user_id TEXT PRIMARY KEY,
			impact_weights TEXT NULL,
			focus_duration INTEGER NULL,
			updated_at TEXT NOT NULL
		);`},
	{"daily_runs table", `
		CREATE TABLE IF NOT EXISTS daily_runs (
			user_id TEXT NOT NULL,
			day TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (user_id, day)
		);`},
	{"task_imports table", `
		CREATE TABLE IF NOT EXISTS task_imports (
			user_id TEXT NOT NULL,
			source TEXT NOT NULL,
			external_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (user_id, source, external_id)
		);`},
	{"idx_tasks_user_status", `CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status, is_deleted);`},
	{"idx_tasks_due", `CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(status, due_date);`},
	{"idx_task_logs_task", `CREATE INDEX IF NOT EXISTS idx_task_logs_task ON task_logs(task_id, created_at);`},
}

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
// Every step is idempotent, so upgrading replays the whole list.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, step := range schema {
		if _, err := tx.Exec(step.ddl); err != nil {
			return fmt.Errorf("migrate: create %s: %w", step.name, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion); err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}
