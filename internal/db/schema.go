package db

import "strings"

// Every table is portable between SQLite and Postgres: dates are stored as
// YYYY-MM-DD text, timestamps as RFC 3339 text.

const createSchedules = `
CREATE TABLE IF NOT EXISTS schedules (
	reference TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK (kind IN ('induction', 'review')),
	person_id TEXT NOT NULL,
	calculation_rule TEXT NOT NULL,
	status TEXT NOT NULL,
	deadline_date TEXT NOT NULL DEFAULT '',
	window_from TEXT NOT NULL DEFAULT '',
	window_to TEXT NOT NULL DEFAULT '',
	exemption_reason TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL CHECK (version >= 1),
	created_by TEXT NOT NULL,
	created_at TEXT NOT NULL,
	created_at_prison TEXT NOT NULL DEFAULT '',
	updated_by TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	updated_at_prison TEXT NOT NULL DEFAULT ''
)`

// At most one schedule of each kind per person may be outside COMPLETE.
const createSchedulesActiveIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_one_active
	ON schedules (kind, person_id) WHERE status <> 'COMPLETE'`

const createSchedulesPersonIndex = `
CREATE INDEX IF NOT EXISTS idx_schedules_person ON schedules (person_id, kind)`

const createScheduleHistory = `
CREATE TABLE IF NOT EXISTS schedule_history (
	reference TEXT NOT NULL REFERENCES schedules (reference),
	version INTEGER NOT NULL,
	kind TEXT NOT NULL,
	person_id TEXT NOT NULL,
	calculation_rule TEXT NOT NULL,
	status TEXT NOT NULL,
	deadline_date TEXT NOT NULL DEFAULT '',
	window_from TEXT NOT NULL DEFAULT '',
	window_to TEXT NOT NULL DEFAULT '',
	exemption_reason TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	created_at TEXT NOT NULL,
	created_at_prison TEXT NOT NULL DEFAULT '',
	updated_by TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	updated_at_prison TEXT NOT NULL DEFAULT '',
	triggered_by TEXT NOT NULL,
	PRIMARY KEY (reference, version)
)`

const createInductions = `
CREATE TABLE IF NOT EXISTS inductions (
	reference TEXT PRIMARY KEY,
	person_id TEXT NOT NULL UNIQUE,
	prison_id TEXT NOT NULL DEFAULT '',
	completed_at TEXT NOT NULL,
	completed_by TEXT NOT NULL
)`

const createActionPlans = `
CREATE TABLE IF NOT EXISTS action_plans (
	person_id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const createGoals = `
CREATE TABLE IF NOT EXISTS goals (
	reference TEXT PRIMARY KEY,
	person_id TEXT NOT NULL REFERENCES action_plans (person_id),
	title TEXT NOT NULL,
	target_date TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_by TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const createGoalsPersonIndex = `
CREATE INDEX IF NOT EXISTS idx_goals_person ON goals (person_id)`

// GetSchemaSQL returns every migration statement in order: the complete
// current schema. Tests build their databases from it so repository code
// cannot drift from what migrations produce.
func GetSchemaSQL() string {
	var stmts []string
	for _, m := range migrations {
		stmts = append(stmts, m.Statements...)
	}
	return strings.Join(stmts, ";\n") + ";"
}
