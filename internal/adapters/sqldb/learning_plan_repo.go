package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/plp/internal/db"
	"github.com/example/plp/internal/ports/secondary"
)

// LearningPlanRepository implements secondary.LearningPlanRepository with database/sql.
type LearningPlanRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewLearningPlanRepository creates a new learning plan repository.
func NewLearningPlanRepository(conn *sql.DB, dialect db.Dialect) *LearningPlanRepository {
	return &LearningPlanRepository{db: conn, dialect: dialect}
}

// GetStatus returns what is recorded for the person.
func (r *LearningPlanRepository) GetStatus(ctx context.Context, personID string) (*secondary.LearningPlanStatus, error) {
	status := &secondary.LearningPlanStatus{PersonID: personID}

	var completedAt string
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT completed_at FROM inductions WHERE person_id = ?"), personID).Scan(&completedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get induction: %w", err)
	default:
		status.HasInduction = true
		if status.InductionCompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("induction completed_at: %w", err)
		}
	}

	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind("SELECT COUNT(*) FROM goals WHERE person_id = ?"), personID).Scan(&status.GoalCount); err != nil {
		return nil, fmt.Errorf("failed to count goals: %w", err)
	}
	return status, nil
}

// RecordInduction stores a completed induction. A person has at most one; a
// second record replaces the first and keeps its reference.
func (r *LearningPlanRepository) RecordInduction(ctx context.Context, record *secondary.InductionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, r.dialect.Rebind("SELECT reference FROM inductions WHERE person_id = ?"), record.PersonID).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, r.dialect.Rebind(
			"INSERT INTO inductions (reference, person_id, prison_id, completed_at, completed_by) VALUES (?, ?, ?, ?, ?)"),
			record.Reference, record.PersonID, record.PrisonID, formatTime(record.CompletedAt), record.CompletedBy)
	case err != nil:
		return fmt.Errorf("failed to get induction: %w", err)
	default:
		record.Reference = existing
		_, err = tx.ExecContext(ctx, r.dialect.Rebind(
			"UPDATE inductions SET prison_id = ?, completed_at = ?, completed_by = ? WHERE reference = ?"),
			record.PrisonID, formatTime(record.CompletedAt), record.CompletedBy, existing)
	}
	if err != nil {
		return fmt.Errorf("failed to record induction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit induction: %w", err)
	}
	return nil
}

// ListGoals returns the person's goals ordered by reference.
func (r *LearningPlanRepository) ListGoals(ctx context.Context, personID string) ([]*secondary.GoalRecord, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		`SELECT reference, person_id, title, target_date, status, created_by, created_at, updated_by, updated_at
		FROM goals WHERE person_id = ? ORDER BY reference`), personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var out []*secondary.GoalRecord
	for rows.Next() {
		var g secondary.GoalRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&g.Reference, &g.PersonID, &g.Title, &g.TargetDate, &g.Status,
			&g.CreatedBy, &createdAt, &g.UpdatedBy, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		if g.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("goal %s created_at: %w", g.Reference, err)
		}
		if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("goal %s updated_at: %w", g.Reference, err)
		}
		out = append(out, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return out, nil
}

// SaveGoals applies the changes in one transaction, creating the action plan
// on first use.
func (r *LearningPlanRepository) SaveGoals(ctx context.Context, personID string, changes secondary.GoalChanges) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(
		`INSERT INTO action_plans (person_id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (person_id) DO UPDATE SET updated_at = excluded.updated_at`),
		personID, now, now); err != nil {
		return fmt.Errorf("failed to save action plan: %w", err)
	}

	for _, g := range changes.Deletes {
		res, err := tx.ExecContext(ctx, r.dialect.Rebind("DELETE FROM goals WHERE reference = ? AND person_id = ?"), g.Reference, personID)
		if err := expectOneRow(res, err, "delete goal "+g.Reference); err != nil {
			return err
		}
	}

	for _, g := range changes.Updates {
		res, err := tx.ExecContext(ctx, r.dialect.Rebind(
			`UPDATE goals SET title = ?, target_date = ?, status = ?, updated_by = ?, updated_at = ?
			WHERE reference = ? AND person_id = ?`),
			g.Title, g.TargetDate, g.Status, g.UpdatedBy, formatTime(g.UpdatedAt), g.Reference, personID)
		if err := expectOneRow(res, err, "update goal "+g.Reference); err != nil {
			return err
		}
	}

	for _, g := range changes.Inserts {
		_, err := tx.ExecContext(ctx, r.dialect.Rebind(
			`INSERT INTO goals (reference, person_id, title, target_date, status, created_by, created_at, updated_by, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			g.Reference, personID, g.Title, g.TargetDate, g.Status,
			g.CreatedBy, formatTime(g.CreatedAt), g.UpdatedBy, formatTime(g.UpdatedAt))
		if isUniqueViolation(err) {
			return fmt.Errorf("goal %s already exists", g.Reference)
		}
		if err != nil {
			return fmt.Errorf("failed to insert goal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit goals: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n != 1 {
		return fmt.Errorf("failed to %s: not found", op)
	}
	return nil
}

var _ secondary.LearningPlanRepository = (*LearningPlanRepository)(nil)
