package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/db"
	"github.com/example/plp/internal/ports/secondary"
)

// ScheduleRepository implements secondary.ScheduleRepository with database/sql.
type ScheduleRepository struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(conn *sql.DB, dialect db.Dialect) *ScheduleRepository {
	return &ScheduleRepository{db: conn, dialect: dialect}
}

const scheduleColumns = `reference, kind, person_id, calculation_rule, status, deadline_date, window_from, window_to,
	exemption_reason, version, created_by, created_at, created_at_prison, updated_by, updated_at, updated_at_prison`

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetActive returns the person's non-terminal schedule of the given kind.
func (r *ScheduleRepository) GetActive(ctx context.Context, kind schedule.Kind, personID string) (*schedule.Schedule, error) {
	return r.getActive(ctx, r.db, kind, personID)
}

func (r *ScheduleRepository) getActive(ctx context.Context, q queryer, kind schedule.Kind, personID string) (*schedule.Schedule, error) {
	row := q.QueryRowContext(ctx, r.dialect.Rebind(
		"SELECT "+scheduleColumns+" FROM schedules WHERE kind = ? AND person_id = ? AND status <> ?"),
		string(kind), personID, string(schedule.StatusComplete))
	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind, personID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active %s schedule: %w", kind, err)
	}
	return s, nil
}

// latestOrder puts the active schedule first, then the most recently created.
const latestOrder = ` ORDER BY CASE WHEN status = 'COMPLETE' THEN 1 ELSE 0 END, created_at DESC, reference DESC`

// GetLatest returns the person's active schedule of the given kind or, when
// every schedule is complete, the most recently created one.
func (r *ScheduleRepository) GetLatest(ctx context.Context, kind schedule.Kind, personID string) (*schedule.Schedule, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(
		"SELECT "+scheduleColumns+" FROM schedules WHERE kind = ? AND person_id = ?"+latestOrder+" LIMIT 1"),
		string(kind), personID)
	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind, personID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest %s schedule: %w", kind, err)
	}
	return s, nil
}

// ListLatest returns the latest schedule of the given kind for each person
// that has one, ordered by person.
func (r *ScheduleRepository) ListLatest(ctx context.Context, kind schedule.Kind, personIDs []string) ([]schedule.Schedule, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(personIDs)), ", ")
	args := make([]any, 0, len(personIDs)+1)
	args = append(args, string(kind))
	for _, id := range personIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		"SELECT "+scheduleColumns+" FROM schedules WHERE kind = ? AND person_id IN ("+placeholders+")"+latestOrder), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s schedules: %w", kind, err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []schedule.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		if seen[s.PersonID] {
			continue
		}
		seen[s.PersonID] = true
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s schedules: %w", kind, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// History returns every version of a schedule, oldest first.
func (r *ScheduleRepository) History(ctx context.Context, reference string) ([]schedule.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(
		"SELECT "+scheduleColumns+", triggered_by FROM schedule_history WHERE reference = ? ORDER BY version"), reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule history: %w", err)
	}
	defer rows.Close()

	var out []schedule.HistoryEntry
	for rows.Next() {
		var trigger string
		s, err := scanSchedule(rows, &trigger)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule history: %w", err)
		}
		out = append(out, schedule.Snapshot(*s, schedule.Trigger(trigger)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get schedule history: %w", err)
	}
	return out, nil
}

// Apply runs the writes in order inside one transaction.
func (r *ScheduleRepository) Apply(ctx context.Context, writes []secondary.ScheduleWrite) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, w := range writes {
		switch w.Op {
		case secondary.WriteCreate:
			err = r.create(ctx, tx, w.Schedule)
		case secondary.WriteUpdate:
			err = r.update(ctx, tx, w.Schedule, w.ExpectedVersion)
		default:
			err = fmt.Errorf("unknown write op %q", w.Op)
		}
		if err != nil {
			return err
		}
		if err := r.appendHistory(ctx, tx, w.Schedule, w.Trigger); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule writes: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) create(ctx context.Context, tx *sql.Tx, s schedule.Schedule) error {
	if s.IsActive() {
		// Checked first so the conflicting reference can be reported; the
		// unique index still decides races.
		if cur, err := r.getActive(ctx, tx, s.Kind, s.PersonID); err == nil {
			return schedule.AlreadyExistsError{Kind: s.Kind, PersonID: s.PersonID, Reference: cur.Reference}
		} else if !errors.Is(err, schedule.ErrNotFound) {
			return err
		}
	}

	_, err := tx.ExecContext(ctx, r.dialect.Rebind(
		"INSERT INTO schedules ("+scheduleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		scheduleArgs(s)...)
	if isUniqueViolation(err) {
		return schedule.AlreadyExistsError{Kind: s.Kind, PersonID: s.PersonID}
	}
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) update(ctx context.Context, tx *sql.Tx, s schedule.Schedule, expected int) error {
	if s.Version != expected+1 {
		return fmt.Errorf("schedule %s written at version %d, expected %d: %w", s.Reference, s.Version, expected+1, schedule.ErrVersionConflict)
	}

	res, err := tx.ExecContext(ctx, r.dialect.Rebind(`UPDATE schedules SET
		calculation_rule = ?, status = ?, deadline_date = ?, window_from = ?, window_to = ?, exemption_reason = ?,
		version = ?, updated_by = ?, updated_at = ?, updated_at_prison = ?
		WHERE reference = ? AND version = ?`),
		string(s.CalculationRule), string(s.Status), formatDate(s.DeadlineDate), formatDate(s.Window.From), formatDate(s.Window.To),
		s.ExemptionReason, s.Version, s.UpdatedBy, formatTime(s.UpdatedAt), s.UpdatedAtPrison,
		s.Reference, expected)
	if isUniqueViolation(err) {
		return schedule.AlreadyExistsError{Kind: s.Kind, PersonID: s.PersonID}
	}
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current int
	err = tx.QueryRowContext(ctx, r.dialect.Rebind("SELECT version FROM schedules WHERE reference = ?"), s.Reference).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(s.Kind, s.PersonID)
	}
	if err != nil {
		return fmt.Errorf("failed to read schedule version: %w", err)
	}
	return fmt.Errorf("schedule %s at version %d, expected %d: %w", s.Reference, current, expected, schedule.ErrVersionConflict)
}

func (r *ScheduleRepository) appendHistory(ctx context.Context, tx *sql.Tx, s schedule.Schedule, trigger schedule.Trigger) error {
	args := append(scheduleArgs(s), string(trigger))
	_, err := tx.ExecContext(ctx, r.dialect.Rebind(
		"INSERT INTO schedule_history ("+scheduleColumns+", triggered_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		args...)
	if err != nil {
		return fmt.Errorf("failed to record schedule history: %w", err)
	}
	return nil
}

func scheduleArgs(s schedule.Schedule) []any {
	return []any{
		s.Reference, string(s.Kind), s.PersonID, string(s.CalculationRule), string(s.Status),
		formatDate(s.DeadlineDate), formatDate(s.Window.From), formatDate(s.Window.To),
		s.ExemptionReason, s.Version,
		s.CreatedBy, formatTime(s.CreatedAt), s.CreatedAtPrison,
		s.UpdatedBy, formatTime(s.UpdatedAt), s.UpdatedAtPrison,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSchedule reads scheduleColumns followed by any extra destinations.
func scanSchedule(row scanner, extra ...any) (*schedule.Schedule, error) {
	var (
		s                              schedule.Schedule
		kind, rule, status             string
		deadline, windowFrom, windowTo string
		createdAt, updatedAt           string
	)
	dest := []any{
		&s.Reference, &kind, &s.PersonID, &rule, &status, &deadline, &windowFrom, &windowTo,
		&s.ExemptionReason, &s.Version, &s.CreatedBy, &createdAt, &s.CreatedAtPrison,
		&s.UpdatedBy, &updatedAt, &s.UpdatedAtPrison,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	s.Kind = schedule.Kind(kind)
	s.CalculationRule = schedule.CalculationRule(rule)
	s.Status = schedule.Status(status)

	var err error
	if s.DeadlineDate, err = parseDate(deadline); err != nil {
		return nil, fmt.Errorf("schedule %s deadline: %w", s.Reference, err)
	}
	if s.Window.From, err = parseDate(windowFrom); err != nil {
		return nil, fmt.Errorf("schedule %s window: %w", s.Reference, err)
	}
	if s.Window.To, err = parseDate(windowTo); err != nil {
		return nil, fmt.Errorf("schedule %s window: %w", s.Reference, err)
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("schedule %s created_at: %w", s.Reference, err)
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("schedule %s updated_at: %w", s.Reference, err)
	}
	return &s, nil
}

func notFound(kind schedule.Kind, personID string) error {
	entity := schedule.EntityInductionSchedule
	if kind == schedule.KindReview {
		entity = schedule.EntityReviewSchedule
	}
	return schedule.NotFoundError{Entity: entity, PersonID: personID}
}

var _ secondary.ScheduleRepository = (*ScheduleRepository)(nil)
