package db

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{"sqlite unchanged", DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"no placeholders", DialectPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.Rebind(tt.query); got != tt.want {
				t.Errorf("Rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"", DialectSQLite, false},
		{"sqlite3", DialectSQLite, false},
		{"Postgres", DialectPostgres, false},
		{"pgx", DialectPostgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	applied, err := Migrate(ctx, conn, DialectSQLite, logger)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if applied != len(migrations) {
		t.Errorf("applied = %d, want %d", applied, len(migrations))
	}

	applied, err = Migrate(ctx, conn, DialectSQLite, logger)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if applied != 0 {
		t.Errorf("second run applied = %d, want 0", applied)
	}

	v, err := CurrentVersion(ctx, conn)
	if err != nil {
		t.Fatalf("CurrentVersion() error = %v", err)
	}
	if v != LatestVersion() {
		t.Errorf("version = %d, want %d", v, LatestVersion())
	}

	for _, table := range []string{"schedules", "schedule_history", "inductions", "action_plans", "goals"} {
		var n int
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&n); err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestMigrate_EnforcesOneActiveSchedule(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.ExecContext(ctx, GetSchemaSQL()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	insert := `INSERT INTO schedules (reference, kind, person_id, calculation_rule, status, version, created_by, created_at, updated_by, updated_at)
		VALUES (?, 'review', 'A1234BC', 'RULE', ?, 1, 'system', '2026-03-02T09:30:00Z', 'system', '2026-03-02T09:30:00Z')`
	if _, err := conn.ExecContext(ctx, insert, "REV-1", "COMPLETE"); err != nil {
		t.Fatalf("insert completed: %v", err)
	}
	if _, err := conn.ExecContext(ctx, insert, "REV-2", "SCHEDULED"); err != nil {
		t.Fatalf("insert active: %v", err)
	}
	_, err = conn.ExecContext(ctx, insert, "REV-3", "EXEMPT_UNKNOWN")
	if err == nil || !strings.Contains(err.Error(), "UNIQUE") {
		t.Errorf("second active insert error = %v, want unique violation", err)
	}
}
