// Package sqldb_test contains integration tests for the database/sql
// repositories, run against in-memory SQLite built from the migrations.
package sqldb_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/db"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.Open(context.Background(), db.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})
	return testDB
}

func newReview(reference, personID string) schedule.Schedule {
	s := schedule.New(schedule.KindReview, reference, personID, calculation.ReviewBetween12And60MonthsToServe,
		schedule.Audit{Actor: "system", PrisonID: "BXI", At: testNow})
	s.Window = schedule.Window{From: schedule.Day(testNow), To: schedule.Day(testNow).AddDate(0, 0, 10)}
	return s
}

func newInduction(reference, personID string) schedule.Schedule {
	s := schedule.New(schedule.KindInduction, reference, personID, calculation.InductionNewPrisonAdmission,
		schedule.Audit{Actor: "system", PrisonID: "BXI", At: testNow})
	s.DeadlineDate = schedule.Day(testNow).AddDate(0, 0, 20)
	return s
}
