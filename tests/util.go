package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/storage/database"
)

// PrepareDB opens a freshly migrated database in a temporary directory, closed on test cleanup.
func PrepareDB(t *testing.T, conf ...*core.Config) *sqlx.DB {
	t.Helper()

	cfg := core.NewTestConfig()
	if len(conf) > 0 && conf[0] != nil {
		c := *conf[0]
		cfg = &c
	}
	cfg.Database.Path = filepath.Join(t.TempDir(), "gradebook_test.db")

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateAccount(t *testing.T, repo account.Repository, uname, pwd string, createdAt ...time.Time) account.Account {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	acc := account.Account{
		Username:  uname,
		CreatedAt: tstamp,
	}
	if err := acc.SetPassword(pwd); err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	acc, err := repo.CreateAccount(context.Background(), acc)
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}

// CreateRecord inserts rec as is; the total is computed when missing.
func CreateRecord(t *testing.T, repo grade.Repository, rec grade.Record) grade.Record {
	t.Helper()

	if rec.TotalScore == 0 {
		rec.TotalScore = rec.Scores.Total()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec, err := repo.CreateRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateRecord() failed: %v", err)
	}
	return rec
}

// NewRecord returns a valid NewRecord of student for subject in the given quarter of 2024-2025.
func NewRecord(student, subject, quarter string, scores grade.Scores) grade.NewRecord {
	return grade.NewRecord{
		StudentID:   student,
		ClassNo:     "1",
		StudentName: "Student " + student,
		GradeLevel:  "Grade 7",
		Room:        "A",
		Subject:     subject,
		Quarter:     quarter,
		SchoolYear:  "2024-2025",
		Scores:      scores,
	}
}
