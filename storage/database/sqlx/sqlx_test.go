package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/storage/database/sqlx"
	"github.com/trezcool/gradebook/tests"
)

func TestAccountRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewAccountRepository(db)
	ctx := context.Background()

	createdAt := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	mary := testutil.CreateAccount(t, repo, "mary", "pw1", createdAt)

	assert.Equal(t, account.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "mary"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "Mary"), "usernames are case sensitive")

	_, err := repo.CreateAccount(ctx, account.Account{Username: "mary", PasswordHash: []byte("x"), CreatedAt: createdAt})
	assert.Equal(t, account.ErrUsernameExists, errors.Cause(err))

	got, err := repo.GetAccountByUsername(ctx, "mary")
	require.NoError(t, err)
	assert.Equal(t, mary.ID, got.ID)
	assert.Equal(t, mary.PasswordHash, got.PasswordHash)
	assert.True(t, createdAt.Equal(got.CreatedAt), "created_at = %v", got.CreatedAt)

	_, err = repo.GetAccountByUsername(ctx, "john")
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
}

func TestGradeRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewGradeRepository(db)
	ctx := context.Background()

	rec := testutil.CreateRecord(t, repo, grade.Record{
		StudentID: "S001", StudentName: "Ann", Subject: "Math", Quarter: grade.Quarter1, SchoolYear: "2024-2025",
		Scores: grade.Scores{Test1: 7, Test2: 8, Test3: 9, Final: 15}, RecordedBy: "mary", Photo: []byte{0xff, 0xd8},
	})

	byKey, err := repo.GetRecordByKey(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byKey.ID)
	assert.Equal(t, 39.0, byKey.TotalScore)
	assert.True(t, byKey.HasPhoto)
	assert.Empty(t, byKey.ClassNo)

	_, err = repo.GetRecordByKey(ctx, grade.Key{StudentID: "S001", Subject: "Math", Quarter: grade.Quarter1})
	assert.Equal(t, grade.ErrNotFound, errors.Cause(err), "school year is part of the key")

	// the natural key is enforced by the store too
	dup := rec
	dup.RecordedBy = "john"
	_, err = repo.CreateRecord(ctx, dup)
	assert.Error(t, err)

	n, err := repo.DeleteRecordsByID(ctx, []int{rec.ID, rec.ID + 1})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.DeleteRecordsByID(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.GetRecordByID(ctx, rec.ID)
	assert.Equal(t, grade.ErrNotFound, errors.Cause(err))
}

func TestGradeRepository_inTx(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewGradeRepository(db)
	ctx := context.Background()

	rec := grade.Record{
		StudentID: "S001", StudentName: "Ann", Subject: "Math", Quarter: grade.Quarter1,
		RecordedBy: "mary", CreatedAt: time.Now().UTC(),
	}
	err := core.RunInTx(ctx, db, func(tx core.DBExecutor) error {
		if _, err := repo.CreateRecord(ctx, rec, tx); err != nil {
			return err
		}
		return errors.New("rollback")
	})
	require.Error(t, err)

	recs, err := repo.QueryRecords(ctx, "mary", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, recs, "rolled back")
}
