package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
)

const accountsTable = "accounts"

var accountColumns = []string{"id", "username", "password_hash", "created_at"}

type accountRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

type accountRepository struct {
	baseRepository
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(exec core.DBExecutor) *accountRepository {
	return &accountRepository{baseRepository{exec: exec}}
}

func (repo accountRepository) toRow(acc account.Account) accountRow {
	return accountRow{
		ID:           acc.ID,
		Username:     acc.Username,
		PasswordHash: acc.PasswordHash,
		CreatedAt:    acc.CreatedAt.UTC(),
	}
}

func (repo accountRepository) fromRow(row accountRow) account.Account {
	return account.Account{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
	}
}

func (repo accountRepository) CheckUsernameUniqueness(ctx context.Context, username string, exec ...core.DBExecutor) error {
	query, args, err := sq.Select("1").From(accountsTable).Where(sq.Eq{"username": username}).Limit(1).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var one int
	err = repo.getExec(exec).QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return errors.Wrap(err, "checking username uniqueness")
	}
	return account.ErrUsernameExists
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	row := repo.toRow(acc)
	id, err := insertNamed(
		ctx, repo.getExec(exec),
		`INSERT INTO accounts (username, password_hash, created_at) VALUES (:username, :password_hash, :created_at)`,
		row,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrUsernameExists
		}
		return account.Account{}, errors.Wrap(err, "inserting account")
	}
	row.ID = id
	return repo.fromRow(row), nil
}

func (repo accountRepository) GetAccountByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (account.Account, error) {
	var rows []accountRow
	b := sq.Select(accountColumns...).From(accountsTable).Where(sq.Eq{"username": username}).Limit(1)
	if err := selectAll(ctx, repo.getExec(exec), b, &rows); err != nil {
		return account.Account{}, errors.Wrap(err, "finding account by username")
	}
	if len(rows) == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.fromRow(rows[0]), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context, exec ...core.DBExecutor) ([]account.Account, error) {
	var rows []accountRow
	b := sq.Select(accountColumns...).From(accountsTable).OrderBy("username ASC")
	if err := selectAll(ctx, repo.getExec(exec), b, &rows); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accs := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accs = append(accs, repo.fromRow(row))
	}
	return accs, nil
}
