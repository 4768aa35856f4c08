// Package sqlxrepos implements the core repositories on SQLite with sqlx & squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// selectAll runs the query built by b and scans every row into dest (a pointer to a slice of structs).
func selectAll(ctx context.Context, exec core.DBExecutor, b sq.SelectBuilder, dest interface{}) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return trapFatal(err)
	}
	return sqlx.StructScan(rows, dest) // closes rows
}

// selectStrings runs the single column query built by b, skipping NULL & empty values.
func selectStrings(ctx context.Context, exec core.DBExecutor, b sq.SelectBuilder) ([]string, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, trapFatal(err)
	}
	defer func() { _ = rows.Close() }()

	vals := make([]string, 0)
	for rows.Next() {
		var val sql.NullString
		if err = rows.Scan(&val); err != nil {
			return nil, err
		}
		if val.Valid && val.String != "" {
			vals = append(vals, val.String)
		}
	}
	return vals, rows.Err()
}

// insertNamed binds arg into the named query, runs it and returns the id of the inserted row.
func insertNamed(ctx context.Context, exec core.DBExecutor, query string, arg interface{}) (int, error) {
	query, args, err := sqlx.Named(query, arg)
	if err != nil {
		return 0, errors.Wrap(err, "binding query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, trapFatal(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "reading inserted id")
	}
	return int(id), nil
}

// trapFatal turns the errors of a database file that cannot be used anymore into shutdown errors.
func trapFatal(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB, sqlite3.ErrReadonly:
			return core.NewShutdownError("database unusable: " + sqliteErr.Error())
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func orderBy(ordering []core.DBOrdering, columns map[string]string, tieBreaker string) []string {
	clauses := make([]string, 0, len(ordering)+1)
	seen := make(map[string]bool, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if !seen[tieBreaker] {
		clauses = append(clauses, tieBreaker+" ASC")
	}
	return clauses
}
