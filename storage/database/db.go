package database

import (
	"context"
	"io"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/fs"
)

const (
	driverName      = "sqlite3"
	migrationsDir   = "migrations"
	defaultDBPath   = "gradebook.db"
	maxPingAttempts = 30
)

// dsn builds the go-sqlite3 connection string.
// Transactions start with BEGIN IMMEDIATE so that concurrent upserts serialize on the write lock
// instead of failing with SQLITE_BUSY on lock upgrade.
func dsn(conf *core.Config) string {
	path := conf.Database.Path
	if path == "" {
		path = defaultDBPath
	}

	q := make(url.Values)
	q.Set("_foreign_keys", "on")
	q.Set("_journal_mode", "WAL")
	q.Set("_txlock", "immediate")
	if conf.Database.BusyTimeout > 0 {
		q.Set("_busy_timeout", strconv.FormatInt(conf.Database.BusyTimeout.Milliseconds(), 10))
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens (creating it if needed) the SQLite database file and waits for it to be usable.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn(conf))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if conf.Database.MaxOpenConn > 0 {
		db.SetMaxOpenConns(conf.Database.MaxOpenConn)
	}

	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	for attempts := 1; attempts <= maxPingAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func init() {
	goose.SetBaseFS(appfs.FS)
	goose.SetLogger(goose.NopLogger())
}

// LogMigrationsTo makes goose report migration progress to w instead of staying silent.
func LogMigrationsTo(w io.Writer) {
	goose.SetLogger(log.New(w, "", 0))
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return RunMigrations(ctx, db, "up")
}

// RunMigrations runs a goose command (up, down, status, version, redo, ...) against the embedded migrations.
func RunMigrations(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	if err := goose.SetDialect(driverName); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := goose.RunContext(ctx, command, db.DB, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations (%s)", command)
	}
	return nil
}
