package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/gradebook/apps/shared"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	db := testutil.PrepareDB(t)
	svcs := shared.NewServices(core.NewTestConfig(), db)
	out := new(bytes.Buffer)

	return &commandLine{
		db:     db,
		accSvc: svcs.Accounts,
		grdSvc: svcs.Grades,
		out:    out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkRunErr(t *testing.T, err error, tt cliTest) {
	t.Helper()

	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			checkRunErr(t, cli.run(args), tt)
			if !strings.Contains(out.String(), "Usage:") {
				t.Errorf("usage not printed, got %q", out.String())
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	migrateFunc = func(_ context.Context, _ *sqlx.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, cli.run(args), tt)
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "mary"}, wantErr: errHelp},
		{name: "created", args: []string{"adduser", "-username", "mary"}, extra: extra{pwd: "pw1"}},
		{name: "username taken", args: []string{"adduser", "-username", "mary"}, extra: extra{pwd: "pw2"}, wantErr: account.ErrUsernameExists},
		{name: "any non blank username", args: []string{"adduser", "-username", "Mr. Smith"}, extra: extra{pwd: "x"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkRunErr(t, cli.run(args), tt)
		})
	}

	// the first password is kept
	_, ok, err := cli.accSvc.Verify(context.Background(), "mary", "pw1")
	if err != nil || !ok {
		t.Errorf("Verify(mary, pw1) = %v, %v; want true, nil", ok, err)
	}

	out.Reset()
	if err = cli.run([]string{"admin", "users"}); err != nil {
		t.Fatalf("cli.run(users) error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "Mr. Smith") || !strings.Contains(lines[1], "mary") {
		t.Errorf("cli.run(users) output = %q", out.String())
	}
}

func Test_commandLine_export(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	for _, nr := range []grade.NewRecord{
		testutil.NewRecord("S001", "Math", grade.Quarter1, grade.Scores{Test1: 8, Test2: 7, Test3: 9, Final: 15}),
		testutil.NewRecord("S002", "Science", grade.Quarter1, grade.Scores{Test1: 5, Test2: 5, Test3: 5, Final: 10}),
	} {
		if _, err := cli.grdSvc.Upsert(ctx, nr, "mary"); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	if _, err := cli.grdSvc.Upsert(ctx, testutil.NewRecord("S003", "Math", grade.Quarter1, grade.Scores{}), "john"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	dir := t.TempDir()
	tests := []cliTest{
		{name: "no args", args: []string{"export"}, wantErr: errHelp},
		{name: "no output", args: []string{"export", "-owner", "mary"}, wantErr: errHelp},
		{name: "all", args: []string{"export", "-owner", "mary", "-out", filepath.Join(dir, "all.xlsx")}, extra: 2},
		{name: "filtered", args: []string{"export", "-owner", "mary", "-subject", "Math", "-out", filepath.Join(dir, "math.xlsx")}, extra: 1},
		{name: "with photos", args: []string{"export", "-owner", "mary", "-photos", "-out", filepath.Join(dir, "photos.xlsx")}, extra: 2},
		{name: "unknown owner", args: []string{"export", "-owner", "nobody", "-out", filepath.Join(dir, "none.xlsx")}, extra: 0},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			checkRunErr(t, err, tt)
			if err != nil {
				return
			}

			want := tt.extra.(int)
			f, err := excelize.OpenFile(args[len(args)-1])
			if err != nil {
				t.Fatalf("OpenFile() error = %v", err)
			}
			defer func() { _ = f.Close() }()

			rows, err := f.GetRows("Grades")
			if err != nil {
				t.Fatalf("GetRows() error = %v", err)
			}
			if len(rows) != want+1 {
				t.Errorf("exported %d row(s), want %d", len(rows)-1, want)
			}
			if !strings.HasPrefix(out.String(), fmt.Sprintf("%d record(s) exported", want)) {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}
