package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	accSvc *account.Service
	grdSvc *grade.Service
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME - register a teacher account (the password is prompted)")
	fmt.Fprintln(cli.out, "  users - list the teacher accounts")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status, version, redo, ...)")
	fmt.Fprintln(cli.out, "  export -owner USERNAME -out FILE [-photos] [-subject S] [-school-year Y] [-grade-level L] - export grades to XLSX")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserUname := addUserCmd.String("username", "", "The teacher's username. The password will be prompted next.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportCmd.SetOutput(cli.out)
	exportOwner := exportCmd.String("owner", "", "Username of the teacher whose grades are exported.")
	exportOut := exportCmd.String("out", "", "Path of the XLSX file to write.")
	exportPhotos := exportCmd.Bool("photos", false, "Embed the student photos.")
	var exportFilter grade.QueryFilter
	exportCmd.StringVar(&exportFilter.Subject, "subject", "", "Only export this subject.")
	exportCmd.StringVar(&exportFilter.SchoolYear, "school-year", "", "Only export this school year.")
	exportCmd.StringVar(&exportFilter.GradeLevel, "grade-level", "", "Only export this grade level.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, string(pwd))
	case "users":
		return cli.listUsers()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *exportOwner == "" || *exportOut == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(*exportOwner, *exportOut, &exportFilter, *exportPhotos)
	default:
		cli.printUsage()
		return errHelp
	}
}
