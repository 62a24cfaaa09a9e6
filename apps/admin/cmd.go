package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	openDB func() (*sql.DB, error)
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the database")
	fmt.Fprintln(cli.out, "  hashpassword [-confirm] - print the bcrypt hash of a password, for DEMOPASSWORDHASH")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	hashPasswordCmd := flag.NewFlagSet("hashpassword", flag.ContinueOnError)
	hashPasswordCmd.SetOutput(cli.out)
	confirm := hashPasswordCmd.Bool("confirm", false, "Prompt for the password twice.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		db, err := cli.openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return cli.migrate(db, args[2:])

	case "hashpassword":
		if err := hashPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			hashPasswordCmd.Usage()
			return errHelp
		}
		if *confirm {
			again, err := cli.readPassword("Confirm password:")
			if err != nil {
				return err
			}
			if again != pwd {
				return errPasswordMismatch
			}
		}
		return cli.hashPassword(pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	return string(pwd), err
}
