package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/schoolconnect/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store *session.Store
	auth  *session.Authenticator
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  signin -email EMAIL - sign in on this device; the password will be prompted next")
	fmt.Fprintln(cli.out, "  signout - forget the session of this device")
	fmt.Fprintln(cli.out, "  whoami - show the signed-in user")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	signInCmd := flag.NewFlagSet("signin", flag.ContinueOnError)
	signInCmd.SetOutput(cli.out)
	signInEmail := signInCmd.String("email", "", "The account's email.")

	if err := cli.store.Load(ctx); err != nil {
		return err
	}

	switch args[1] {
	case "signin":
		if err := signInCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *signInEmail == "" {
			signInCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		return cli.signIn(ctx, *signInEmail, string(pwd))

	case "signout":
		return cli.signOut(ctx)

	case "whoami":
		cli.whoAmI()
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) signIn(ctx context.Context, email, pwd string) error {
	usr, err := cli.auth.SignIn(ctx, email, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Signed in as %s (%s)\n", usr.Name, usr.Role)
	return nil
}

func (cli *commandLine) signOut(ctx context.Context) error {
	if !cli.store.IsSignedIn() {
		fmt.Fprintln(cli.out, "Not signed in")
		return nil
	}
	if err := cli.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Signed out")
	return nil
}

func (cli *commandLine) whoAmI() {
	usr, ok := cli.store.User()
	if !ok {
		fmt.Fprintln(cli.out, "Not signed in")
		return
	}
	fmt.Fprintf(cli.out, "%s <%s> (%s)\n", usr.Name, usr.Email, usr.Role)
}
