package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/noah-isme/sma-adp-web/internal/models"
	"github.com/noah-isme/sma-adp-web/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword // swapped in tests

	errHelp = errors.New("help provided")
)

type userAdmin interface {
	Create(ctx context.Context, req service.CreateUserRequest) (*models.User, error)
	SetPassword(ctx context.Context, username, password string) error
}

type migrateFunc func(ctx context.Context, command string, args ...string) error

type commandLine struct {
	users   userAdmin
	migrate migrateFunc
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                  - run a goose command (up, down, status, redo, ...)")
	fmt.Fprintln(cli.out, "  adduser -username NAME -name FULL_NAME -role ROLE [-email EMAIL] - create an account, password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username NAME                            - reset a user's password")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUsername := addUserCmd.String("username", "", "Login name of the new account.")
	addFullName := addUserCmd.String("name", "", "Full name shown in the application.")
	addRole := addUserCmd.String("role", "", "One of admin, teacher, cashier.")
	addEmail := addUserCmd.String("email", "", "Optional email address.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetUsername := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		if err := cli.migrate(ctx, args[2], args[3:]...); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "migrate %s: done\n", args[2])
		return nil
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUsername == "" || *addFullName == "" || *addRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		user, err := cli.users.Create(ctx, service.CreateUserRequest{
			Username: *addUsername,
			FullName: *addFullName,
			Email:    *addEmail,
			Role:     models.UserRole(*addRole),
			Password: pwd,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %s created with role %s\n", user.Username, user.Role)
		return nil
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetUsername == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if err := cli.users.SetPassword(ctx, *resetUsername, pwd); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "password of %s updated\n", *resetUsername)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin)) //nolint:unconvert
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
