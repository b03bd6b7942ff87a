package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/yard/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// AccountsRegister creates an account from the command line.
func (r *Runner) AccountsRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	secret, err := r.readPassword(cmd)
	if err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	account, err := s.CreateAccount(ctx, username, secret)
	if errors.Is(err, shared.ErrDuplicateKey) {
		return fmt.Errorf("username %q already exists: %w", shared.NormalizeUsername(username), err)
	}
	if err != nil {
		return err
	}

	return r.writePlain("✓ Account %s created\n", account.Username())
}

// AccountsVerify checks a credential pair without starting a session.
func (r *Runner) AccountsVerify(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	secret, err := r.readPassword(cmd)
	if err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	account, err := s.FindAccount(ctx, username, secret)
	if err != nil {
		return err
	}
	if account == nil {
		return shared.ErrInvalidCredentials
	}

	return r.writePlain("✓ Credentials valid for %s\n", account.Username())
}

// readPassword returns --password, or prompts for one. Terminals read without echo; other input is read up to the
// first newline.
func (r *Runner) readPassword(cmd *cli.Command) (string, error) {
	if p := cmd.String("password"); p != "" {
		return p, nil
	}

	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.writePlain("Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
