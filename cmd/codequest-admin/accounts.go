package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/codequest/codequest-web/internal/adapters/passwords"
	"github.com/codequest/codequest-web/internal/data"
	"github.com/codequest/codequest-web/internal/domain/model"
	"github.com/codequest/codequest-web/internal/service"
)

const defaultCommandTimeout = 30 * time.Second

type createAdminOptions struct {
	Username      string
	Email         string
	PasswordStdin bool
}

type adminCreator interface {
	CreateAdmin(ctx context.Context, req model.RegisterRequest) (*model.Admin, error)
}

func runCreateAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAdminFlags(args, cmdCtx.Err)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		accounts := service.NewAccountService(service.AccountServiceOptions{
			Users:  data.NewUserRepo(db),
			Admins: data.NewAdminRepo(db),
			Hasher: passwords.NewBcryptHasher(bcrypt.DefaultCost),
			Logger: cmdCtx.Logger,
		})
		return createAdmin(ctx, cmdCtx, accounts, opts)
	})
}

func createAdmin(ctx context.Context, cmdCtx *commandContext, accounts adminCreator, opts createAdminOptions) error {
	if !opts.PasswordStdin {
		if err := writef(cmdCtx.Err, "Password for %s: ", opts.Username); err != nil {
			return fmt.Errorf("print password prompt: %w", err)
		}
	}
	password, err := readLine(cmdCtx.In)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	admin, err := accounts.CreateAdmin(ctx, model.RegisterRequest{
		Username: opts.Username,
		Email:    opts.Email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	cmdCtx.Logger.InfoContext(ctx, "admin account created", "admin_id", admin.ID, "username", admin.Username)
	return writef(cmdCtx.Out, "created admin %s (id %d)\n", admin.Username, admin.ID)
}

func parseCreateAdminFlags(args []string, stderr io.Writer) (createAdminOptions, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := createAdminOptions{}
	fs.StringVar(&opts.Username, "username", "", "Login name for the new administrator (required)")
	fs.StringVar(&opts.Email, "email", "", "Contact email for the new administrator (required)")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin without prompting")

	if err := fs.Parse(args); err != nil {
		return createAdminOptions{}, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Username == "" || opts.Email == "" {
		return createAdminOptions{}, errors.New("--username and --email are required")
	}
	return opts, nil
}
