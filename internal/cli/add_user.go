package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/readsync/internal/auth"
	"github.com/mrlokans/readsync/internal/config"
	"github.com/mrlokans/readsync/internal/database"
	"github.com/mrlokans/readsync/internal/database/users"
)

// AddUserCommand creates a reader account, or resets its password with
// -replace.
type AddUserCommand struct {
	Username     string
	Password     string
	DatabasePath string
	Replace      bool

	// Config overrides the environment-loaded configuration.
	Config *config.Config
	Out    io.Writer
}

func NewAddUserCommand() *AddUserCommand {
	return &AddUserCommand{Out: os.Stdout}
}

func (cmd *AddUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Account name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Account password (required)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (defaults to DATABASE_PATH)")
	fs.BoolVar(&cmd.Replace, "replace", false, "Reset the password if the account already exists")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s add-user -username <name> -password <secret> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account that can log in from a reader device.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *AddUserCommand) Run() error {
	cfg := cmd.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if cmd.DatabasePath != "" {
		cfg.Database.Path = cmd.DatabasePath
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	svc := auth.NewService(users.NewRepository(db.DB), nil, cfg.Auth.BcryptCost, cfg.Sync.Compat)

	_, err = svc.CreateUser(cmd.Username, cmd.Password)
	switch {
	case err == nil:
		fmt.Fprintf(cmd.Out, "Created user %s\n", cmd.Username)
		return nil
	case errors.Is(err, auth.ErrUserExists) && cmd.Replace:
		if err := svc.ResetPassword(cmd.Username, cmd.Password); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}
		fmt.Fprintf(cmd.Out, "Reset password for user %s\n", cmd.Username)
		return nil
	case errors.Is(err, auth.ErrUserExists):
		return fmt.Errorf("user %s already exists (use -replace to reset the password)", cmd.Username)
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}
