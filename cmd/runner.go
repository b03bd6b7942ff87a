package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/password"
	"github.com/desertthunder/yard/internal/shared"
	"github.com/desertthunder/yard/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	browser    func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Browser    func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Browser == nil {
		opts.Browser = openBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		browser:    opts.Browser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, accountsCommand, containersCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// loadConfig reads the file named by --config when it exists, then applies YARD_* overrides and validates.
//
// Without a file the runner keeps its current configuration (defaults unless one was injected).
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			config, err := shared.LoadConfig(path)
			if err != nil {
				return err
			}
			r.config = config
			r.configPath = path
		case errors.Is(err, fs.ErrNotExist):
			r.logger.Debug("config file not found, using defaults", "path", path)
		default:
			return fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	if err := r.config.ApplyEnv(); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}
	return shared.SetLogLevelString(r.logger, r.config.Log.Level)
}

// newHasher builds the credential hasher described by the [auth] section.
func (r *Runner) newHasher() (password.Hasher, error) {
	cfg := r.config.Auth
	hasher, err := password.New(password.Options{
		Algorithm: cfg.Hasher,
		Argon2: password.Config{
			Memory:      cfg.Argon2Memory,
			Time:        cfg.Argon2Time,
			Parallelism: cfg.Argon2Threads,
		},
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure hasher: %w", err)
	}
	return hasher, nil
}

// openStore opens and migrates the configured database and wraps it in an [store.EntityStore].
// The caller closes the returned database.
func (r *Runner) openStore(ctx context.Context) (*store.EntityStore, *sql.DB, error) {
	cfg := r.config

	r.logger.Debug("opening database", "driver", cfg.Database.Driver)
	db, err := shared.OpenConfigured(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	hasher, err := r.newHasher()
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	s, err := store.New(db, cfg.Database.Driver, hasher, store.Options{
		Grid:           models.Grid{Rows: cfg.Yard.Rows, Cols: cfg.Yard.Cols},
		EnforceBounds:  cfg.Yard.EnforceBounds,
		ExclusiveSlots: cfg.Yard.ExclusiveSlots,
		Logger:         r.logger,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create store: %w", err)
	}

	return s, db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
