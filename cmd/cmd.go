// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/yard/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles database and configuration initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the config file if missing, then run database migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupStatus,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand starts the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the yard web application",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the application in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// accountsCommand handles account management
func accountsCommand(r *Runner) *cli.Command {
	passwordFlag := &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Password (prompted without echo when omitted)",
	}

	return &cli.Command{
		Name:    "accounts",
		Aliases: []string{"account"},
		Usage:   "Manage user accounts",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags:  []cli.Flag{configFlag(), passwordFlag},
				Action: r.AccountsRegister,
			},
			{
				Name:  "verify",
				Usage: "Check a username and password pair",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags:  []cli.Flag{configFlag(), passwordFlag},
				Action: r.AccountsVerify,
			},
		},
	}
}

// containersCommand handles container records
func containersCommand(r *Runner) *cli.Command {
	formats := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		formats[i] = string(f)
	}

	return &cli.Command{
		Name:    "containers",
		Aliases: []string{"ctr"},
		Usage:   "List, add, and search containers",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all containers",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (" + strings.Join(formats, ", ") + ")",
						Value:   string(formatter.FormatTable),
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the export to a file instead of stdout",
					},
				},
				Action: r.ContainersList,
			},
			{
				Name:  "add",
				Usage: "Place a container in the yard",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "number", Usage: "Container number", Required: true},
					&cli.StringFlag{Name: "origin", Usage: "Port of origin", Required: true},
					&cli.StringFlag{Name: "destination", Usage: "Destination port", Required: true},
					&cli.IntFlag{Name: "row", Usage: "Yard row (1-based)", Required: true},
					&cli.IntFlag{Name: "col", Usage: "Yard column (1-based)", Required: true},
					&cli.StringFlag{Name: "owner", Usage: "Owner of the container", Required: true},
				},
				Action: r.ContainersAdd,
			},
			{
				Name:  "search",
				Usage: "Find a container by number",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "number"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ContainersSearch,
			},
			{
				Name:  "import",
				Usage: "Place containers in bulk from a CSV file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent workers",
						Value:   4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Rows per second (0 for unlimited)",
					},
				},
				Action: r.ContainersImport,
			},
			{
				Name:   "grid",
				Usage:  "Print yard occupancy",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ContainersGrid,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for browsing the yard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive yard viewer",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
