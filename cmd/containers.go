package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/yard/internal/formatter"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
	"github.com/desertthunder/yard/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ContainersList prints every container in the requested format, or writes it to --output.
func (r *Runner) ContainersList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	containers, err := s.ListContainers(ctx)
	if err != nil {
		return err
	}
	views := models.Views(containers)

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(path, format, views); err != nil {
			return err
		}
		r.logger.Info("exported containers", "count", len(views), "path", path, "format", format)
		return r.writePlain("✓ Exported %d container(s) to %s\n", len(views), path)
	}

	data, err := formatter.Export(format, views, cmd.Bool("pretty"))
	if err != nil {
		return err
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if format == formatter.FormatJSON {
		return r.writePlain("\n")
	}
	return nil
}

// ContainersAdd places a container from flags.
func (r *Runner) ContainersAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := s.CreateContainer(ctx, models.ContainerFields{
		Number:      cmd.String("number"),
		Origin:      cmd.String("origin"),
		Destination: cmd.String("destination"),
		RowPos:      cmd.Int("row"),
		ColPos:      cmd.Int("col"),
		Owner:       cmd.String("owner"),
	})
	if err != nil {
		return err
	}

	return r.writePlain("✓ Container %s placed at row %d, column %d\n", c.Number(), c.RowPos(), c.ColPos())
}

// ContainersSearch looks up a container by number.
func (r *Runner) ContainersSearch(ctx context.Context, cmd *cli.Command) error {
	number := strings.TrimSpace(cmd.StringArg("number"))
	if number == "" {
		return fmt.Errorf("%w: number", shared.ErrMissingArgument)
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := s.FindContainerByNumber(ctx, number)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if c == nil {
			return r.writeJSON(nil, false)
		}
		return r.writeJSON(c.View(), true)
	}

	if c == nil {
		return r.writePlain("No container found with number %q\n", number)
	}

	r.writePlainHeader("Container " + c.Number())
	r.writePlain("Origin:      %s\n", c.Origin())
	r.writePlain("Destination: %s\n", c.Destination())
	r.writePlain("Position:    row %d, column %d\n", c.RowPos(), c.ColPos())
	return r.writePlain("Owner:       %s\n", c.Owner())
}

// ContainersGrid prints yard occupancy.
func (r *Runner) ContainersGrid(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	containers, err := s.ListContainers(ctx)
	if err != nil {
		return err
	}

	grid := s.Grid()
	r.writePlainHeader(fmt.Sprintf("Yard %dx%d", grid.Rows, grid.Cols))
	r.writePlain("%s", formatter.RenderGrid(grid.Layout(containers)))
	return r.writePlain("%d container(s)\n", len(containers))
}

// ContainersImport places every container listed in a CSV file and reports the rows that failed.
func (r *Runner) ContainersImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	rows, err := formatter.ParseCSV(f)
	if err != nil {
		return err
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	s, db, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	result, err := tasks.NewImporter(s, r.logger).Import(ctx, prog, rows, tasks.ImportOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Imported %d of %d container(s)\n", result.Imported, result.TotalRows)
	for _, fail := range result.Failures() {
		r.writePlain("  ✗ line %d (%s): %v\n", fail.Line, fail.Number, fail.Error)
	}
	return nil
}
