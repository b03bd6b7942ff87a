package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yard/internal/formatter"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 4
	maxWorkers     = 10
)

// Creator is the part of the entity store an import writes through.
type Creator interface {
	CreateContainer(ctx context.Context, fields models.ContainerFields) (*models.Container, error)
}

// ImportOpts tunes a bulk import.
type ImportOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Rows per second; zero or less means unlimited
}

// RowResult is the outcome for one input row.
type RowResult struct {
	Line    int
	Number  string
	RowPos  int
	ColPos  int
	Success bool
	Error   error
}

// ImportResult summarizes a bulk import. Results are ordered by line.
type ImportResult struct {
	TotalRows int
	Imported  int
	Failed    int
	Results   []RowResult
}

// Failures returns the rows that were not stored.
func (r *ImportResult) Failures() []RowResult {
	var out []RowResult
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Importer places containers in bulk.
type Importer struct {
	store  Creator
	logger *log.Logger
}

// NewImporter creates an [Importer] writing to store.
func NewImporter(store Creator, logger *log.Logger) *Importer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Importer{store: store, logger: logger.With("component", "import")}
}

// Import stores every row that parsed, using a worker pool.
//
// Rows that failed to parse are reported without touching the store. When ctx is cancelled, rows not yet started are
// dropped and the partial result is returned with the context error.
func (i *Importer) Import(ctx context.Context, prog chan<- ProgressUpdate, rows []formatter.CSVRow, opts ImportOpts) (*ImportResult, error) {
	if i.store == nil {
		return nil, fmt.Errorf("%w: import has no store", shared.ErrInvalidArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	result := &ImportResult{
		TotalRows: len(rows),
		Results:   make([]RowResult, 0, len(rows)),
	}

	completed := 0
	record := func(res RowResult) {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Imported++
			sendProgress(prog, rowImportedUpdate(completed, len(rows), res))
		} else {
			result.Failed++
			sendProgress(prog, rowFailedUpdate(completed, len(rows), res))
		}
	}

	sendProgress(prog, queueRowsUpdate(len(rows)))

	valid := make([]formatter.CSVRow, 0, len(rows))
	for _, row := range rows {
		if row.Err != nil {
			record(failedRow(row, row.Err))
			continue
		}
		valid = append(valid, row)
	}

	// Only workers send on results, so it can be closed once they return.
	jobs := make(chan formatter.CSVRow, len(valid))
	results := make(chan RowResult, len(valid))

	var wg sync.WaitGroup
	for w := 0; w < opts.NumWorkers; w++ {
		wg.Add(1)
		go i.importWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, row := range valid {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- row
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		record(res)
	}

	sort.Slice(result.Results, func(a, b int) bool { return result.Results[a].Line < result.Results[b].Line })
	i.logger.Info("import finished", "rows", result.TotalRows, "imported", result.Imported, "failed", result.Failed)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import interrupted: %w", err)
	}
	return result, nil
}

// importWorker stores rows from the jobs channel until it is drained or ctx is done.
func (i *Importer) importWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan formatter.CSVRow,
	results chan<- RowResult,
) {
	defer wg.Done()

	for row := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c, err := i.store.CreateContainer(ctx, row.Fields)
		if err != nil {
			i.logger.Debug("row rejected", "line", row.Line, "number", row.Fields.Number, "error", err)
			results <- failedRow(row, err)
			continue
		}

		results <- RowResult{
			Line:    row.Line,
			Number:  c.Number(),
			RowPos:  c.RowPos(),
			ColPos:  c.ColPos(),
			Success: true,
		}
	}
}

func failedRow(row formatter.CSVRow, err error) RowResult {
	return RowResult{
		Line:   row.Line,
		Number: row.Fields.Number,
		RowPos: row.Fields.RowPos,
		ColPos: row.Fields.ColPos,
		Error:  err,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
