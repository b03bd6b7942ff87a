package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueueRows Phase = iota
	ImportRow
)

func (p Phase) String() string {
	switch p {
	case QueueRows:
		return "queue_rows"
	case ImportRow:
		return "import_row"
	default:
		return ""
	}
}

func queueRowsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QueueRows,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Queued %d row(s) for import", total),
	}
}

func rowImportedUpdate(step, total int, res RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRow,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Placed %s at row %d, column %d", res.Number, res.RowPos, res.ColPos),
		Data:    res,
	}
}

func rowFailedUpdate(step, total int, res RowResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportRow,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Line %d failed: %v", res.Line, res.Error),
		Data:    res,
	}
}
