package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase (0 when unknown)
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PageFetch Phase = iota
	RangeRefresh
	WatchStream
	DeleteSubmit
	SnapshotExportPhase
)

func (p Phase) String() string {
	switch p {
	case PageFetch:
		return "page_fetch"
	case RangeRefresh:
		return "range_refresh"
	case WatchStream:
		return "watch_stream"
	case DeleteSubmit:
		return "delete_submit"
	case SnapshotExportPhase:
		return "snapshot_export"
	default:
		return ""
	}
}

func pageFetchUpdate(offset, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PageFetch,
		Step:    offset + count,
		Message: fmt.Sprintf("Fetched %d images at offset %d", count, offset),
	}
}

func refreshUpdate(offset, known int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RangeRefresh,
		Step:    offset,
		Total:   known,
		Message: fmt.Sprintf("Refreshing listing (offset %d of %d known)...", offset, known),
	}
}

func watchUpdate(message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WatchStream,
		Message: message,
	}
}

func deleteSubmitUpdate(requested, rejected int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteSubmit,
		Step:    requested - rejected,
		Total:   requested,
		Message: fmt.Sprintf("Deletion accepted for %d of %d images", requested-rejected, requested),
	}
}

func snapshotUpdate(fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SnapshotExportPhase,
		Step:    fetched,
		Message: fmt.Sprintf("Collected %d images...", fetched),
	}
}
