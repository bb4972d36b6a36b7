package tasks

import "fmt"

// ProgressUpdate represents a progress event during a bulk sync.
type ProgressUpdate struct {
	Phase   Phase
	Step    int
	Total   int
	Message string
	Data    any
}

// Phase identifies which stage of a sync run an update belongs to.
type Phase int

const (
	SyncStart Phase = iota
	GeneratePlaylist
	AccountComplete
	AccountFailed
)

func (p Phase) String() string {
	switch p {
	case SyncStart:
		return "sync_start"
	case GeneratePlaylist:
		return "generate_playlist"
	case AccountComplete:
		return "account_complete"
	case AccountFailed:
		return "account_failed"
	default:
		return "unknown"
	}
}

func syncStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncStart,
		Total:   total,
		Message: fmt.Sprintf("Syncing %d accounts...", total),
	}
}

func generateUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GeneratePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Generating: %s", step, total, name),
	}
}

func accountCompleteUpdate(step, total int, name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AccountComplete,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, name, tracks),
		Data:    tracks,
	}
}

func accountFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AccountFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
