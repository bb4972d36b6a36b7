// package tasks implements bulk operations against the playlist backend.
//
// The core abstraction is SyncEngine, which regenerates playlists for saved
// accounts using each account's remembered filter. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/services"
)

// HistoryStore is the slice of generation persistence the sync engine
// needs: the newest generation per account going in, new records going
// out. [repositories.GenerationRepository] satisfies it.
type HistoryStore interface {
	// Latest retrieves the newest generation recorded for an account.
	Latest(accountID string) (*models.Generation, error)

	// Create inserts a new generation record.
	Create(generation *models.Generation) error
}

// SyncEngine regenerates playlists for saved accounts.
// Contains dependencies on the backend service and generation history.
type SyncEngine struct {
	svc     services.Service
	history HistoryStore
}

// NewSyncEngine creates a new SyncEngine. A nil history store is
// allowed; accounts then sync unfiltered and leave no records.
func NewSyncEngine(svc services.Service, history HistoryStore) *SyncEngine {
	return &SyncEngine{
		svc:     svc,
		history: history,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
