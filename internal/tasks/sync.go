package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jamesnetherton/m3u"
	"golang.org/x/time/rate"

	"github.com/m3usift/m3usift/internal/models"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
)

// SyncOpts contains configuration for bulk account syncs.
type SyncOpts struct {
	OutputDir  string  // Base output directory (default: m3usift_sync_{timestamp})
	NumWorkers int     // Number of concurrent workers (default: 3)
	RateLimit  float64 // Backend requests per second (default: 2)
	WithGuide  bool    // Also download each account's XMLTV guide
}

// AccountSyncJob represents one account queued for regeneration.
type AccountSyncJob struct {
	Account *models.Account
	Step    int
}

// AccountSyncResult represents the outcome of syncing a single account.
type AccountSyncResult struct {
	AccountID    string
	AccountName  string
	Success      bool
	Tracks       int
	Groups       int
	PlaylistFile string
	GuideFile    string
	Error        error
}

// SyncResult contains the summary of a bulk sync operation.
type SyncResult struct {
	TotalAccounts   int
	SuccessfulSyncs int
	FailedSyncs     int
	OutputDirectory string
	ManifestPath    string
	Results         []AccountSyncResult
}

// Sync regenerates playlists for the given accounts using a worker pool.
// Each account is synced with the filter from its newest recorded
// generation; accounts with no history sync unfiltered. Outputs land in
// opts.OutputDir alongside a JSON manifest describing the run.
func (e *SyncEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, accounts []*models.Account, opts SyncOpts) (*SyncResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("m3usift_sync_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &SyncResult{
		TotalAccounts:   len(accounts),
		OutputDirectory: opts.OutputDir,
		Results:         make([]AccountSyncResult, 0, len(accounts)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan AccountSyncJob, len(accounts))
	results := make(chan AccountSyncResult, len(accounts))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.syncWorker(ctx, &wg, jobs, results, limiter, opts)
	}

	go func() {
		defer close(jobs)

		e.sendProgress(progress, syncStartUpdate(len(accounts)))

		for i, account := range accounts {
			select {
			case <-ctx.Done():
				return
			default:
			}

			e.sendProgress(progress, generateUpdate(i+1, len(accounts), account.Name()))
			jobs <- AccountSyncJob{Account: account, Step: i + 1}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulSyncs++
			e.sendProgress(progress, accountCompleteUpdate(completed, len(accounts), res.AccountName, res.Tracks))
		} else {
			result.FailedSyncs++
			e.sendProgress(progress, accountFailedUpdate(completed, len(accounts), res.AccountName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "sync_manifest.json")
	if err := e.writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("sync completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	return result, nil
}

// syncWorker processes account jobs from the jobs channel.
func (e *SyncEngine) syncWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan AccountSyncJob, results chan<- AccountSyncResult, limiter *rate.Limiter, opts SyncOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.syncAccount(ctx, job, limiter, opts)
	}
}

// syncAccount regenerates one account's playlist and, optionally, its
// guide. The filter comes from the account's newest generation.
func (e *SyncEngine) syncAccount(ctx context.Context, job AccountSyncJob, limiter *rate.Limiter, opts SyncOpts) AccountSyncResult {
	account := job.Account
	result := AccountSyncResult{
		AccountID:   account.ID(),
		AccountName: account.Name(),
	}

	creds := services.Credentials{
		URL:      account.Portal(),
		Username: account.Username(),
		Password: account.Password(),
	}
	filter, includeVOD := e.lastFilter(account)

	if err := limiter.Wait(ctx); err != nil {
		result.Error = err
		return result
	}

	payload, err := e.svc.Playlist(ctx, creds, includeVOD, filter)
	if err != nil {
		result.Error = fmt.Errorf("failed to generate playlist: %w", err)
		return result
	}

	playlistPath := filepath.Join(opts.OutputDir, sanitizeName(account.Name())+".m3u")
	if err := os.WriteFile(playlistPath, payload.Data, 0644); err != nil {
		result.Error = fmt.Errorf("failed to write playlist: %w", err)
		return result
	}
	result.PlaylistFile = playlistPath
	result.Tracks, result.Groups = summarizePlaylist(playlistPath)
	result.Success = true

	if opts.WithGuide {
		if err := limiter.Wait(ctx); err != nil {
			return result
		}
		if guide, err := e.svc.Guide(ctx, creds); err == nil {
			guidePath := filepath.Join(opts.OutputDir, sanitizeName(account.Name())+".xml")
			if err := os.WriteFile(guidePath, guide.Data, 0644); err == nil {
				result.GuideFile = guidePath
			}
		}
	}

	if e.history != nil {
		record := models.NewGeneration(0, account.ID(), string(filter.Mode), filter.Groups, includeVOD)
		record.SetCounts(result.Tracks, result.Groups)
		record.SetSize(int64(len(payload.Data)))
		record.SetPath(playlistPath)

		// History is best effort during bulk runs.
		_ = e.history.Create(record)
	}

	return result
}

// lastFilter reconstructs the filter from the account's newest
// generation. Accounts with no history sync unfiltered with the
// account's own VOD preference.
func (e *SyncEngine) lastFilter(account *models.Account) (selection.Filter, bool) {
	if e.history == nil {
		return selection.Filter{Mode: selection.ModeExclude}, account.IncludeVOD()
	}

	latest, err := e.history.Latest(account.ID())
	if err != nil {
		return selection.Filter{Mode: selection.ModeExclude}, account.IncludeVOD()
	}

	mode := selection.ModeExclude
	if latest.Mode() == string(selection.ModeInclude) {
		mode = selection.ModeInclude
	}

	return selection.Filter{Mode: mode, Groups: latest.Groups()}, latest.IncludeVOD()
}

// writeManifest records the run summary as pretty JSON next to the outputs.
func (e *SyncEngine) writeManifest(result *SyncResult, path string) error {
	type entry struct {
		AccountID    string `json:"account_id"`
		AccountName  string `json:"account_name"`
		Success      bool   `json:"success"`
		Tracks       int    `json:"tracks,omitempty"`
		Groups       int    `json:"groups,omitempty"`
		PlaylistFile string `json:"playlist_file,omitempty"`
		GuideFile    string `json:"guide_file,omitempty"`
		Error        string `json:"error,omitempty"`
	}

	manifest := struct {
		GeneratedAt time.Time `json:"generated_at"`
		Total       int       `json:"total_accounts"`
		Succeeded   int       `json:"succeeded"`
		Failed      int       `json:"failed"`
		Accounts    []entry   `json:"accounts"`
	}{
		GeneratedAt: time.Now(),
		Total:       result.TotalAccounts,
		Succeeded:   result.SuccessfulSyncs,
		Failed:      result.FailedSyncs,
		Accounts:    make([]entry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		item := entry{
			AccountID:    r.AccountID,
			AccountName:  r.AccountName,
			Success:      r.Success,
			Tracks:       r.Tracks,
			Groups:       r.Groups,
			PlaylistFile: r.PlaylistFile,
			GuideFile:    r.GuideFile,
		}
		if r.Error != nil {
			item.Error = r.Error.Error()
		}
		manifest.Accounts = append(manifest.Accounts, item)
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// sanitizeName makes an account name safe to use as a filename.
func sanitizeName(name string) string {
	out := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		case ' ':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	if out == "" {
		return "account"
	}
	return out
}

// summarizePlaylist counts tracks and distinct group titles in a written
// playlist. Returns zeros when the file does not parse as M3U.
func summarizePlaylist(path string) (int, int) {
	playlist, err := m3u.Parse(path)
	if err != nil {
		return 0, 0
	}

	groups := make(map[string]struct{})
	for _, track := range playlist.Tracks {
		for _, tag := range track.Tags {
			if tag.Name == "group-title" {
				groups[tag.Value] = struct{}{}
			}
		}
	}

	return len(playlist.Tracks), len(groups)
}
