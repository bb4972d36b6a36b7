package wizard

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/selection"
	"github.com/m3usift/m3usift/internal/services"
	"github.com/m3usift/m3usift/internal/shared"
	tu "github.com/m3usift/m3usift/internal/testing"
)

const samplePlaylist = "#EXTM3U\n" +
	"#EXTINF:-1 tvg-id=\"bbc\" group-title=\"News\",BBC News\n" +
	"http://host/1.ts\n"

func testSession(t *testing.T, svc services.Service) *Session {
	t.Helper()
	return NewSession(SessionOpts{
		Service: svc,
		Logger:  shared.NewLogger(io.Discard),
		TempDir: t.TempDir(),
	})
}

func testRecords() []catalog.Record {
	return []catalog.Record{
		{ID: "10", Name: "BBC", Type: "live"},
		{ID: "20", Name: "Movie X", Type: "vod"},
	}
}

func testCreds() services.Credentials {
	return services.Credentials{URL: "http://iptv.example.net", Username: "alice", Password: "secret"}
}

// toResult drives a session through fetch and generation.
func toResult(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Fetch(context.Background(), testCreds()); err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}
	if err := s.Generate(context.Background()); err != nil {
		t.Fatalf("failed to generate: %v", err)
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession(SessionOpts{})
	defer s.Close()

	if s.Step() != StepCredentials {
		t.Errorf("expected credentials step, got %s", s.Step())
	}
	if s.Busy() {
		t.Error("new session should not be busy")
	}
	if s.Catalog() != nil || s.Selection() != nil {
		t.Error("new session should hold no catalog")
	}
}

func TestStepString(t *testing.T) {
	tc := []struct {
		step Step
		want string
	}{
		{StepCredentials, "credentials"},
		{StepSelecting, "selecting"},
		{StepResult, "result"},
		{Step(99), "unknown"},
	}

	for _, tt := range tc {
		if got := tt.step.String(); got != tt.want {
			t.Errorf("Step(%d).String() = %q, want %q", tt.step, got, tt.want)
		}
	}
}

func TestSessionFetch(t *testing.T) {
	t.Run("validates before calling the backend", func(t *testing.T) {
		mock := &tu.MockService{}
		s := testSession(t, mock)

		err := s.Fetch(context.Background(), services.Credentials{URL: "http://iptv.example.net"})
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !errors.Is(err, shared.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
		if mock.CategoriesCalls != 0 {
			t.Errorf("backend should not be called, got %d calls", mock.CategoriesCalls)
		}
		if s.Step() != StepCredentials {
			t.Errorf("expected to stay on credentials, got %s", s.Step())
		}
	})

	t.Run("trims credentials before the call", func(t *testing.T) {
		mock := &tu.MockService{
			CategoriesFunc: func(_ context.Context, creds services.Credentials, _ bool) ([]catalog.Record, error) {
				if creds.Username != "alice" {
					t.Errorf("expected trimmed username, got %q", creds.Username)
				}
				return testRecords(), nil
			},
		}
		s := testSession(t, mock)

		raw := services.Credentials{URL: " http://iptv.example.net ", Username: " alice ", Password: "secret"}
		if err := s.Fetch(context.Background(), raw); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if s.Credentials().Username != "alice" {
			t.Errorf("expected stored credentials trimmed, got %q", s.Credentials().Username)
		}
	})

	t.Run("moves to selecting on success", func(t *testing.T) {
		mock := &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return testRecords(), nil
			},
		}
		s := testSession(t, mock)

		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if s.Step() != StepSelecting {
			t.Errorf("expected selecting step, got %s", s.Step())
		}
		if s.Catalog().Len() != 2 {
			t.Errorf("expected 2 categories, got %d", s.Catalog().Len())
		}
		if s.Selection().Count() != 0 {
			t.Errorf("expected fresh empty selection, got %d", s.Selection().Count())
		}
		if s.Busy() {
			t.Error("session should not be busy after finish")
		}
	})

	t.Run("stays on credentials on failure", func(t *testing.T) {
		mock := &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return nil, &services.BackendError{Status: 401, Message: "Invalid username or password"}
			},
		}
		s := testSession(t, mock)

		err := s.Fetch(context.Background(), testCreds())
		if err == nil {
			t.Fatal("expected fetch error")
		}
		if got := services.ErrorMessage(err); got != "Invalid username or password" {
			t.Errorf("expected backend message, got %q", got)
		}
		if s.Step() != StepCredentials {
			t.Errorf("expected to stay on credentials, got %s", s.Step())
		}
		if s.Catalog() != nil {
			t.Error("failed fetch should not install a catalog")
		}
	})

	t.Run("refetch replaces the catalog and resets the selection", func(t *testing.T) {
		records := testRecords()
		mock := &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return records, nil
			},
		}
		s := testSession(t, mock)

		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if err := s.Selection().Toggle("10"); err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}

		s.Back()
		records = []catalog.Record{{ID: "30", Name: "Radio", Type: "live"}}
		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to refetch: %v", err)
		}

		if s.Catalog().Len() != 1 || !s.Catalog().Has("30") {
			t.Errorf("expected replaced catalog, got %d categories", s.Catalog().Len())
		}
		if s.Selection().Count() != 0 {
			t.Errorf("selection should reset with the catalog, got %d", s.Selection().Count())
		}
	})

	t.Run("forwards the vod toggle", func(t *testing.T) {
		var saw bool
		mock := &tu.MockService{
			CategoriesFunc: func(_ context.Context, _ services.Credentials, includeVOD bool) ([]catalog.Record, error) {
				saw = includeVOD
				return testRecords(), nil
			},
		}
		s := testSession(t, mock)
		s.SetIncludeVOD(true)

		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if !saw {
			t.Error("expected includeVOD to reach the backend")
		}
	})
}

func TestSessionGenerate(t *testing.T) {
	t.Run("requires the selecting step", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})

		err := s.Generate(context.Background())
		if !errors.Is(err, shared.ErrInvalidStep) {
			t.Errorf("expected ErrInvalidStep, got %v", err)
		}
	})

	t.Run("moves to result holding the artifact", func(t *testing.T) {
		mock := &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return testRecords(), nil
			},
			PlaylistFunc: func(context.Context, services.Credentials, bool, selection.Filter) (*services.Payload, error) {
				return &services.Payload{Filename: services.PlaylistFilename, Data: []byte(samplePlaylist)}, nil
			},
		}
		s := testSession(t, mock)
		toResult(t, s)

		if s.Step() != StepResult {
			t.Fatalf("expected result step, got %s", s.Step())
		}

		artifact := s.Artifact()
		if artifact == nil {
			t.Fatal("expected an artifact")
		}
		if artifact.Size() != int64(len(samplePlaylist)) {
			t.Errorf("expected size %d, got %d", len(samplePlaylist), artifact.Size())
		}
		if artifact.Tracks() != 1 || artifact.Groups() != 1 {
			t.Errorf("expected 1 track in 1 group, got %d/%d", artifact.Tracks(), artifact.Groups())
		}
		tu.AssertFileExists(t, artifact.Path())
	})

	t.Run("sends the selection as a name filter", func(t *testing.T) {
		var gotFilter selection.Filter
		mock := &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return testRecords(), nil
			},
			PlaylistFunc: func(_ context.Context, _ services.Credentials, _ bool, filter selection.Filter) (*services.Payload, error) {
				gotFilter = filter
				return &services.Payload{Filename: services.PlaylistFilename, Data: []byte(samplePlaylist)}, nil
			},
		}
		s := testSession(t, mock)

		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if err := s.Selection().Toggle("10"); err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}
		if err := s.Generate(context.Background()); err != nil {
			t.Fatalf("failed to generate: %v", err)
		}

		if gotFilter.Mode != selection.ModeExclude {
			t.Errorf("expected exclude mode, got %s", gotFilter.Mode)
		}
		if len(gotFilter.Groups) != 1 || gotFilter.Groups[0] != "BBC" {
			t.Errorf("expected groups [BBC], got %v", gotFilter.Groups)
		}
	})

	t.Run("stays on selecting on failure", func(t *testing.T) {
		mock := &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return testRecords(), nil
			},
			PlaylistFunc: func(context.Context, services.Credentials, bool, selection.Filter) (*services.Payload, error) {
				return nil, &services.BackendError{Status: 502, Message: "upstream provider timed out"}
			},
		}
		s := testSession(t, mock)

		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		err := s.Generate(context.Background())
		if err == nil {
			t.Fatal("expected generation error")
		}
		if s.Step() != StepSelecting {
			t.Errorf("expected to stay on selecting, got %s", s.Step())
		}
		if s.Artifact() != nil {
			t.Error("failed generation should not leave an artifact")
		}
		if s.Catalog() == nil || s.Selection() == nil {
			t.Error("failure should not corrupt the catalog or selection")
		}
	})

	t.Run("regeneration releases the previous artifact", func(t *testing.T) {
		s := testSession(t, &tu.MockService{
			PlaylistFunc: func(context.Context, services.Credentials, bool, selection.Filter) (*services.Payload, error) {
				return &services.Payload{Filename: services.PlaylistFilename, Data: []byte(samplePlaylist)}, nil
			},
		})
		toResult(t, s)
		first := s.Artifact().Path()

		s.Back()
		if err := s.Generate(context.Background()); err != nil {
			t.Fatalf("failed to regenerate: %v", err)
		}

		if s.Artifact().Path() == first {
			t.Error("expected a fresh artifact file")
		}
		if _, err := os.Stat(first); !os.IsNotExist(err) {
			t.Errorf("expected previous artifact to be removed, stat err %v", err)
		}
		tu.AssertFileExists(t, s.Artifact().Path())
	})
}

func TestSessionGuide(t *testing.T) {
	t.Run("requires the result step", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})

		err := s.DownloadGuide(context.Background())
		if !errors.Is(err, shared.ErrInvalidStep) {
			t.Errorf("expected ErrInvalidStep, got %v", err)
		}
	})

	t.Run("stores the guide alongside the playlist", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})
		toResult(t, s)

		if err := s.DownloadGuide(context.Background()); err != nil {
			t.Fatalf("failed to download guide: %v", err)
		}

		if s.Guide() == nil {
			t.Fatal("expected a guide artifact")
		}
		if s.Artifact() == nil {
			t.Error("guide download should not displace the playlist")
		}
		tu.AssertFileExists(t, s.Guide().Path())
	})
}

func TestStaleCompletions(t *testing.T) {
	t.Run("completion after cancel is dropped", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})

		ticket, _, err := s.BeginCategories(testCreds())
		if err != nil {
			t.Fatalf("failed to begin: %v", err)
		}
		s.Cancel()

		applied, err := s.FinishCategories(ticket, testRecords(), nil)
		if applied {
			t.Error("stale completion should not be applied")
		}
		if err != nil {
			t.Errorf("stale completion should be silent, got %v", err)
		}
		if s.Step() != StepCredentials {
			t.Errorf("expected to stay on credentials, got %s", s.Step())
		}
		if s.Catalog() != nil {
			t.Error("stale completion must not install a catalog")
		}
	})

	t.Run("completion after navigation is dropped", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})
		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		ticket, _, err := s.BeginPlaylist()
		if err != nil {
			t.Fatalf("failed to begin: %v", err)
		}
		s.Back()

		payload := &services.Payload{Filename: services.PlaylistFilename, Data: []byte(samplePlaylist)}
		applied, _ := s.FinishPlaylist(ticket, payload, nil)
		if applied {
			t.Error("completion from before navigation should be dropped")
		}
		if s.Artifact() != nil {
			t.Error("dropped completion must not leave an artifact")
		}
	})

	t.Run("only the newest ticket wins", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})

		stale, _, err := s.BeginCategories(testCreds())
		if err != nil {
			t.Fatalf("failed to begin: %v", err)
		}
		s.Cancel()

		fresh, _, err := s.BeginCategories(testCreds())
		if err != nil {
			t.Fatalf("failed to begin again: %v", err)
		}

		if applied, _ := s.FinishCategories(stale, testRecords(), nil); applied {
			t.Error("older ticket should lose to the newer request")
		}
		if applied, _ := s.FinishCategories(fresh, testRecords(), nil); !applied {
			t.Error("current ticket should be applied")
		}
		if s.Step() != StepSelecting {
			t.Errorf("expected selecting step, got %s", s.Step())
		}
	})
}

func TestBusyGuard(t *testing.T) {
	s := testSession(t, &tu.MockService{})

	ticket, _, err := s.BeginCategories(testCreds())
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}

	if _, _, err := s.BeginCategories(testCreds()); !errors.Is(err, shared.ErrBusy) {
		t.Errorf("expected ErrBusy for re-entry, got %v", err)
	}

	if _, err := s.FinishCategories(ticket, testRecords(), nil); err != nil {
		t.Fatalf("failed to finish: %v", err)
	}
	if s.Busy() {
		t.Error("session should not be busy after finish")
	}

	if _, _, err := s.BeginPlaylist(); err != nil {
		t.Errorf("next request should be allowed after finish, got %v", err)
	}
}

func TestNavigation(t *testing.T) {
	t.Run("back keeps credentials and selection", func(t *testing.T) {
		s := testSession(t, &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return testRecords(), nil
			},
		})
		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if err := s.Selection().Toggle("10"); err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}

		s.Back()

		if s.Step() != StepCredentials {
			t.Errorf("expected credentials step, got %s", s.Step())
		}
		if s.Credentials() != testCreds() {
			t.Error("back should keep the credentials")
		}
		if s.Catalog() == nil || s.Selection().Count() != 1 {
			t.Error("back should keep the catalog and selection")
		}
	})

	t.Run("back from result keeps the artifact", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})
		toResult(t, s)

		s.Back()

		if s.Step() != StepSelecting {
			t.Errorf("expected selecting step, got %s", s.Step())
		}
		if s.Artifact() == nil {
			t.Fatal("artifact should survive going back one step")
		}
		tu.AssertFileExists(t, s.Artifact().Path())
	})

	t.Run("re-entering credentials releases artifacts", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})
		toResult(t, s)
		path := s.Artifact().Path()

		s.Back()
		s.Back()

		if s.Step() != StepCredentials {
			t.Errorf("expected credentials step, got %s", s.Step())
		}
		if s.Artifact() != nil {
			t.Error("artifact should be released on re-entering credentials")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected artifact file removed, stat err %v", err)
		}
	})

	t.Run("use other credentials keeps the catalog", func(t *testing.T) {
		s := testSession(t, &tu.MockService{
			CategoriesFunc: func(context.Context, services.Credentials, bool) ([]catalog.Record, error) {
				return testRecords(), nil
			},
		})
		if err := s.Fetch(context.Background(), testCreds()); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		if err := s.Selection().Toggle("10"); err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}

		s.UseOtherCredentials()

		if s.Step() != StepCredentials {
			t.Errorf("expected credentials step, got %s", s.Step())
		}
		if s.Credentials() != (services.Credentials{}) {
			t.Error("credentials should be cleared")
		}
		if s.Catalog() == nil || s.Selection().Count() != 1 {
			t.Error("catalog and selection should be retained")
		}
	})

	t.Run("start over discards everything", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})
		s.SetIncludeVOD(true)
		toResult(t, s)
		path := s.Artifact().Path()

		s.StartOver()

		if s.Step() != StepCredentials {
			t.Errorf("expected credentials step, got %s", s.Step())
		}
		if s.Credentials() != (services.Credentials{}) {
			t.Error("credentials should be cleared")
		}
		if s.Catalog() != nil || s.Selection() != nil {
			t.Error("catalog and selection should be discarded")
		}
		if s.IncludeVOD() {
			t.Error("vod toggle should reset")
		}
		if s.Artifact() != nil {
			t.Error("artifact reference should be dropped")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("expected artifact file removed, stat err %v", err)
		}
	})
}

func TestSaveArtifacts(t *testing.T) {
	t.Run("save without an artifact fails", func(t *testing.T) {
		s := testSession(t, &tu.MockService{})

		if err := s.SavePlaylist("out.m3u"); !errors.Is(err, shared.ErrNoArtifact) {
			t.Errorf("expected ErrNoArtifact, got %v", err)
		}
		if err := s.SaveGuide("out.xml"); !errors.Is(err, shared.ErrNoArtifact) {
			t.Errorf("expected ErrNoArtifact, got %v", err)
		}
	})

	t.Run("save playlist copies the artifact", func(t *testing.T) {
		s := testSession(t, &tu.MockService{
			PlaylistFunc: func(context.Context, services.Credentials, bool, selection.Filter) (*services.Payload, error) {
				return &services.Payload{Filename: services.PlaylistFilename, Data: []byte(samplePlaylist)}, nil
			},
		})
		toResult(t, s)

		dest := filepath.Join(t.TempDir(), "exports", "list.m3u")
		if err := s.SavePlaylist(dest); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		if got := tu.MustReadFile(t, dest); got != samplePlaylist {
			t.Errorf("saved playlist differs from payload")
		}
	})
}
