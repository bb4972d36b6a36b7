package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/shared"
	tu "github.com/m3usift/m3usift/internal/testing"
)

func testStore() *catalog.Store {
	return catalog.Load([]catalog.Record{
		{ID: "1", Name: "News", Type: "live"},
		{ID: "2", Name: "Sports", Type: "live"},
		{ID: "10", Name: "Movies", Type: "vod"},
		{ID: "20", Name: "Crime Drama", Type: "series"},
	})
}

func TestRenderers(t *testing.T) {
	t.Run("CatalogToCSV", func(t *testing.T) {
		data, err := CatalogToCSV(testStore())
		if err != nil {
			t.Fatalf("CatalogToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "ID,Name,Type") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,News,live") {
			t.Errorf("CSV missing live row, got: %s", output)
		}
		if !strings.Contains(output, "10,Movies,vod") {
			t.Errorf("CSV missing vod row")
		}
		if !strings.Contains(output, "20,Crime Drama,series") {
			t.Errorf("CSV missing series row")
		}

		// Rows follow the backend order, after the header.
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 5 {
			t.Fatalf("expected 5 CSV lines, got %d", len(lines))
		}
		if lines[1] != "1,News,live" {
			t.Errorf("first row = %q, want the first backend record", lines[1])
		}
	})

	t.Run("CatalogToJSON", func(t *testing.T) {
		data, err := CatalogToJSON(testStore(), true)
		if err != nil {
			t.Fatalf("CatalogToJSON failed: %v", err)
		}

		var document struct {
			Total  int            `json:"total"`
			Counts map[string]int `json:"counts"`
			Categories []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"categories"`
		}
		if err := json.Unmarshal(data, &document); err != nil {
			t.Fatalf("failed to parse JSON output: %v", err)
		}

		if document.Total != 4 {
			t.Errorf("total = %d, want 4", document.Total)
		}
		if document.Counts["live"] != 2 || document.Counts["vod"] != 1 || document.Counts["series"] != 1 {
			t.Errorf("counts = %v, want live:2 vod:1 series:1", document.Counts)
		}
		if len(document.Categories) != 4 {
			t.Fatalf("categories = %d, want 4", len(document.Categories))
		}
		if document.Categories[0].Name != "News" || document.Categories[0].Type != "live" {
			t.Errorf("first category = %+v, want News/live", document.Categories[0])
		}

		// Pretty output is indented.
		if !strings.Contains(string(data), "\n  ") {
			t.Errorf("pretty JSON should be indented")
		}
	})

	t.Run("CatalogToMarkdown", func(t *testing.T) {
		data, err := CatalogToMarkdown(testStore())
		if err != nil {
			t.Fatalf("CatalogToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Categories") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Total**: 4") {
			t.Errorf("Markdown missing total")
		}
		if !strings.Contains(output, "## Live TV (2)") {
			t.Errorf("Markdown missing live section heading, got: %s", output)
		}
		if !strings.Contains(output, "## VOD (1)") {
			t.Errorf("Markdown missing vod section heading")
		}
		if !strings.Contains(output, "1. News (id 1)") {
			t.Errorf("Markdown missing live entry")
		}
		if !strings.Contains(output, "1. Movies (id 10)") {
			t.Errorf("Markdown entries should be numbered per section")
		}
	})

	t.Run("CatalogToMarkdown omits empty sections", func(t *testing.T) {
		store := catalog.Load([]catalog.Record{{ID: "1", Name: "News", Type: "live"}})
		data, err := CatalogToMarkdown(store)
		if err != nil {
			t.Fatalf("CatalogToMarkdown failed: %v", err)
		}

		if strings.Contains(string(data), "## VOD") {
			t.Errorf("empty vod section should be omitted, got: %s", data)
		}
		if strings.Contains(string(data), "## Series") {
			t.Errorf("empty series section should be omitted")
		}
	})

	t.Run("CatalogToText", func(t *testing.T) {
		data, err := CatalogToText(testStore())
		if err != nil {
			t.Fatalf("CatalogToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Categories: 4") {
			t.Errorf("Text missing total")
		}
		if !strings.Contains(output, "Live TV (2):") {
			t.Errorf("Text missing live section, got: %s", output)
		}
		if !strings.Contains(output, "  1. News (id 1)") {
			t.Errorf("Text missing live entry")
		}
		if !strings.Contains(output, "Series (1):") {
			t.Errorf("Text missing series section")
		}
	})
}

func TestRenderCatalog(t *testing.T) {
	store := testStore()

	tc := []struct {
		name     string
		format   string
		contains string
	}{
		{"text default", "", "Categories: 4"},
		{"text", "text", "Categories: 4"},
		{"txt alias", "txt", "Categories: 4"},
		{"csv", "csv", "ID,Name,Type"},
		{"json", "json", "\"total\": 4"},
		{"markdown", "markdown", "# Categories"},
		{"md alias", "md", "# Categories"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			data, err := RenderCatalog(store, tt.format)
			if err != nil {
				t.Fatalf("RenderCatalog(%q) failed: %v", tt.format, err)
			}
			if !strings.Contains(string(data), tt.contains) {
				t.Errorf("RenderCatalog(%q) missing %q, got: %s", tt.format, tt.contains, data)
			}
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		_, err := RenderCatalog(store, "yaml")
		if err == nil {
			t.Fatal("expected error for unsupported format")
		}
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestWriteCatalogExport(t *testing.T) {
	t.Run("writes named path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cats.csv")

		written, err := WriteCatalogExport(testStore(), "csv", path)
		if err != nil {
			t.Fatalf("WriteCatalogExport failed: %v", err)
		}
		if written != path {
			t.Errorf("written path = %s, want %s", written, path)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "ID,Name,Type") {
			t.Errorf("export file missing CSV content")
		}
	})

	t.Run("defaults filename from format", func(t *testing.T) {
		t.Chdir(t.TempDir())

		written, err := WriteCatalogExport(testStore(), "markdown", "")
		if err != nil {
			t.Fatalf("WriteCatalogExport failed: %v", err)
		}
		if written != "categories.md" {
			t.Errorf("default path = %s, want categories.md", written)
		}
		tu.AssertFileExists(t, written)
	})

	t.Run("propagates render errors", func(t *testing.T) {
		if _, err := WriteCatalogExport(testStore(), "yaml", ""); err == nil {
			t.Fatal("expected error for unsupported format")
		}
	})
}
