// package formatter renders catalog listings in various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/m3usift/m3usift/internal/catalog"
	"github.com/m3usift/m3usift/internal/shared"
)

// Formats lists the supported catalog export formats.
var Formats = []string{"text", "json", "csv", "markdown"}

// RenderCatalog renders the catalog in the named format. An empty
// format falls back to plain text.
func RenderCatalog(store *catalog.Store, format string) ([]byte, error) {
	switch format {
	case "csv":
		return CatalogToCSV(store)
	case "json":
		return CatalogToJSON(store, true)
	case "markdown", "md":
		return CatalogToMarkdown(store)
	case "text", "txt", "":
		return CatalogToText(store)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// CatalogToCSV converts a catalog to CSV format with columns: ID, Name, Type
func CatalogToCSV(store *catalog.Store) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Type"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range store.All() {
		record := []string{c.ID, c.Name, string(c.Type)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

type catalogEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// CatalogToJSON converts a catalog to JSON with per-type counts and the
// categories in original backend order.
func CatalogToJSON(store *catalog.Store, pretty bool) ([]byte, error) {
	counts := store.CountsByType()

	document := struct {
		Total      int            `json:"total"`
		Counts     map[string]int `json:"counts"`
		Categories []catalogEntry `json:"categories"`
	}{
		Total: store.Len(),
		Counts: map[string]int{
			string(catalog.Live):   counts.Live,
			string(catalog.VOD):    counts.VOD,
			string(catalog.Series): counts.Series,
		},
		Categories: make([]catalogEntry, 0, store.Len()),
	}

	for _, c := range store.All() {
		document.Categories = append(document.Categories, catalogEntry{
			ID:   c.ID,
			Name: c.Name,
			Type: string(c.Type),
		})
	}

	return shared.MarshalJSON(document, pretty)
}

// CatalogToMarkdown converts a catalog to Markdown with a section per
// content type. Empty sections are omitted.
func CatalogToMarkdown(store *catalog.Store) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Categories\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", store.Len()))

	for _, t := range catalog.Types {
		section := store.Section(t)
		if len(section) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("## %s (%d)\n\n", t.Label(), len(section)))
		for i, c := range section {
			buf.WriteString(fmt.Sprintf("%d. %s (id %s)\n", i+1, c.Name, c.ID))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// CatalogToText converts a catalog to plain text format
func CatalogToText(store *catalog.Store) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Categories: %d\n", store.Len()))

	for _, t := range catalog.Types {
		section := store.Section(t)
		if len(section) == 0 {
			continue
		}

		buf.WriteString(fmt.Sprintf("\n%s (%d):\n", t.Label(), len(section)))
		for i, c := range section {
			buf.WriteString(fmt.Sprintf("  %d. %s (id %s)\n", i+1, c.Name, c.ID))
		}
	}

	return buf.Bytes(), nil
}

// WriteCatalogExport renders the catalog in the named format and writes
// it to path. Defaults to categories.{ext} in the working directory.
func WriteCatalogExport(store *catalog.Store, format, path string) (string, error) {
	data, err := RenderCatalog(store, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "categories." + extensionFor(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func extensionFor(format string) string {
	switch format {
	case "csv":
		return "csv"
	case "json":
		return "json"
	case "markdown", "md":
		return "md"
	default:
		return "txt"
	}
}
