// Package report imports news-report export files (CSV or JSON) into
// the store. Rich-text bodies are converted to markdown and rows
// already seen, by external ID, are skipped.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quadroapp/quadro-server/internal/domain"
	apperrors "github.com/quadroapp/quadro-server/internal/errors"
	"github.com/quadroapp/quadro-server/internal/id"
	"github.com/quadroapp/quadro-server/internal/store"
)

// importConcurrency bounds parallel row inserts per file.
const importConcurrency = 4

// ReportStore is the slice of the store the importer needs.
type ReportStore interface {
	CreateReport(ctx context.Context, report *domain.Report) error
}

// Importer parses export files into report rows.
type Importer struct {
	store  ReportStore
	logger *slog.Logger
}

// NewImporter creates an importer.
func NewImporter(st ReportStore, logger *slog.Logger) *Importer {
	return &Importer{store: st, logger: logger}
}

// row is one record from an export file. JSON exports are arrays of
// these; CSV exports map columns by header name.
type row struct {
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	PublishedAt string `json:"published_at"`
	Body        string `json:"body"`
}

// ImportFile parses the file at path and inserts its rows. Rows whose
// external ID was already imported count as skipped; malformed rows
// are recorded in the result's Errors without failing the run.
func (i *Importer) ImportFile(ctx context.Context, importerID, path string) (*domain.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	var rows []row
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = parseCSV(f)
	case ".json":
		rows, err = parseJSON(f)
	default:
		return nil, apperrors.Validationf("unsupported export format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	result := &domain.ImportResult{SourceFile: filepath.Base(path)}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(importConcurrency)

	for n, r := range rows {
		eg.Go(func() error {
			report, buildErr := i.buildReport(importerID, result.SourceFile, r)
			if buildErr != nil {
				mu.Lock()
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", n+1, buildErr))
				mu.Unlock()
				return nil
			}

			createErr := i.store.CreateReport(egCtx, report)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case createErr == nil:
				result.Imported++
			case errors.Is(createErr, store.ErrAlreadyExists):
				result.Skipped++
			default:
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", n+1, createErr))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	i.logger.Info("report import finished",
		"file", result.SourceFile,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (i *Importer) buildReport(importerID, sourceFile string, r row) (*domain.Report, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, errors.New("missing title")
	}

	publishedAt, err := parsePublishedAt(r.PublishedAt)
	if err != nil {
		return nil, err
	}

	return &domain.Report{
		ID:          id.MustGenerate("rpt"),
		CreatedAt:   time.Now().UTC(),
		PublishedAt: publishedAt,
		ImporterID:  importerID,
		ExternalID:  strings.TrimSpace(r.ExternalID),
		Title:       strings.TrimSpace(r.Title),
		Author:      strings.TrimSpace(r.Author),
		Category:    strings.TrimSpace(r.Category),
		Body:        htmlToMarkdown(r.Body),
		SourceFile:  sourceFile,
	}, nil
}

// publishedAtFormats are tried in order; export tools disagree on
// timestamp formats.
var publishedAtFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePublishedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, format := range publishedAtFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable published_at %q", s)
}

// parseCSV reads a header-first CSV export, mapping columns by name so
// column order doesn't matter.
func parseCSV(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var rows []row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{
			ExternalID:  field(record, "external_id"),
			Title:       field(record, "title"),
			Author:      field(record, "author"),
			Category:    field(record, "category"),
			PublishedAt: field(record, "published_at"),
			Body:        field(record, "body"),
		})
	}
	return rows, nil
}

func parseJSON(r io.Reader) ([]row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
