package report

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

// memoryReportStore records created reports and rejects duplicate
// external IDs like the real store does.
type memoryReportStore struct {
	mu      sync.Mutex
	reports []*domain.Report
	seen    map[string]bool
}

func newMemoryReportStore() *memoryReportStore {
	return &memoryReportStore{seen: make(map[string]bool)}
}

func (m *memoryReportStore) CreateReport(_ context.Context, report *domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if report.ExternalID != "" && m.seen[report.ExternalID] {
		return store.ErrAlreadyExists
	}
	m.seen[report.ExternalID] = true
	m.reports = append(m.reports, report)
	return nil
}

func (m *memoryReportStore) byExternalID(externalID string) *domain.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.ExternalID == externalID {
			return r
		}
	}
	return nil
}

func writeExportFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestImporter(st ReportStore) *Importer {
	return NewImporter(st, slog.New(slog.DiscardHandler))
}

func TestImportCSV(t *testing.T) {
	csvContent := `external_id,title,author,category,published_at,body
ext-1,Flood hits downtown,Ana,city,2026-03-01,River crested overnight.
ext-2,Council votes on budget,Rui,politics,2026-03-02 09:30:00,Vote passed 5-2.
`
	path := writeExportFile(t, "export.csv", csvContent)
	st := newMemoryReportStore()

	result, err := newTestImporter(st).ImportFile(context.Background(), "usr_1", path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "export.csv", result.SourceFile)

	first := st.byExternalID("ext-1")
	require.NotNil(t, first)
	assert.Equal(t, "Flood hits downtown", first.Title)
	assert.Equal(t, "Ana", first.Author)
	assert.Equal(t, "usr_1", first.ImporterID)
	assert.Equal(t, "export.csv", first.SourceFile)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), first.PublishedAt)
}

func TestImportCSVReorderedColumns(t *testing.T) {
	csvContent := `title,external_id,body
Storm warning,ext-9,Heavy rain expected.
`
	path := writeExportFile(t, "export.csv", csvContent)
	st := newMemoryReportStore()

	result, err := newTestImporter(st).ImportFile(context.Background(), "usr_1", path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	report := st.byExternalID("ext-9")
	require.NotNil(t, report)
	assert.Equal(t, "Storm warning", report.Title)
}

func TestImportJSON(t *testing.T) {
	jsonContent := `[
		{"external_id": "ext-1", "title": "Airport reopens", "published_at": "2026-04-05T08:00:00Z", "body": "Runway cleared."},
		{"external_id": "ext-2", "title": "School census", "body": "<p>Numbers are <strong>up</strong>.</p>"}
	]`
	path := writeExportFile(t, "export.json", jsonContent)
	st := newMemoryReportStore()

	result, err := newTestImporter(st).ImportFile(context.Background(), "usr_1", path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	second := st.byExternalID("ext-2")
	require.NotNil(t, second)
	assert.Equal(t, "Numbers are **up**.", second.Body)
}

func TestImportSkipsDuplicates(t *testing.T) {
	csvContent := `external_id,title
ext-1,First run
`
	path := writeExportFile(t, "export.csv", csvContent)
	st := newMemoryReportStore()
	importer := newTestImporter(st)

	result, err := importer.ImportFile(context.Background(), "usr_1", path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	result, err = importer.ImportFile(context.Background(), "usr_1", path)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestImportRecordsRowErrors(t *testing.T) {
	csvContent := `external_id,title,published_at
ext-1,,2026-01-01
ext-2,Good row,not-a-date
ext-3,Also good,
`
	path := writeExportFile(t, "export.csv", csvContent)
	st := newMemoryReportStore()

	result, err := newTestImporter(st).ImportFile(context.Background(), "usr_1", path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Len(t, result.Errors, 2)
}

func TestImportUnsupportedExtension(t *testing.T) {
	path := writeExportFile(t, "export.xlsx", "binary junk")

	_, err := newTestImporter(newMemoryReportStore()).ImportFile(context.Background(), "usr_1", path)
	require.Error(t, err)
}

func TestHTMLToMarkdown(t *testing.T) {
	assert.Equal(t, "plain text stays", htmlToMarkdown("plain text stays"))
	assert.Equal(t, "**bold** move", htmlToMarkdown("<p><b>bold</b> move</p>"))
	assert.Equal(t, "", htmlToMarkdown(""))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "first second", stripHTML("<p>first</p><p>second</p>"))
	assert.Equal(t, "a & b", stripHTML("<div>a &amp; b</div>"))
}
