package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const reportColumns = `id, created_at, published_at, importer_id, external_id, title, author, category, body, source_file`

func scanReport(scanner interface{ Scan(dest ...any) error }) (*domain.Report, error) {
	var r domain.Report
	var createdAt, publishedAt string

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&publishedAt,
		&r.ImporterID,
		&r.ExternalID,
		&r.Title,
		&r.Author,
		&r.Category,
		&r.Body,
		&r.SourceFile,
	)
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.PublishedAt, err = parseTime(publishedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReport inserts an imported report. A duplicate external ID
// returns store.ErrAlreadyExists so importers can skip rows already
// seen.
func (s *Store) CreateReport(ctx context.Context, report *domain.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, created_at, published_at, importer_id, external_id, title, author, category, body, source_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		formatTime(report.CreatedAt),
		formatTime(report.PublishedAt),
		report.ImporterID,
		report.ExternalID,
		report.Title,
		report.Author,
		report.Category,
		report.Body,
		report.SourceFile,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetReport retrieves a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return report, err
}

// GetReportByExternalID looks a report up by its source system ID.
func (s *Store) GetReportByExternalID(ctx context.Context, externalID string) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE external_id = ?`, externalID)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return report, err
}

// DeleteReport removes a report.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListReports returns reports newest-first, cursor paginated on
// (published_at, id).
func (s *Store) ListReports(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.Report], error) {
	params.Validate()

	query := `SELECT ` + reportColumns + ` FROM reports`
	var args []any

	if params.Cursor != "" {
		key, err := store.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		publishedAt, id, ok := strings.Cut(key, "|")
		if !ok {
			return nil, fmt.Errorf("malformed cursor")
		}
		query += ` WHERE (published_at < ? OR (published_at = ? AND id < ?))`
		args = append(args, publishedAt, publishedAt, id)
	}

	query += ` ORDER BY published_at DESC, id DESC LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.Report]{Items: items}
	if len(items) > params.Limit {
		result.Items = items[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(formatTime(last.PublishedAt) + "|" + last.ID)
	}
	return result, nil
}
