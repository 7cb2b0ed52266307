package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const equipmentColumns = `id, created_at, updated_at, name, description, serial_no, status`

const loanColumns = `id, checked_out_at, due_at, returned_at, equipment_id, borrower_id, notes`

func scanEquipment(scanner interface{ Scan(dest ...any) error }) (*domain.Equipment, error) {
	var e domain.Equipment
	var createdAt, updatedAt string

	err := scanner.Scan(
		&e.ID,
		&createdAt,
		&updatedAt,
		&e.Name,
		&e.Description,
		&e.SerialNo,
		&e.Status,
	)
	if err != nil {
		return nil, err
	}

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanLoan(scanner interface{ Scan(dest ...any) error }) (*domain.EquipmentLoan, error) {
	var l domain.EquipmentLoan
	var checkedOutAt string
	var dueAt, returnedAt sql.NullString

	err := scanner.Scan(
		&l.ID,
		&checkedOutAt,
		&dueAt,
		&returnedAt,
		&l.EquipmentID,
		&l.BorrowerID,
		&l.Notes,
	)
	if err != nil {
		return nil, err
	}

	if l.CheckedOutAt, err = parseTime(checkedOutAt); err != nil {
		return nil, err
	}
	if l.DueAt, err = parseNullableTime(dueAt); err != nil {
		return nil, err
	}
	if l.ReturnedAt, err = parseNullableTime(returnedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateEquipment inserts an inventory item.
func (s *Store) CreateEquipment(ctx context.Context, item *domain.Equipment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment (id, created_at, updated_at, name, description, serial_no, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
		item.Name,
		item.Description,
		item.SerialNo,
		string(item.Status),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetEquipment retrieves an item by ID.
func (s *Store) GetEquipment(ctx context.Context, id string) (*domain.Equipment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`, id)
	item, err := scanEquipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return item, err
}

// UpdateEquipment persists mutable item fields.
func (s *Store) UpdateEquipment(ctx context.Context, item *domain.Equipment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE equipment SET updated_at = ?, name = ?, description = ?, serial_no = ?, status = ?
		WHERE id = ?`,
		formatTime(item.UpdatedAt),
		item.Name,
		item.Description,
		item.SerialNo,
		string(item.Status),
		item.ID,
	)
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

// DeleteEquipment removes an item; its loan history cascades.
func (s *Store) DeleteEquipment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
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

// ListEquipment returns the full inventory ordered by name.
func (s *Store) ListEquipment(ctx context.Context) ([]*domain.Equipment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+equipmentColumns+` FROM equipment ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CheckoutEquipment opens a loan in one transaction. The item must be
// available; a second concurrent checkout fails on the status check
// (or on the partial unique index over open loans) with
// store.ErrUnavailable.
func (s *Store) CheckoutEquipment(ctx context.Context, loan *domain.EquipmentLoan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM equipment WHERE id = ?`, loan.EquipmentID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if domain.EquipmentStatus(status) != domain.EquipmentAvailable {
		return store.ErrUnavailable
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO equipment_loans (id, checked_out_at, due_at, equipment_id, borrower_id, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		loan.ID,
		formatTime(loan.CheckedOutAt),
		nullTimeString(loan.DueAt),
		loan.EquipmentID,
		loan.BorrowerID,
		loan.Notes,
	)
	if isUniqueViolation(err) {
		return store.ErrUnavailable
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE equipment SET status = ?, updated_at = ? WHERE id = ?`,
		string(domain.EquipmentCheckedOut), formatTime(nowUTC()), loan.EquipmentID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReturnEquipment closes the item's open loan and marks the item
// available again, in one transaction.
func (s *Store) ReturnEquipment(ctx context.Context, equipmentID string, returnedAt time.Time) (*domain.EquipmentLoan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+loanColumns+` FROM equipment_loans
		WHERE equipment_id = ? AND returned_at IS NULL`, equipmentID)
	loan, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE equipment_loans SET returned_at = ? WHERE id = ?`,
		formatTime(returnedAt), loan.ID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE equipment SET status = ?, updated_at = ? WHERE id = ?`,
		string(domain.EquipmentAvailable), formatTime(nowUTC()), equipmentID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	returned := returnedAt
	loan.ReturnedAt = &returned
	return loan, nil
}

// LoansForEquipment returns the item's loan history newest-first.
func (s *Store) LoansForEquipment(ctx context.Context, equipmentID string) ([]*domain.EquipmentLoan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM equipment_loans WHERE equipment_id = ? ORDER BY checked_out_at DESC`,
		equipmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.EquipmentLoan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// OpenLoans returns all loans that have not been returned.
func (s *Store) OpenLoans(ctx context.Context) ([]*domain.EquipmentLoan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM equipment_loans WHERE returned_at IS NULL ORDER BY checked_out_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.EquipmentLoan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}
