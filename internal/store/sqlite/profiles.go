package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/quadroapp/quadro-server/internal/domain"
	"github.com/quadroapp/quadro-server/internal/store"
)

const profileColumns = `user_id, created_at, updated_at, first_name, last_name, job_title, sector, phone, avatar_path, scopes`

func scanProfile(scanner interface{ Scan(dest ...any) error }) (*domain.Profile, error) {
	var p domain.Profile
	var createdAt, updatedAt, scopes string

	err := scanner.Scan(
		&p.UserID,
		&createdAt,
		&updatedAt,
		&p.FirstName,
		&p.LastName,
		&p.JobTitle,
		&p.Sector,
		&p.Phone,
		&p.AvatarPath,
		&scopes,
	)
	if err != nil {
		return nil, err
	}

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	p.Scopes = splitList(scopes)
	return &p, nil
}

// GetProfile retrieves the profile for a user.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return profile, err
}

// SaveProfile upserts a profile keyed by user ID.
func (s *Store) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, created_at, updated_at, first_name, last_name, job_title, sector, phone, avatar_path, scopes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			job_title = excluded.job_title,
			sector = excluded.sector,
			phone = excluded.phone,
			avatar_path = excluded.avatar_path,
			scopes = excluded.scopes`,
		profile.UserID,
		formatTime(profile.CreatedAt),
		formatTime(profile.UpdatedAt),
		profile.FirstName,
		profile.LastName,
		profile.JobTitle,
		profile.Sector,
		profile.Phone,
		profile.AvatarPath,
		joinList(profile.Scopes),
	)
	return err
}

// ListProfiles returns the contact directory ordered by name.
func (s *Store) ListProfiles(ctx context.Context) ([]*domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY first_name, last_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
