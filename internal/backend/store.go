package backend

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Purab2001/CourseHub-client/internal/profile"
)

// ErrProfileNotFound reports a fetch for an email with no record.
var ErrProfileNotFound = errors.New("profile not found")

// Store persists backend profiles. The dev backend ships a Postgres
// implementation; tests use an in-memory fake.
type Store interface {
	// Upsert inserts or refreshes the profile keyed by email and
	// returns the stored row. The role hint only applies on first
	// insert; role changes afterwards are an admin operation, so an
	// upsert never overwrites an existing role.
	Upsert(ctx context.Context, p profile.Profile) (*profile.Profile, error)
	GetByEmail(ctx context.Context, email string) (*profile.Profile, error)
}

var selectableRoles = map[string]bool{"student": true, "instructor": true}

// normalizeRole enforces the server-side override: a client-supplied
// role hint outside the self-assignable set falls back to the
// default.
func normalizeRole(hint string) string {
	if selectableRoles[hint] {
		return hint
	}
	return profile.DefaultRole
}

// PGStore is the Postgres-backed profile store.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Upsert(
	ctx context.Context,
	p profile.Profile,
) (*profile.Profile, error) {

	if p.Email == "" {
		return nil, errors.New("profile email is required")
	}
	if p.Status == "" {
		p.Status = profile.StatusActive
	}

	// 1. Refresh existing row, keeping its role
	var stored profile.Profile
	err := s.db.QueryRowContext(ctx, `
		UPDATE profiles
		SET name = COALESCE(NULLIF($2, ''), name),
		    photo = COALESCE(NULLIF($3, ''), photo),
		    status = $4,
		    updated_at = NOW()
		WHERE LOWER(email) = LOWER($1)
		RETURNING email, name, role, COALESCE(photo, ''), status
	`, p.Email, p.Name, p.Photo, p.Status).Scan(
		&stored.Email, &stored.Name, &stored.Role, &stored.Photo, &stored.Status,
	)

	if err == nil {
		return &stored, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// 2. First sign-in: insert with the normalized role hint
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (email, name, role, photo, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING email, name, role, COALESCE(photo, ''), status
	`, p.Email, p.Name, normalizeRole(p.Role), p.Photo, p.Status).Scan(
		&stored.Email, &stored.Name, &stored.Role, &stored.Photo, &stored.Status,
	)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

func (s *PGStore) GetByEmail(
	ctx context.Context,
	email string,
) (*profile.Profile, error) {

	var stored profile.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT email, name, role, COALESCE(photo, ''), status
		FROM profiles
		WHERE LOWER(email) = LOWER($1)
	`, email).Scan(
		&stored.Email, &stored.Name, &stored.Role, &stored.Photo, &stored.Status,
	)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &stored, nil
}
