package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Profile is a registered person whose reference photo is compared against
// captured attendance photos. Profiles are scoped to the admin that owns them.
type Profile struct {
	ProfileID    string `json:"profile_id"`
	ProfileName  string `json:"profile_name"`
	ProfileImage string `json:"profile_image"`
	AdminID      string `json:"admin_id"`
}

// Repository persists profiles and admin credentials in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ReferenceImage returns the stored reference photo URL for a profile owned by
// the given admin. The admin filter prevents cross-tenant lookups. An empty
// string with a nil error means the profile does not exist; absence is a
// normal outcome, not a fault.
func (r *Repository) ReferenceImage(ctx context.Context, adminID, profileID string) (string, error) {
	if adminID == "" || profileID == "" {
		return "", errors.New("admin and profile id required")
	}
	var image string
	err := r.db.QueryRowContext(ctx, `
		SELECT profile_image FROM profiles
		WHERE profile_id = $1 AND admin_id = $2
	`, profileID, adminID).Scan(&image)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return image, nil
}

// Create inserts a new profile.
func (r *Repository) Create(ctx context.Context, p Profile) error {
	if p.ProfileID == "" || p.AdminID == "" {
		return errors.New("profile and admin id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (profile_id, profile_name, profile_image, admin_id)
		VALUES ($1, $2, $3, $4)
	`, p.ProfileID, p.ProfileName, p.ProfileImage, p.AdminID)
	return err
}

// Update replaces the name and reference image of an existing profile.
func (r *Repository) Update(ctx context.Context, adminID, profileID, name, image string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET profile_name = $3, profile_image = $4
		WHERE profile_id = $1 AND admin_id = $2
	`, profileID, adminID, name, image)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByAdmin returns every profile owned by an admin.
func (r *Repository) ListByAdmin(ctx context.Context, adminID string) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT profile_id, profile_name, profile_image, admin_id
		FROM profiles WHERE admin_id = $1
		ORDER BY profile_id
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ProfileID, &p.ProfileName, &p.ProfileImage, &p.AdminID); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpsertAdmin ensures an admin record exists.
func (r *Repository) UpsertAdmin(ctx context.Context, adminID string) error {
	if adminID == "" {
		return errors.New("admin id required")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (admin_id)
		VALUES ($1)
		ON CONFLICT (admin_id) DO NOTHING
	`, adminID)
	return err
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, adminID, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, admin_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, adminID, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}
