package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"saletrack.org/internal/auth"
	"saletrack.org/internal/ids"
)

var _ auth.IdentityStore = (*Store)(nil)

const identityColumns = `
	u.id, u.name, u.email, u.password_hash, u.role_id, r.name, u.active,
	u.created_at, u.updated_at`

// FindByEmail returns the identity with the given email, role resolved.
// The lookup is case-insensitive.
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+identityColumns+`
		from identities u
		join roles r on r.id = u.role_id
		where lower(u.email) = lower($1)
	`, email)

	var ident auth.Identity
	err := row.Scan(&ident.ID, &ident.Name, &ident.Email, &ident.PasswordHash,
		&ident.RoleID, &ident.RoleName, &ident.Active, &ident.CreatedAt, &ident.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (s *Store) List(ctx context.Context) ([]auth.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+identityColumns+`
		from identities u
		join roles r on r.id = u.role_id
		order by u.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.Identity
	for rows.Next() {
		var ident auth.Identity
		if err := rows.Scan(&ident.ID, &ident.Name, &ident.Email, &ident.PasswordHash,
			&ident.RoleID, &ident.RoleName, &ident.Active, &ident.CreatedAt, &ident.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

// Create inserts a new identity. A unique index on lower(email) backs the
// duplicate check; the unique-violation error maps to ErrConflict.
func (s *Store) Create(ctx context.Context, ident *auth.Identity) error {
	if ident.ID == "" {
		ident.ID = ids.New()
	}
	now := time.Now().UTC()
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = now
	}
	ident.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		insert into identities(id, name, email, password_hash, role_id, active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, ident.ID, ident.Name, ident.Email, ident.PasswordHash, ident.RoleID,
		ident.Active, ident.CreatedAt, ident.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Store) Roles(ctx context.Context) ([]auth.RoleInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, coalesce(description, '') from roles order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.RoleInfo
	for rows.Next() {
		var role auth.RoleInfo
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}
