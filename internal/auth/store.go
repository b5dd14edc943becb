package auth

import "context"

// IdentityStore describes the persistence operations the auth layer needs.
// The postgres store implements it; an in-memory version backs tests.
type IdentityStore interface {
	// FindByEmail returns an identity by email (case-insensitive).
	// ErrNotFound when no identity matches.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	// List returns all identities with their role names resolved.
	List(ctx context.Context) ([]Identity, error)
	// Create persists a new identity. ErrConflict on a duplicate email.
	Create(ctx context.Context, ident *Identity) error
	// Roles returns the closed role reference set.
	Roles(ctx context.Context) ([]RoleInfo, error)
}
