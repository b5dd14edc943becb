package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"saletrack.org/internal/ids"
)

// MemoryIdentityStore is an in-process IdentityStore used by tests and
// local development.
type MemoryIdentityStore struct {
	mu         sync.RWMutex
	identities map[string]*Identity
	roles      []RoleInfo
}

// NewMemoryIdentityStore creates an empty store seeded with the closed
// role set.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		identities: make(map[string]*Identity),
		roles: []RoleInfo{
			{ID: "role-admin", Name: RoleAdministrator, Description: "Full access to every record"},
			{ID: "role-advisor", Name: RoleAdvisor, Description: "Access to own records only"},
		},
	}
}

func (s *MemoryIdentityStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ident := range s.identities {
		if strings.ToLower(ident.Email) == email {
			out := *ident
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryIdentityStore) List(ctx context.Context) ([]Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Identity, 0, len(s.identities))
	for _, ident := range s.identities {
		out = append(out, *ident)
	}
	return out, nil
}

func (s *MemoryIdentityStore) Create(ctx context.Context, ident *Identity) error {
	if ident == nil {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(ident.Email))
	for _, existing := range s.identities {
		if strings.ToLower(existing.Email) == email {
			return ErrConflict
		}
	}
	if ident.ID == "" {
		ident.ID = ids.New()
	}
	now := time.Now().UTC()
	if ident.CreatedAt.IsZero() {
		ident.CreatedAt = now
	}
	ident.UpdatedAt = now
	copied := *ident
	s.identities[ident.ID] = &copied
	return nil
}

func (s *MemoryIdentityStore) Roles(ctx context.Context) ([]RoleInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoleInfo, len(s.roles))
	copy(out, s.roles)
	return out, nil
}
