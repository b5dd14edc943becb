package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"saletrack.org/internal/auth"
	"saletrack.org/internal/ids"
)

const (
	// MaxRequestedLimit mirrors the DECIMAL(14,2) column bound.
	MaxRequestedLimit = 999999999999.99
	// MaxRate is a percentage with two decimal places.
	MaxRate          = 99.99
	maxCommentLength = 500
)

// Service implements the sale-record workflow: validation, ownership
// policy, the status lifecycle and its audit history. All state lives in
// the Store; the service keeps no cache, so read-after-write consistency
// is the store's problem.
type Service struct {
	store Store
}

// NewService constructs the workflow service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	return &Service{store: store}, nil
}

// Create validates the input against the product's requirements, persists
// the record in the initial status and writes the creation history entry.
func (s *Service) Create(ctx context.Context, claims *auth.Claims, in RecordInput) (Record, error) {
	if claims == nil {
		return Record{}, auth.ErrUnauthenticated
	}
	if err := s.validate(ctx, &in); err != nil {
		return Record{}, err
	}

	initial, err := s.store.InitialStatus(ctx)
	if err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	actorID := claims.UserID()
	rec := Record{
		ID:             ids.New(),
		ProductID:      in.ProductID,
		RequestedLimit: in.RequestedLimit,
		FranchiseID:    in.FranchiseID,
		Rate:           in.Rate,
		StatusID:       initial.ID,
		CreatedByID:    actorID,
		UpdatedByID:    &actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	entry := HistoryEntry{
		ID:          ids.New(),
		SaleID:      rec.ID,
		NewStatusID: initial.ID,
		ActorID:     actorID,
		Comment:     "record created",
		CreatedAt:   now,
	}
	if err := s.store.CreateRecord(ctx, &rec, &entry); err != nil {
		return Record{}, err
	}
	return s.store.Record(ctx, rec.ID)
}

// Get returns a single record. Reads are governed by the same ownership
// policy as mutations.
func (s *Service) Get(ctx context.Context, claims *auth.Claims, id string) (Record, error) {
	if claims == nil {
		return Record{}, auth.ErrUnauthenticated
	}
	rec, err := s.store.Record(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := auth.OwnerOrAdmin(claims, rec.CreatedByID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update re-validates the cross-field rule against the possibly new
// product and bumps the last-modifier. It never changes status and never
// writes a history entry; only explicit transitions do.
func (s *Service) Update(ctx context.Context, claims *auth.Claims, id string, in RecordInput) (Record, error) {
	if claims == nil {
		return Record{}, auth.ErrUnauthenticated
	}
	rec, err := s.store.Record(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if err := auth.OwnerOrAdmin(claims, rec.CreatedByID); err != nil {
		return Record{}, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return Record{}, err
	}

	actorID := claims.UserID()
	rec.ProductID = in.ProductID
	rec.RequestedLimit = in.RequestedLimit
	rec.FranchiseID = in.FranchiseID
	rec.Rate = in.Rate
	rec.UpdatedByID = &actorID
	rec.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateRecord(ctx, &rec); err != nil {
		return Record{}, err
	}
	return s.store.Record(ctx, id)
}

// ChangeStatus moves the record to any defined status. Transitions are
// unconstrained among statuses, but every one is recorded: the status
// update and the history append commit as a single unit in the store.
func (s *Service) ChangeStatus(ctx context.Context, claims *auth.Claims, id string, in StatusChangeInput) error {
	if claims == nil {
		return auth.ErrUnauthenticated
	}
	rec, err := s.store.Record(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.OwnerOrAdmin(claims, rec.CreatedByID); err != nil {
		return err
	}
	if strings.TrimSpace(in.StatusID) == "" {
		return fmt.Errorf("%w: status_id is required", ErrValidation)
	}
	if len(in.Comment) > maxCommentLength {
		return fmt.Errorf("%w: comment must not exceed %d characters", ErrValidation, maxCommentLength)
	}
	if _, err := s.store.Status(ctx, in.StatusID); err != nil {
		return err
	}

	_, err = s.store.ChangeStatus(ctx, id, in.StatusID, claims.UserID(), in.Comment, time.Now().UTC())
	return err
}

// Delete removes the record and, irreversibly, its entire history.
func (s *Service) Delete(ctx context.Context, claims *auth.Claims, id string) error {
	if claims == nil {
		return auth.ErrUnauthenticated
	}
	rec, err := s.store.Record(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.OwnerOrAdmin(claims, rec.CreatedByID); err != nil {
		return err
	}
	return s.store.DeleteRecord(ctx, id)
}

// List returns the records visible to the caller, newest first, plus the
// sum of requested limits over that same set. Administrators see all
// records; everyone else sees only their own.
func (s *Service) List(ctx context.Context, claims *auth.Claims) ([]Record, float64, error) {
	if claims == nil {
		return nil, 0, auth.ErrUnauthenticated
	}
	creatorID := claims.UserID()
	if claims.IsAdministrator() {
		creatorID = ""
	}
	records, err := s.store.ListRecords(ctx, creatorID)
	if err != nil {
		return nil, 0, err
	}
	var total float64
	for _, rec := range records {
		total += rec.RequestedLimit
	}
	return records, total, nil
}

// History lists a record's status transitions in creation order. Access
// follows the ownership policy.
func (s *Service) History(ctx context.Context, claims *auth.Claims, id string) ([]HistoryEntry, error) {
	if claims == nil {
		return nil, auth.ErrUnauthenticated
	}
	rec, err := s.store.Record(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.OwnerOrAdmin(claims, rec.CreatedByID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, id)
}

// Products lists the product catalog.
func (s *Service) Products(ctx context.Context) ([]Product, error) {
	return s.store.Products(ctx)
}

// Franchises lists the franchise catalog.
func (s *Service) Franchises(ctx context.Context) ([]Franchise, error) {
	return s.store.Franchises(ctx)
}

// Statuses lists the lifecycle statuses in display order.
func (s *Service) Statuses(ctx context.Context) ([]Status, error) {
	return s.store.Statuses(ctx)
}

// Stats returns dashboard aggregates. The per-advisor breakdown is
// included only for administrators.
func (s *Service) Stats(ctx context.Context, claims *auth.Claims) (Stats, error) {
	if claims == nil {
		return Stats{}, auth.ErrUnauthenticated
	}
	return s.store.Stats(ctx, claims.IsAdministrator())
}

// validate enforces the input and cross-field rules. The product and
// franchise must exist; requirements come from the product row, never
// from client hints.
func (s *Service) validate(ctx context.Context, in *RecordInput) error {
	if strings.TrimSpace(in.ProductID) == "" {
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if in.RequestedLimit <= 0 {
		return fmt.Errorf("%w: requested_limit must be greater than zero", ErrValidation)
	}
	if in.RequestedLimit > MaxRequestedLimit {
		return fmt.Errorf("%w: requested_limit exceeds the allowed maximum", ErrValidation)
	}
	if in.Rate != nil && (*in.Rate < 0 || *in.Rate > MaxRate) {
		return fmt.Errorf("%w: rate must be between 0 and %.2f", ErrValidation, MaxRate)
	}
	if in.FranchiseID != nil && strings.TrimSpace(*in.FranchiseID) == "" {
		in.FranchiseID = nil
	}

	product, err := s.store.Product(ctx, in.ProductID)
	if err != nil {
		return err
	}
	if product.RequiresFranchise && in.FranchiseID == nil {
		return fmt.Errorf("%w: franchise_id is required for this product", ErrValidation)
	}
	if product.RequiresRate && in.Rate == nil {
		return fmt.Errorf("%w: rate is required for this product", ErrValidation)
	}
	if in.FranchiseID != nil {
		if _, err := s.store.Franchise(ctx, *in.FranchiseID); err != nil {
			return fmt.Errorf("%w: franchise_id references an unknown franchise", ErrValidation)
		}
	}
	return nil
}
