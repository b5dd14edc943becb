package sales

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Product is reference data. RequiresRate and RequiresFranchise drive the
// conditional validation on sale records; the check always runs server-side
// because the client may hold stale reference data.
type Product struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	RequiresRate      bool   `json:"requires_rate"`
	RequiresFranchise bool   `json:"requires_franchise"`
}

// Franchise is reference data.
type Franchise struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Status is one stage of the sale lifecycle. The set is closed and carries
// a strict display order; the lowest-ordered status is the initial one.
type Status struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Record is a financial-product sale request. Owned by its creator;
// mutable by the creator or any administrator.
type Record struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	RequestedLimit float64   `json:"requested_limit"`
	FranchiseID    *string   `json:"franchise_id,omitempty"`
	FranchiseName  *string   `json:"franchise_name,omitempty"`
	Rate           *float64  `json:"rate,omitempty"`
	StatusID       string    `json:"status_id"`
	StatusName     string    `json:"status_name"`
	CreatedByID    string    `json:"created_by"`
	CreatedByName  string    `json:"created_by_name"`
	UpdatedByID    *string   `json:"updated_by,omitempty"`
	UpdatedByName  *string   `json:"updated_by_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HistoryEntry is one append-only audit row for a status transition.
// PreviousStatusID is nil only for the creation entry. Entries are never
// updated or deleted except by the cascade when their record is deleted.
type HistoryEntry struct {
	ID                 string    `json:"id"`
	SaleID             string    `json:"sale_id"`
	PreviousStatusID   *string   `json:"previous_status_id,omitempty"`
	PreviousStatusName *string   `json:"previous_status_name,omitempty"`
	NewStatusID        string    `json:"new_status_id"`
	NewStatusName      string    `json:"new_status_name"`
	ActorID            string    `json:"actor_id"`
	ActorName          string    `json:"actor_name"`
	Comment            string    `json:"comment,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// RecordInput is the payload for creating or updating a sale record.
type RecordInput struct {
	ProductID      string   `json:"product_id"`
	RequestedLimit float64  `json:"requested_limit"`
	FranchiseID    *string  `json:"franchise_id"`
	Rate           *float64 `json:"rate"`
}

// StatusChangeInput is the payload for a status transition.
type StatusChangeInput struct {
	StatusID string `json:"status_id"`
	Comment  string `json:"comment"`
}
