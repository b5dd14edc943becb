package sales

import (
	"context"
	"time"
)

// Store describes persistence for sale records, their history and the
// reference data they point at. Two operations are explicitly atomic:
// CreateRecord (record + creation history row) and ChangeStatus (status
// update + history row). Everything else is a single statement; concurrent
// updates resolve last-writer-wins at the store.
type Store interface {
	Product(ctx context.Context, id string) (Product, error)
	Products(ctx context.Context) ([]Product, error)

	Franchise(ctx context.Context, id string) (Franchise, error)
	Franchises(ctx context.Context) ([]Franchise, error)

	// Statuses returns the closed status set in display order.
	Statuses(ctx context.Context) ([]Status, error)
	Status(ctx context.Context, id string) (Status, error)
	// InitialStatus returns the lowest-ordered status.
	InitialStatus(ctx context.Context) (Status, error)

	// CreateRecord persists the record and its creation history entry as
	// one atomic unit.
	CreateRecord(ctx context.Context, rec *Record, entry *HistoryEntry) error
	Record(ctx context.Context, id string) (Record, error)
	UpdateRecord(ctx context.Context, rec *Record) error
	// ChangeStatus reads the prior status, updates the record and appends
	// the history entry inside one transaction, so the record's status
	// always equals the newest history row's new status.
	ChangeStatus(ctx context.Context, saleID, newStatusID, actorID, comment string, at time.Time) (HistoryEntry, error)
	// DeleteRecord removes the record and cascades removal of its history.
	DeleteRecord(ctx context.Context, id string) error
	// ListRecords returns records newest-first. Empty creatorID means all
	// records.
	ListRecords(ctx context.Context, creatorID string) ([]Record, error)
	// History returns a record's history entries in creation order.
	History(ctx context.Context, saleID string) ([]HistoryEntry, error)

	// Stats aggregates dashboard figures. Advisor breakdown is only
	// computed when requested; it is admin-scoped data.
	Stats(ctx context.Context, includeAdvisors bool) (Stats, error)
}
