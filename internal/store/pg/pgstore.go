package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"saletrack.org/internal/ids"
	"saletrack.org/internal/sales"
)

// Store is the postgres-backed persistence layer. It implements both the
// sales store and the identity store over a single database/sql pool.
type Store struct {
	db *sql.DB
}

var _ sales.Store = (*Store)(nil)

// Open connects to postgres via the pgx stdlib driver.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing database handle; used by tests.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const recordColumns = `
	v.id, v.product_id, p.name, v.requested_limit, v.franchise_id, f.name,
	v.rate, v.status_id, st.name, v.created_by, uc.name, v.updated_by, uu.name,
	v.created_at, v.updated_at`

const recordJoins = `
	from sale_records v
	join products p on p.id = v.product_id
	left join franchises f on f.id = v.franchise_id
	join sale_statuses st on st.id = v.status_id
	join identities uc on uc.id = v.created_by
	left join identities uu on uu.id = v.updated_by`

func scanRecord(row interface{ Scan(...any) error }) (sales.Record, error) {
	var rec sales.Record
	var franchiseID, franchiseName, updatedBy, updatedByName sql.NullString
	var rate sql.NullFloat64
	err := row.Scan(
		&rec.ID, &rec.ProductID, &rec.ProductName, &rec.RequestedLimit,
		&franchiseID, &franchiseName, &rate, &rec.StatusID, &rec.StatusName,
		&rec.CreatedByID, &rec.CreatedByName, &updatedBy, &updatedByName,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return sales.Record{}, err
	}
	if franchiseID.Valid {
		rec.FranchiseID = &franchiseID.String
	}
	if franchiseName.Valid {
		rec.FranchiseName = &franchiseName.String
	}
	if rate.Valid {
		rec.Rate = &rate.Float64
	}
	if updatedBy.Valid {
		rec.UpdatedByID = &updatedBy.String
	}
	if updatedByName.Valid {
		rec.UpdatedByName = &updatedByName.String
	}
	return rec, nil
}

func (s *Store) Product(ctx context.Context, id string) (sales.Product, error) {
	var p sales.Product
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		select id, name, description, requires_rate, requires_franchise
		from products where id = $1
	`, id).Scan(&p.ID, &p.Name, &description, &p.RequiresRate, &p.RequiresFranchise)
	if errors.Is(err, sql.ErrNoRows) {
		return sales.Product{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.Product{}, err
	}
	p.Description = description.String
	return p, nil
}

func (s *Store) Products(ctx context.Context) ([]sales.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, description, requires_rate, requires_franchise
		from products order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sales.Product
	for rows.Next() {
		var p sales.Product
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.RequiresRate, &p.RequiresFranchise); err != nil {
			return nil, err
		}
		p.Description = description.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Franchise(ctx context.Context, id string) (sales.Franchise, error) {
	var f sales.Franchise
	err := s.db.QueryRowContext(ctx, `select id, name from franchises where id = $1`, id).
		Scan(&f.ID, &f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return sales.Franchise{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.Franchise{}, err
	}
	return f, nil
}

func (s *Store) Franchises(ctx context.Context) ([]sales.Franchise, error) {
	rows, err := s.db.QueryContext(ctx, `select id, name from franchises order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sales.Franchise
	for rows.Next() {
		var f sales.Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) Statuses(ctx context.Context) ([]sales.Status, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, display_order from sale_statuses order by display_order
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sales.Status
	for rows.Next() {
		var st sales.Status
		if err := rows.Scan(&st.ID, &st.Name, &st.Order); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Status(ctx context.Context, id string) (sales.Status, error) {
	var st sales.Status
	err := s.db.QueryRowContext(ctx, `
		select id, name, display_order from sale_statuses where id = $1
	`, id).Scan(&st.ID, &st.Name, &st.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return sales.Status{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.Status{}, err
	}
	return st, nil
}

func (s *Store) InitialStatus(ctx context.Context) (sales.Status, error) {
	var st sales.Status
	err := s.db.QueryRowContext(ctx, `
		select id, name, display_order from sale_statuses
		order by display_order limit 1
	`).Scan(&st.ID, &st.Name, &st.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return sales.Status{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.Status{}, err
	}
	return st, nil
}

// CreateRecord inserts the record and its creation history row in one
// transaction.
func (s *Store) CreateRecord(ctx context.Context, rec *sales.Record, entry *sales.HistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		insert into sale_records(id, product_id, requested_limit, franchise_id, rate, status_id, created_by, updated_by, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, rec.ID, rec.ProductID, rec.RequestedLimit, rec.FranchiseID, rec.Rate,
		rec.StatusID, rec.CreatedByID, rec.UpdatedByID, rec.CreatedAt, rec.UpdatedAt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		insert into status_history(id, sale_id, previous_status_id, new_status_id, actor_id, comment, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.SaleID, entry.PreviousStatusID, entry.NewStatusID,
		entry.ActorID, entry.Comment, entry.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Record(ctx context.Context, id string) (sales.Record, error) {
	row := s.db.QueryRowContext(ctx, `select `+recordColumns+recordJoins+` where v.id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sales.Record{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.Record{}, err
	}
	return rec, nil
}

func (s *Store) UpdateRecord(ctx context.Context, rec *sales.Record) error {
	res, err := s.db.ExecContext(ctx, `
		update sale_records
		set product_id = $2, requested_limit = $3, franchise_id = $4, rate = $5,
		    updated_by = $6, updated_at = $7
		where id = $1
	`, rec.ID, rec.ProductID, rec.RequestedLimit, rec.FranchiseID, rec.Rate,
		rec.UpdatedByID, rec.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sales.ErrNotFound
	}
	return nil
}

// ChangeStatus applies the transition and its history row atomically. The
// prior status is read under a row lock inside the same transaction, so
// the record's status always equals the newest history entry.
func (s *Store) ChangeStatus(ctx context.Context, saleID, newStatusID, actorID, comment string, at time.Time) (sales.HistoryEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return sales.HistoryEntry{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var previous string
	err = tx.QueryRowContext(ctx, `
		select status_id from sale_records where id = $1 for update
	`, saleID).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return sales.HistoryEntry{}, sales.ErrNotFound
	}
	if err != nil {
		return sales.HistoryEntry{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		update sale_records set status_id = $2, updated_at = $3 where id = $1
	`, saleID, newStatusID, at); err != nil {
		return sales.HistoryEntry{}, err
	}

	entry := sales.HistoryEntry{
		ID:               ids.New(),
		SaleID:           saleID,
		PreviousStatusID: &previous,
		NewStatusID:      newStatusID,
		ActorID:          actorID,
		Comment:          comment,
		CreatedAt:        at,
	}
	if _, err := tx.ExecContext(ctx, `
		insert into status_history(id, sale_id, previous_status_id, new_status_id, actor_id, comment, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.SaleID, entry.PreviousStatusID, entry.NewStatusID,
		entry.ActorID, entry.Comment, entry.CreatedAt); err != nil {
		return sales.HistoryEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return sales.HistoryEntry{}, err
	}
	return entry, nil
}

// DeleteRecord removes the record; the status_history foreign key is
// declared on delete cascade, so the audit rows go with it.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from sale_records where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sales.ErrNotFound
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context, creatorID string) ([]sales.Record, error) {
	query := `select ` + recordColumns + recordJoins
	args := []any{}
	if creatorID != "" {
		query += ` where v.created_by = $1`
		args = append(args, creatorID)
	}
	query += ` order by v.created_at desc, v.id desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sales.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) History(ctx context.Context, saleID string) ([]sales.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select h.id, h.sale_id, h.previous_status_id, sp.name, h.new_status_id, sn.name,
		       h.actor_id, u.name, h.comment, h.created_at
		from status_history h
		left join sale_statuses sp on sp.id = h.previous_status_id
		join sale_statuses sn on sn.id = h.new_status_id
		join identities u on u.id = h.actor_id
		where h.sale_id = $1
		order by h.created_at, h.id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sales.HistoryEntry
	for rows.Next() {
		var e sales.HistoryEntry
		var prevID, prevName, comment sql.NullString
		if err := rows.Scan(&e.ID, &e.SaleID, &prevID, &prevName, &e.NewStatusID, &e.NewStatusName,
			&e.ActorID, &e.ActorName, &comment, &e.CreatedAt); err != nil {
			return nil, err
		}
		if prevID.Valid {
			e.PreviousStatusID = &prevID.String
		}
		if prevName.Valid {
			e.PreviousStatusName = &prevName.String
		}
		e.Comment = comment.String
		out = append(out, e)
	}
	return out, rows.Err()
}
