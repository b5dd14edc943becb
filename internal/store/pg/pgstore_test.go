package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"saletrack.org/internal/auth"
	"saletrack.org/internal/sales"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

var recordRowColumns = []string{
	"id", "product_id", "product_name", "requested_limit", "franchise_id", "franchise_name",
	"rate", "status_id", "status_name", "created_by", "created_by_name", "updated_by",
	"updated_by_name", "created_at", "updated_at",
}

func TestCreateRecordCommitsBothRows(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("insert into sale_records").
		WithArgs("sale-1", "prod-1", 500.0, nil, nil, "st-open", "user-1", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into status_history").
		WithArgs("hist-1", "sale-1", nil, "st-open", "user-1", "record created", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	rec := &sales.Record{
		ID: "sale-1", ProductID: "prod-1", RequestedLimit: 500,
		StatusID: "st-open", CreatedByID: "user-1", CreatedAt: now, UpdatedAt: now,
	}
	entry := &sales.HistoryEntry{
		ID: "hist-1", SaleID: "sale-1", NewStatusID: "st-open",
		ActorID: "user-1", Comment: "record created", CreatedAt: now,
	}
	if err := store.CreateRecord(context.Background(), rec, entry); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateRecordRollsBackOnHistoryFailure(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("insert into sale_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into status_history").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	rec := &sales.Record{ID: "sale-1", ProductID: "prod-1", RequestedLimit: 500,
		StatusID: "st-open", CreatedByID: "user-1", CreatedAt: now, UpdatedAt: now}
	entry := &sales.HistoryEntry{ID: "hist-1", SaleID: "sale-1", NewStatusID: "st-open",
		ActorID: "user-1", CreatedAt: now}
	if err := store.CreateRecord(context.Background(), rec, entry); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestChangeStatusLocksRowAndAppendsHistory(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select status_id from sale_records").
		WithArgs("sale-1").
		WillReturnRows(sqlmock.NewRows([]string{"status_id"}).AddRow("st-open"))
	mock.ExpectExec("update sale_records set status_id").
		WithArgs("sale-1", "st-next", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into status_history").
		WithArgs(sqlmock.AnyArg(), "sale-1", "st-open", "st-next", "user-2", "approved", at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry, err := store.ChangeStatus(context.Background(), "sale-1", "st-next", "user-2", "approved", at)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if entry.PreviousStatusID == nil || *entry.PreviousStatusID != "st-open" {
		t.Fatalf("unexpected previous status: %v", entry.PreviousStatusID)
	}
	if entry.NewStatusID != "st-next" {
		t.Fatalf("unexpected new status: %s", entry.NewStatusID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestChangeStatusMissingRecord(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select status_id from sale_records").
		WithArgs("sale-missing").
		WillReturnRows(sqlmock.NewRows([]string{"status_id"}))
	mock.ExpectRollback()

	_, err := store.ChangeStatus(context.Background(), "sale-missing", "st-next", "user-2", "", time.Now())
	if err != sales.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateRecordNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("update sale_records").
		WithArgs("sale-missing", "prod-1", 500.0, nil, nil, sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := &sales.Record{ID: "sale-missing", ProductID: "prod-1", RequestedLimit: 500, UpdatedAt: now}
	if err := store.UpdateRecord(context.Background(), rec); err != sales.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRecordNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from sale_records").
		WithArgs("sale-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteRecord(context.Background(), "sale-missing"); err != sales.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordScansNullableJoins(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("from sale_records v").
		WithArgs("sale-1").
		WillReturnRows(sqlmock.NewRows(recordRowColumns).AddRow(
			"sale-1", "prod-1", "Business Credit", 1500.0, nil, nil,
			nil, "st-open", "Open", "user-1", "Ada Advisor", nil, nil, now, now,
		))

	rec, err := store.Record(context.Background(), "sale-1")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.FranchiseID != nil || rec.Rate != nil || rec.UpdatedByID != nil {
		t.Fatalf("expected nil optionals, got %+v", rec)
	}
	if rec.ProductName != "Business Credit" || rec.StatusName != "Open" {
		t.Fatalf("joined names not mapped: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("from sale_records v").
		WithArgs("sale-missing").
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	if _, err := store.Record(context.Background(), "sale-missing"); err != sales.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecordsFiltersByCreator(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("where v.created_by").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(recordRowColumns).
			AddRow("sale-2", "prod-1", "Business Credit", 800.0, nil, nil, nil,
				"st-open", "Open", "user-1", "Ada Advisor", nil, nil, now, now).
			AddRow("sale-1", "prod-1", "Business Credit", 500.0, nil, nil, nil,
				"st-open", "Open", "user-1", "Ada Advisor", nil, nil, now.Add(-time.Hour), now.Add(-time.Hour)))

	records, err := store.ListRecords(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "sale-2" {
		t.Fatalf("expected newest first, got %s", records[0].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRecordsUnscopedOmitsFilter(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("order by v.created_at desc").
		WillReturnRows(sqlmock.NewRows(recordRowColumns))

	records, err := store.ListRecords(context.Background(), "")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty list, got %d", len(records))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHistoryResolvesStatusNames(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select h.id, h.sale_id").
		WithArgs("sale-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "sale_id", "previous_status_id", "previous_status_name", "new_status_id",
			"new_status_name", "actor_id", "actor_name", "comment", "created_at",
		}).
			AddRow("hist-1", "sale-1", nil, nil, "st-open", "Open", "user-1", "Ada Advisor", "record created", now.Add(-time.Hour)).
			AddRow("hist-2", "sale-1", "st-open", "Open", "st-next", "In Process", "user-2", "Amin Admin", "approved", now))

	entries, err := store.History(context.Background(), "sale-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PreviousStatusID != nil {
		t.Fatalf("creation entry should have no previous status")
	}
	if entries[1].PreviousStatusName == nil || *entries[1].PreviousStatusName != "Open" {
		t.Fatalf("previous status name not resolved: %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatsAggregates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(3, 4500.0))
	mock.ExpectQuery("select p.name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "count", "sum"}).
			AddRow("Business Credit", 2, 3000.0).
			AddRow("Personal Loan", 1, 1500.0))
	mock.ExpectQuery("select st.name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}).
			AddRow("Open", 2).
			AddRow("In Process", 1))
	mock.ExpectQuery("select u.name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "count", "sum"}).
			AddRow("Ada Advisor", 3, 4500.0))
	mock.ExpectQuery("select to_char").
		WillReturnRows(sqlmock.NewRows([]string{"day", "count", "sum"}).
			AddRow("2026-08-30", 3, 4500.0))

	stats, err := store.Stats(context.Background(), true)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalRecords != 3 || stats.TotalRequestedLimit != 4500 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if len(stats.ByProduct) != 2 || stats.ByProduct[0].Product != "Business Credit" {
		t.Fatalf("unexpected product breakdown: %+v", stats.ByProduct)
	}
	if len(stats.ByAdvisor) != 1 || stats.ByAdvisor[0].Advisor != "Ada Advisor" {
		t.Fatalf("unexpected advisor breakdown: %+v", stats.ByAdvisor)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStatsSkipsAdvisorsWhenNotRequested(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(0, 0.0))
	mock.ExpectQuery("select p.name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "count", "sum"}))
	mock.ExpectQuery("select st.name").
		WillReturnRows(sqlmock.NewRows([]string{"name", "count"}))
	mock.ExpectQuery("select to_char").
		WillReturnRows(sqlmock.NewRows([]string{"day", "count", "sum"}))

	stats, err := store.Stats(context.Background(), false)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ByAdvisor != nil {
		t.Fatalf("advisor breakdown should be omitted: %+v", stats.ByAdvisor)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByEmailMapsRow(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("from identities u").
		WithArgs("Ada@Example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role_id", "role_name",
			"active", "created_at", "updated_at",
		}).AddRow("user-1", "Ada Advisor", "ada@example.com", "$2a$10$hash",
			"role-advisor", "Advisor", true, now, now))

	ident, err := store.FindByEmail(context.Background(), "Ada@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if ident.Email != "ada@example.com" || ident.RoleName != auth.RoleAdvisor {
		t.Fatalf("unexpected identity: %+v", ident)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("from identities u").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.FindByEmail(context.Background(), "nobody@example.com"); err != auth.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateIdentityAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into identities").
		WithArgs(sqlmock.AnyArg(), "Ada Advisor", "ada@example.com", "$2a$10$hash",
			"role-advisor", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ident := &auth.Identity{
		Name: "Ada Advisor", Email: "ada@example.com",
		PasswordHash: "$2a$10$hash", RoleID: "role-advisor", Active: true,
	}
	if err := store.Create(context.Background(), ident); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ident.ID == "" {
		t.Fatalf("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
