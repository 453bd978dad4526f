package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/contract-claims/internal/core/claim"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
)

var claimColumnNames = []string{
	"id", "lecturer_name", "lecturer_email", "hours_worked", "hourly_rate",
	"notes", "file_name", "file_path", "status", "submitted_at",
}

func newClaimRows() *pgxmock.Rows {
	return pgxmock.NewRows(claimColumnNames)
}

func newMockRepo(t *testing.T) (*ClaimRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewClaimRepository(mock), mock
}

func TestClaimRepository_Create(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	submitted := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	in := &claim.Claim{
		LecturerName:  "A. Lecturer",
		LecturerEmail: "a@x.com",
		HoursWorked:   decimal.NewFromInt(10),
		HourlyRate:    decimal.NewFromInt(100),
		Status:        claim.StatusPending,
		SubmittedAt:   submitted,
	}

	mock.ExpectQuery(regexp.QuoteMeta(insertClaimQuery)).
		WithArgs("A. Lecturer", "a@x.com", pgxmock.AnyArg(), pgxmock.AnyArg(), nil, "pending", submitted).
		WillReturnRows(newClaimRows().
			AddRow(int64(1), "A. Lecturer", "a@x.com", "10", "100", nil, nil, nil, "pending", submitted))

	created, err := repo.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ID != 1 || created.Status != claim.StatusPending {
		t.Fatalf("unexpected claim %+v", created)
	}
	if got := created.Total().StringFixed(2); got != "1000.00" {
		t.Fatalf("expected total 1000.00, got %s", got)
	}
	if created.Notes != nil || created.HasDocument() {
		t.Fatalf("expected null columns to stay nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimRepository_Create_CheckViolation(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	anyArg := pgxmock.AnyArg()
	mock.ExpectQuery(regexp.QuoteMeta(insertClaimQuery)).
		WithArgs(anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg).
		WillReturnError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "claims_hours_worked_check"})

	_, err := repo.Create(context.Background(), &claim.Claim{Status: claim.StatusPending})

	var vErr *claim.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "hours_worked" {
		t.Fatalf("expected hours_worked validation error, got %v", err)
	}
}

func TestClaimRepository_FindByID(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	submitted := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectClaimByIDQuery)).
		WithArgs(int64(7)).
		WillReturnRows(newClaimRows().
			AddRow(int64(7), "A", "a@x.com", "2.5", "80", "Rejection reason: incomplete", "timesheet.pdf", "/documents/claims/7/x.pdf", "coordinator_rejected", submitted))

	found, err := repo.FindByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}

	if found.Notes == nil || *found.Notes != "Rejection reason: incomplete" {
		t.Fatalf("unexpected notes %+v", found.Notes)
	}
	if found.FileName == nil || *found.FileName != "timesheet.pdf" {
		t.Fatalf("unexpected file name %+v", found.FileName)
	}
	if found.Status != claim.StatusCoordinatorRejected {
		t.Fatalf("unexpected status %s", found.Status)
	}
	if got := found.Total().StringFixed(2); got != "200.00" {
		t.Fatalf("expected total 200.00, got %s", got)
	}
}

func TestClaimRepository_FindByID_NotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectClaimByIDQuery)).
		WithArgs(int64(404)).
		WillReturnRows(newClaimRows())

	if _, err := repo.FindByID(context.Background(), 404); !errors.Is(err, claim.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestClaimRepository_FindByStatus(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectClaimsByStatusQuery)).
		WithArgs("pending").
		WillReturnRows(newClaimRows().
			AddRow(int64(2), "B", "b@x.com", "1", "50", nil, nil, nil, "pending", now).
			AddRow(int64(1), "A", "a@x.com", "3", "60", "week 1", nil, nil, "pending", now.Add(-time.Hour)))

	claims, err := repo.FindByStatus(context.Background(), claim.StatusPending)
	if err != nil {
		t.Fatalf("FindByStatus returned error: %v", err)
	}
	if len(claims) != 2 || claims[0].ID != 2 || claims[1].ID != 1 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestClaimRepository_FindBySubmitter_Empty(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectClaimsBySubmitterQuery)).
		WithArgs("nobody@x.com").
		WillReturnRows(newClaimRows())

	claims, err := repo.FindBySubmitter(context.Background(), "nobody@x.com")
	if err != nil {
		t.Fatalf("FindBySubmitter returned error: %v", err)
	}
	if claims == nil || len(claims) != 0 {
		t.Fatalf("expected empty non-nil slice, got %+v", claims)
	}
}

func TestClaimRepository_ListAll(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectRecentClaimsQuery)).
		WithArgs(10).
		WillReturnRows(newClaimRows().
			AddRow(int64(3), "C", "c@x.com", "1", "50", nil, nil, nil, "manager_approved", now))
	mock.ExpectQuery(regexp.QuoteMeta(selectAllClaimsQuery)).
		WillReturnRows(newClaimRows().
			AddRow(int64(3), "C", "c@x.com", "1", "50", nil, nil, nil, "manager_approved", now).
			AddRow(int64(2), "B", "b@x.com", "1", "50", nil, nil, nil, "pending", now))

	recent, err := repo.ListAll(context.Background(), 10)
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected 1 recent claim, got %d (%v)", len(recent), err)
	}

	all, err := repo.ListAll(context.Background(), 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 claims, got %d (%v)", len(all), err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimRepository_Save(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(updateClaimStatusQuery)).
		WithArgs("coordinator_approved", nil, int64(5), "pending").
		WillReturnRows(newClaimRows().
			AddRow(int64(5), "A", "a@x.com", "10", "100", nil, nil, nil, "coordinator_approved", now))

	saved, err := repo.Save(context.Background(), &claim.Claim{ID: 5, Status: claim.StatusCoordinatorApproved}, claim.StatusPending)
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.Status != claim.StatusCoordinatorApproved {
		t.Fatalf("unexpected status %s", saved.Status)
	}
}

func TestClaimRepository_Save_Conflict(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	notes := "Rejection reason: incomplete"

	mock.ExpectQuery(regexp.QuoteMeta(updateClaimStatusQuery)).
		WithArgs("coordinator_rejected", notes, int64(5), "pending").
		WillReturnRows(newClaimRows())
	mock.ExpectQuery(regexp.QuoteMeta(selectClaimByIDQuery)).
		WithArgs(int64(5)).
		WillReturnRows(newClaimRows().
			AddRow(int64(5), "A", "a@x.com", "10", "100", nil, nil, nil, "coordinator_approved", now))

	_, err := repo.Save(context.Background(), &claim.Claim{ID: 5, Status: claim.StatusCoordinatorRejected, Notes: &notes}, claim.StatusPending)
	if !errors.Is(err, claim.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClaimRepository_Save_NotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(updateClaimStatusQuery)).
		WithArgs("manager_approved", nil, int64(9), "coordinator_approved").
		WillReturnRows(newClaimRows())
	mock.ExpectQuery(regexp.QuoteMeta(selectClaimByIDQuery)).
		WithArgs(int64(9)).
		WillReturnRows(newClaimRows())

	_, err := repo.Save(context.Background(), &claim.Claim{ID: 9, Status: claim.StatusManagerApproved}, claim.StatusCoordinatorApproved)
	if !errors.Is(err, claim.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestClaimRepository_AttachDocument(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(updateClaimDocumentQuery)).
		WithArgs("timesheet.pdf", "claim-documents/claims/5/abc.pdf", int64(5)).
		WillReturnRows(newClaimRows().
			AddRow(int64(5), "A", "a@x.com", "10", "100", nil, "timesheet.pdf", "claim-documents/claims/5/abc.pdf", "pending", now))

	updated, err := repo.AttachDocument(context.Background(), 5, "timesheet.pdf", "claim-documents/claims/5/abc.pdf")
	if err != nil {
		t.Fatalf("AttachDocument returned error: %v", err)
	}
	if !updated.HasDocument() {
		t.Fatalf("expected document to be attached")
	}
}

func TestTranslateClaimPgError(t *testing.T) {
	t.Parallel()

	if !errors.Is(translateClaimPgError(&pgconn.PgError{Code: checkViolationCode, ConstraintName: "claims_status_check"}), claim.ErrValidation) {
		t.Fatalf("expected check violation to map to ErrValidation")
	}
	if !errors.Is(translateClaimPgError(&pgconn.PgError{Code: notNullViolationCode, ColumnName: "lecturer_name"}), claim.ErrValidation) {
		t.Fatalf("expected not-null violation to map to ErrValidation")
	}

	otherErr := errors.New("random")
	if translateClaimPgError(otherErr) != otherErr {
		t.Fatalf("unexpected translation for generic error")
	}
	if translateClaimPgError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
