package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

func newCaseRepoWithMock(t *testing.T) (*CaseRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &CaseRepository{db: db}, mock, func() { _ = db.Close() }
}

func caseRows(id string, status domain.CaseStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "image_path", "ai_diagnosis", "doctor_diagnosis", "confidence",
		"status", "provenance", "reviewer_id", "reviewer_notes", "language",
		"insights", "created_at", "reviewed_at",
	}).AddRow(
		id, "guest_1_x", id+"_scan.png", "tibia_fibula", nil, 0.55,
		string(status), "remote", "", "", "en",
		nil, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC), nil,
	)
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, owner_id, image_path").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansNullableFields(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, owner_id, image_path").
		WithArgs("case-1").
		WillReturnRows(caseRows("case-1", domain.StatusPendingReview))

	c, err := repo.GetByID(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if c.DoctorDiagnosis != nil || c.ReviewedAt != nil || c.Insights != nil {
		t.Fatalf("nullable fields must stay nil before review: %+v", c)
	}
	if c.AIDiagnosis != domain.FractureTibiaFibula || c.Status != domain.StatusPendingReview {
		t.Fatalf("case = %+v", c)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkReviewedGuardsTerminalStateInSQL(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	reviewedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE cases").
		WithArgs("case-1", string(domain.StatusDoctorConfirmed), "ankle", "doc-1", "distal fibula", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkReviewed(context.Background(), "case-1", "doc-1", domain.FractureAnkle, "distal fibula", reviewedAt)
	if err != nil {
		t.Fatalf("MarkReviewed() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkReviewedAlreadyTerminal(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	reviewedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE cases").
		WithArgs("case-1", string(domain.StatusDoctorConfirmed), "femur", "doc-2", "", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM cases").
		WithArgs("case-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(domain.StatusDoctorConfirmed)))

	err := repo.MarkReviewed(context.Background(), "case-1", "doc-2", domain.FractureFemur, "", reviewedAt)
	if !domain.IsKind(err, domain.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkReviewedMissingCase(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	reviewedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE cases").
		WithArgs("missing", string(domain.StatusDoctorConfirmed), "femur", "doc-2", "", reviewedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM cases").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := repo.MarkReviewed(context.Background(), "missing", "doc-2", domain.FractureFemur, "", reviewedAt)
	if !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM cases").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveInsightsReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE cases").
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveInsights(context.Background(), "missing", domain.ClinicalInsights{ContextualSummary: "s"})
	if !domain.IsKind(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListFiltersByOwnerAndStatus(t *testing.T) {
	repo, mock, done := newCaseRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, owner_id, image_path.* WHERE owner_id = \\$1 AND status = \\$2 ORDER BY created_at DESC").
		WithArgs("guest_1_x", string(domain.StatusPendingReview)).
		WillReturnRows(caseRows("case-1", domain.StatusPendingReview))

	cases, err := repo.List(context.Background(), ports.CaseFilter{
		OwnerID: "guest_1_x",
		Status:  domain.StatusPendingReview,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(cases) != 1 || cases[0].ID != "case-1" {
		t.Fatalf("cases = %+v", cases)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
