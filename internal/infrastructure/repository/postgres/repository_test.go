package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirillkom/incident-docs/internal/core/domain"
)

var testScope = domain.Scope{FirmID: "firm-1"}

func TestIncidentRepositoryListAppliesClientFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	received := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "code", "incident_date", "received_day", "observations",
		"type_code", "type_name", "full_name", "national_id", "client_id", "client_name",
	}).
		AddRow("inc-1", "INC-1", from, received, "late twice", "LATE_ARRIVAL", "Late arrival", "Jane Doe", "X123", "c-1", "Acme").
		AddRow("inc-2", nil, to, nil, nil, "ABSENCE", "Absence", nil, nil, "c-1", "Acme")

	mock.ExpectQuery("FROM incidents i").
		WithArgs("firm-1", from, to, "c-1").
		WillReturnRows(rows)

	repo := NewIncidentRepository(db)
	incidents, err := repo.ListIncidentsForGeneration(context.Background(), testScope, domain.IncidentFilter{
		DateFrom:        from,
		DateTo:          to,
		CompanyClientID: " c-1 ",
	})
	if err != nil {
		t.Fatalf("ListIncidentsForGeneration() error = %v", err)
	}
	if len(incidents) != 2 {
		t.Fatalf("expected 2 incidents, got %d", len(incidents))
	}
	first := incidents[0]
	if first.Code != "INC-1" || first.Worker.FullName != "Jane Doe" || first.ReceivedDay == nil {
		t.Fatalf("unexpected first incident: %+v", first)
	}
	second := incidents[1]
	if second.Code != "" || second.Worker.NationalID != "" || second.ReceivedDay != nil {
		t.Fatalf("expected nullable columns to scan as empty: %+v", second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTemplateRepositoryGetActiveReturnsTemplateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM document_templates").
		WithArgs("firm-1", "c-1", "ABSENCE").
		WillReturnRows(sqlmock.NewRows([]string{"storage_path", "version"}))

	repo := NewTemplateRepository(db)
	_, err = repo.GetActive(context.Background(), testScope, domain.TemplateScope{CompanyClientID: "c-1", TemplateKey: "ABSENCE"})
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTemplateRepositoryGetActiveRejectsEmptyStoragePath(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM document_templates").
		WithArgs("firm-1", "c-1", "ABSENCE").
		WillReturnRows(sqlmock.NewRows([]string{"storage_path", "version"}).AddRow("  ", 3))

	repo := NewTemplateRepository(db)
	_, err = repo.GetActive(context.Background(), testScope, domain.TemplateScope{CompanyClientID: "c-1", TemplateKey: "ABSENCE"})
	if !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestTemplateRepositoryActivateVersionDeactivatesThenInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	tpl := &domain.Template{
		ID:              "tpl-2",
		FirmID:          "firm-1",
		CompanyClientID: "c-1",
		TemplateKey:     "ABSENCE",
		Version:         2,
		StoragePath:     "templates/firm-1/c-1/ABSENCE/v2.docx",
		CreatedAt:       time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE document_templates").
		WithArgs("firm-1", "c-1", "ABSENCE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_templates").
		WithArgs(tpl.ID, tpl.FirmID, tpl.CompanyClientID, tpl.TemplateKey, tpl.Version, tpl.StoragePath, true, tpl.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewTemplateRepository(db)
	if err := repo.ActivateVersion(context.Background(), tpl); err != nil {
		t.Fatalf("ActivateVersion() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTemplateRepositoryActivateVersionRollsBackOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE document_templates").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO document_templates").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	repo := NewTemplateRepository(db)
	err = repo.ActivateVersion(context.Background(), &domain.Template{ID: "tpl-2", FirmID: "firm-1", CompanyClientID: "c-1", TemplateKey: "ABSENCE", Version: 2})
	if !errors.Is(err, domain.ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTemplateRepositoryDeactivateReturnsNotFoundWhenNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE document_templates").
		WithArgs("missing", "firm-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTemplateRepository(db)
	err = repo.Deactivate(context.Background(), testScope, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGeneratedDocumentRepositoryExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM generated_documents").
		WithArgs("firm-1", "inc-1", "ABSENCE", 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewGeneratedDocumentRepository(db)
	exists, err := repo.Exists(context.Background(), testScope, "inc-1", "ABSENCE", 3)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Fatalf("expected record to exist")
	}
}

func TestGeneratedDocumentRepositoryInsertMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO generated_documents").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "generated_documents_firm_id_incident_id_key"})

	repo := NewGeneratedDocumentRepository(db)
	err = repo.Insert(context.Background(), &domain.GeneratedDocumentRecord{
		ID:              "rec-1",
		FirmID:          "firm-1",
		IncidentID:      "inc-1",
		TemplateKey:     "ABSENCE",
		TemplateVersion: 3,
	})
	if !errors.Is(err, domain.ErrDuplicateRecord) {
		t.Fatalf("expected ErrDuplicateRecord, got %v", err)
	}
}

func TestGeneratedDocumentRepositoryInsertKeepsOtherErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO generated_documents").
		WillReturnError(errors.New("connection reset"))

	repo := NewGeneratedDocumentRepository(db)
	err = repo.Insert(context.Background(), &domain.GeneratedDocumentRecord{ID: "rec-1"})
	if err == nil || errors.Is(err, domain.ErrDuplicateRecord) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
