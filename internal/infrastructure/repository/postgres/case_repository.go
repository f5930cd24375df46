package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/core/ports"
)

type CaseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CaseRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS cases (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	image_path TEXT NOT NULL,
	ai_diagnosis TEXT NOT NULL,
	doctor_diagnosis TEXT,
	confidence DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	provenance TEXT NOT NULL,
	reviewer_id TEXT NOT NULL DEFAULT '',
	reviewer_notes TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT 'en',
	insights JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	reviewed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_cases_owner_id ON cases(owner_id);
CREATE INDEX IF NOT EXISTS idx_cases_status ON cases(status);
CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at DESC);

CREATE TABLE IF NOT EXISTS identities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'user',
	created_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CaseRepository) Create(ctx context.Context, c *domain.Case) error {
	var insightsJSON any
	if c.Insights != nil {
		raw, err := json.Marshal(c.Insights)
		if err != nil {
			return fmt.Errorf("marshal insights: %w", err)
		}
		insightsJSON = raw
	}

	var doctorDiagnosis any
	if c.DoctorDiagnosis != nil {
		doctorDiagnosis = string(*c.DoctorDiagnosis)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO cases (
	id, owner_id, image_path, ai_diagnosis, doctor_diagnosis, confidence, status, provenance, reviewer_id, reviewer_notes, language, insights, created_at, reviewed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		c.ID, c.OwnerID, c.ImagePath, string(c.AIDiagnosis), doctorDiagnosis, c.Confidence,
		string(c.Status), string(c.Provenance), c.ReviewerID, c.ReviewerNotes, string(c.Language),
		insightsJSON, c.CreatedAt, c.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

const caseColumns = `id, owner_id, image_path, ai_diagnosis, doctor_diagnosis, confidence, status, provenance, reviewer_id, reviewer_notes, language, insights, created_at, reviewed_at`

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+caseColumns+`
FROM cases
WHERE id = $1
`, id)

	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCaseNotFound, "get case", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}
	return c, nil
}

func (r *CaseRepository) List(ctx context.Context, filter ports.CaseFilter) ([]domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases`
	var args []any
	var where []string

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where = append(where, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	if filter.OldestFirst {
		query += " ORDER BY created_at ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case row: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// MarkReviewed writes all review fields in one statement and re-validates
// the terminal-state precondition there, so a reviewer racing a committed
// review loses even when their earlier read saw pending_review.
func (r *CaseRepository) MarkReviewed(ctx context.Context, id, reviewerID string, diagnosis domain.FractureType, notes string, reviewedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET status = $2, doctor_diagnosis = $3, reviewer_id = $4, reviewer_notes = $5, reviewed_at = $6
WHERE id = $1 AND status <> $2
`, id, string(domain.StatusDoctorConfirmed), string(diagnosis), reviewerID, notes, reviewedAt)
	if err != nil {
		return fmt.Errorf("mark reviewed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark reviewed rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// No row updated: either the case is gone or it is already terminal.
	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM cases WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrCaseNotFound, "mark reviewed", fmt.Errorf("id %s", id))
	}
	if err != nil {
		return fmt.Errorf("mark reviewed status check: %w", err)
	}
	return domain.WrapError(domain.ErrAlreadyReviewed, "mark reviewed", fmt.Errorf("case %s is %s", id, status))
}

func (r *CaseRepository) SaveInsights(ctx context.Context, id string, insights domain.ClinicalInsights) error {
	raw, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE cases
SET insights = $2
WHERE id = $1
`, id, raw)
	if err != nil {
		return fmt.Errorf("save insights: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save insights rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCaseNotFound, "save insights", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete case rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCaseNotFound, "delete case", fmt.Errorf("id %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	var c domain.Case
	var aiDiagnosis, status, provenance, language string
	var doctorDiagnosis sql.NullString
	var insightsRaw []byte
	var reviewedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.OwnerID, &c.ImagePath, &aiDiagnosis, &doctorDiagnosis, &c.Confidence,
		&status, &provenance, &c.ReviewerID, &c.ReviewerNotes, &language,
		&insightsRaw, &c.CreatedAt, &reviewedAt,
	)
	if err != nil {
		return nil, err
	}

	c.AIDiagnosis = domain.FractureType(aiDiagnosis)
	c.Status = domain.CaseStatus(status)
	c.Provenance = domain.Provenance(provenance)
	c.Language = domain.Language(language)
	if doctorDiagnosis.Valid {
		ft := domain.FractureType(doctorDiagnosis.String)
		c.DoctorDiagnosis = &ft
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		c.ReviewedAt = &at
	}
	if len(insightsRaw) > 0 {
		var insights domain.ClinicalInsights
		if err := json.Unmarshal(insightsRaw, &insights); err != nil {
			return nil, fmt.Errorf("unmarshal insights: %w", err)
		}
		c.Insights = &insights
	}
	return &c, nil
}
