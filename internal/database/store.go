// Package database persists mapping templates and run history in
// PostgreSQL. Template documents are stored as JSONB so older server
// versions can still read documents written by newer ones.
package database

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a template or run does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateName is returned when a template name is already taken.
var ErrDuplicateName = errors.New("template name already exists")

// TemplateRecord is a stored mapping template.
type TemplateRecord struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RunRecord is one completed generation run.
type RunRecord struct {
	ID           uuid.UUID       `json:"id"`
	TemplateID   *uuid.UUID      `json:"templateId,omitempty"`
	WorkbookName string          `json:"workbookName"`
	Sheet        string          `json:"sheet,omitempty"`
	Mode         string          `json:"mode"`
	RecordCount  int             `json:"recordCount"`
	Warnings     []string        `json:"warnings,omitempty"`
	Stats        json.RawMessage `json:"stats,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// RunParams captures a run for the history table.
type RunParams struct {
	TemplateID   *uuid.UUID
	WorkbookName string
	Sheet        string
	Mode         string
	RecordCount  int
	Warnings     []string
	Stats        json.RawMessage
}

// Store is the persistence surface the web layer depends on.
type Store interface {
	CreateTemplate(ctx context.Context, name string, document json.RawMessage) (*TemplateRecord, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateRecord, error)
	ListTemplates(ctx context.Context) ([]TemplateRecord, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, name string, document json.RawMessage) (*TemplateRecord, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	RecordRun(ctx context.Context, params RunParams) (*RunRecord, error)
	ListRuns(ctx context.Context, limit, offset int) ([]RunRecord, error)
	PruneRuns(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PgStore implements Store on a pgx connection pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps an existing pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema applies the embedded schema. Every statement is
// idempotent, so running it on each startup is safe.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const templateColumns = "id, name, document, created_at, updated_at"

func (s *PgStore) CreateTemplate(ctx context.Context, name string, document json.RawMessage) (*TemplateRecord, error) {
	row := s.pool.QueryRow(ctx,
		"INSERT INTO templates (name, document) VALUES ($1, $2) RETURNING "+templateColumns,
		name, document)
	rec, err := scanTemplate(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		return nil, fmt.Errorf("create template: %w", err)
	}
	return rec, nil
}

func (s *PgStore) GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateRecord, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+templateColumns+" FROM templates WHERE id = $1", toPgUUID(id))
	rec, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: template %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return rec, nil
}

func (s *PgStore) ListTemplates(ctx context.Context) ([]TemplateRecord, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+templateColumns+" FROM templates ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]TemplateRecord, 0)
	for rows.Next() {
		rec, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (s *PgStore) UpdateTemplate(ctx context.Context, id uuid.UUID, name string, document json.RawMessage) (*TemplateRecord, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE templates SET name = $2, document = $3, updated_at = now() WHERE id = $1 RETURNING "+templateColumns,
		toPgUUID(id), name, document)
	rec, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: template %s", ErrNotFound, id)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		return nil, fmt.Errorf("update template: %w", err)
	}
	return rec, nil
}

func (s *PgStore) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM templates WHERE id = $1", toPgUUID(id))
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	return nil
}

const runColumns = "id, template_id, workbook_name, sheet, mode, record_count, warnings, stats, created_at"

func (s *PgStore) RecordRun(ctx context.Context, params RunParams) (*RunRecord, error) {
	warnings := params.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO runs (template_id, workbook_name, sheet, mode, record_count, warnings, stats)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+runColumns,
		toPgUUIDPtr(params.TemplateID), params.WorkbookName, params.Sheet,
		params.Mode, params.RecordCount, warnings, params.Stats)
	rec, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return rec, nil
}

func (s *PgStore) ListRuns(ctx context.Context, limit, offset int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

func (s *PgStore) PruneRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM runs WHERE created_at < now() - $1::interval",
		fmt.Sprintf("%d seconds", int64(olderThan.Seconds())))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTemplate(row pgx.Row) (*TemplateRecord, error) {
	var (
		rec TemplateRecord
		id  pgtype.UUID
	)
	if err := row.Scan(&id, &rec.Name, &rec.Document, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	rec.ID = uuid.UUID(id.Bytes)
	return &rec, nil
}

func scanRun(row pgx.Row) (*RunRecord, error) {
	var (
		rec        RunRecord
		id         pgtype.UUID
		templateID pgtype.UUID
	)
	if err := row.Scan(&id, &templateID, &rec.WorkbookName, &rec.Sheet, &rec.Mode,
		&rec.RecordCount, &rec.Warnings, &rec.Stats, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.ID = uuid.UUID(id.Bytes)
	if templateID.Valid {
		tid := uuid.UUID(templateID.Bytes)
		rec.TemplateID = &tid
	}
	return &rec, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toPgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return toPgUUID(*id)
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
