// Package note implements the note repository using PostgreSQL.
// Queries are built with squirrel; soft-deleted rows stay in the table until
// HardDeleteOld purges them.
package note

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/notesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/notesync-backend/internal/domain"
)

const table = "notes"

var columns = []string{
	"id", "project_id", "category", "title", "content", "attributes",
	"created_at", "updated_at", "deleted_at", "deleted_by",
}

const returning = "RETURNING id, project_id, category, title, content, attributes, created_at, updated_at, deleted_at, deleted_by"

// Repo provides note persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new note repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a note by id, including soft-deleted notes.
func (r *Repo) GetByID(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	query := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id.String()})

	return r.queryOne(ctx, query, id)
}

// ListActive returns the project's active notes, newest first.
func (r *Repo) ListActive(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	query := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"project_id": projectID, "deleted_at": nil}).
		OrderBy("created_at DESC", "id")

	return r.queryMany(ctx, query)
}

// ListDeleted returns the project's soft-deleted notes, most recently deleted first.
func (r *Repo) ListDeleted(ctx context.Context, projectID uuid.UUID) ([]domain.Note, error) {
	query := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"project_id": projectID}).
		Where(sq.NotEq{"deleted_at": nil}).
		OrderBy("deleted_at DESC", "id")

	return r.queryMany(ctx, query)
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a note. An empty id lets the database assign one.
func (r *Repo) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	attrs := note.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}

	values := map[string]any{
		"project_id": note.ProjectID,
		"category":   note.Category.String(),
		"title":      note.Title,
		"content":    note.Content,
		"attributes": attrs,
	}
	if note.ID != "" {
		values["id"] = note.ID.String()
	}
	if !note.CreatedAt.IsZero() {
		values["created_at"] = note.CreatedAt
		values["updated_at"] = note.CreatedAt
	}

	query := postgres.Builder().
		Insert(table).
		SetMap(values).
		Suffix(returning)

	return r.queryOne(ctx, query, note.ID)
}

// Update applies a patch to an active note and bumps updated_at.
// Returns domain.ErrNotFound if the note is absent or soft-deleted.
func (r *Repo) Update(ctx context.Context, id domain.NoteID, patch domain.NotePatch) (*domain.Note, error) {
	query := postgres.Builder().
		Update(table).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id.String(), "deleted_at": nil}).
		Suffix(returning)

	if patch.Title != nil {
		query = query.Set("title", *patch.Title)
	}
	if patch.Content != nil {
		query = query.Set("content", *patch.Content)
	}
	if patch.Attributes != nil {
		query = query.Set("attributes", patch.Attributes)
	}

	return r.queryOne(ctx, query, id)
}

// SoftDelete marks an active note deleted. Returns domain.ErrNotFound if the
// note is absent or already deleted.
func (r *Repo) SoftDelete(ctx context.Context, id domain.NoteID, by *uuid.UUID) (*domain.Note, error) {
	query := postgres.Builder().
		Update(table).
		Set("deleted_at", sq.Expr("now()")).
		Set("deleted_by", uuidPtrToPg(by)).
		Where(sq.Eq{"id": id.String(), "deleted_at": nil}).
		Suffix(returning)

	return r.queryOne(ctx, query, id)
}

// Restore clears the delete marker of a soft-deleted note. Returns
// domain.ErrNotFound if the note is absent or not deleted.
func (r *Repo) Restore(ctx context.Context, id domain.NoteID) (*domain.Note, error) {
	query := postgres.Builder().
		Update(table).
		Set("deleted_at", nil).
		Set("deleted_by", nil).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id.String()}).
		Where(sq.NotEq{"deleted_at": nil}).
		Suffix(returning)

	return r.queryOne(ctx, query, id)
}

// HardDeleteOld removes notes soft-deleted before threshold and returns the count.
func (r *Repo) HardDeleteOld(ctx context.Context, threshold time.Time) (int64, error) {
	sql, args, err := postgres.Builder().
		Delete(table).
		Where(sq.Lt{"deleted_at": threshold}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build hard delete: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("hard delete notes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Query helpers
// ---------------------------------------------------------------------------

func (r *Repo) queryOne(ctx context.Context, query sq.Sqlizer, id domain.NoteID) (*domain.Note, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build note query: %w", err)
	}

	row := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, sql, args...)
	n, err := scanNote(row)
	if err != nil {
		return nil, postgres.MapError(err, "note", id)
	}
	return &n, nil
}

func (r *Repo) queryMany(ctx context.Context, query sq.SelectBuilder) ([]domain.Note, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build notes query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func scanNote(row pgx.Row) (domain.Note, error) {
	var (
		n         domain.Note
		id        string
		category  string
		attrs     map[string]string
		deletedBy pgtype.UUID
	)
	err := row.Scan(
		&id, &n.ProjectID, &category, &n.Title, &n.Content, &attrs,
		&n.CreatedAt, &n.UpdatedAt, &n.DeletedAt, &deletedBy,
	)
	if err != nil {
		return domain.Note{}, err
	}

	n.ID = domain.NoteID(id)
	n.Category = domain.Category(category)
	if len(attrs) > 0 {
		n.Attributes = attrs
	}
	if deletedBy.Valid {
		by := uuid.UUID(deletedBy.Bytes)
		n.DeletedBy = &by
	}
	return n, nil
}

func uuidPtrToPg(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
