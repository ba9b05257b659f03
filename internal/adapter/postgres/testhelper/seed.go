package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/notesync-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedNote inserts an active IDEA note into the project and returns it.
func SeedNote(t *testing.T, pool *pgxpool.Pool, projectID uuid.UUID) domain.Note {
	t.Helper()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	n := domain.Note{
		ID:         domain.NoteID(uuid.NewString()),
		ProjectID:  projectID,
		Category:   domain.CategoryIdea,
		Title:      "Seeded note " + suffix,
		Content:    "seeded content",
		Attributes: map[string]string{"seed": suffix},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO notes (id, project_id, category, title, content, attributes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID.String(), n.ProjectID, n.Category.String(), n.Title, n.Content, n.Attributes, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedNote insert: %v", err)
	}

	return n
}
