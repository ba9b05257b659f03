//go:build e2e

package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/audit"
	"github.com/heartmarshall/notesync-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/notesync-backend/internal/config"
	"github.com/heartmarshall/notesync-backend/internal/domain"
	"github.com/heartmarshall/notesync-backend/internal/service/notesync"
	"github.com/heartmarshall/notesync-backend/internal/transport/middleware"
)

func onlineConfig(dsn string, project uuid.UUID) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			DSN:             dsn,
			ApplicationName: "notesync-e2e",
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: time.Minute,
		},
		CORS: config.CORSConfig{AllowedOrigins: "*"},
		Sync: config.SyncConfig{
			Mode:          config.ModeOnline,
			ProjectID:     project,
			Channel:       "note_changes",
			MinBackoff:    50 * time.Millisecond,
			MaxBackoff:    time.Second,
			ResyncTimeout: 2 * time.Second,
			RateLimit:     1000,
			RateBurst:     1000,
		},
	}
}

// startOnline wires one online client the way Run does and returns its
// session and HTTP server.
func startOnline(t *testing.T, cfg *config.Config) (*notesync.Session, *httptest.Server) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	b, err := newOnlineBackend(ctx, cfg, log)
	require.NoError(t, err)
	t.Cleanup(b.close)

	session := notesync.NewSession(log, b.notes, b.feed, notesync.Config{
		ProjectID:     cfg.Sync.ProjectID,
		ResyncTimeout: cfg.Sync.ResyncTimeout,
	})
	require.NoError(t, startSession(ctx, session, b))
	t.Cleanup(session.Disconnect)
	go func() { _ = b.run(ctx) }()

	require.Eventually(t, func() bool {
		return session.Status() == domain.StatusConnected
	}, 10*time.Second, 20*time.Millisecond)

	limiter := middleware.NewRateLimiter(cfg.Sync.RateLimit, cfg.Sync.RateBurst, time.Minute)
	t.Cleanup(limiter.Stop)
	srv := httptest.NewServer(newHandler(cfg, log, session, b, limiter))
	t.Cleanup(srv.Close)

	return session, srv
}

func send(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func titleIn(s *notesync.Session, id domain.NoteID) string {
	n, ok := s.Note(id)
	if !ok {
		return ""
	}
	return n.Title
}

func TestE2E_TwoClientsConverge(t *testing.T) {
	dsn := testhelper.SetupTestDSN(t)
	pool := testhelper.SetupTestDB(t)
	project := uuid.New()
	cfg := onlineConfig(dsn, project)

	_, alice := startOnline(t, cfg)
	bob, _ := startOnline(t, cfg)

	// Create through Alice's HTTP surface; Bob learns about it from the feed.
	resp := send(t, alice, http.MethodPost, "/v1/notes", `{"category":"DECISION","title":"Adopt Postgres"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	id := domain.NoteID(created.ID)
	assert.False(t, id.IsLocal())

	require.Eventually(t, func() bool { return titleIn(bob, id) == "Adopt Postgres" },
		5*time.Second, 20*time.Millisecond)

	resp = send(t, alice, http.MethodPatch, "/v1/notes/"+created.ID, `{"title":"Adopt Postgres 17"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Eventually(t, func() bool { return titleIn(bob, id) == "Adopt Postgres 17" },
		5*time.Second, 20*time.Millisecond)

	resp = send(t, alice, http.MethodPost, "/v1/history/undo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { return titleIn(bob, id) == "Adopt Postgres" },
		5*time.Second, 20*time.Millisecond)

	resp = send(t, alice, http.MethodDelete, "/v1/notes/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Eventually(t, func() bool { _, ok := bob.Note(id); return !ok },
		5*time.Second, 20*time.Millisecond)

	trash, err := bob.Trash(context.Background())
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, id, trash[0].ID)

	records, err := audit.New(pool).GetByNote(context.Background(), id, 10)
	require.NoError(t, err)
	actions := make([]domain.AuditAction, 0, len(records))
	for _, r := range records {
		actions = append(actions, r.Action)
	}
	assert.ElementsMatch(t, []domain.AuditAction{
		domain.AuditActionCreate, domain.AuditActionUpdate, domain.AuditActionUpdate, domain.AuditActionDelete,
	}, actions)
}

func TestE2E_HealthReportsDatabaseAndFeed(t *testing.T) {
	dsn := testhelper.SetupTestDSN(t)
	_, srv := startOnline(t, onlineConfig(dsn, uuid.New()))

	resp := send(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status     string                       `json:"status"`
		Components map[string]map[string]string `json:"components"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Components["database"]["status"])
	assert.Equal(t, "CONNECTED", body.Components["feed"]["status"])
}
