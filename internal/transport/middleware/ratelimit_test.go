package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/heartmarshall/notesync-backend/pkg/ctxutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(ctx context.Context, h http.Handler, remote string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil).WithContext(ctx)
	req.RemoteAddr = remote
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 10, time.Minute)
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, serve(context.Background(), handler, "1.2.3.4:1234"), "request %d should be allowed", i)
	}
}

func TestRateLimiter_BlocksOverBurst(t *testing.T) {
	rl := NewRateLimiter(0.5, 5, time.Minute)
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(context.Background(), handler, "1.2.3.4:1234"))
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_SameHostDifferentPortsShareBudget(t *testing.T) {
	rl := NewRateLimiter(0.1, 1, time.Minute)
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, serve(context.Background(), handler, "1.1.1.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, serve(context.Background(), handler, "1.1.1.1:2000"))
}

func TestRateLimiter_DifferentClientsIndependent(t *testing.T) {
	rl := NewRateLimiter(0.1, 2, time.Minute)
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	for i := 0; i < 2; i++ {
		serve(context.Background(), handler, "1.1.1.1:1234")
	}
	assert.Equal(t, http.StatusOK, serve(context.Background(), handler, "2.2.2.2:5678"))

	// Authenticated actors are keyed by id, not by address.
	actorCtx := ctxutil.WithActorID(context.Background(), uuid.New())
	assert.Equal(t, http.StatusOK, serve(actorCtx, handler, "1.1.1.1:1234"))
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl := NewRateLimiter(20, 1, time.Minute)
	defer rl.Stop()

	handler := rl.Limit()(okHandler())

	assert.Equal(t, http.StatusOK, serve(context.Background(), handler, "3.3.3.3:1"))
	assert.Equal(t, http.StatusTooManyRequests, serve(context.Background(), handler, "3.3.3.3:1"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, serve(context.Background(), handler, "3.3.3.3:1"))
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Millisecond)
	rl.Stop()
	rl.Stop()
}
