package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/notesync-backend/internal/auth"
	"github.com/heartmarshall/notesync-backend/pkg/ctxutil"
)

// actorRecorder is implemented by the access log's response writer, which
// wraps the request before Auth resolves the actor.
type actorRecorder interface {
	recordActor(uuid.UUID)
}

type tokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// Auth resolves the bearer token into an actor id on the context. Requests
// without a token stay anonymous unless required is set. Tokens scoped to
// another project are rejected.
func Auth(validator tokenValidator, project uuid.UUID, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				if required {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r) // Anonymous
				return
			}
			id, err := validator.Validate(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !id.Allows(project) {
				http.Error(w, auth.ErrProjectMismatch.Error(), http.StatusForbidden)
				return
			}
			if rec, ok := w.(actorRecorder); ok {
				rec.recordActor(id.ActorID)
			}
			ctx := ctxutil.WithActorID(r.Context(), id.ActorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken reads the Authorization header. Browsers cannot set
// headers on a websocket handshake, so upgrades may pass access_token instead.
func extractBearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
