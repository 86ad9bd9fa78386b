package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

type ctxKey int

const ctxKeySession ctxKey = iota

// sessionMiddleware resolves the session token to a live controller. The
// token comes from the Authorization header, or from a ?token= query
// parameter for EventSource and WebSocket clients that cannot set headers.
func sessionMiddleware(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeError(w, http.StatusUnauthorized, "session token required")
				return
			}

			ctrl, err := sessions.Get(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, ctrl)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		return ""
	}
	return token
}

func sessionFrom(r *http.Request) *session.Controller {
	return r.Context().Value(ctxKeySession).(*session.Controller)
}
