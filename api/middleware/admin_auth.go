package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

// AdminToken guards operator routes with a static bearer token. An empty
// configured token rejects every request.
func AdminToken(token string, logg *logger.Logger) func(http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			presented := raw
			if strings.HasPrefix(strings.ToLower(presented), "bearer ") {
				presented = strings.TrimSpace(presented[7:])
			}
			if presented == "" || len(expected) == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithField(ctx, "actor_role", "admin")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
