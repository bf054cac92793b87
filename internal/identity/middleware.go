package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/imdevedugame/backend-pwa/internal/logging"
	"github.com/imdevedugame/backend-pwa/internal/respond"
)

type CredentialResolver interface {
	Resolve(ctx context.Context, credential string) (int64, error)
}

// RequireUser rejects requests without a resolvable bearer token and stores
// the caller's user id in the request context.
func RequireUser(resolver CredentialResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := resolver.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				logging.FromContext(r.Context()).Error("failed to resolve user", "error", err)
				respond.Fail(w, r, http.StatusInternalServerError, "internal server error")
				return
			}
			respond.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := WithUserID(r.Context(), userID)
		ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
