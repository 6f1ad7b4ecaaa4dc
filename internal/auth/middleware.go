package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/yourorg/paper-broker/internal/domain"
)

type contextKey string

const contextKeyUserID contextKey = "userID"

// Resolver maps a request to the authenticated user.
type Resolver interface {
	Resolve(r *http.Request) (uuid.UUID, error)
}

// Middleware redirects unauthenticated requests to loginPath.
func Middleware(resolver Resolver, loginPath string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.Resolve(r)
			if err != nil {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					logger.Error("session lookup failed", "err", err)
					http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

func UserIDFromCtx(ctx context.Context) uuid.UUID {
	v, _ := ctx.Value(contextKeyUserID).(uuid.UUID)
	return v
}
