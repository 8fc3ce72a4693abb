package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"evdash/pkg/contracts/domain"
)

// SessionResolver starts or resumes a session.
type SessionResolver interface {
	Session(ctx context.Context, id string) (string, domain.FilterState, bool)
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type sessionKey struct{}

// SessionID returns the session id stored by SessionMiddleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSessionID stores id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionMiddleware resolves the session cookie for every request.
type SessionMiddleware struct {
	resolver SessionResolver
	cookie   CookieConfig
	logger   *slog.Logger
}

// NewSessionMiddleware creates the middleware.
func NewSessionMiddleware(resolver SessionResolver, cookie CookieConfig, logger *slog.Logger) *SessionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMiddleware{
		resolver: resolver,
		cookie:   cookie,
		logger:   logger.With(slog.String("component", "session_middleware")),
	}
}

// Handler stores the session id in the request context and sets the cookie
// when a new session was started.
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var incoming string
		if c, err := r.Cookie(m.cookie.Name); err == nil {
			incoming = c.Value
		}

		id, _, created := m.resolver.Session(r.Context(), incoming)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookie.Name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(m.cookie.TTL.Seconds()),
				HttpOnly: true,
				Secure:   m.cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			m.logger.DebugContext(r.Context(), "session started",
				slog.Bool("replaced", incoming != ""))
		}

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
	})
}
