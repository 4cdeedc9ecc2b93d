package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/gophevents/internal/common"
	"github.com/dmitrijs2005/gophevents/internal/logging"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// UserIDFromContext returns the id placed by requireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// requireAuth accepts the token from the Authorization header or, failing
// that, from the BEARER cookie.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			s.writeError(w, r, common.ErrUnauthenticated)
			return
		}

		userID, err := s.tokens.Parse(token)
		if err != nil {
			s.logger.Debug(r.Context(), "rejected access token", "error", err)
			s.writeError(w, r, common.ErrUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(common.AuthorizationHeader); strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	}
	if c, err := r.Cookie(common.AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

// accessLog feeds chi's request logging into the service logger, so access
// lines share its level and format.
type accessLog struct {
	logger logging.Logger
}

func (a accessLog) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &accessEntry{
		ctx: r.Context(),
		logger: a.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
		),
	}
}

type accessEntry struct {
	ctx    context.Context
	logger logging.Logger
}

func (e *accessEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	args := []any{"status", status, "bytes", bytes, "elapsed", elapsed}
	if status >= http.StatusInternalServerError {
		e.logger.Error(e.ctx, "request served", args...)
		return
	}
	e.logger.Info(e.ctx, "request served", args...)
}

func (e *accessEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error(e.ctx, "request panicked", "panic", v, "stack", string(stack))
}
