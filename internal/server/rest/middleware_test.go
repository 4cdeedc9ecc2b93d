package rest

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophevents/internal/logging"
)

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestAccessLog_WritesThroughServiceLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	s := NewServer(Options{}, l, &stubAccounts{}, &stubEvents{list: nil}, stubTokens{})
	rec := do(t, s.Router(), http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	lines := jsonLines(t, &buf)
	require.NotEmpty(t, lines)
	last := lines[len(lines)-1]
	assert.Equal(t, "request served", last["msg"])
	assert.Equal(t, "INFO", last["level"])
	assert.Equal(t, "GET", last["method"])
	assert.Equal(t, "/api/events", last["path"])
	assert.EqualValues(t, 200, last["status"])
	assert.NotEmpty(t, last["request_id"])
}

func TestAccessLog_PanicIsLoggedAsError(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(accessLog{logger: l}))
	r.Use(middleware.Recoverer)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var msgs []string
	for _, line := range jsonLines(t, &buf) {
		assert.Equal(t, "ERROR", line["level"])
		msgs = append(msgs, line["msg"].(string))
	}
	assert.Contains(t, msgs, "request panicked")
	assert.Contains(t, msgs, "request served")
}
