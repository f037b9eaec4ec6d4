package loggingmw

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
)

func runLogged(t *testing.T, clientRID string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(RequestLogger(base))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if clientRID != "" {
		req.Header.Set(echo.HeaderXRequestID, clientRID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestLoggerCarriesGeneratedRequestID(t *testing.T) {
	entry := runLogged(t, "")
	rid, ok := entry["request_id"].(string)
	require.True(t, ok, "request_id missing from log entry")
	require.NotEmpty(t, rid)
}

func TestRequestLoggerKeepsClientRequestID(t *testing.T) {
	entry := runLogged(t, "client-id-123")
	require.Equal(t, "client-id-123", entry["request_id"])
}
