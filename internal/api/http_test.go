package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToAPIErrorSchemaMissing(t *testing.T) {
	e := toAPIError(http.StatusInternalServerError, errors.New(`relation "papers" does not exist`))
	require.Equal(t, "RH-DB-5001", e.Code)
}

func TestToAPIErrorConnectionRefused(t *testing.T) {
	e := toAPIError(http.StatusInternalServerError, errors.New("dial tcp 127.0.0.1:5432: connection refused"))
	require.Equal(t, "RH-DB-5002", e.Code)
}

func TestToAPIErrorValidationMessages(t *testing.T) {
	e := toAPIError(http.StatusBadRequest, errors.New("workspace_id and message are required"))
	require.Equal(t, "RH-API-4001", e.Code)
	require.Equal(t, "Both workspace and message are required.", e.Message)

	e = toAPIError(http.StatusBadRequest, errors.New("unsupported tool: translate"))
	require.Contains(t, e.Message, "summarize")
}

func TestToAPIErrorBadGateway(t *testing.T) {
	e := toAPIError(http.StatusBadGateway, errors.New("embedding providers unavailable"))
	require.Equal(t, "RH-API-5020", e.Code)
}

func TestRequestUserID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/papers", nil)
	_, err := requestUserID(r)
	require.Error(t, err)

	r.Header.Set("X-User-ID", " u-123 ")
	id, err := requestUserID(r)
	require.NoError(t, err)
	require.Equal(t, "u-123", id)
}

func TestWithCORSPreflight(t *testing.T) {
	h := withCORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/papers", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
