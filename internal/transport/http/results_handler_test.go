package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soleplan/internal/config"
)

func newResultsRouter(t *testing.T) (http.Handler, *config.Paths) {
	t.Helper()
	paths := testPaths(t)
	require.NoError(t, paths.EnsureDirectories())
	return NewResultsHandler(paths, nil).Routes(), paths
}

func writeReport(t *testing.T, paths *config.Paths, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(paths.ReportPath(name), []byte(content), 0o644))
}

func TestListResults(t *testing.T) {
	router, paths := newResultsRouter(t)
	writeReport(t, paths, "results_argyll.xlsx", "workbook")
	writeReport(t, paths, "forecasts.csv", "reference,month,quantity\n")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []ResultFile `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	names := []string{resp.Results[0].Name, resp.Results[1].Name}
	assert.Contains(t, names, "results_argyll.xlsx")
	assert.Contains(t, names, "forecasts.csv")
}

func TestListResultsEmptyDirectory(t *testing.T) {
	router, _ := newResultsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results"`)
}

func TestDownloadResult(t *testing.T) {
	router, paths := newResultsRouter(t)
	writeReport(t, paths, "forecasts.csv", "reference,month,quantity\n")

	req := httptest.NewRequest(http.MethodGet, "/forecasts.csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reference,month,quantity\n", rec.Body.String())
}

func TestDownloadResultNotFound(t *testing.T) {
	router, _ := newResultsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/results_argyll.xlsx", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadResultRejectsTraversal(t *testing.T) {
	router, _ := newResultsRouter(t)

	for _, name := range []string{"..", ".hidden"} {
		req := httptest.NewRequest(http.MethodGet, "/"+name, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}
