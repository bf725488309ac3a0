package http

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"soleplan/internal/config"
	apierrors "soleplan/internal/errors"
)

// ResultsHandler serves the report files the pipeline writes.
type ResultsHandler struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(paths *config.Paths, logger *slog.Logger) *ResultsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsHandler{
		paths:  paths,
		logger: logger.With(slog.String("handler", "results")),
	}
}

// Routes returns the results sub-router.
func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListResults)
	r.Get("/{name}", h.DownloadResult)
	return r
}

// ResultFile describes one generated report.
type ResultFile struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ListResults handles GET /api/results.
func (h *ResultsHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.paths.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			render.JSON(w, r, map[string]interface{}{"results": []ResultFile{}})
			return
		}
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.FileSystemError("list results", err)))
		return
	}

	var files []ResultFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, ResultFile{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })

	render.JSON(w, r, map[string]interface{}{"results": files})
}

// DownloadResult handles GET /api/results/{name}.
func (h *ResultsHandler) DownloadResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	// Reject path traversal attempts outright.
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.ErrInvalidParameter))
		return
	}

	path := h.paths.ReportPath(name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		render.Render(w, r, apierrors.NewErrorResponse(apierrors.NotFoundError(name)))
		return
	}

	h.logger.InfoContext(r.Context(), "serving result file",
		slog.String("file", name),
		slog.Int64("size", info.Size()))
	http.ServeFile(w, r, path)
}
