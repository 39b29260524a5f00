package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/geonews/geonews/internal/article"
)

// IngestRunner triggers one on-demand ingestion pass.
type IngestRunner interface {
	RunOnce(ctx context.Context) error
}

type Handler struct {
	repo         article.Repository
	runner       IngestRunner
	recentWindow time.Duration
	logger       *log.Logger
}

func NewHandler(repo article.Repository, runner IngestRunner, recentWindow time.Duration, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		repo:         repo,
		runner:       runner,
		recentWindow: recentWindow,
		logger:       logger,
	}
}

type articlesResponse struct {
	TotalResults int               `json:"totalResults"`
	Articles     []article.Article `json:"articles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetArticles filters stored articles by category and/or publication time
// range. With only a category, the window defaults to the recent past.
func (h *Handler) GetArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	startStr := q.Get("start_time")
	endStr := q.Get("end_time")

	var (
		articles []article.Article
		err      error
	)

	switch {
	case category != "" && startStr != "" && endStr != "":
		from, to, perr := parseRange(startStr, endStr)
		if perr != nil {
			h.writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		articles, err = h.repo.FindByCategoryAndRange(r.Context(), category, from, to)

	case category != "":
		since := time.Now().UTC().Add(-h.recentWindow)
		articles, err = h.repo.FindByCategory(r.Context(), category, since)

	case startStr != "" && endStr != "":
		from, to, perr := parseRange(startStr, endStr)
		if perr != nil {
			h.writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		articles, err = h.repo.FindByRange(r.Context(), from, to)

	default:
		h.writeError(w, http.StatusBadRequest, "category or start_time/end_time required")
		return
	}

	if err != nil {
		h.logger.Printf("article query failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	h.writeJSON(w, http.StatusOK, articlesResponse{
		TotalResults: len(articles),
		Articles:     articles,
	})
}

// GetEverythingBySource returns every stored article from one source.
func (h *Handler) GetEverythingBySource(w http.ResponseWriter, r *http.Request) {
	source := mux.Vars(r)["source"]

	articles, err := h.repo.FindBySource(r.Context(), source)
	if err != nil {
		h.logger.Printf("source query failed for %q: %v", source, err)
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	h.writeJSON(w, http.StatusOK, articlesResponse{
		TotalResults: len(articles),
		Articles:     articles,
	})
}

// TriggerUpdate runs one ingestion pass on demand.
func (h *Handler) TriggerUpdate(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.RunOnce(r.Context()); err != nil {
		h.logger.Printf("on-demand update failed: %v", err)
		h.writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Printf("writing response failed: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// parseRange accepts RFC3339 timestamps; a timestamp without an offset is
// treated as UTC.
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	from, err := parseTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
