package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"marquee/internal/models"
	"marquee/internal/repository"
	"marquee/internal/services"
)

type ingestRunner interface {
	Run(ctx context.Context, pageCap int) (services.RunResult, error)
	Running() bool
	LastRun() (services.RunResult, bool)
}

var _ ingestRunner = (*services.Pipeline)(nil)

type visibilitySetter interface {
	SetVisible(ctx context.Context, m models.MediaType, id int64, visible bool) error
}

type IngestStatus struct {
	Running bool                `json:"running"`
	LastRun *services.RunResult `json:"lastRun"`
}

type AdminHandler struct {
	Pipeline ingestRunner
	Store    visibilitySetter
	PageCap  int
	Timeout  time.Duration
	Logger   *logrus.Logger
}

func NewAdminHandler(pipeline ingestRunner, store visibilitySetter, pageCap int, timeout time.Duration, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Pipeline: pipeline, Store: store, PageCap: pageCap, Timeout: timeout, Logger: logger}
}

// TriggerIngest runs one ingestion pass and returns its counts. The run is
// detached from the request so a dropped connection does not interrupt it.
func (h *AdminHandler) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	pageCap, err := optionalInt(r.URL.Query().Get("pageCap"), h.PageCap)
	if err != nil || pageCap < 0 {
		writeJSONError(w, "pageCap must be a non-negative integer", http.StatusBadRequest)
		return
	}

	ctx := context.Background()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	result, err := h.Pipeline.Run(ctx, pageCap)
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		h.Logger.WithError(err).Error("Manual ingestion failed")
		writeJSONError(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) IngestStatus(w http.ResponseWriter, r *http.Request) {
	status := IngestStatus{Running: h.Pipeline.Running()}
	if last, ok := h.Pipeline.LastRun(); ok {
		status.LastRun = &last
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AdminHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType, ok := models.ParseMediaType(vars["mediaType"])
	if !ok {
		writeJSONError(w, "unknown media type", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "id must be a positive integer", http.StatusBadRequest)
		return
	}

	var body struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Visible == nil {
		writeJSONError(w, "body must be {\"visible\": bool}", http.StatusBadRequest)
		return
	}

	if err := h.Store.SetVisible(r.Context(), mediaType, id, *body.Visible); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSONError(w, "catalog item not found", http.StatusNotFound)
			return
		}
		h.Logger.WithFields(logrus.Fields{
			"media_type": mediaType,
			"id":         id,
		}).WithError(err).Error("Failed to update visibility")
		writeJSONError(w, "failed to update visibility", http.StatusInternalServerError)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"media_type": mediaType,
		"id":         id,
		"visible":    *body.Visible,
	}).Info("Catalog visibility updated")

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        id,
		"mediaType": mediaType,
		"visible":   *body.Visible,
	})
}

// RequireToken rejects requests whose X-Admin-Token header does not match
// token. An empty token disables the check.
func RequireToken(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
