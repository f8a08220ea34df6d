package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"marquee/internal/models"
	"marquee/internal/services"
)

type catalogResolver interface {
	Resolve(ctx context.Context, q models.QuerySpec) models.ListEnvelope
	ResolveMany(ctx context.Context, queries []models.QuerySpec) []models.ListEnvelope
}

var _ catalogResolver = (*services.Resolver)(nil)

// HomeRow is one titled listing on a media type's landing page.
type HomeRow struct {
	Category models.Category     `json:"category"`
	Listing  models.ListEnvelope `json:"listing"`
}

type CatalogHandler struct {
	Resolver catalogResolver
	Logger   *logrus.Logger
}

func NewCatalogHandler(resolver catalogResolver, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Resolver: resolver, Logger: logger}
}

// List serves one resolved listing. The resolver never fails, so the only
// errors here are malformed requests.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType, ok := models.ParseMediaType(vars["mediaType"])
	if !ok {
		writeJSONError(w, "unknown media type", http.StatusBadRequest)
		return
	}

	q := models.QuerySpec{
		MediaType: mediaType,
		Category:  models.Category(strings.ToLower(strings.TrimSpace(vars["category"]))),
	}

	query := r.URL.Query()
	var err error
	if q.Page, err = optionalInt(query.Get("page"), 1); err != nil {
		writeJSONError(w, "page must be an integer", http.StatusBadRequest)
		return
	}
	if q.GenreID, err = optionalIntPtr(query.Get("genre")); err != nil {
		writeJSONError(w, "genre must be an integer", http.StatusBadRequest)
		return
	}
	if q.Year, err = optionalIntPtr(query.Get("year")); err != nil {
		writeJSONError(w, "year must be an integer", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.Resolver.Resolve(r.Context(), q))
}

// Home resolves the landing page rows for a media type concurrently.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	mediaType, ok := models.ParseMediaType(mux.Vars(r)["mediaType"])
	if !ok {
		writeJSONError(w, "unknown media type", http.StatusBadRequest)
		return
	}

	categories := homeCategories(mediaType)
	queries := make([]models.QuerySpec, len(categories))
	for i, c := range categories {
		queries[i] = models.QuerySpec{MediaType: mediaType, Category: c, Page: 1}
	}

	listings := h.Resolver.ResolveMany(r.Context(), queries)
	rows := make([]HomeRow, len(categories))
	for i, c := range categories {
		rows[i] = HomeRow{Category: c, Listing: listings[i]}
	}

	writeJSON(w, http.StatusOK, rows)
}

func homeCategories(m models.MediaType) []models.Category {
	if m == models.MediaShow {
		return []models.Category{models.CategoryTrending, models.CategoryPopular, models.CategoryTopRated, models.CategoryOnTheAir}
	}
	return []models.Category{models.CategoryTrending, models.CategoryPopular, models.CategoryTopRated, models.CategoryNowPlaying}
}

func optionalInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func optionalIntPtr(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
