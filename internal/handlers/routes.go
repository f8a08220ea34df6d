package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter mounts the public catalog routes and the token-guarded admin
// routes.
func NewRouter(catalog *CatalogHandler, admin *AdminHandler, adminToken string) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog/{mediaType}", catalog.Home).Methods(http.MethodGet)
	api.HandleFunc("/catalog/{mediaType}/{category}", catalog.List).Methods(http.MethodGet)

	protected := api.PathPrefix("/admin").Subrouter()
	protected.Use(RequireToken(adminToken))
	protected.HandleFunc("/ingest", admin.TriggerIngest).Methods(http.MethodPost)
	protected.HandleFunc("/ingest/status", admin.IngestStatus).Methods(http.MethodGet)
	protected.HandleFunc("/catalog/{mediaType}/{id:[0-9]+}/visibility", admin.SetVisibility).Methods(http.MethodPut)

	return r
}
