package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zumatel/hlr-service-bff/internal/logger"
	"github.com/zumatel/hlr-service-bff/internal/metrics"
)

// NewRouter builds the full route table on top of the handler. The CORS
// wrapper sits outside the router so preflight requests are answered even for
// method mismatches.
func NewRouter(h *Handler) http.Handler {
	router := mux.NewRouter()
	router.Use(requestLogging)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()

	apiRouter.HandleFunc("/token/refresh", h.TokenRefresh).Methods(http.MethodPost)

	apiRouter.HandleFunc("/conta/{id}/detalhes", h.ContaDetalhes).Methods(http.MethodGet)
	apiRouter.HandleFunc("/hlr", h.HLRProxy).Methods(http.MethodPost)
	apiRouter.HandleFunc("/summa", h.SummaProxy).Methods(http.MethodPost)

	apiRouter.HandleFunc("/hss", h.HSSQuery).Methods(http.MethodPost)
	apiRouter.HandleFunc("/hss/network-subscriber/{imsi}", h.HSSQueryByPath).Methods(http.MethodGet)

	// The aggregate route must be registered before the per-program one so
	// "validate-partner-tiers" is not captured as a program name.
	apiRouter.HandleFunc("/hub/validate-partner-tiers", h.HubValidateAllTiers).Methods(http.MethodGet)
	apiRouter.HandleFunc("/hub/pague-menos/collaborator", h.HubCollaborator).Methods(http.MethodGet)
	apiRouter.HandleFunc("/hub/{program}/validate-tiers", h.HubValidateTiers).Methods(http.MethodGet)

	apiRouter.HandleFunc("/customer/{identifier}/complete-profile", h.CustomerProfile).Methods(http.MethodGet)

	return corsAllowAll(router)
}

// requestLogging logs every inbound request with its duration.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Infow("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}

// corsAllowAll mirrors the permissive CORS policy of the dashboard-facing
// deployment.
func corsAllowAll(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
