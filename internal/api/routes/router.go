package routes

import (
	"net/http"

	"github.com/ricky2013dev/pm-bdm/internal/api/handlers"
	"github.com/ricky2013dev/pm-bdm/internal/api/middleware"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	eligibilityHandler *handlers.EligibilityHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	eligibilityHandler *handlers.EligibilityHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		eligibilityHandler: eligibilityHandler,
		allowedOrigins:     allowedOrigins,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Eligibility endpoints
	r.mux.HandleFunc("POST /eligibility/dental-benefits", r.eligibilityHandler.DentalBenefits)
	r.mux.HandleFunc("POST /eligibility/check", r.eligibilityHandler.Check)
	r.mux.HandleFunc("GET /eligibility/procedures", r.eligibilityHandler.ListProcedures)

	// last wrap runs first
	var handler http.Handler = r.mux
	handler = middleware.NoStore(handler)
	handler = middleware.Compression(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
