package routing

import (
	"net/http"

	"baristalog/internal/handlers"
	"baristalog/internal/middleware"

	"github.com/rs/zerolog"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Beans
	mux.HandleFunc("GET /api/beans", h.HandleBeanList)
	mux.HandleFunc("POST /api/beans", h.HandleBeanCreate)
	mux.HandleFunc("GET /api/beans/{id}", h.HandleBeanGet)
	mux.HandleFunc("PUT /api/beans/{id}", h.HandleBeanUpdate)
	mux.HandleFunc("DELETE /api/beans/{id}", h.HandleBeanDelete)
	mux.HandleFunc("GET /api/beans/{id}/image", h.HandleBeanImageGet)
	mux.HandleFunc("PUT /api/beans/{id}/image", h.HandleBeanImagePut)
	mux.HandleFunc("DELETE /api/beans/{id}/image", h.HandleBeanImageDelete)
	mux.HandleFunc("GET /api/beans/{id}/history", h.HandleBeanHistory)

	// Grinders
	mux.HandleFunc("GET /api/grinders", h.HandleGrinderList)
	mux.HandleFunc("POST /api/grinders", h.HandleGrinderCreate)
	mux.HandleFunc("GET /api/grinders/{id}", h.HandleGrinderGet)
	mux.HandleFunc("PUT /api/grinders/{id}", h.HandleGrinderUpdate)
	mux.HandleFunc("DELETE /api/grinders/{id}", h.HandleGrinderDelete)
	mux.HandleFunc("GET /api/grinders/{id}/image", h.HandleGrinderImageGet)
	mux.HandleFunc("PUT /api/grinders/{id}/image", h.HandleGrinderImagePut)
	mux.HandleFunc("DELETE /api/grinders/{id}/image", h.HandleGrinderImageDelete)
	mux.HandleFunc("GET /api/grinders/{id}/history", h.HandleGrinderHistory)

	// Brewers
	mux.HandleFunc("GET /api/brewers", h.HandleBrewerList)
	mux.HandleFunc("POST /api/brewers", h.HandleBrewerCreate)
	mux.HandleFunc("GET /api/brewers/{id}", h.HandleBrewerGet)
	mux.HandleFunc("PUT /api/brewers/{id}", h.HandleBrewerUpdate)
	mux.HandleFunc("DELETE /api/brewers/{id}", h.HandleBrewerDelete)
	mux.HandleFunc("GET /api/brewers/{id}/image", h.HandleBrewerImageGet)
	mux.HandleFunc("PUT /api/brewers/{id}/image", h.HandleBrewerImagePut)
	mux.HandleFunc("DELETE /api/brewers/{id}/image", h.HandleBrewerImageDelete)
	mux.HandleFunc("GET /api/brewers/{id}/history", h.HandleBrewerHistory)

	// Extractions
	mux.HandleFunc("GET /api/extractions", h.HandleExtractionList)
	mux.HandleFunc("POST /api/extractions", h.HandleExtractionCreate)
	mux.HandleFunc("GET /api/extractions/draft", h.HandleExtractionDraft)
	mux.HandleFunc("GET /api/extractions/{id}", h.HandleExtractionGet)
	mux.HandleFunc("PUT /api/extractions/{id}", h.HandleExtractionUpdate)
	mux.HandleFunc("DELETE /api/extractions/{id}", h.HandleExtractionDelete)
	mux.HandleFunc("GET /api/history", h.HandleHistory)

	// Coaching
	mux.HandleFunc("GET /api/extractions/{id}/coaching", h.HandleCoachingStatus)
	mux.HandleFunc("POST /api/extractions/{id}/coaching", h.HandleCoachingAnalyze)

	// Settings and data management
	mux.HandleFunc("GET /api/preferences", h.HandlePreferencesGet)
	mux.HandleFunc("PUT /api/preferences", h.HandlePreferencesUpdate)
	mux.HandleFunc("POST /api/reset", h.HandleReset)
	mux.HandleFunc("GET /api/export", h.HandleExport)

	// Apply middleware in order (innermost first, outermost last)
	var handler http.Handler = mux

	// 1. Limit request body size
	handler = middleware.LimitBodyMiddleware(handler)

	// 2. Add security headers
	handler = middleware.SecurityHeadersMiddleware(handler)

	// 3. Log all requests
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	// 4. Tag requests so the log line and the response share an ID
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}
