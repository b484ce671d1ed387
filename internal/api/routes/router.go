package routes

import (
	"net/http"

	"github.com/zatekoja/transcript-triage/backend/internal/api/handlers"
	"github.com/zatekoja/transcript-triage/backend/internal/api/middleware"
	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	transcriptHandler *handlers.TranscriptHandler
	aiHandler         *handlers.AIHandler
	leadHandler       *handlers.LeadHandler
	dashboardHandler  *handlers.DashboardHandler
	patientHandler    *handlers.PatientHandler
	sseHandler        *handlers.SSEHandler

	allowedOrigins string
	metrics        *observability.Metrics
}

// NewRouter creates a new router. sseHandler may be nil when no event bus is configured.
func NewRouter(
	transcriptHandler *handlers.TranscriptHandler,
	aiHandler *handlers.AIHandler,
	leadHandler *handlers.LeadHandler,
	dashboardHandler *handlers.DashboardHandler,
	patientHandler *handlers.PatientHandler,
	sseHandler *handlers.SSEHandler,
	allowedOrigins string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		transcriptHandler: transcriptHandler,
		aiHandler:         aiHandler,
		leadHandler:       leadHandler,
		dashboardHandler:  dashboardHandler,
		patientHandler:    patientHandler,
		sseHandler:        sseHandler,
		allowedOrigins:    allowedOrigins,
		metrics:           metrics,
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

	// Transcript inbox
	r.mux.HandleFunc("POST /v1/transcripts", r.transcriptHandler.IngestTranscript)
	r.mux.HandleFunc("GET /v1/transcripts", r.transcriptHandler.ListTranscripts)
	r.mux.HandleFunc("GET /v1/transcripts/{id}", r.transcriptHandler.GetTranscript)
	r.mux.HandleFunc("POST /v1/transcripts/{id}/process", r.transcriptHandler.ProcessTranscript)
	r.mux.HandleFunc("GET /v1/transcripts/{id}/artifacts", r.transcriptHandler.ListArtifacts)
	r.mux.HandleFunc("GET /v1/transcripts/{id}/audit", r.transcriptHandler.ListAudit)

	// Text generation
	r.mux.HandleFunc("POST /v1/transcripts/{id}/ai/summary", r.aiHandler.GenerateSummary)
	r.mux.HandleFunc("POST /v1/transcripts/{id}/ai/leads", r.aiHandler.GenerateLeads)
	r.mux.HandleFunc("POST /v1/ai/models/warmup", r.aiHandler.WarmupModel)

	// Leads
	r.mux.HandleFunc("GET /v1/transcripts/{id}/leads", r.leadHandler.ListForTranscript)
	r.mux.HandleFunc("GET /v1/leads", r.leadHandler.ListQueue)
	r.mux.HandleFunc("POST /v1/leads/{id}/status", r.leadHandler.UpdateStatus)

	r.mux.HandleFunc("GET /v1/dashboard/metrics", r.dashboardHandler.GetMetrics)
	r.mux.HandleFunc("GET /v1/patients/{id}", r.patientHandler.GetPatient)

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /v1/stream/leads", r.sseHandler.StreamLeadUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight never reaches the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
