package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/metrics"
	healthuc "github.com/kailas-cloud/recall/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the recall API.
type Server struct {
	search        Searcher
	injection     Injector
	memories      MemoryWriter
	documents     DocumentIndexer
	batch         DocumentBatcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	injection Injector,
	memories MemoryWriter,
	documents DocumentIndexer,
	batch DocumentBatcher,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:    search,
		injection: injection,
		memories:  memories,
		documents: documents,
		batch:     batch,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMemoryNotFound, http.StatusNotFound, CodeMemoryNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidMemory, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidInstruction, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrKeywordSearchNotSupported, http.StatusNotImplemented, CodeKeywordSearchNotSupported),
	}
	return s
}

// Routes builds the chi router with the full middleware chain.
func (s *Server) Routes(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/search", s.Search)
	r.Get("/search/stats", s.SearchStats)

	r.Route("/users/{userID}", func(r chi.Router) {
		r.Get("/conversations/{conversationID}/injection", s.GetInjection)
		r.Post("/memories", s.CreateMemory)
		r.Delete("/memories/{memoryID}", s.DeleteMemory)
		r.Post("/instructions", s.CreateInstruction)
	})

	r.Post("/documents", s.IndexDocument)
	r.Post("/documents/batch", s.BatchIndexDocuments)
	r.Delete("/documents/batch", s.BatchDeleteDocuments)
	r.Delete("/documents/{id}", s.DeleteDocument)

	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
