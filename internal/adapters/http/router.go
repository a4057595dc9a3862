package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
	"github.com/docsage/docsage/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	answerSvc ports.AnswerService
	ingestor  ports.DocumentIngestor
	documents ports.DocumentReader
	metrics   *metrics.HTTPServerMetrics
	cfg       config.Config
}

func NewRouter(
	answerSvc ports.AnswerService,
	ingestor ports.DocumentIngestor,
	documents ports.DocumentReader,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg config.Config,
) *Router {
	return &Router{
		answerSvc: answerSvc,
		ingestor:  ingestor,
		documents: documents,
		metrics:   serverMetrics,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/answer", rt.answer)
	mux.HandleFunc("/v1/cache/clear", rt.clearCache)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitPerSecond, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(serviceName, handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		r.FormValue("title"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.documents.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	start := time.Now()
	resp, err := rt.answerSvc.Answer(r.Context(), req)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer(
			serviceName,
			resp.Success,
			string(resp.SearchMethod),
			string(resp.ModeUsed),
			len(resp.Sources),
			time.Since(start),
		)
		rt.metrics.RecordCacheLookup(serviceName, resp.CacheLevel, resp.CacheHit)
		if resp.FallbackApplied {
			rt.metrics.RecordFallback(serviceName, string(resp.ModeUsed))
		}
	}

	// Validation failures stay HTTP 200: the response body carries the
	// structured errors and suggestions.
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) clearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Pattern string `json:"pattern"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	cleared, err := rt.answerSvc.ClearCache(r.Context(), req.Pattern)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordCacheCleared(serviceName, cleared)
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
