package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FairForge/veridical/internal/detection"
	"github.com/FairForge/veridical/internal/pipeline"
	"github.com/FairForge/veridical/internal/ratelimit"
)

// AnalyzeRequest is the POST /analyze body.
type AnalyzeRequest struct {
	ImageBase64 string `json:"image_base64"`
	SourceURL   string `json:"source_url"`
	ImageURL    string `json:"image_url,omitempty"`
}

// AnalyzeResponse is the POST /analyze success body.
type AnalyzeResponse struct {
	RequestID        string            `json:"request_id"`
	IsAI             bool              `json:"is_ai"`
	Confidence       float64           `json:"confidence"`
	Verdict          detection.Verdict `json:"verdict"`
	AIProbability    float64           `json:"ai_probability"`
	RealProbability  float64           `json:"real_probability"`
	ProcessingTimeMs float64           `json:"processing_time_ms"`
	Cached           bool              `json:"cached"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
	Version     string `json:"version"`
}

// StatsResponse is the GET /stats body.
type StatsResponse struct {
	TotalAnalyses int64   `json:"total_analyses"`
	AIDetections  int64   `json:"ai_detections"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Rejected      int64   `json:"rejected"`
	Failed        int64   `json:"failed"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// clientIP extracts the requester's identity for rate limiting.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity := clientIP(r)

	var body AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, detection.CodeInvalidImage, "malformed request body")
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(body.ImageBase64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, detection.CodeInvalidImage, "invalid base64 image data")
		return
	}

	requestID := uuid.New().String()
	source := body.SourceURL
	if body.ImageURL != "" {
		source = body.ImageURL
	}

	result, err := s.orchestrator.Handle(r.Context(), pipeline.Request{
		ID:         requestID,
		ImageBytes: imageBytes,
		Source:     source,
		Identity:   identity,
	})

	ratelimit.SetHeaders(w, s.orchestrator.RateLimitInfo(identity))

	if err != nil {
		s.recordOutcome(err, time.Since(start))
		s.writePipelineError(w, identity, err)
		return
	}

	s.metrics.RequestCounter.WithLabelValues("completed").Inc()
	s.metrics.LatencyHistogram.WithLabelValues("completed").Observe(time.Since(start).Seconds())
	if result.CacheHit {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	s.writeJSON(w, http.StatusOK, AnalyzeResponse{
		RequestID:        requestID,
		IsAI:             result.IsAI,
		Confidence:       result.Confidence,
		Verdict:          result.Verdict,
		AIProbability:    result.AIProbability,
		RealProbability:  result.RealProbability,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Cached:           result.CacheHit,
	})
}

func (s *Server) recordOutcome(err error, elapsed time.Duration) {
	outcome := "error"
	switch detection.ErrorCode(err) {
	case detection.CodeInvalidImage:
		outcome = "invalid"
	case detection.CodeRateLimitExceeded:
		outcome = "rejected"
	case detection.CodeClassificationFailed:
		outcome = "failed"
	}
	s.metrics.RequestCounter.WithLabelValues(outcome).Inc()
	s.metrics.LatencyHistogram.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (s *Server) writePipelineError(w http.ResponseWriter, identity string, err error) {
	atomic.AddInt64(&s.errorCount, 1)

	switch {
	case errors.Is(err, detection.ErrInvalidImage):
		s.writeError(w, http.StatusBadRequest, detection.CodeInvalidImage, "invalid image data")
	case errors.Is(err, detection.ErrRateLimitExceeded):
		s.metrics.RateLimitHits.Inc()
		info := s.orchestrator.RateLimitInfo(identity)
		ratelimit.WriteRejection(w, time.Until(time.Unix(info.Reset, 0)))
	case errors.Is(err, detection.ErrClassificationFailed):
		s.writeError(w, http.StatusBadGateway, detection.CodeClassificationFailed, "classification failed")
	default:
		s.logger.Error("unexpected pipeline error", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "", "internal error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := s.orchestrator.Health()
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:      health.Status,
		ModelLoaded: health.ModelLoaded,
		Device:      health.Device,
		Version:     Version,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap := s.orchestrator.Stats()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		TotalAnalyses: snap.TotalAnalyses,
		AIDetections:  snap.AIDetections,
		CacheHits:     snap.CacheHits,
		CacheMisses:   snap.CacheMisses,
		CacheHitRate:  snap.CacheHitRate,
		Rejected:      snap.Rejected,
		Failed:        snap.Failed,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version": Version,
		"go":      runtime.Version(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
