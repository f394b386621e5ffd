package detection

import (
	"fmt"
)

// Verdict is the three-way classification outcome.
type Verdict string

const (
	VerdictLikelyAI   Verdict = "Likely AI"
	VerdictUncertain  Verdict = "Uncertain"
	VerdictLikelyReal Verdict = "Likely Real"
)

// Thresholds configures verdict derivation. A probability at or above
// High resolves to a definite verdict; anything below stays Uncertain.
type Thresholds struct {
	High float64
}

// DefaultThresholds matches the shipped model's calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{High: 0.6}
}

// Result is the outcome of classifying a single image. Immutable once
// produced; the cache returns copies, never shared pointers.
type Result struct {
	IsAI             bool    `json:"is_ai"`
	Confidence       float64 `json:"confidence"`
	Verdict          Verdict `json:"verdict"`
	AIProbability    float64 `json:"ai_probability"`
	RealProbability  float64 `json:"real_probability"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
	CacheHit         bool    `json:"cache_hit"`
}

// Resolve derives a Result from the classifier's raw probabilities.
// The verdict is a pure function of the probabilities and the
// configured thresholds:
//
//	aiProb >= High   -> Likely AI, confidence = aiProb
//	realProb >= High -> Likely Real, confidence = realProb
//	otherwise        -> Uncertain, confidence = max(aiProb, realProb)
func Resolve(aiProb, realProb float64, t Thresholds, processingTimeMs float64) (Result, error) {
	if aiProb < 0 || aiProb > 1 {
		return Result{}, fmt.Errorf("detection: ai probability out of range: %f", aiProb)
	}
	if realProb < 0 || realProb > 1 {
		return Result{}, fmt.Errorf("detection: real probability out of range: %f", realProb)
	}

	r := Result{
		AIProbability:    aiProb,
		RealProbability:  realProb,
		ProcessingTimeMs: processingTimeMs,
	}

	switch {
	case aiProb >= t.High:
		r.Verdict = VerdictLikelyAI
		r.IsAI = true
		r.Confidence = aiProb
	case realProb >= t.High:
		r.Verdict = VerdictLikelyReal
		r.Confidence = realProb
	default:
		r.Verdict = VerdictUncertain
		r.Confidence = max(aiProb, realProb)
	}

	return r, nil
}

// WithCacheHit returns a copy of the result flagged as served from cache.
func (r Result) WithCacheHit() Result {
	r.CacheHit = true
	return r
}

// ModelInfo describes the classifier collaborator.
type ModelInfo struct {
	Name   string `json:"name"`
	Device string `json:"device"`
	Loaded bool   `json:"loaded"`
}

// Health is the classifier-facing health snapshot exposed at the
// service boundary.
type Health struct {
	Status      string `json:"status"` // "healthy" or "offline"
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
}

// HealthFrom derives the boundary health report from model info.
func HealthFrom(info ModelInfo) Health {
	status := "offline"
	if info.Loaded {
		status = "healthy"
	}
	return Health{
		Status:      status,
		ModelLoaded: info.Loaded,
		Device:      info.Device,
	}
}
