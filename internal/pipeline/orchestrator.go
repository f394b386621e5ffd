package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FairForge/veridical/internal/analysislog"
	"github.com/FairForge/veridical/internal/cache"
	"github.com/FairForge/veridical/internal/detection"
	"github.com/FairForge/veridical/internal/imagehash"
	"github.com/FairForge/veridical/internal/ratelimit"
)

// State names the stages of a request's lifecycle, used in logs.
type State string

const (
	StateReceived    State = "RECEIVED"
	StateHashed      State = "HASHED"
	StateCacheHit    State = "CACHE_HIT"
	StateCacheMiss   State = "CACHE_MISS"
	StateRateCheck   State = "RATE_CHECK"
	StateClassifying State = "CLASSIFYING"
	StateCompleted   State = "COMPLETED"
	StateRejected    State = "REJECTED"
	StateFailed      State = "FAILED"
)

// Request is one image to analyze.
type Request struct {
	ID         string // request ID; generated when empty
	ImageBytes []byte
	Source     string // page or capture the image came from
	Identity   string // rate-limit bucket key, e.g. client IP
}

// Orchestrator sequences hashing, cache lookup, rate-limit admission,
// classification, cache population and logging for each request. The
// cache and limiter serialize their own bookkeeping internally; the
// classifier call never runs under either lock, so distinct images
// classify in parallel.
type Orchestrator struct {
	hasher     *imagehash.Hasher
	cache      *cache.ResultCache
	limiter    *ratelimit.Limiter
	classifier detection.Classifier
	thresholds detection.Thresholds
	timeout    time.Duration
	stats      *Statistics
	analysis   *analysislog.Writer
	logger     *zap.Logger
}

// NewOrchestrator wires the pipeline. analysis may be nil to disable
// the per-request JSONL log.
func NewOrchestrator(
	hasher *imagehash.Hasher,
	resultCache *cache.ResultCache,
	limiter *ratelimit.Limiter,
	classifier detection.Classifier,
	thresholds detection.Thresholds,
	timeout time.Duration,
	analysis *analysislog.Writer,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		hasher:     hasher,
		cache:      resultCache,
		limiter:    limiter,
		classifier: classifier,
		thresholds: thresholds,
		timeout:    timeout,
		stats:      NewStatistics(),
		analysis:   analysis,
		logger:     logger,
	}
}

// Handle runs one request through the pipeline. Cache lookup always
// precedes rate-limit admission, so repeated images are never throttled.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (detection.Result, error) {
	requestID := req.ID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	identity := req.Identity
	if identity == "" {
		identity = ratelimit.GlobalIdentity
	}

	img, err := imagehash.Decode(req.ImageBytes)
	if err != nil {
		// Fails fast: never touches the cache or the limiter.
		o.stats.RecordInvalid()
		o.logger.Warn("invalid image",
			zap.String("request_id", requestID),
			zap.String("source", req.Source),
			zap.Error(err))
		return detection.Result{}, detection.NewPipelineError(detection.CodeInvalidImage, err)
	}

	fp, err := o.hasher.Hash(img)
	if err != nil {
		o.stats.RecordInvalid()
		return detection.Result{}, detection.NewPipelineError(detection.CodeInvalidImage, err)
	}

	if result, ok := o.cache.Lookup(fp); ok {
		o.stats.RecordHit(result.IsAI)
		o.record(requestID, fp, req.Source, analysislog.OutcomeCompleted, result)
		o.logger.Debug("request completed from cache",
			zap.String("request_id", requestID),
			zap.String("fingerprint", fp.String()),
			zap.String("state", string(StateCompleted)),
			zap.String("verdict", string(result.Verdict)))
		return result, nil
	}

	if !o.limiter.Admit(identity) {
		o.stats.RecordRejected()
		o.record(requestID, fp, req.Source, analysislog.OutcomeRejected, detection.Result{})
		o.logger.Info("request rate limited",
			zap.String("request_id", requestID),
			zap.String("state", string(StateRejected)),
			zap.String("identity", identity))
		return detection.Result{}, detection.NewPipelineError(detection.CodeRateLimitExceeded, nil)
	}

	classifyCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	aiProb, realProb, err := o.classifier.Classify(classifyCtx, img)
	elapsed := time.Since(start)

	if err != nil {
		o.stats.RecordFailed()
		o.record(requestID, fp, req.Source, analysislog.OutcomeFailed, detection.Result{})
		o.logger.Error("classification failed",
			zap.String("request_id", requestID),
			zap.String("fingerprint", fp.String()),
			zap.String("state", string(StateFailed)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return detection.Result{}, detection.NewPipelineError(detection.CodeClassificationFailed, err)
	}

	result, err := detection.Resolve(aiProb, realProb, o.thresholds, float64(elapsed)/float64(time.Millisecond))
	if err != nil {
		o.stats.RecordFailed()
		return detection.Result{}, detection.NewPipelineError(detection.CodeClassificationFailed, err)
	}

	o.cache.Insert(fp, result)
	o.stats.RecordMiss(result.IsAI)
	o.record(requestID, fp, req.Source, analysislog.OutcomeCompleted, result)

	o.logger.Info("request completed",
		zap.String("request_id", requestID),
		zap.String("fingerprint", fp.String()),
		zap.String("state", string(StateCompleted)),
		zap.String("verdict", string(result.Verdict)),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

// record appends a request to the analysis log when one is configured.
func (o *Orchestrator) record(requestID string, fp imagehash.Fingerprint, source, outcome string, result detection.Result) {
	if o.analysis == nil {
		return
	}

	o.analysis.Append(analysislog.Record{
		Timestamp:        time.Now().UTC(),
		RequestID:        requestID,
		Fingerprint:      fp.String(),
		Source:           source,
		Outcome:          outcome,
		IsAI:             result.IsAI,
		Confidence:       result.Confidence,
		Verdict:          string(result.Verdict),
		AIProbability:    result.AIProbability,
		RealProbability:  result.RealProbability,
		ProcessingTimeMs: result.ProcessingTimeMs,
		ModelName:        o.classifier.Info().Name,
		CacheHit:         result.CacheHit,
	})
}

// Stats returns the pipeline's counter snapshot.
func (o *Orchestrator) Stats() Snapshot {
	return o.stats.Snapshot()
}

// CacheStats returns the result cache's internal statistics.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}

// Health reports the classifier collaborator's state.
func (o *Orchestrator) Health() detection.Health {
	return detection.HealthFrom(o.classifier.Info())
}

// RateLimitInfo snapshots an identity's admission state for response
// headers.
func (o *Orchestrator) RateLimitInfo(identity string) ratelimit.Info {
	if identity == "" {
		identity = ratelimit.GlobalIdentity
	}
	return o.limiter.InfoFor(identity)
}
