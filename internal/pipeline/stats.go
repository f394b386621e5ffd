package pipeline

import "sync"

// Statistics aggregates process-wide request counters. Counters are
// monotonically non-decreasing for the lifetime of the process and
// reset only on restart.
type Statistics struct {
	mu sync.Mutex

	received     int64
	aiDetections int64
	cacheHits    int64
	cacheMisses  int64
	rejected     int64
	failed       int64
	invalid      int64
}

// NewStatistics creates a zeroed statistics service.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// RecordHit records a completed request served from cache.
func (s *Statistics) RecordHit(isAI bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++
	s.cacheHits++
	if isAI {
		s.aiDetections++
	}
}

// RecordMiss records a completed request that required classification.
func (s *Statistics) RecordMiss(isAI bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++
	s.cacheMisses++
	if isAI {
		s.aiDetections++
	}
}

// RecordRejected records a rate-limited request. Neither hit nor miss
// counters move: the lookup resolved to a miss but the request never
// completed.
func (s *Statistics) RecordRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++
	s.rejected++
}

// RecordFailed records a classifier failure or timeout.
func (s *Statistics) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++
	s.failed++
}

// RecordInvalid records a request rejected before hashing.
func (s *Statistics) RecordInvalid() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received++
	s.invalid++
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Received      int64   `json:"received"`
	TotalAnalyses int64   `json:"total_analyses"`
	AIDetections  int64   `json:"ai_detections"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	Rejected      int64   `json:"rejected"`
	Failed        int64   `json:"failed"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
}

// Snapshot returns the current counters. TotalAnalyses counts requests
// that resolved to a cacheable outcome, so CacheHits + CacheMisses ==
// TotalAnalyses always holds.
func (s *Statistics) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := s.cacheHits + s.cacheMisses
	var hitRate float64
	if completed > 0 {
		hitRate = float64(s.cacheHits) / float64(completed) * 100
	}

	return Snapshot{
		Received:      s.received,
		TotalAnalyses: completed,
		AIDetections:  s.aiDetections,
		CacheHits:     s.cacheHits,
		CacheMisses:   s.cacheMisses,
		Rejected:      s.rejected,
		Failed:        s.failed,
		CacheHitRate:  hitRate,
	}
}
