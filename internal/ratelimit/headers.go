package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Info contains rate limit information for response headers
type Info struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// InfoFor snapshots an identity's current limit state.
func (l *Limiter) InfoFor(identity string) Info {
	return Info{
		Limit:     l.capacity,
		Remaining: l.Remaining(identity),
		Reset:     time.Now().Add(l.ResetAfter(identity)).Unix(),
	}
}

// SetHeaders adds rate limit headers to a response
func SetHeaders(w http.ResponseWriter, info Info) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.Reset, 10))
}

// WriteRejection formats a 429 response with a Retry-After hint.
func WriteRejection(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	errorMsg := fmt.Sprintf(`{"error":"Rate limit exceeded","retry_after":%d}`, seconds)
	_, _ = w.Write([]byte(errorMsg))
}
