package shared

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPRequestRateLimiter spaces out backend requests. A zero minimum delay
// disables it.
type HTTPRequestRateLimiter struct {
	minimumDelay    time.Duration
	lastRequestTime time.Time
	mutex           sync.Mutex
	requestCount    int64
}

// NewHTTPRequestRateLimiter creates a new rate limiter with the specified minimum delay
func NewHTTPRequestRateLimiter(minimumDelay time.Duration) *HTTPRequestRateLimiter {
	return &HTTPRequestRateLimiter{minimumDelay: minimumDelay}
}

// EnforceRateLimit blocks until the minimum delay has elapsed since the last
// request or ctx is done.
func (limiter *HTTPRequestRateLimiter) EnforceRateLimit(ctx context.Context) error {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	if limiter.minimumDelay > 0 && !limiter.lastRequestTime.IsZero() {
		elapsedTime := time.Since(limiter.lastRequestTime)
		if elapsedTime < limiter.minimumDelay {
			remainingDelay := limiter.minimumDelay - elapsedTime

			logrus.WithFields(logrus.Fields{
				"component":       "HTTPRequestRateLimiter",
				"remaining_delay": remainingDelay,
				"request_count":   limiter.requestCount + 1,
			}).Debug("Enforcing rate limit delay")

			timer := time.NewTimer(remainingDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	limiter.lastRequestTime = time.Now()
	limiter.requestCount++
	return nil
}

// GetRequestCount returns the total number of requests processed
func (limiter *HTTPRequestRateLimiter) GetRequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}
