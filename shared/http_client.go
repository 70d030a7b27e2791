package shared

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPClientFactory creates HTTP clients with standardized configuration and
// hands out one cached client per timeout.
type HTTPClientFactory struct {
	defaultTimeout time.Duration
	mutex          sync.RWMutex
	clients        map[string]*http.Client
}

// NewHTTPClientFactory creates a new HTTP client factory
func NewHTTPClientFactory(defaultTimeout time.Duration) *HTTPClientFactory {
	return &HTTPClientFactory{
		defaultTimeout: defaultTimeout,
		clients:        make(map[string]*http.Client),
	}
}

// CreateOptimizedHTTPClient creates an HTTP client with connection pooling.
// A zero timeout selects the factory default; a negative timeout leaves the
// client without an overall deadline.
func (f *HTTPClientFactory) CreateOptimizedHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = f.defaultTimeout
	}
	if timeout < 0 {
		timeout = 0
	}

	clientKey := fmt.Sprintf("timeout_%d", timeout.Milliseconds())

	f.mutex.RLock()
	if client, exists := f.clients[clientKey]; exists {
		f.mutex.RUnlock()
		return client
	}
	f.mutex.RUnlock()

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	f.mutex.Lock()
	if existing, exists := f.clients[clientKey]; exists {
		f.mutex.Unlock()
		return existing
	}
	f.clients[clientKey] = client
	f.mutex.Unlock()

	logrus.WithFields(logrus.Fields{
		"component":  "HTTPClientFactory",
		"timeout":    timeout,
		"client_key": clientKey,
	}).Debug("Created new HTTP client")

	return client
}

// SetJSONHeaders prepares a backend request. The bearer credential is only
// attached when present so anonymous calls stay anonymous.
func SetJSONHeaders(request *http.Request, credential, requestID string) {
	request.Header.Set("Accept", "application/json")
	if request.Body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if credential = strings.TrimSpace(credential); credential != "" {
		request.Header.Set("Authorization", "Bearer "+credential)
	}
	if requestID != "" {
		request.Header.Set("X-Request-ID", requestID)
	}
}

// ExecuteHTTPRequestWithRetry executes body-less requests with exponential
// backoff. Network errors, 429 and 5xx are retried; any other status is
// returned to the caller as-is.
func ExecuteHTTPRequestWithRetry(client *http.Client, request *http.Request, maxRetryAttempts int, baseBackoff time.Duration) (*http.Response, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HTTPClientFactory",
		"method":    "ExecuteHTTPRequestWithRetry",
		"url":       request.URL.String(),
	})

	var lastExecutionError error

	for attemptNumber := 0; attemptNumber <= maxRetryAttempts; attemptNumber++ {
		if attemptNumber > 0 {
			backoff := time.Duration(1<<uint(attemptNumber-1)) * baseBackoff
			logger.WithFields(logrus.Fields{
				"attempt":          attemptNumber + 1,
				"backoff_duration": backoff,
			}).Debug("Retrying HTTP request after backoff")

			timer := time.NewTimer(backoff)
			select {
			case <-request.Context().Done():
				timer.Stop()
				return nil, fmt.Errorf("request cancelled during backoff: %w", request.Context().Err())
			case <-timer.C:
			}
		}

		httpResponse, err := client.Do(request)
		if err != nil {
			lastExecutionError = fmt.Errorf("attempt %d failed with network error: %w", attemptNumber+1, err)
			logger.WithError(lastExecutionError).Debug("HTTP request failed with network error")
			if request.Context().Err() != nil {
				break
			}
			continue
		}

		if httpResponse.StatusCode == http.StatusTooManyRequests || httpResponse.StatusCode >= http.StatusInternalServerError {
			lastExecutionError = fmt.Errorf("attempt %d failed with HTTP %d: %s", attemptNumber+1, httpResponse.StatusCode, http.StatusText(httpResponse.StatusCode))
			logger.WithFields(logrus.Fields{
				"attempt":     attemptNumber + 1,
				"status_code": httpResponse.StatusCode,
			}).Debug("HTTP request failed with retryable status")
			httpResponse.Body.Close()
			continue
		}

		return httpResponse, nil
	}

	totalAttempts := maxRetryAttempts + 1
	logger.WithFields(logrus.Fields{
		"total_attempts": totalAttempts,
		"final_error":    lastExecutionError,
	}).Warn("HTTP request failed after all retry attempts")

	return nil, fmt.Errorf("HTTP request failed after %d attempts: %w", totalAttempts, lastExecutionError)
}

// CleanupAllClients closes idle connections of every cached client
func (f *HTTPClientFactory) CleanupAllClients() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for key, client := range f.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
		delete(f.clients, key)
	}

	logrus.WithField("component", "HTTPClientFactory").Debug("Cleaned up all cached HTTP clients")
}
