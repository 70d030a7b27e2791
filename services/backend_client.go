package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const backendServiceName = "Backend_Client"

// maxErrorBodyBytes bounds how much of a failed response is kept for the error
const maxErrorBodyBytes = 4 << 10

// BackendClient talks to the backend REST API that owns IPOs, users and the
// allotment ledger.
type BackendClient struct {
	baseURL          string
	httpClient       *http.Client
	checkClient      *http.Client
	rateLimiter      *shared.HTTPRequestRateLimiter
	maxRetryAttempts int
	retryBackoff     time.Duration
	metrics          *shared.ServiceMetrics
	logger           *logrus.Entry
}

// NewBackendClient creates a backend client. Reads use the configured request
// timeout and are retried; the allotment check and every write are sent once.
func NewBackendClient(cfg shared.ServiceConfig, factory *shared.HTTPClientFactory) *BackendClient {
	if factory == nil {
		factory = shared.NewHTTPClientFactory(cfg.HTTPRequestTimeout)
	}

	checkTimeout := cfg.CheckTimeout
	if checkTimeout <= 0 {
		checkTimeout = -1
	}

	return &BackendClient{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:       factory.CreateOptimizedHTTPClient(cfg.HTTPRequestTimeout),
		checkClient:      factory.CreateOptimizedHTTPClient(checkTimeout),
		rateLimiter:      shared.NewHTTPRequestRateLimiter(cfg.RequestRateLimit),
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retryBackoff:     cfg.RetryBackoff,
		metrics:          shared.NewServiceMetrics(backendServiceName),
		logger: logrus.WithFields(logrus.Fields{
			"component": "BackendClient",
			"base_url":  cfg.BaseURL,
		}),
	}
}

// Metrics returns request counters of the client
func (c *BackendClient) Metrics() *shared.ServiceMetrics {
	return c.metrics
}

// ListIPOs fetches every offering snapshot
func (c *BackendClient) ListIPOs(ctx context.Context) ([]models.IPORecord, error) {
	const operation = "ListIPOs"

	var body models.IPOListResponse
	if err := c.getJSON(ctx, operation, "/ipos", &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, rejected(operation, body.Error)
	}
	if body.IPOs == nil {
		body.IPOs = []models.IPORecord{}
	}
	return body.IPOs, nil
}

// GetIPO fetches one offering snapshot
func (c *BackendClient) GetIPO(ctx context.Context, id string) (*models.IPORecord, error) {
	const operation = "GetIPO"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewValidationError(shared.CodeMissingIPO, "IPO id is required", backendServiceName, operation)
	}

	var body models.IPODetailResponse
	if err := c.getJSON(ctx, operation, "/ipos/"+url.PathEscape(id), &body); err != nil {
		return nil, err
	}
	if body.IPO == nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryNotFound, shared.CodeIPONotFound,
			fmt.Sprintf("IPO %s not found", id), backendServiceName, operation, false, nil)
	}
	return body.IPO, nil
}

// CheckAllotment performs a single allotment lookup. It is never retried so a
// lookup is recorded at most once in the user's dashboard.
func (c *BackendClient) CheckAllotment(ctx context.Context, request models.AllotmentCheckRequest, credential, requestID string) (*models.AllotmentCheckResponse, error) {
	const operation = "CheckAllotment"

	var body models.AllotmentCheckResponse
	if err := c.sendJSON(ctx, c.checkClient, operation, http.MethodPost, "/allotment/check", request, credential, requestID, &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, rejected(operation, firstNonEmpty(body.Error, body.Message))
	}
	return &body, nil
}

// LogExternalVisit records that the user was sent to the registrar site
func (c *BackendClient) LogExternalVisit(ctx context.Context, ipoID, credential, requestID string) error {
	return c.sendJSON(ctx, c.httpClient, "LogExternalVisit", http.MethodPost, "/allotment/log-external",
		models.ExternalVisitLog{IPOID: ipoID}, credential, requestID, nil)
}

// UpdateIPO applies an admin update to an offering
func (c *BackendClient) UpdateIPO(ctx context.Context, id string, update models.SubscriptionUpdate, adminToken string) error {
	const operation = "UpdateIPO"

	id = strings.TrimSpace(id)
	if id == "" {
		return shared.NewValidationError(shared.CodeMissingIPO, "IPO id is required", backendServiceName, operation)
	}
	return c.sendJSON(ctx, c.httpClient, operation, http.MethodPut, "/admin/ipos/"+url.PathEscape(id),
		update, adminToken, uuid.NewString(), nil)
}

// MyApplications lists the applications tracked for the credential's user
func (c *BackendClient) MyApplications(ctx context.Context, credential string) ([]models.Application, error) {
	const operation = "MyApplications"

	if strings.TrimSpace(credential) == "" {
		return nil, shared.NewServiceError(shared.ErrorCategoryAuthentication, shared.CodeUnauthorized,
			"login required", backendServiceName, operation, false, nil)
	}

	var body models.ApplicationsResponse
	if err := c.do(ctx, c.httpClient, operation, http.MethodGet, "/allotment/my-applications", nil, credential, uuid.NewString(), true, &body); err != nil {
		return nil, err
	}
	if !body.Success {
		return nil, rejected(operation, body.Error)
	}
	if body.Applications == nil {
		body.Applications = []models.Application{}
	}
	return body.Applications, nil
}

// UpdateApplicationStatus stores the result a user entered for one of their
// applications
func (c *BackendClient) UpdateApplicationStatus(ctx context.Context, update models.ApplicationStatusUpdate, credential string) error {
	const operation = "UpdateApplicationStatus"

	if strings.TrimSpace(credential) == "" {
		return shared.NewServiceError(shared.ErrorCategoryAuthentication, shared.CodeUnauthorized,
			"login required", backendServiceName, operation, false, nil)
	}

	var body models.StatusUpdateResponse
	if err := c.sendJSON(ctx, c.httpClient, operation, http.MethodPost, "/allotment/my-status", update, credential, uuid.NewString(), &body); err != nil {
		return err
	}
	if !body.Success {
		return rejected(operation, body.Error)
	}
	return nil
}

func (c *BackendClient) getJSON(ctx context.Context, operation, path string, out interface{}) error {
	return c.do(ctx, c.httpClient, operation, http.MethodGet, path, nil, "", uuid.NewString(), true, out)
}

func (c *BackendClient) sendJSON(ctx context.Context, client *http.Client, operation, method, path string, payload interface{}, credential, requestID string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryProcessing, shared.CodeBackendDecode,
			"failed to encode request", backendServiceName, operation, false, err)
	}
	return c.do(ctx, client, operation, method, path, body, credential, requestID, false, out)
}

func (c *BackendClient) do(ctx context.Context, client *http.Client, operation, method, path string, body []byte, credential, requestID string, retry bool, out interface{}) error {
	startTime := time.Now()
	logger := c.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	err := c.execute(ctx, client, operation, method, path, body, credential, requestID, retry, out)
	c.metrics.RecordRequest(err == nil, time.Since(startTime))
	c.metrics.IncrementCustomCounter(operation)
	if err != nil {
		logger.WithError(err).Warn("Backend request failed")
		return err
	}

	logger.WithField("duration", time.Since(startTime)).Debug("Backend request completed")
	return nil
}

func (c *BackendClient) execute(ctx context.Context, client *http.Client, operation, method, path string, body []byte, credential, requestID string, retry bool, out interface{}) error {
	if err := c.rateLimiter.EnforceRateLimit(ctx); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryTimeout, shared.CodeTransportFailed,
			"request cancelled", backendServiceName, operation, true, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryConfiguration, shared.CodeTransportFailed,
			"failed to build request", backendServiceName, operation, false, err)
	}
	shared.SetJSONHeaders(request, credential, requestID)

	var response *http.Response
	if retry {
		response, err = shared.ExecuteHTTPRequestWithRetry(client, request, c.maxRetryAttempts, c.retryBackoff)
	} else {
		response, err = client.Do(request)
	}
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeTransportFailed,
			"backend unreachable", backendServiceName, operation, true, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return statusError(operation, response)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeBackendDecode,
			"unreadable backend response", backendServiceName, operation, true, err)
	}
	return nil
}

func statusError(operation string, response *http.Response) *shared.ServiceError {
	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &payload)

	message := firstNonEmpty(payload.Error, payload.Message, http.StatusText(response.StatusCode))
	details := map[string]interface{}{"status_code": response.StatusCode}

	switch response.StatusCode {
	case http.StatusNotFound:
		return shared.NewServiceError(shared.ErrorCategoryNotFound, shared.CodeIPONotFound,
			message, backendServiceName, operation, false, nil).WithDetails(details)
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.NewServiceError(shared.ErrorCategoryAuthentication, shared.CodeUnauthorized,
			message, backendServiceName, operation, false, nil).WithDetails(details)
	}

	return shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeBackendStatus,
		message, backendServiceName, operation, true, nil).WithDetails(details)
}

func rejected(operation, message string) *shared.ServiceError {
	if message == "" {
		message = "backend rejected the request"
	}
	return shared.NewServiceError(shared.ErrorCategoryNetwork, shared.CodeBackendRejected,
		message, backendServiceName, operation, true, nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
