/*
Copyright 2024-2025 the Unikorn Authors.
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//go:generate mockgen -source=api_client.go -destination=mock/interfaces.go -package=mock

//nolint:revive // naming conventions acceptable in test code
package api

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
)

// Doer sends HTTP requests, *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Logger receives diagnostic output, ginkgo.GinkgoWriter satisfies it.
type Logger interface {
	Printf(format string, args ...interface{})
}

type APIClient struct {
	baseURL   string
	client    Doer
	username  string
	secret    string
	config    *TestConfig
	endpoints *Endpoints
	logger    Logger
	schema    *Schema
}

// Option customizes an APIClient.
type Option func(*APIClient)

// WithDoer replaces the HTTP transport.
func WithDoer(doer Doer) Option {
	return func(c *APIClient) {
		c.client = doer
	}
}

// WithLogger replaces the default GinkgoWriter logger.
func WithLogger(logger Logger) Option {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithSchemaValidation validates every JSON response against the schema.
func WithSchemaValidation(schema *Schema) Option {
	return func(c *APIClient) {
		c.schema = schema
	}
}

func NewAPIClientWithConfig(config *TestConfig, options ...Option) *APIClient {
	c := &APIClient{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		username:  config.AutomationUser,
		secret:    config.AutomationSecret,
		config:    config,
		endpoints: NewEndpoints(config.Site, config.APIVersion),
		logger:    ginkgo.GinkgoWriter,
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// Endpoints returns the path builder the client was configured with.
func (c *APIClient) Endpoints() *Endpoints {
	return c.endpoints
}

// SetAuthorization sets the automation user credential sent as
// "Authorization: Bearer <username> <secret>".
func (c *APIClient) SetAuthorization(username, secret string) {
	c.username = username
	c.secret = secret
}

// Call describes a single request and the status it must produce.
type Call struct {
	Method string
	Path   string
	// Body is JSON encoded when set.
	Body        interface{}
	Headers     map[string]string
	ContentType string
	// ExpectedStatus of zero accepts any status.
	ExpectedStatus int
}

// CallMethod performs a request against a path rooted at the server.
func (c *APIClient) CallMethod(ctx context.Context, call Call) (*Response, error) {
	var body io.Reader

	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		body = bytes.NewReader(data)
	}

	return c.doRequest(ctx, call.Method, call.Path, body, call.ContentType, toHeader(call.Headers), call.ExpectedStatus)
}

// FollowLink resolves rel in a previous response and performs the linked request.
// The method comes from the link; body, headers and expected status come from call.
func (c *APIClient) FollowLink(ctx context.Context, resp *Response, rel string, call Call) (*Response, error) {
	link, err := resp.Link(rel)
	if err != nil {
		return nil, err
	}

	descriptor, err := link.Resolve(c.endpoints.Base())
	if err != nil {
		return nil, err
	}

	if call.Method != "" && !strings.EqualFold(call.Method, descriptor.Method) {
		return nil, fmt.Errorf("link %q uses method %s, not %s", link.Rel, descriptor.Method, call.Method)
	}

	call.Method = descriptor.Method
	call.Path = descriptor.Path

	headers := map[string]string{}

	for key := range descriptor.Header {
		headers[key] = descriptor.Header.Get(key)
	}

	for key, value := range call.Headers {
		headers[key] = value
	}

	call.Headers = headers

	return c.CallMethod(ctx, call)
}

func toHeader(headers map[string]string) http.Header {
	header := http.Header{}

	for key, value := range headers {
		header.Set(key, value)
	}

	return header
}

// logError logs a generic error with trace context.
func (c *APIClient) logError(method, path string, duration time.Duration, traceParent string, err error, context string) {
	c.logger.Printf("[%s %s] ERROR %s duration=%s traceparent=%s error=%v\n", method, path, context, duration, traceParent, err)
	c.logTraceContext(traceParent)
}

// logUnexpectedStatus logs an unexpected HTTP status code.
func (c *APIClient) logUnexpectedStatus(method, path string, expectedStatus, actualStatus int, body, traceParent string) {
	c.logger.Printf("[%s %s] UNEXPECTED STATUS expected=%d got=%d body=%s traceparent=%s\n", method, path, expectedStatus, actualStatus, body, traceParent)
	c.logTraceContext(traceParent)
}

// logTraceContext logs the trace context information.
func (c *APIClient) logTraceContext(traceParent string) {
	c.logger.Printf("TRACE CONTEXT: Use trace ID '%s' to search logs for this request\n", extractTraceID(traceParent))
}

// generateTraceID creates a new W3C trace ID.
// A fresh trace ID per request lets a failure be matched to the site's web logs.
func generateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// generateSpanID creates a new W3C span ID.
func generateSpanID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

// createTraceParent creates a W3C traceparent header value.
func createTraceParent() string {
	return fmt.Sprintf("00-%s-%s-01", generateTraceID(), generateSpanID())
}

// extractTraceID extracts the trace ID from a traceparent header value.
func extractTraceID(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) >= 2 {
		return parts[1]
	}

	return traceParent
}

//nolint:cyclop // test code complexity is acceptable
func (c *APIClient) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string, header http.Header, expectedStatus int) (*Response, error) {
	fullURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	// Add W3C Trace Context headers
	traceParent := createTraceParent()
	req.Header.Set("Traceparent", traceParent)
	req.Header.Set("Tracestate", "test-automation=ginkgo")

	if body != nil {
		if contentType == "" {
			contentType = "application/json"
		}

		req.Header.Set("Content-Type", contentType)
	}

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if c.username != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s %s", c.username, c.secret))
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logError(method, path, duration, traceParent, err, "http request failed")
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(method, path, duration, traceParent, err, "reading response body")
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.config.LogRequests {
		c.logger.Printf("[%s %s] status=%d duration=%s traceparent=%s\n", method, path, resp.StatusCode, duration, traceParent)
	}

	if c.config.LogResponses && len(respBody) > 0 {
		c.logger.Printf("[%s %s] response body: %s\n", method, path, string(respBody))
	}

	traceID := extractTraceID(traceParent)

	if expectedStatus > 0 && resp.StatusCode != expectedStatus {
		c.logUnexpectedStatus(method, path, expectedStatus, resp.StatusCode, string(respBody), traceParent)

		return nil, &StatusError{
			Method:   method,
			Path:     path,
			Expected: expectedStatus,
			Actual:   resp.StatusCode,
			Body:     string(respBody),
			TraceID:  traceID,
		}
	}

	response, err := newResponse(resp, respBody, traceID)
	if err != nil {
		return nil, err
	}

	if c.schema != nil && response.Object != nil && resp.StatusCode < http.StatusBadRequest {
		if err := c.schema.ValidateDomainObject(respBody); err != nil {
			return nil, fmt.Errorf("[%s %s] %w", method, path, err)
		}
	}

	return response, nil
}
