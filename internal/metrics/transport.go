package metrics

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Transport wraps an http.RoundTripper, recording metrics for every outbound
// request and logging it with a request id.
type Transport struct {
	next   http.RoundTripper
	reg    *Registry
	logger *zap.Logger
}

// NewTransport instruments next. A nil next uses http.DefaultTransport; a nil
// registry or logger disables that half of the instrumentation.
func NewTransport(next http.RoundTripper, reg *Registry, logger *zap.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{next: next, reg: reg, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, requestID)
	}

	if t.reg != nil {
		t.reg.InFlightInc()
		defer t.reg.InFlightDec()
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if t.reg != nil {
		t.reg.RecordRequest(req.Method, req.URL.Host, status, duration.Seconds())
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Int("status", status),
		zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
	}
	if err != nil {
		t.logger.Warn("outbound request failed", append(fields, zap.Error(err))...)
		return resp, err
	}
	t.logger.Debug("outbound request", fields...)
	return resp, nil
}

// NewHTTPClient returns an http.Client whose transport is instrumented.
func NewHTTPClient(timeout time.Duration, reg *Registry, logger *zap.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(nil, reg, logger),
	}
}
