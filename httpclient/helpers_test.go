package httpclient

import (
	"context"
	"io"
	"maps"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gaborage/go-openapi/logger"
	"github.com/gaborage/go-openapi/timestamp"
)

const (
	testBaseURL     = "https://gateway.test"
	testAppKey      = "app-key"
	testAppSecret   = "app-secret"
	testAccessToken = "token-123"
	testMillis      = int64(1700000000123)
)

// fakeLogEvent implements logger.LogEvent for testing
type fakeLogEvent struct {
	logger *fakeLogger
	level  string
	fields map[string]any
}

func (e *fakeLogEvent) Msg(msg string) {
	e.logger.mu.Lock()
	defer e.logger.mu.Unlock()
	e.logger.events = append(e.logger.events, loggedEvent{
		level:   e.level,
		fields:  maps.Clone(e.fields),
		message: msg,
	})
}

func (e *fakeLogEvent) Msgf(format string, _ ...any) {
	e.Msg(format)
}

func (e *fakeLogEvent) Err(err error) logger.LogEvent {
	e.fields["error"] = err
	return e
}

func (e *fakeLogEvent) Str(key, value string) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int(key string, value int) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int64(key string, value int64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Bool(key string, value bool) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Dur(key string, d time.Duration) logger.LogEvent {
	e.fields[key] = d
	return e
}

func (e *fakeLogEvent) Interface(key string, i any) logger.LogEvent {
	e.fields[key] = i
	return e
}

func (e *fakeLogEvent) Bytes(key string, val []byte) logger.LogEvent {
	e.fields[key] = val
	return e
}

// fakeLogger implements logger.Logger for testing
type fakeLogger struct {
	mu     sync.Mutex
	events []loggedEvent
}

type loggedEvent struct {
	level   string
	fields  map[string]any
	message string
}

func (l *fakeLogger) event(level string) logger.LogEvent {
	return &fakeLogEvent{logger: l, level: level, fields: make(map[string]any)}
}

func (l *fakeLogger) Info() logger.LogEvent  { return l.event("info") }
func (l *fakeLogger) Error() logger.LogEvent { return l.event("error") }
func (l *fakeLogger) Debug() logger.LogEvent { return l.event("debug") }
func (l *fakeLogger) Warn() logger.LogEvent  { return l.event("warn") }

func (l *fakeLogger) WithFields(_ map[string]any) logger.Logger {
	return l
}

func (l *fakeLogger) eventsByLevel(level string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var events []loggedEvent
	for _, event := range l.events {
		if event.level == level {
			events = append(events, event)
		}
	}
	return events
}

func (l *fakeLogger) eventsByMessage(message string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var events []loggedEvent
	for _, event := range l.events {
		if event.message == message {
			events = append(events, event)
		}
	}
	return events
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// capturedRequest is what the fake transport saw
type capturedRequest struct {
	method string
	url    string
	header http.Header
	body   []byte
}

// scriptedTransport answers with responses in order, repeating the last one.
type scriptedTransport struct {
	mu        sync.Mutex
	responses []scriptedResponse
	requests  []capturedRequest
}

type scriptedResponse struct {
	status  int
	body    string
	traceID string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, capturedRequest{
		method: req.Method,
		url:    req.URL.String(),
		header: req.Header.Clone(),
		body:   body,
	})

	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	r := s.responses[idx]
	resp := newResponse(req, r.status, r.body)
	if r.traceID != "" {
		resp.Header.Set("x-trace-id", r.traceID)
	}
	return resp, nil
}

func (s *scriptedTransport) calls() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedRequest(nil), s.requests...)
}

func respond(responses ...scriptedResponse) *scriptedTransport {
	return &scriptedTransport{responses: responses}
}

func success(data string) scriptedResponse {
	return scriptedResponse{status: http.StatusOK, body: `{"code":0,"message":"","data":` + data + `}`}
}

func tooManyRequests() scriptedResponse {
	return scriptedResponse{status: http.StatusTooManyRequests, body: "rate limited"}
}

// sleepRecorder records backoff waits without sleeping
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.delays {
		sum += d
	}
	return sum
}

// newTestBuilder returns a builder wired to rt with fixed credentials, a
// fixed clock and a recording sleep.
func newTestBuilder(t *testing.T, rt http.RoundTripper) (*Builder, *fakeLogger, *sleepRecorder) {
	t.Helper()
	log := &fakeLogger{}
	sleeps := &sleepRecorder{}
	b := NewBuilder(log).
		WithCredentials(testAppKey, testAppSecret, testAccessToken).
		WithBaseURL(testBaseURL).
		WithTransport(rt).
		WithClock(timestamp.Fixed(timestamp.FromUnixMilli(testMillis))).
		WithSleep(sleeps.sleep)
	return b, log, sleeps
}
