package httpclient

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/gaborage/go-openapi/trace"
)

// send drives one Request.Send: retries, telemetry and final decoding.
func send[R any](ctx context.Context, c *Client, cl *call, decode func([]byte) (R, error)) (R, error) {
	var zero R

	callNo := c.nextCall()
	ctx = trace.WithRequestID(ctx, trace.EnsureRequestID(ctx))
	ctx, span := startSendSpan(ctx, cl.method, cl.path)

	data, attempts, err := c.execute(ctx, cl)
	if err == nil {
		var out R
		if out, err = decode(data); err == nil {
			endSendSpan(span, attempts, nil)
			return out, nil
		}
		err = NewDeserializeError("decode data", err)
	}

	c.logger.Error().
		Err(err).
		Str("method", cl.method).
		Str("path", cl.path).
		Int("attempts", attempts).
		Int64("call_count", callNo).
		Msg("openapi request failed")
	endSendSpan(span, attempts, err)
	return zero, err
}

// attempt runs one build-sign-send-classify cycle under the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, cl *call, attempt int) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, body, err := c.buildRequest(attemptCtx, cl)
	if err != nil {
		return nil, err
	}
	c.logRequest(req, body)

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, "request execution failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(ctx, "failed to read response body", err)
	}

	traceID := resp.Header.Get(trace.HeaderTraceID)
	c.logResponse(resp.StatusCode, time.Since(start), traceID, attempt, respBody)

	return classify(resp.StatusCode, traceID, respBody)
}

// transportError separates caller cancellation, the attempt deadline and
// plain transport failures.
func (c *Client) transportError(parent context.Context, message string, err error) ClientError {
	if parentErr := parent.Err(); parentErr != nil {
		return NewCanceledError(parentErr)
	}
	if c.isTimeout(err) {
		return NewTimeoutError("request timeout", c.config.Timeout)
	}
	return NewNetworkError(message, err)
}

func (c *Client) isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
