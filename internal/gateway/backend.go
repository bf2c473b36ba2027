package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/Sahilbhanushali/GharGrocerProd/pkg/errors"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/httpclient"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/logger"
)

const (
	serviceName = "commerce backend"
	tracerName  = "github.com/Sahilbhanushali/GharGrocerProd/internal/gateway"
)

// Backend sends JSON requests to the commerce backend REST API.
type Backend struct {
	doer    httpclient.Doer
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewBackend creates a Backend rooted at baseURL.
func NewBackend(doer httpclient.Doer, baseURL string, logger *slog.Logger) *Backend {
	return &Backend{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Call describes one backend request.
type Call struct {
	Op     string // span and log name, e.g. "cart.add"
	Method string
	Path   string
	Query  url.Values
	Token  string // sent as a bearer token when non-empty
	Body   any    // encoded as JSON when non-nil
}

// Do executes call and decodes a 2xx JSON response into out (if non-nil).
// Non-2xx responses become *apperrors.AppError values; a tripped breaker or
// a 5xx becomes ErrServiceUnavail.
func (b *Backend) Do(ctx context.Context, call Call, out any) (err error) {
	ctx, span := b.tracer.Start(ctx, "backend."+call.Op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", call.Method),
			attribute.String("http.route", call.Path),
		),
	)
	defer func() {
		if err != nil {
			b.logger.DebugContext(ctx, "backend call failed",
				slog.String("op", call.Op),
				slog.String("error", err.Error()),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := b.newRequest(ctx, call)
	if err != nil {
		return err
	}

	resp, err := b.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", serviceName, call.Op, classify(err))
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", call.Op, err)
	}
	return nil
}

func (b *Backend) newRequest(ctx context.Context, call Call) (*http.Request, error) {
	target := b.baseURL + call.Path
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", call.Op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", call.Op, err)
	}

	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

// Ping reports whether the backend answers at all. Any response below 500
// counts as reachable.
func (b *Backend) Ping(ctx context.Context) error {
	req, err := b.newRequest(ctx, Call{Op: "ping", Method: http.MethodGet, Path: "/"})
	if err != nil {
		return err
	}

	resp, err := b.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", serviceName, classify(err))
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("ping %s: status %d", serviceName, resp.StatusCode)
	}
	return nil
}

// classify folds breaker and 5xx failures into ErrServiceUnavail so callers
// can tell "backend down" from "request rejected".
func classify(err error) error {
	var serverErr *httpclient.ServerError
	switch {
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return apperrors.Unavailable("circuit open")
	case errors.As(err, &serverErr):
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: fmt.Sprintf("backend status %d", serverErr.Status),
			Status:  http.StatusServiceUnavailable,
			Err:     errors.Join(apperrors.ErrServiceUnavail, serverErr),
		}
	default:
		return err
	}
}

// CircuitOpenFallback is installed on the breaker so an open circuit fails
// fast with a retry hint instead of the raw breaker error.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.Unavailable("commerce backend is temporarily unavailable, please retry shortly")
}
