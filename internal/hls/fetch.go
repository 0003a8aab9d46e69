package hls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/metrics"
	"github.com/ManuGH/wavecast/internal/telemetry"
)

// Resource kinds used for metrics and error details.
const (
	kindManifest = "manifest"
	kindLevel    = "level"
	kindFragment = "fragment"
)

const maxBodyBytes = 32 << 20

// StatusError is returned for non-2xx origin responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

type fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newFetcher(cfg Config) *fetcher {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.RequestTimeout,
		}
	}
	limit := rate.Inf
	burst := 1
	if cfg.MaxRequestsPerSecond > 0 {
		limit = rate.Limit(cfg.MaxRequestsPerSecond)
		burst = max(1, int(cfg.MaxRequestsPerSecond))
	}
	return &fetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.UserAgent,
	}
}

func (f *fetcher) get(ctx context.Context, kind, url string) ([]byte, error) {
	ctx, span := telemetry.Tracer("wavecast/hls").Start(ctx, "hls.fetch "+kind,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.FetchAttributes(kind, xglog.MaskURL(url))...),
	)
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := f.do(ctx, url)
	metrics.ObserveHLSFetch(kind, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, kind+" fetch failed")
		var se *StatusError
		if errors.As(err, &se) {
			span.SetAttributes(attribute.Int(telemetry.HLSStatusKey, se.Code))
		}
		return nil, fmt.Errorf("fetch %s: %w", kind, err)
	}
	span.SetAttributes(attribute.Int(telemetry.HLSBytesKey, len(body)))
	return body, nil
}

func (f *fetcher) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: xglog.MaskURL(url), Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
