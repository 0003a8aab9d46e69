// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, provider.tp)
	require.NoError(t, provider.Shutdown(context.Background()))

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProviderInvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "carrier-pigeon"})
	require.EqualError(t, err, "unsupported exporter type: carrier-pigeon (supported: grpc, http)")
}

func TestNewProviderHTTPExporter(t *testing.T) {
	t.Cleanup(func() {
		_, _ = NewProvider(context.Background(), Config{})
	})
	provider, err := NewProvider(context.Background(), Config{
		Enabled:        true,
		ServiceName:    "wavecast-test",
		ServiceVersion: "v0",
		Environment:    "test",
		ExporterType:   "http",
		Endpoint:       "127.0.0.1:4318",
		SamplingRate:   1,
	})
	require.NoError(t, err)
	require.NotNil(t, provider.tp)

	_, span := Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	span.End()

	// no collector is listening; a cancelled context keeps shutdown from retrying the export
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = provider.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "ParentBased{root:TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		assert.Contains(t, sampler(tt.rate).Description(), tt.want, "rate %v", tt.rate)
	}
}

func TestAttributes(t *testing.T) {
	assert.Len(t, SessionAttributes("", ""), 0)
	assert.Len(t, SessionAttributes("id", "adaptive"), 2)

	attrs := FetchAttributes("level", "http://origin/a.m3u8")
	require.Len(t, attrs, 2)
	assert.Equal(t, HLSKindKey, string(attrs[0].Key))
	assert.Equal(t, "level", attrs[0].Value.AsString())

	rec := ReconnectAttributes(2, 5)
	assert.Equal(t, int64(2), rec[0].Value.AsInt64())
	assert.Equal(t, int64(5), rec[1].Value.AsInt64())

	errAttrs := ErrorAttributes("network", "fragLoadError")
	assert.Equal(t, "fragLoadError", errAttrs[1].Value.AsString())
}
