// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestConfigureAttachesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "wavecast-test", Version: "v0.0.1"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("playback.client")
	l.Info().Str(FieldEvent, "client.ready").Msg("ready")

	entry := decodeLine(t, &buf)
	require.Equal(t, "wavecast-test", entry["service"])
	require.Equal(t, "v0.0.1", entry["version"])
	require.Equal(t, "playback.client", entry[FieldComponent])
	require.Equal(t, "client.ready", entry[FieldEvent])
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "chatty", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	l := Base()
	l.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
}

func TestDeriveAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Derive(func(c *zerolog.Context) {
		*c = c.Str(FieldSessionID, "abc")
	})
	l.Info().Msg("derived")

	entry := decodeLine(t, &buf)
	require.Equal(t, "abc", entry[FieldSessionID])
}
