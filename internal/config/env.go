// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wavecast/internal/log"
)

// lookupEnv resolves key with parse, logging which source won. Empty and
// unparseable values fall back to def.
func lookupEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := os.LookupEnv(key)
	if !ok {
		logSource(logger.Debug(), key, def, "default").Msg("using default value")
		return def
	}
	if strings.TrimSpace(raw) == "" {
		logSource(logger.Debug(), key, def, "default").Msg("using default value (environment variable is empty)")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Str("value", raw).
			Interface("default", def).
			Msg("invalid value in environment variable, using default")
		return def
	}
	logSource(logger.Debug(), key, v, "environment").Msg("using environment variable")
	return v
}

func logSource(ev *zerolog.Event, key string, value any, source string) *zerolog.Event {
	return ev.Str("key", key).Interface("value", value).Str("source", source)
}

// ParseString reads a string from the environment or returns defaultValue.
func ParseString(key, defaultValue string) string {
	return lookupEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from the environment or returns defaultValue.
func ParseInt(key string, defaultValue int) int {
	return lookupEnv(key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration ("5s") from the environment.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(key, defaultValue, time.ParseDuration)
}

// ParseFloat reads a float from the environment or returns defaultValue.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookupEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool reads a boolean from the environment. It accepts true/false,
// 1/0 and yes/no, case-insensitive.
func ParseBool(key string, defaultValue bool) bool {
	return lookupEnv(key, defaultValue, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
