// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"fmt"
	"strings"
)

// Strategy is the playback path chosen once per session.
type Strategy string

const (
	// StrategyAuto picks the first supported strategy at session creation.
	StrategyAuto Strategy = ""
	// StrategyAdaptive drives an adaptive Transport with reconnect logic.
	StrategyAdaptive Strategy = "adaptive"
	// StrategyNative hands the manifest URL to an element that plays it natively.
	StrategyNative Strategy = "native"
	// StrategyPlain assigns the URL as a plain source.
	StrategyPlain Strategy = "plain"
)

func (s Strategy) String() string {
	if s == StrategyAuto {
		return "auto"
	}
	return string(s)
}

// ParseStrategy parses a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return StrategyAuto, nil
	case "adaptive", "hls":
		return StrategyAdaptive, nil
	case "native":
		return StrategyNative, nil
	case "plain", "progressive":
		return StrategyPlain, nil
	default:
		return StrategyAuto, fmt.Errorf("unknown playback strategy %q", s)
	}
}

// selectStrategy runs capability detection. A forced strategy that is not
// available falls through to detection.
func selectStrategy(forced Strategy, el MediaElement, factory TransportFactory) Strategy {
	adaptive := factory != nil && factory.Supported(el)
	native := el.CanPlayType(HLSMimeType)

	switch forced {
	case StrategyAdaptive:
		if adaptive {
			return StrategyAdaptive
		}
	case StrategyNative:
		if native {
			return StrategyNative
		}
	case StrategyPlain:
		return StrategyPlain
	}

	switch {
	case adaptive:
		return StrategyAdaptive
	case native:
		return StrategyNative
	default:
		return StrategyPlain
	}
}
