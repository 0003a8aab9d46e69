package hls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/metrics"
	"github.com/ManuGH/wavecast/internal/playback"
)

const bufferPollInterval = 250 * time.Millisecond

// errStopped ends the loader without an error event.
var errStopped = errors.New("loader stopped")

// loader runs one LoadSource call: manifest, level refreshes and fragments.
type loader struct {
	t      *Transport
	gen    uint64
	sink   SegmentSink
	source string
	resume chan struct{}
	logger zerolog.Logger

	levelFailures int
	fragFailures  int
	nextSeq       uint64
	started       bool
}

func (l *loader) run(ctx context.Context) {
	if l.sink == nil {
		l.fail(playback.ErrorTypeOther, DetailsNoMedia, true, errors.New("LoadSource before AttachMedia"))
		return
	}

	level, err := l.loadManifest(ctx)
	if err != nil {
		return
	}

	for {
		ended, err := l.appendLevel(ctx, level)
		if err != nil {
			return
		}
		if ended {
			l.sink.EndOfStream()
			l.logger.Info().
				Str(xglog.FieldEvent, "hls.end_of_stream").
				Msg("playlist ended, all segments appended")
			return
		}

		if err := l.sleep(ctx, refreshInterval(level)); err != nil {
			return
		}
		next, err := l.loadLevel(ctx, level.URL)
		if err != nil {
			return
		}
		level = next
	}
}

func (l *loader) loadManifest(ctx context.Context) (*Level, error) {
	data, err := l.t.fetch.get(ctx, kindManifest, l.source)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errStopped
		}
		l.fail(playback.ErrorTypeNetwork, DetailsManifestLoad, true, err)
		return nil, err
	}

	manifest, err := ParseManifest(l.source, data)
	if err != nil {
		l.fail(playback.ErrorTypeNetwork, DetailsManifestParsing, true, err)
		return nil, err
	}

	if manifest.Level != nil {
		l.emit(playback.TransportEvent{Kind: playback.EventManifestParsed})
		l.emit(playback.TransportEvent{Kind: playback.EventLevelLoaded})
		return manifest.Level, nil
	}

	variant, err := SelectVariant(manifest.Variants, l.t.cfg.MaxBandwidth)
	if err != nil {
		l.fail(playback.ErrorTypeNetwork, DetailsManifestParsing, true, err)
		return nil, err
	}
	l.logger.Debug().
		Str(xglog.FieldEvent, "hls.variant_selected").
		Str(xglog.FieldLevelURL, xglog.MaskURL(variant.URL)).
		Uint32("bandwidth", variant.Bandwidth).
		Int("variants", len(manifest.Variants)).
		Msg("variant selected")
	l.emit(playback.TransportEvent{Kind: playback.EventManifestParsed})

	return l.loadLevel(ctx, variant.URL)
}

// loadLevel fetches a media playlist, retrying until MaxLevelFailures
// consecutive failures. Each failure is reported; the last one as fatal.
func (l *loader) loadLevel(ctx context.Context, levelURL string) (*Level, error) {
	for {
		data, err := l.t.fetch.get(ctx, kindLevel, levelURL)
		if err == nil {
			level, perr := ParseLevel(levelURL, data)
			if perr != nil {
				l.fail(playback.ErrorTypeNetwork, DetailsLevelParsing, true, perr)
				return nil, perr
			}
			l.levelFailures = 0
			l.emit(playback.TransportEvent{Kind: playback.EventLevelLoaded})
			return level, nil
		}
		if ctx.Err() != nil {
			return nil, errStopped
		}

		l.levelFailures++
		fatal := l.levelFailures >= l.t.cfg.MaxLevelFailures
		l.fail(playback.ErrorTypeNetwork, DetailsLevelLoad, fatal, err)
		if fatal {
			return nil, err
		}
		if err := l.sleep(ctx, time.Second); err != nil {
			return nil, err
		}
	}
}

// appendLevel appends every segment not yet appended. It reports whether the
// playlist has ended and everything is buffered.
func (l *loader) appendLevel(ctx context.Context, level *Level) (bool, error) {
	segments := level.Segments
	if !l.started {
		l.started = true
		if !level.Ended() && len(segments) > l.t.cfg.LiveStartSegments {
			segments = segments[len(segments)-l.t.cfg.LiveStartSegments:]
		}
		l.nextSeq = segments[0].Seq
	}

	for _, seg := range segments {
		if seg.Seq < l.nextSeq {
			continue
		}
		if err := l.waitForBuffer(ctx); err != nil {
			return false, err
		}
		if err := l.appendSegment(ctx, seg); err != nil {
			return false, err
		}
		l.nextSeq = seg.Seq + 1
	}
	return level.Ended(), nil
}

func (l *loader) appendSegment(ctx context.Context, seg Segment) error {
	for {
		data, err := l.t.fetch.get(ctx, kindFragment, seg.URL)
		if err != nil {
			if ctx.Err() != nil {
				return errStopped
			}
			l.fragFailures++
			fatal := l.fragFailures >= l.t.cfg.MaxFragFailures
			l.fail(playback.ErrorTypeNetwork, DetailsFragLoad, fatal, err)
			if fatal {
				return err
			}
			if err := l.sleep(ctx, time.Second); err != nil {
				return err
			}
			continue
		}
		l.fragFailures = 0

		if err := l.sink.AppendSegment(seg.Seq, seg.Duration, data); err != nil {
			l.fail(playback.ErrorTypeMedia, DetailsBufferAppend, true, fmt.Errorf("segment %d: %w", seg.Seq, err))
			select {
			case <-ctx.Done():
				return errStopped
			case <-l.resume:
				l.logger.Info().
					Str(xglog.FieldEvent, "hls.media_recovered").
					Uint64(xglog.FieldSegment, seg.Seq).
					Msg("resuming after media recovery")
				continue
			}
		}

		metrics.AddHLSFragmentBytes(len(data))
		l.emit(playback.TransportEvent{Kind: playback.EventFragLoaded})
		return nil
	}
}

func (l *loader) waitForBuffer(ctx context.Context) error {
	limit := l.t.cfg.MaxBufferAhead
	if limit <= 0 {
		return nil
	}
	for l.sink.BufferedAhead() >= limit {
		if err := l.sleep(ctx, bufferPollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return errStopped
	case <-l.t.clock.After(d):
		return nil
	}
}

func (l *loader) emit(ev playback.TransportEvent) {
	l.t.emit(l.gen, ev)
}

func (l *loader) fail(typ playback.ErrorType, details string, fatal bool, err error) {
	l.logger.Warn().
		Err(err).
		Str(xglog.FieldEvent, "hls.error").
		Str(xglog.FieldErrorClass, string(typ)).
		Str(xglog.FieldErrorDetails, details).
		Bool(xglog.FieldFatal, fatal).
		Msg("transport error")
	l.emit(playback.TransportEvent{Kind: playback.EventError, Err: &playback.TransportError{
		Type:    typ,
		Details: details,
		Fatal:   fatal,
		Err:     err,
	}})
}

// refreshInterval is the live reload period: the target duration, or the last
// segment duration when the playlist omits it.
func refreshInterval(level *Level) time.Duration {
	if level.TargetDuration > 0 {
		return level.TargetDuration
	}
	if level.Truth.LastDuration > 0 {
		return level.Truth.LastDuration
	}
	return time.Second
}
