// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hajimehoshi/go-mp3"

	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/playback"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const bytesPerSampleFrame = 4

const (
	decodeChunk       = 16 << 10
	bufferPollPeriod  = 250 * time.Millisecond
	progressiveLogTag = "media.progressive"
)

// readRecorder remembers the first non-EOF error of the underlying reader so
// decode failures can be told apart from transport failures.
type readRecorder struct {
	r   io.Reader
	err error
}

func (rr *readRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}

func (e *Element) startProgressive(src string) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.cancelFetch = cancel
	e.fetchDone = done
	e.mu.Unlock()

	go func() {
		defer close(done)
		e.runProgressive(ctx, src)
	}()
}

func (e *Element) runProgressive(ctx context.Context, src string) {
	logger := e.logger.With().Str(xglog.FieldSourceURL, xglog.MaskURL(src)).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		e.fail(playback.MediaErrSrcNotSupported, fmt.Sprintf("invalid source: %v", err))
		return
	}
	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			e.fail(playback.MediaErrNetwork, err.Error())
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.fail(playback.MediaErrSrcNotSupported, fmt.Sprintf("source returned %s", resp.Status))
		return
	}

	body := &readRecorder{r: resp.Body}
	dec, err := mp3.NewDecoder(body)
	if err != nil {
		e.decodeFailed(ctx, body, err)
		return
	}
	rate := dec.SampleRate()
	logger.Debug().
		Str(xglog.FieldEvent, progressiveLogTag+".opened").
		Int("sample_rate", rate).
		Msg("progressive source opened")

	buf := make([]byte, decodeChunk)
	var total time.Duration
	for {
		if err := e.waitForPlayhead(ctx); err != nil {
			return
		}
		n, err := dec.Read(buf)
		if n > 0 {
			d := pcmDuration(n, rate)
			total += d
			e.addDecoded(d)
		}
		if errors.Is(err, io.EOF) {
			e.EndOfStream()
			logger.Info().
				Str(xglog.FieldEvent, progressiveLogTag+".complete").
				Dur("duration", total).
				Msg("progressive source fully decoded")
			return
		}
		if err != nil {
			e.decodeFailed(ctx, body, err)
			return
		}
	}
}

func (e *Element) decodeFailed(ctx context.Context, body *readRecorder, err error) {
	if ctx.Err() != nil {
		return
	}
	if body.err != nil {
		e.fail(playback.MediaErrNetwork, body.err.Error())
		return
	}
	e.fail(playback.MediaErrDecode, fmt.Sprintf("mp3 decode: %v", err))
}

func (e *Element) waitForPlayhead(ctx context.Context) error {
	limit := e.cfg.MaxBufferAhead
	if limit <= 0 {
		return ctx.Err()
	}
	for e.BufferedAhead() >= limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clock.After(bufferPollPeriod):
		}
	}
	return ctx.Err()
}

func pcmDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	frames := int64(n / bytesPerSampleFrame)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
