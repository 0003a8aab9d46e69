// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"github.com/ManuGH/wavecast/internal/hls"
	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/playback"
)

// startNative plays an HLS source with the element's own loader. Like a
// browser's built-in HLS support it retries internally and only reports
// fatal failures, as element errors.
func (e *Element) startNative(src string) {
	t := hls.NewFactory(e.cfg.HLS).New(e.onNativeEvent)
	if err := t.AttachMedia(e); err != nil {
		t.Destroy()
		e.fail(playback.MediaErrAborted, "native hls: "+err.Error())
		return
	}

	e.mu.Lock()
	e.native = t
	e.mu.Unlock()
	t.LoadSource(src)

	e.logger.Debug().
		Str(xglog.FieldEvent, "media.native_load").
		Str(xglog.FieldSourceURL, xglog.MaskURL(src)).
		Msg("loading hls natively")
}

func (e *Element) onNativeEvent(ev playback.TransportEvent) {
	if ev.Kind != playback.EventError || ev.Err == nil || !ev.Err.Fatal {
		return
	}
	code := playback.MediaErrNetwork
	switch ev.Err.Type {
	case playback.ErrorTypeMedia:
		code = playback.MediaErrDecode
	case playback.ErrorTypeNetwork:
		if ev.Err.Details == hls.DetailsManifestParsing {
			code = playback.MediaErrSrcNotSupported
		}
	}
	e.fail(code, ev.Err.Error())
}
