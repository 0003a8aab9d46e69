package hls

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/playback"
)

// Error details reported with transport error events.
const (
	DetailsManifestLoad    = "manifestLoadError"
	DetailsManifestParsing = "manifestParsingError"
	DetailsLevelLoad       = "levelLoadError"
	DetailsLevelParsing    = "levelParsingError"
	DetailsFragLoad        = "fragLoadError"
	DetailsBufferAppend    = "bufferAppendError"
	DetailsNoMedia         = "mediaNotAttached"
)

// ErrUnsupportedElement is returned when attaching an element that cannot take segments.
var ErrUnsupportedElement = errors.New("media element does not accept segments")

// SegmentSink is the buffer side of a media element.
type SegmentSink interface {
	AttachBuffer() error
	DetachBuffer()
	AppendSegment(seq uint64, duration time.Duration, data []byte) error
	ResetBuffer()
	EndOfStream()
	BufferedAhead() time.Duration
}

// Config tunes the loader.
type Config struct {
	RequestTimeout       time.Duration
	MaxRequestsPerSecond float64
	MaxLevelFailures     int
	MaxFragFailures      int
	MaxBandwidth         uint32
	UserAgent            string
	// MaxBufferAhead pauses fragment loading while the sink holds this much. 0 disables it.
	MaxBufferAhead time.Duration
	// LiveStartSegments is how many segments from the live edge loading starts.
	LiveStartSegments int

	HTTPClient *http.Client
	Clock      clockwork.Clock
	Logger     *zerolog.Logger
}

// DefaultConfig returns the loader defaults.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:       10 * time.Second,
		MaxRequestsPerSecond: 4,
		MaxLevelFailures:     3,
		MaxFragFailures:      3,
		UserAgent:            "wavecast",
		MaxBufferAhead:       30 * time.Second,
		LiveStartSegments:    3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxLevelFailures <= 0 {
		c.MaxLevelFailures = d.MaxLevelFailures
	}
	if c.MaxFragFailures <= 0 {
		c.MaxFragFailures = d.MaxFragFailures
	}
	if c.LiveStartSegments <= 0 {
		c.LiveStartSegments = d.LiveStartSegments
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return c
}

// Factory creates HLS transports sharing one fetcher.
type Factory struct {
	cfg   Config
	fetch *fetcher
}

// NewFactory creates a transport factory.
func NewFactory(cfg Config) *Factory {
	cfg = cfg.withDefaults()
	return &Factory{cfg: cfg, fetch: newFetcher(cfg)}
}

// Supported reports whether el can take HLS segments.
func (f *Factory) Supported(el playback.MediaElement) bool {
	_, ok := el.(SegmentSink)
	return ok
}

// New creates a transport delivering events to handler.
func (f *Factory) New(handler func(playback.TransportEvent)) playback.Transport {
	return newTransport(f.cfg, f.fetch, handler)
}

type queuedEvent struct {
	gen uint64
	ev  playback.TransportEvent
}

// Transport loads one HLS source into an attached SegmentSink.
//
// Events are delivered by a single dispatcher goroutine in emission order,
// never from inside a Transport method.
type Transport struct {
	cfg     Config
	fetch   *fetcher
	clock   clockwork.Clock
	logger  zerolog.Logger
	handler func(playback.TransportEvent)

	mu         sync.Mutex
	sink       SegmentSink
	gen        uint64
	cancelLoad context.CancelFunc
	loadDone   chan struct{}
	resume     chan struct{}
	destroyed  bool

	qmu     sync.Mutex
	queue   []queuedEvent
	signal  chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

func newTransport(cfg Config, fetch *fetcher, handler func(playback.TransportEvent)) *Transport {
	logger := xglog.WithComponent("hls.transport")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	t := &Transport{
		cfg:     cfg,
		fetch:   fetch,
		clock:   cfg.Clock,
		logger:  logger,
		handler: handler,
		signal:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go t.dispatch()
	return t
}

// AttachMedia binds the transport to el's buffer.
func (t *Transport) AttachMedia(el playback.MediaElement) error {
	sink, ok := el.(SegmentSink)
	if !ok {
		return ErrUnsupportedElement
	}
	if err := sink.AttachBuffer(); err != nil {
		return err
	}
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()
	return nil
}

// DetachMedia releases the element buffer.
func (t *Transport) DetachMedia() {
	t.mu.Lock()
	sink := t.sink
	t.sink = nil
	t.mu.Unlock()
	if sink != nil {
		sink.DetachBuffer()
	}
}

// LoadSource starts loading url, replacing any running load.
func (t *Transport) LoadSource(url string) {
	t.StopLoad()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.destroyed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancelLoad = cancel
	t.loadDone = done
	t.resume = make(chan struct{}, 1)
	l := &loader{
		t:      t,
		gen:    t.gen,
		sink:   t.sink,
		source: url,
		resume: t.resume,
		logger: t.logger.With().Str(xglog.FieldSourceURL, xglog.MaskURL(url)).Logger(),
	}
	go func() {
		defer close(done)
		l.run(ctx)
	}()
}

// StopLoad stops loading and waits for the loader to exit. Events it queued
// and not yet delivered are dropped.
func (t *Transport) StopLoad() {
	t.mu.Lock()
	cancel, done := t.cancelLoad, t.loadDone
	t.cancelLoad, t.loadDone = nil, nil
	t.gen++
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RecoverMediaError resets the element buffer and lets a loader blocked on a
// failed append continue.
func (t *Transport) RecoverMediaError() {
	t.mu.Lock()
	sink, resume := t.sink, t.resume
	t.mu.Unlock()

	if sink != nil {
		sink.ResetBuffer()
	}
	if resume != nil {
		select {
		case resume <- struct{}{}:
		default:
		}
	}
}

// Destroy stops loading, detaches media and stops event delivery. It does not
// wait for an in-flight handler call to return.
func (t *Transport) Destroy() {
	t.mu.Lock()
	if t.destroyed {
		t.mu.Unlock()
		return
	}
	t.destroyed = true
	t.mu.Unlock()

	t.StopLoad()
	t.DetachMedia()
	close(t.quit)
}

// Done is closed when the dispatcher has exited after Destroy.
func (t *Transport) Done() <-chan struct{} { return t.stopped }

func (t *Transport) emit(gen uint64, ev playback.TransportEvent) {
	t.qmu.Lock()
	t.queue = append(t.queue, queuedEvent{gen: gen, ev: ev})
	t.qmu.Unlock()
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

func (t *Transport) currentGen() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

func (t *Transport) dispatch() {
	defer close(t.stopped)
	for {
		select {
		case <-t.quit:
			return
		case <-t.signal:
		}

		for {
			t.qmu.Lock()
			if len(t.queue) == 0 {
				t.qmu.Unlock()
				break
			}
			next := t.queue[0]
			t.queue = t.queue[1:]
			t.qmu.Unlock()

			select {
			case <-t.quit:
				return
			default:
			}
			if next.gen != t.currentGen() {
				continue
			}
			t.handler(next.ev)
		}
	}
}
