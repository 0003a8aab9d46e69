package hls

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/livepeer/m3u8"
)

var (
	// ErrEmptyPlaylist is returned for a media playlist without segments.
	ErrEmptyPlaylist = errors.New("playlist has no segments")
	// ErrNoVariants is returned for a master playlist without variants.
	ErrNoVariants = errors.New("master playlist has no variants")
)

// Variant is one rendition advertised by a master playlist.
type Variant struct {
	URL       string
	Bandwidth uint32
	Codecs    string
}

// Segment is one media segment with its URL resolved against the playlist.
type Segment struct {
	Seq      uint64
	URL      string
	Duration time.Duration
	PDT      time.Time
}

// SegmentTruth represents authoritative timeline metadata derived from the playlist.
type SegmentTruth struct {
	HasPDT        bool
	FirstPDT      time.Time
	LastPDT       time.Time
	LastDuration  time.Duration
	TotalDuration time.Duration
	IsVOD         bool // #EXT-X-PLAYLIST-TYPE:VOD or #EXT-X-ENDLIST
}

// Level is a decoded media playlist.
type Level struct {
	URL            string
	TargetDuration time.Duration
	Segments       []Segment
	Truth          SegmentTruth
}

// Ended reports whether the playlist will not grow any further.
func (l *Level) Ended() bool { return l.Truth.IsVOD }

// Manifest is the result of decoding the source URL. Exactly one of Variants
// and Level is set.
type Manifest struct {
	Variants []Variant
	Level    *Level
}

// ParseManifest decodes an HLS playlist fetched from base.
func ParseManifest(base string, data []byte) (*Manifest, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	pl, kind, err := m3u8.DecodeFrom(bytes.NewReader(data), false)
	if err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}

	switch kind {
	case m3u8.MASTER:
		master, ok := pl.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected master playlist type %T", pl)
		}
		variants := make([]Variant, 0, len(master.Variants))
		for _, v := range master.Variants {
			if v == nil || v.URI == "" {
				continue
			}
			variants = append(variants, Variant{
				URL:       resolve(baseURL, v.URI),
				Bandwidth: v.Bandwidth,
				Codecs:    v.Codecs,
			})
		}
		if len(variants) == 0 {
			return nil, ErrNoVariants
		}
		return &Manifest{Variants: variants}, nil

	case m3u8.MEDIA:
		media, ok := pl.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected media playlist type %T", pl)
		}
		level, err := levelFromMedia(baseURL, media)
		if err != nil {
			return nil, err
		}
		return &Manifest{Level: level}, nil
	}
	return nil, fmt.Errorf("unknown playlist type %v", kind)
}

// ParseLevel decodes a media playlist. A master playlist is an error here.
func ParseLevel(base string, data []byte) (*Level, error) {
	m, err := ParseManifest(base, data)
	if err != nil {
		return nil, err
	}
	if m.Level == nil {
		return nil, fmt.Errorf("expected media playlist, got master with %d variants", len(m.Variants))
	}
	return m.Level, nil
}

func levelFromMedia(base *url.URL, media *m3u8.MediaPlaylist) (*Level, error) {
	level := &Level{
		URL:            base.String(),
		TargetDuration: seconds(media.TargetDuration),
	}

	// Segments is a ring buffer; unused slots are nil.
	for _, s := range media.Segments {
		if s == nil {
			continue
		}
		level.Segments = append(level.Segments, Segment{
			Seq:      s.SeqId,
			URL:      resolve(base, s.URI),
			Duration: seconds(s.Duration),
			PDT:      s.ProgramDateTime,
		})
	}
	if len(level.Segments) == 0 {
		return nil, ErrEmptyPlaylist
	}

	truth, err := extractSegmentTruth(level.Segments, !media.Live || media.MediaType == m3u8.VOD)
	if err != nil {
		return nil, err
	}
	level.Truth = *truth
	return level, nil
}

// extractSegmentTruth derives timeline metadata from decoded segments.
// It implements critical guards:
// 1. Monotonicity: PDT never jumps backwards
// 2. Coverage: a live playlist labels either all segments with PDT or none
func extractSegmentTruth(segments []Segment, vod bool) (*SegmentTruth, error) {
	truth := &SegmentTruth{IsVOD: vod}

	var lastPDT time.Time
	segmentsWithPDT := 0
	for _, s := range segments {
		truth.TotalDuration += s.Duration
		truth.LastDuration = s.Duration

		if s.PDT.IsZero() {
			continue
		}
		if !lastPDT.IsZero() && s.PDT.Before(lastPDT) {
			return nil, fmt.Errorf("PDT non-monotonic: %v < %v", s.PDT, lastPDT)
		}
		lastPDT = s.PDT
		segmentsWithPDT++
		if truth.FirstPDT.IsZero() {
			truth.FirstPDT = s.PDT
		}
		truth.LastPDT = s.PDT
	}
	truth.HasPDT = segmentsWithPDT > 0

	if !truth.IsVOD && truth.HasPDT && segmentsWithPDT != len(segments) {
		return nil, fmt.Errorf("partial PDT coverage in live playlist (found %d/%d)", segmentsWithPDT, len(segments))
	}
	return truth, nil
}

// SelectVariant picks the highest bandwidth at or below maxBandwidth, or the
// lowest bandwidth when none fits. maxBandwidth 0 means unlimited.
func SelectVariant(variants []Variant, maxBandwidth uint32) (Variant, error) {
	if len(variants) == 0 {
		return Variant{}, ErrNoVariants
	}
	sorted := append([]Variant(nil), variants...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Bandwidth < sorted[j].Bandwidth })

	if maxBandwidth == 0 {
		return sorted[len(sorted)-1], nil
	}
	chosen := sorted[0]
	for _, v := range sorted {
		if v.Bandwidth <= maxBandwidth {
			chosen = v
		}
	}
	return chosen, nil
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
