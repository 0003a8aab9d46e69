package hls

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://radio.example/live/index.m3u8"

func TestParseLevel_VOD_NoPDT(t *testing.T) {
	playlist := `#EXTM3U
#EXT-X-PLAYLIST-TYPE:VOD
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
segment1.ts
#EXTINF:10.0,
segment2.ts
#EXT-X-ENDLIST`

	level, err := ParseLevel(testBase, []byte(playlist))
	require.NoError(t, err)

	assert.True(t, level.Ended())
	assert.False(t, level.Truth.HasPDT)
	assert.Equal(t, 20*time.Second, level.Truth.TotalDuration)
	assert.Equal(t, 10*time.Second, level.TargetDuration)
	require.Len(t, level.Segments, 2)
	assert.Equal(t, "https://radio.example/live/segment1.ts", level.Segments[0].URL)
}

func TestParseLevel_Live_FullPDT(t *testing.T) {
	playlist := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:40
#EXT-X-PROGRAM-DATE-TIME:2024-01-01T12:00:00Z
#EXTINF:10.0,
segment1.ts
#EXT-X-PROGRAM-DATE-TIME:2024-01-01T12:00:10Z
#EXTINF:10.0,
segment2.ts`

	level, err := ParseLevel(testBase, []byte(playlist))
	require.NoError(t, err)

	assert.False(t, level.Ended())
	assert.True(t, level.Truth.HasPDT)
	assert.True(t, level.Truth.FirstPDT.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.True(t, level.Truth.LastPDT.Equal(time.Date(2024, 1, 1, 12, 0, 10, 0, time.UTC)))
	assert.Equal(t, 10*time.Second, level.Truth.LastDuration)
	assert.Equal(t, uint64(40), level.Segments[0].Seq)
	assert.Equal(t, uint64(41), level.Segments[1].Seq)
}

func TestParseLevel_Live_PartialPDT_FailClosed(t *testing.T) {
	playlist := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXT-X-PROGRAM-DATE-TIME:2024-01-01T12:00:00Z
#EXTINF:10.0,
segment1.ts
#EXTINF:10.0,
segment2.ts`

	_, err := ParseLevel(testBase, []byte(playlist))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partial PDT coverage")
}

func TestParseLevel_Live_NonMonotonic_FailClosed(t *testing.T) {
	playlist := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXT-X-PROGRAM-DATE-TIME:2024-01-01T12:00:10Z
#EXTINF:10.0,
segment1.ts
#EXT-X-PROGRAM-DATE-TIME:2024-01-01T12:00:00Z
#EXTINF:10.0,
segment2.ts`

	_, err := ParseLevel(testBase, []byte(playlist))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-monotonic")
}

func TestParseLevel_EndListImpliesVOD(t *testing.T) {
	playlist := `#EXTM3U
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
segment1.ts
#EXT-X-ENDLIST`

	level, err := ParseLevel(testBase, []byte(playlist))
	require.NoError(t, err)
	assert.True(t, level.Ended())
}

func TestParseLevel_Empty(t *testing.T) {
	_, err := ParseLevel(testBase, []byte("#EXTM3U\n#EXT-X-TARGETDURATION:4\n"))
	require.ErrorIs(t, err, ErrEmptyPlaylist)
}

func TestParseLevel_RejectsMaster(t *testing.T) {
	_, err := ParseLevel(testBase, []byte(masterPlaylist))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "expected media playlist"))
}

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=64000,CODECS="mp4a.40.5"
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=128000,CODECS="mp4a.40.2"
mid/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=320000,CODECS="mp4a.40.2"
https://cdn.example/high/index.m3u8
`

func TestParseManifest_Master(t *testing.T) {
	m, err := ParseManifest("https://radio.example/live/master.m3u8", []byte(masterPlaylist))
	require.NoError(t, err)
	require.Nil(t, m.Level)
	require.Len(t, m.Variants, 3)

	assert.Equal(t, "https://radio.example/live/low/index.m3u8", m.Variants[0].URL)
	assert.Equal(t, uint32(64000), m.Variants[0].Bandwidth)
	assert.Equal(t, "mp4a.40.5", m.Variants[0].Codecs)
	assert.Equal(t, "https://cdn.example/high/index.m3u8", m.Variants[2].URL)
}

func TestParseManifest_Garbage(t *testing.T) {
	_, err := ParseManifest(testBase, []byte("<html>not a playlist</html>"))
	require.Error(t, err)
}

func TestSelectVariant(t *testing.T) {
	variants := []Variant{
		{URL: "mid", Bandwidth: 128000},
		{URL: "low", Bandwidth: 64000},
		{URL: "high", Bandwidth: 320000},
	}

	tests := []struct {
		name string
		max  uint32
		want string
	}{
		{"unlimited picks highest", 0, "high"},
		{"cap picks best fit", 200000, "mid"},
		{"exact cap", 64000, "low"},
		{"nothing fits picks lowest", 1000, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectVariant(variants, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.URL)
		})
	}

	_, err := SelectVariant(nil, 0)
	require.ErrorIs(t, err, ErrNoVariants)
}
