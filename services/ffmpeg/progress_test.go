package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgressCallback(t *testing.T) {
	var reports []Progress
	cb := parseProgressCallback([]string{"-i", "in.mp4"}, StreamInfo{TotalSeconds: 20}, func(p Progress) {
		reports = append(reports, p)
	})

	lines := []string{
		"frame=125",
		"bitrate=1200.5kbits/s",
		"out_time_us=5000000",
		"speed=2.01x",
		"progress=continue",
		"garbage line",
		"out_time_us=25000000",
		"progress=continue",
		"progress=end",
	}
	for _, l := range lines {
		cb(l)
	}

	require.Len(t, reports, 3)
	assert.Equal(t, "-i in.mp4", reports[0].Params)
	assert.Equal(t, 125, reports[0].CurrentFrame)
	assert.InDelta(t, 25, reports[0].Percent, 1e-9)
	assert.InDelta(t, 5, reports[0].CurrentSeconds, 1e-9)
	assert.Equal(t, "2.01x", reports[0].Speed)
	assert.False(t, reports[0].Done)

	assert.InDelta(t, 100, reports[1].Percent, 1e-9, "clamped")
	assert.True(t, reports[2].Done)
}

func TestParseProgressWithoutDuration(t *testing.T) {
	var last Progress
	cb := parseProgressCallback(nil, StreamInfo{}, func(p Progress) {
		last = p
	})

	cb("out_time_us=5000000")
	cb("progress=continue")
	assert.Zero(t, last.Percent)

	cb("progress=end")
	assert.Equal(t, 100.0, last.Percent)
}

func TestProbeResultToInfo(t *testing.T) {
	result := &FFProbeResult{
		Streams: []FFProbeStream{
			{CodecType: "video", Width: 1920, Height: 1080, RFrameRate: "30000/1001", FieldOrder: "progressive", Duration: "12.5"},
			{CodecType: "audio", Channels: 2},
		},
	}

	info := ProbeResultToInfo(result)
	assert.True(t, info.HasVideo)
	assert.True(t, info.HasAudio)
	assert.Equal(t, 1920, info.Width)
	assert.True(t, info.Progressive)
	assert.InDelta(t, 29.97, info.FrameRate, 0.01)
	assert.InDelta(t, 12.5, info.TotalSeconds, 1e-9)

	result.Format.Duration = "13.0"
	assert.InDelta(t, 13, ProbeResultToInfo(result).TotalSeconds, 1e-9)

	assert.False(t, ProbeResultToInfo(nil).HasVideo)
}
