package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/services/export"
	"github.com/bcc-code/bcc-media-cutter/services/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInput(t *testing.T) TimelineInput {
	return TimelineInput{
		FilePath:   "/media/in.mp4",
		OutputPath: filepath.Join(t.TempDir(), "out.mp4"),
		Plan: export.NewPlan(common.Operations{
			DeletedRanges: []common.TimeRange{{Start: 0, End: 5}, {Start: 25, End: 30}},
		}, 30),
		Preset: common.Preset{
			Video: common.VideoPreset{CRF: 23, Preset: common.X264Medium},
			Audio: common.AudioPreset{Bitrate: "128k"},
		},
	}
}

type recordedRun struct {
	args []string
	info ffmpeg.StreamInfo
}

// fakeRunner fails the first `failures` runs and writes the output file otherwise.
func fakeRunner(failures int, runs *[]recordedRun) Runner {
	return func(ctx context.Context, arguments []string, info ffmpeg.StreamInfo, cb ffmpeg.ProgressCallback) (string, error) {
		*runs = append(*runs, recordedRun{args: arguments, info: info})
		if len(*runs) <= failures {
			return "", errors.New("Stream specifier ':a' matches no streams")
		}
		if cb != nil {
			cb(ffmpeg.Progress{Percent: 100, Done: true})
		}
		return "", os.WriteFile(arguments[len(arguments)-1], []byte("media"), 0644)
	}
}

func argValue(args []string, flag string) (string, bool) {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return "", false
	}
	return args[i+1], true
}

func TestTimelineArguments(t *testing.T) {
	input := testInput(t)
	expr := "not(gte(t,0)*lt(t,5))*not(gte(t,25)*lt(t,30))"

	args := TimelineArguments(input, true)
	vf, _ := argValue(args, "-vf")
	af, _ := argValue(args, "-af")
	assert.Equal(t, "select='"+expr+"',setpts=N/FRAME_RATE/TB", vf)
	assert.Equal(t, "aselect='"+expr+"',asetpts=N/SR/TB", af)
	crf, _ := argValue(args, "-crf")
	assert.Equal(t, "23", crf)
	preset, _ := argValue(args, "-preset")
	assert.Equal(t, "medium", preset)
	bitrate, _ := argValue(args, "-b:a")
	assert.Equal(t, "128k", bitrate)
	assert.Equal(t, input.OutputPath, args[len(args)-1])

	args = TimelineArguments(input, false)
	vf, _ = argValue(args, "-vf")
	assert.Equal(t, "select='"+expr+"',setpts=N/FRAME_RATE/TB", vf)
	assert.Contains(t, args, "-an")
	assert.NotContains(t, args, "-af")
	assert.NotContains(t, args, "-c:a")
}

func TestTimelineArgumentsTrivialPlan(t *testing.T) {
	input := testInput(t)
	input.Plan = export.NewPlan(common.Operations{}, 30)

	args := TimelineArguments(input, true)
	assert.NotContains(t, args, "-vf")
	assert.NotContains(t, args, "-af")
}

func TestTimelineCombined(t *testing.T) {
	var runs []recordedRun
	var progress []ffmpeg.Progress

	res, err := TimelineWith(context.Background(), fakeRunner(0, &runs), testInput(t), func(p ffmpeg.Progress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Len(t, runs, 1)
	assert.False(t, res.VideoOnly)
	assert.Equal(t, int64(5), res.Size)
	assert.InDelta(t, 20, runs[0].info.TotalSeconds, 1e-9)
	assert.Len(t, progress, 1)
}

func TestTimelineFallsBackToVideoOnly(t *testing.T) {
	var runs []recordedRun

	res, err := TimelineWith(context.Background(), fakeRunner(1, &runs), testInput(t), nil)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.True(t, res.VideoOnly)
	assert.Contains(t, runs[0].args, "-af")
	assert.Contains(t, runs[1].args, "-an")

	first, _ := argValue(runs[0].args, "-vf")
	second, _ := argValue(runs[1].args, "-vf")
	assert.Equal(t, first, second, "deleted ranges stay applied")
}

func TestTimelineFails(t *testing.T) {
	var runs []recordedRun

	_, err := TimelineWith(context.Background(), fakeRunner(2, &runs), testInput(t), nil)
	require.Error(t, err)

	assert.Len(t, runs, 2)
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Equal(t, "Export of /media/in.mp4 failed", merry.UserMessage(err))
	assert.ErrorContains(t, merry.Cause(err), "matches no streams")
}

func TestTimelineCancelledDoesNotRetry(t *testing.T) {
	var runs []recordedRun
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TimelineWith(ctx, fakeRunner(2, &runs), testInput(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, runs, 1)
}
