package transcode

import (
	"context"
	"os"
	"strconv"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/services/export"
	"github.com/bcc-code/bcc-media-cutter/services/ffmpeg"
	"github.com/rs/zerolog/log"
)

var ErrExportFailed = merry.Sentinel("export failed")

// Runner executes ffmpeg. ffmpeg.Do is used unless a test replaces it.
type Runner func(ctx context.Context, arguments []string, info ffmpeg.StreamInfo, cb ffmpeg.ProgressCallback) (string, error)

type TimelineInput struct {
	FilePath   string
	OutputPath string
	Plan       export.Plan
	Preset     common.Preset
}

type TimelineResult struct {
	OutputPath string
	Size       int64
	VideoOnly  bool
}

// TimelineArguments builds the ffmpeg arguments for an export. With withAudio false the
// audio track is dropped and only the video predicate is applied.
func TimelineArguments(input TimelineInput, withAudio bool) []string {
	params := []string{
		"-hide_banner",
		"-nostats",
		"-progress", "pipe:1",
		"-i", input.FilePath,
	}

	if vf := input.Plan.VideoFilter(); vf != "" {
		params = append(params, "-vf", vf)
	}

	if withAudio {
		if af := input.Plan.AudioFilter(); af != "" {
			params = append(params, "-af", af)
		}
	}

	params = append(params,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(input.Preset.Video.CRF),
		"-preset", input.Preset.Video.Preset.Value,
		"-pix_fmt", "yuv420p",
	)

	if withAudio {
		params = append(params,
			"-c:a", "aac",
			"-b:a", input.Preset.Audio.Bitrate,
		)
	} else {
		params = append(params, "-an")
	}

	params = append(params,
		"-movflags", "+faststart",
		"-y",
		input.OutputPath,
	)

	return params
}

// Timeline renders the plan with audio and video. If that fails it retries once without
// audio, keeping the same video predicate, before giving up with ErrExportFailed.
func Timeline(ctx context.Context, input TimelineInput, cb ffmpeg.ProgressCallback) (*TimelineResult, error) {
	return TimelineWith(ctx, ffmpeg.Do, input, cb)
}

func TimelineWith(ctx context.Context, run Runner, input TimelineInput, cb ffmpeg.ProgressCallback) (*TimelineResult, error) {
	info := ffmpeg.StreamInfo{
		TotalSeconds: input.Plan.ExpectedDuration,
	}

	result := &TimelineResult{OutputPath: input.OutputPath}

	_, err := run(ctx, TimelineArguments(input, true), info, cb)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		log.Warn().Err(err).Str("file", input.FilePath).Msg("combined export failed, retrying video only")
		result.VideoOnly = true

		_, err = run(ctx, TimelineArguments(input, false), info, cb)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, merry.Wrap(ErrExportFailed,
			merry.WithUserMessagef("Export of %s failed", input.FilePath),
			merry.WithCause(err),
		)
	}

	stat, err := os.Stat(input.OutputPath)
	if err != nil {
		return nil, merry.Wrap(ErrExportFailed, merry.WithUserMessage("Export produced no output"), merry.WithCause(err))
	}
	result.Size = stat.Size()

	return result, nil
}
