package jobs

import (
	"context"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/services/export"
	"github.com/bcc-code/bcc-media-cutter/services/ffmpeg"
	"github.com/bcc-code/bcc-media-cutter/services/transcode"
)

// EncoderRunner renders exports with a local ffmpeg.
type EncoderRunner struct {
	Encode func(ctx context.Context, input transcode.TimelineInput, cb ffmpeg.ProgressCallback) (*transcode.TimelineResult, error)
	Probe  func(ctx context.Context, path string) (float64, error)
}

func NewEncoderRunner() *EncoderRunner {
	return &EncoderRunner{
		Encode: transcode.Timeline,
		Probe: func(ctx context.Context, path string) (float64, error) {
			info, err := ffmpeg.ProbeFile(ctx, path)
			if err != nil {
				return 0, err
			}
			return info.Duration(), nil
		},
	}
}

func (r *EncoderRunner) Run(ctx context.Context, req common.ExportRequest, report func(common.Message)) (common.ExportResult, error) {
	duration := req.Duration
	if duration <= 0 {
		var err error
		duration, err = r.Probe(ctx, req.File)
		if err != nil {
			return common.ExportResult{}, merry.Wrap(transcode.ErrExportFailed,
				merry.WithUserMessagef("Could not read %s", req.File),
				merry.WithCause(err),
			)
		}
	}

	plan := export.NewPlan(req.Operations, duration)
	if plan.ExpectedDuration <= 0 {
		return common.ExportResult{}, merry.Wrap(transcode.ErrExportFailed,
			merry.WithUserMessage("Nothing left to export"),
		)
	}

	lastPercent := -1
	result, err := r.Encode(ctx, transcode.TimelineInput{
		FilePath:   req.File,
		OutputPath: req.Output,
		Plan:       plan,
		Preset:     req.Preset,
	}, func(p ffmpeg.Progress) {
		percent := int(p.Percent)
		if percent == lastPercent {
			return
		}
		lastPercent = percent
		report(common.ProgressMessage(req.ID, p.Percent, ""))
	})
	if err != nil {
		return common.ExportResult{}, err
	}

	if result.VideoOnly {
		report(common.StatusMessage(req.ID, "exported without audio"))
	}

	return common.ExportResult{
		Path: result.OutputPath,
		Size: result.Size,
	}, nil
}
