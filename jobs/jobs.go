package jobs

import (
	"context"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
)

var (
	ErrJobActive  = merry.Sentinel("an export is already running", merry.WithHTTPCode(409))
	ErrUnknownJob = merry.Sentinel("unknown job", merry.WithHTTPCode(404))
	ErrBadMessage = merry.Sentinel("unsupported job message", merry.WithHTTPCode(400))
)

// Runner performs one export. report may be called any number of times with progress and
// status messages before Run returns.
type Runner interface {
	Run(ctx context.Context, req common.ExportRequest, report func(common.Message)) (common.ExportResult, error)
}

// Poster is the request side of an executor.
type Poster interface {
	Post(msg common.Message) error
}

// RunnerFunc adapts a function to a Runner.
type RunnerFunc func(ctx context.Context, req common.ExportRequest, report func(common.Message)) (common.ExportResult, error)

func (f RunnerFunc) Run(ctx context.Context, req common.ExportRequest, report func(common.Message)) (common.ExportResult, error) {
	return f(ctx, req, report)
}
