package workflows

import (
	"github.com/bcc-code/bcc-media-cutter/activities"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/services/export"
	"github.com/bcc-code/bcc-media-cutter/services/notifications"
	wfutils "github.com/bcc-code/bcc-media-cutter/utils/wfutils"
	"go.temporal.io/sdk/workflow"
)

var ea *activities.ExportActivities

// ExportTimeline renders one export request on an export worker and announces the outcome.
func ExportTimeline(ctx workflow.Context, req common.ExportRequest) (*common.ExportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting ExportTimeline", "job", req.ID, "file", req.File)

	ctx = workflow.WithActivityOptions(ctx, wfutils.GetDefaultActivityOptions())

	expected := export.NewPlan(req.Operations, req.Duration).ExpectedDuration

	result, err := wfutils.Execute(ctx, ea.ExportTimeline, req).Result(ctx)

	finished := notifications.ExportFinished{
		JobID:            req.ID,
		File:             req.File,
		ExpectedDuration: expected,
	}
	if err != nil {
		finished.Error = err.Error()
	} else {
		finished.Output = result.Path
		finished.Size = result.Size
	}

	notifyErr := wfutils.Execute(ctx, ea.NotifyExportFinished, finished).Wait(ctx)
	if notifyErr != nil {
		logger.Warn("Failed to publish export event", "error", notifyErr)
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}
