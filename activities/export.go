package activities

import (
	"context"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/jobs"
	"github.com/bcc-code/bcc-media-cutter/services/notifications"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
)

type ExportActivities struct {
	Runner        jobs.Runner
	Notifications *notifications.Client
}

// ExportTimeline renders an export request on this worker. Progress is sent as heartbeat
// details so the submitting side can follow it.
func (a *ExportActivities) ExportTimeline(ctx context.Context, req common.ExportRequest) (*common.ExportResult, error) {
	log := activity.GetLogger(ctx)
	log.Info("Starting ExportTimeline", "job", req.ID, "file", req.File)

	stop, cb := newHeartBeater[common.Message](ctx)
	defer close(stop)

	result, err := a.Runner.Run(ctx, req, cb)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(common.ErrorMessage(req.ID, err).Message, "ExportFailed", err)
	}

	return &result, nil
}

func (a *ExportActivities) NotifyExportFinished(ctx context.Context, data notifications.ExportFinished) (bool, error) {
	if !a.Notifications.Enabled() {
		return false, nil
	}

	event, err := notifications.NewExportEvent(data)
	if err != nil {
		return false, err
	}

	err = a.Notifications.Publish(ctx, event)
	return err == nil, err
}
