package temporaljobs

import (
	"context"
	"time"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/workflows"
	"github.com/rs/zerolog/log"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
)

// Runner executes exports as ExportTimeline workflows. Progress is read from the heartbeat
// details of the running activity.
type Runner struct {
	client       client.Client
	queue        string
	pollInterval time.Duration
}

func NewRunner(c client.Client, queue string) *Runner {
	return &Runner{
		client:       c,
		queue:        queue,
		pollInterval: 2 * time.Second,
	}
}

func (r *Runner) Run(ctx context.Context, req common.ExportRequest, report func(common.Message)) (common.ExportResult, error) {
	options := client.StartWorkflowOptions{
		ID:        "export-" + req.ID,
		TaskQueue: r.queue,
	}

	run, err := r.client.ExecuteWorkflow(ctx, options, workflows.ExportTimeline, req)
	if err != nil {
		return common.ExportResult{}, err
	}
	report(common.StatusMessage(req.ID, "queued"))

	pollCtx, stopPolling := context.WithCancel(ctx)
	polling := make(chan struct{})
	go func() {
		defer close(polling)
		r.pollProgress(pollCtx, run, req.ID, report)
	}()
	defer func() {
		stopPolling()
		<-polling
	}()

	var result common.ExportResult
	err = run.Get(ctx, &result)
	if err != nil {
		if ctx.Err() != nil {
			// the caller gave up, so the workflow should too
			cancelErr := r.client.CancelWorkflow(context.Background(), run.GetID(), run.GetRunID())
			if cancelErr != nil {
				log.Warn().Err(cancelErr).Str("workflow", run.GetID()).Msg("cancel workflow failed")
			}
			return common.ExportResult{}, ctx.Err()
		}
		return common.ExportResult{}, err
	}

	return result, nil
}

func (r *Runner) pollProgress(ctx context.Context, run client.WorkflowRun, id string, report func(common.Message)) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	lastProgress := -1.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		resp, err := r.client.DescribeWorkflowExecution(ctx, run.GetID(), run.GetRunID())
		if err != nil {
			log.Debug().Err(err).Str("workflow", run.GetID()).Msg("describe workflow failed")
			continue
		}

		if msg, ok := heartbeatMessage(resp); ok && msg.Type == common.MessageProgress && msg.Progress != lastProgress {
			lastProgress = msg.Progress
			msg.ID = id
			report(msg)
		}
	}
}

func heartbeatMessage(resp *workflowservice.DescribeWorkflowExecutionResponse) (common.Message, bool) {
	for _, pending := range resp.GetPendingActivities() {
		details := pending.GetHeartbeatDetails()
		if details == nil || len(details.GetPayloads()) == 0 {
			continue
		}

		var msg common.Message
		err := converter.GetDefaultDataConverter().FromPayloads(details, &msg)
		if err != nil {
			continue
		}
		return msg, true
	}
	return common.Message{}, false
}
