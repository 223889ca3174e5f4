package wfutils

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/workflow"
)

// WORKER INTERCEPTORS

// LoggingWorkerInterceptor logs the outcome and run time of every activity on the worker
// and of every workflow that is not replaying.
type LoggingWorkerInterceptor struct {
	interceptor.WorkerInterceptorBase
}

func (c *LoggingWorkerInterceptor) InterceptWorkflow(
	ctx workflow.Context,
	next interceptor.WorkflowInboundInterceptor,
) interceptor.WorkflowInboundInterceptor {
	return &LoggingWorkflowInboundInterceptor{
		WorkflowInboundInterceptorBase: interceptor.WorkflowInboundInterceptorBase{
			Next: next,
		},
	}
}

func (c *LoggingWorkerInterceptor) InterceptActivity(
	ctx context.Context,
	next interceptor.ActivityInboundInterceptor,
) interceptor.ActivityInboundInterceptor {
	return &LoggingActivityInboundInterceptor{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{
			Next: next,
		},
	}
}

func status(err error) string {
	if err != nil {
		return "Failure"
	}
	return "Success"
}

// WORKFLOW INTERCEPTOR

type LoggingWorkflowInboundInterceptor struct {
	interceptor.WorkflowInboundInterceptorBase
}

func (c *LoggingWorkflowInboundInterceptor) ExecuteWorkflow(
	ctx workflow.Context,
	in *interceptor.ExecuteWorkflowInput,
) (any, error) {
	info := workflow.GetInfo(ctx)
	startTime := workflow.Now(ctx)

	result, err := c.Next.ExecuteWorkflow(ctx, in)

	if !workflow.IsReplaying(ctx) {
		log.Info().
			Str("workflow", info.WorkflowType.Name).
			Str("id", info.WorkflowExecution.ID).
			Str("status", status(err)).
			Int64("ms", workflow.Now(ctx).Sub(startTime).Milliseconds()).
			Msg("workflow finished")
	}

	return result, err
}

// ACTIVITY INTERCEPTOR

type LoggingActivityInboundInterceptor struct {
	interceptor.ActivityInboundInterceptorBase
}

func (c *LoggingActivityInboundInterceptor) ExecuteActivity(
	ctx context.Context, in *interceptor.ExecuteActivityInput,
) (any, error) {
	info := activity.GetInfo(ctx)
	startTime := time.Now()

	log.Info().
		Str("activity", info.ActivityType.Name).
		Str("queue", info.TaskQueue).
		Str("workflow", info.WorkflowExecution.ID).
		Int32("attempt", info.Attempt).
		Msg("activity started")

	result, err := c.Next.ExecuteActivity(ctx, in)

	event := log.Info()
	if err != nil {
		event = log.Warn().Err(err)
	}
	event.
		Str("activity", info.ActivityType.Name).
		Str("workflow", info.WorkflowExecution.ID).
		Str("status", status(err)).
		Int64("ms", time.Since(startTime).Milliseconds()).
		Msg("activity finished")

	return result, err
}
