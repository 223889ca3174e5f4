package wfutils

import (
	"context"
	"time"

	"github.com/bcc-code/bcc-media-cutter/environment"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// StrictRetryPolicy is used for encoding activities. They usually fail because of the
// input file, so retrying many times does not help.
var StrictRetryPolicy = temporal.RetryPolicy{
	MaximumAttempts: 3,
	InitialInterval: 10 * time.Second,
	MaximumInterval: 30 * time.Second,
}

func GetDefaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout:    time.Hour * 4,
		ScheduleToCloseTimeout: time.Hour * 12,
		HeartbeatTimeout:       time.Minute * 1,
		TaskQueue:              environment.GetQueue(),
	}
}

type Future[TR any] struct {
	workflow.Future
}

// Result returns the result of the future
func (f Future[TR]) Result(ctx workflow.Context) (TR, error) {
	var result TR
	err := f.Get(ctx, &result)
	return result, err
}

// Wait waits until the task is done
func (f Future[TR]) Wait(ctx workflow.Context) error {
	return f.Get(ctx, nil)
}

// Execute executes the specified activity on the configured queue
func Execute[T any, TR any](ctx workflow.Context, activity func(context.Context, T) (TR, error), params T) Future[TR] {
	options := workflow.GetActivityOptions(ctx)
	if options.TaskQueue == "" {
		options.TaskQueue = environment.GetQueue()
	}
	if options.RetryPolicy == nil {
		options.RetryPolicy = &StrictRetryPolicy
	}

	ctx = workflow.WithActivityOptions(ctx, options)
	return Future[TR]{
		workflow.ExecuteActivity(ctx, activity, params),
	}
}
