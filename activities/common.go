package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
)

var heartbeatInterval = time.Second * 5

// newHeartBeater records the latest value passed to the returned callback as heartbeat
// details until the stop channel is closed.
func newHeartBeater[T any](ctx context.Context) (chan struct{}, func(T)) {
	var info T
	updates := make(chan T, 1)

	cb := func(i T) {
		select {
		case <-updates:
		default:
		}
		updates <- i
	}

	stopChan := make(chan struct{})

	go func() {
		timer := time.NewTicker(heartbeatInterval)
		defer timer.Stop()

		for {
			select {
			case i := <-updates:
				info = i
			case <-timer.C:
				activity.RecordHeartbeat(ctx, info)
				if ctx.Err() != nil {
					return
				}
			case <-stopChan:
				return
			}
		}
	}()

	return stopChan, cb
}
