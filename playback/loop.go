package playback

import (
	"context"
	"time"
)

// DisplayInterval is the tick rate used when no tick source is given.
const DisplayInterval = time.Second / 60

// Run calls tick for every value received on ticks until ctx is done or ticks is closed.
// playing is consulted before each tick so the guard only runs during playback.
func Run(ctx context.Context, ticks <-chan time.Time, playing func() bool, tick func() Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			if playing != nil && !playing() {
				continue
			}
			tick()
		}
	}
}

// RunDisplayLoop drives the guard from a ticker at the display refresh rate.
func RunDisplayLoop(ctx context.Context, guard *Guard, playing func() bool) {
	ticker := time.NewTicker(DisplayInterval)
	defer ticker.Stop()

	Run(ctx, ticker.C, playing, guard.Tick)
}
