package thumbnails

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/timeline"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	lock  sync.Mutex
	calls []float64
	gate  chan struct{}
	fail  map[int]bool
}

func (r *recordingRenderer) Render(ctx context.Context, t Thumbnail) (string, error) {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	r.lock.Lock()
	r.calls = append(r.calls, t.Real)
	r.lock.Unlock()

	if r.fail[t.Index] {
		return "", merry.New("no frame")
	}
	return "thumb", nil
}

func (r *recordingRenderer) Calls() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.calls)
}

func TestPlanSkipsCollapsedRanges(t *testing.T) {
	model := timeline.New(30)
	model.AddDeletedRange(10, 20, false)

	items := Plan(model.Mapper(), 4)
	require.Len(t, items, 4)

	// 20 seconds of collapsed time, slots of 5
	assert.Equal(t, []float64{2.5, 7.5, 12.5, 17.5}, lo.Map(items, func(t Thumbnail, _ int) float64 { return t.Collapsed }))
	assert.Equal(t, []float64{2.5, 7.5, 22.5, 27.5}, lo.Map(items, func(t Thumbnail, _ int) float64 { return t.Real }))

	for _, item := range items {
		_, deleted := model.DeletedAt(item.Real)
		assert.False(t, deleted)
	}
}

func TestPlanEmpty(t *testing.T) {
	model := timeline.New(30)
	assert.Empty(t, Plan(model.Mapper(), 0))

	model.AddDeletedRange(0, 30, false)
	assert.Empty(t, Plan(model.Mapper(), 10))
}

func TestSchedulerRendersInOrder(t *testing.T) {
	renderer := &recordingRenderer{fail: map[int]bool{1: true}}
	s := NewScheduler(renderer)

	var notified []int
	s.OnRender(func(t Thumbnail) {
		notified = append(notified, t.Index)
	})

	s.Start([]Thumbnail{{Index: 0, Real: 1}, {Index: 1, Real: 2}, {Index: 2, Real: 3}})
	s.Wait()

	rendered := s.Rendered()
	require.Len(t, rendered, 2)
	assert.Equal(t, 0, rendered[0].Index)
	assert.Equal(t, 2, rendered[1].Index)
	assert.Equal(t, "thumb", rendered[1].Path)
	assert.Equal(t, []int{0, 2}, notified)
	assert.Equal(t, 3, renderer.Calls())
}

func TestSchedulerPauseHoldsWork(t *testing.T) {
	renderer := &recordingRenderer{}
	s := NewScheduler(renderer)

	s.Pause()
	s.Pause()
	s.Start([]Thumbnail{{Index: 0}, {Index: 1}})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, renderer.Calls())

	s.Resume()
	assert.True(t, s.Paused())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, renderer.Calls())

	s.Resume()
	assert.False(t, s.Paused())
	s.Wait()
	assert.Equal(t, 2, renderer.Calls())
}

func TestSchedulerCancel(t *testing.T) {
	renderer := &recordingRenderer{gate: make(chan struct{})}
	s := NewScheduler(renderer)

	s.Start([]Thumbnail{{Index: 0}, {Index: 1}, {Index: 2}})
	renderer.gate <- struct{}{}

	assert.Eventually(t, func() bool {
		return len(s.Rendered()) == 1
	}, time.Second, 5*time.Millisecond)

	s.Cancel()
	assert.Len(t, s.Rendered(), 1)
	assert.Equal(t, 1, renderer.Calls())
}

func TestSchedulerCancelWhilePaused(t *testing.T) {
	s := NewScheduler(&recordingRenderer{})
	s.Pause()
	s.Start([]Thumbnail{{Index: 0}})

	done := make(chan struct{})
	go func() {
		s.Cancel()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancel blocked on a paused scheduler")
	}
	assert.Empty(t, s.Rendered())
}

func TestSchedulerRestartDropsOldSequence(t *testing.T) {
	renderer := &recordingRenderer{}
	s := NewScheduler(renderer)

	s.Pause()
	s.Start([]Thumbnail{{Index: 0, Real: 1}})
	s.Start([]Thumbnail{{Index: 0, Real: 5}, {Index: 1, Real: 6}})
	s.Resume()
	s.Wait()

	rendered := s.Rendered()
	require.Len(t, rendered, 2)
	assert.Equal(t, 5.0, rendered[0].Real)
}
