package thumbnails

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Renderer produces the image for one thumbnail and returns where it was written.
type Renderer interface {
	Render(ctx context.Context, t Thumbnail) (string, error)
}

type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler renders a thumbnail sequence in the background, one at a time. It can be
// paused around layout changes and cancelled when the sequence is no longer valid.
// Pauses nest: the sequence continues after as many Resume calls as Pause calls.
type Scheduler struct {
	renderer Renderer

	lock     sync.Mutex
	cond     *sync.Cond
	paused   int
	current  *run
	rendered []Thumbnail
	onRender func(Thumbnail)
}

func NewScheduler(renderer Renderer) *Scheduler {
	s := &Scheduler{renderer: renderer}
	s.cond = sync.NewCond(&s.lock)
	return s
}

// OnRender registers fn to be called after each thumbnail of the current sequence is done.
func (s *Scheduler) OnRender(fn func(Thumbnail)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.onRender = fn
}

// Start cancels any running sequence and starts rendering items.
func (s *Scheduler) Start(items []Thumbnail) {
	s.Cancel()

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{ctx: ctx, cancel: cancel, done: make(chan struct{})}

	s.lock.Lock()
	s.current = r
	s.rendered = nil
	s.lock.Unlock()

	go s.render(r, items)
}

func (s *Scheduler) render(r *run, items []Thumbnail) {
	defer close(r.done)

	for _, item := range items {
		if !s.waitResumed(r) {
			return
		}

		path, err := s.renderer.Render(r.ctx, item)
		if r.ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Int("index", item.Index).Float64("at", item.Real).Msg("thumbnail failed")
			continue
		}
		item.Path = path

		s.lock.Lock()
		if s.current != r {
			s.lock.Unlock()
			return
		}
		s.rendered = append(s.rendered, item)
		onRender := s.onRender
		s.lock.Unlock()

		if onRender != nil {
			onRender(item)
		}
	}
}

func (s *Scheduler) waitResumed(r *run) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	for s.paused > 0 && r.ctx.Err() == nil {
		s.cond.Wait()
	}
	return r.ctx.Err() == nil
}

func (s *Scheduler) Pause() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.paused++
}

func (s *Scheduler) Resume() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.paused > 0 {
		s.paused--
	}
	if s.paused == 0 {
		s.cond.Broadcast()
	}
}

func (s *Scheduler) Paused() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.paused > 0
}

// Cancel stops the running sequence. Thumbnails already rendered are kept.
func (s *Scheduler) Cancel() {
	s.lock.Lock()
	r := s.current
	s.current = nil
	if r != nil {
		r.cancel()
	}
	s.cond.Broadcast()
	s.lock.Unlock()

	if r != nil {
		<-r.done
	}
}

// Wait blocks until the running sequence finishes or is cancelled.
func (s *Scheduler) Wait() {
	s.lock.Lock()
	r := s.current
	s.lock.Unlock()

	if r != nil {
		<-r.done
	}
}

// Rendered returns the thumbnails finished so far, in render order.
func (s *Scheduler) Rendered() []Thumbnail {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]Thumbnail, len(s.rendered))
	copy(out, s.rendered)
	return out
}
