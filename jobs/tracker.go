package jobs

import (
	"context"
	"sort"
	"sync"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Tracker is the consumer end of the job protocol. It follows at most one export at a time
// and drops every message that does not belong to it.
type Tracker struct {
	poster Poster

	lock        sync.Mutex
	current     string
	last        *common.Message
	subscribers map[int]func(common.Message)
	nextSub     int
}

func NewTracker(poster Poster) *Tracker {
	return &Tracker{
		poster:      poster,
		subscribers: map[int]func(common.Message){},
	}
}

// Submit assigns a new id to req and posts it. It fails with ErrJobActive while another
// export is being tracked.
func (t *Tracker) Submit(req common.ExportRequest) (string, error) {
	t.lock.Lock()
	if t.current != "" {
		t.lock.Unlock()
		return "", ErrJobActive
	}
	req.ID = uuid.NewString()
	t.current = req.ID
	t.last = nil
	t.lock.Unlock()

	err := t.poster.Post(req.Message())
	if err != nil {
		t.lock.Lock()
		if t.current == req.ID {
			t.current = ""
		}
		t.lock.Unlock()
		return "", err
	}

	return req.ID, nil
}

// Current returns the id of the tracked export.
func (t *Tracker) Current() (string, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.current, t.current != ""
}

// Last returns the latest accepted message of the tracked or most recently finished export.
func (t *Tracker) Last() (common.Message, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.last == nil {
		return common.Message{}, false
	}
	return *t.last, true
}

// Subscribe registers fn for every accepted message and returns a function removing it.
func (t *Tracker) Subscribe(fn func(common.Message)) func() {
	t.lock.Lock()
	defer t.lock.Unlock()

	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn

	return func() {
		t.lock.Lock()
		defer t.lock.Unlock()
		delete(t.subscribers, id)
	}
}

// Handle accepts msg if it belongs to the tracked export. Complete and error messages end
// tracking. It reports whether msg was accepted.
func (t *Tracker) Handle(msg common.Message) bool {
	t.lock.Lock()
	if t.current == "" || msg.ID != t.current {
		t.lock.Unlock()
		log.Debug().Str("job", msg.ID).Str("type", msg.Type.Value).Msg("dropping message of untracked job")
		return false
	}

	t.last = &msg
	if msg.Terminal() {
		t.current = ""
	}

	ids := make([]int, 0, len(t.subscribers))
	for id := range t.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subscribers := make([]func(common.Message), 0, len(ids))
	for _, id := range ids {
		subscribers = append(subscribers, t.subscribers[id])
	}
	t.lock.Unlock()

	for _, fn := range subscribers {
		fn(msg)
	}
	return true
}

// Cancel asks the executor to stop and stops tracking the current export. Messages the
// executor already queued for it are dropped when they arrive.
func (t *Tracker) Cancel() bool {
	t.lock.Lock()
	if t.current == "" {
		t.lock.Unlock()
		return false
	}
	t.current = ""
	t.lock.Unlock()

	if err := t.poster.Post(common.CleanupMessage()); err != nil {
		log.Warn().Err(err).Msg("cleanup failed")
	}
	return true
}

// Pump feeds messages into Handle until ctx is done or messages is closed.
func (t *Tracker) Pump(ctx context.Context, messages <-chan common.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			t.Handle(msg)
		}
	}
}
