package jobs

import (
	"context"
	"sync"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"
)

// Executor is the worker end of the job protocol. Export messages start a run in the
// background, cleanup asks every run to stop. All replies are delivered on Messages.
type Executor struct {
	runner Runner

	ctx    context.Context
	cancel context.CancelFunc
	out    chan common.Message

	lock    sync.Mutex
	cancels map[string]context.CancelFunc
	running mapset.Set[string]
	wg      sync.WaitGroup
}

func NewExecutor(runner Runner) *Executor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Executor{
		runner:  runner,
		ctx:     ctx,
		cancel:  cancel,
		out:     make(chan common.Message, 64),
		cancels: map[string]context.CancelFunc{},
		running: mapset.NewSet[string](),
	}
}

func (e *Executor) Messages() <-chan common.Message {
	return e.out
}

// Running returns the ids of the runs that have not finished yet.
func (e *Executor) Running() []string {
	return e.running.ToSlice()
}

func (e *Executor) Post(msg common.Message) error {
	switch msg.Type {
	case common.MessageExport:
		return e.start(msg.ExportRequest())
	case common.MessageCleanup:
		e.cleanup()
		return nil
	default:
		return merry.Wrap(ErrBadMessage, merry.WithMessagef("cannot post %s", msg.Type.Value))
	}
}

func (e *Executor) start(req common.ExportRequest) error {
	if req.ID == "" {
		return merry.Wrap(ErrBadMessage, merry.WithMessage("export without id"))
	}
	if !e.running.Add(req.ID) {
		return ErrJobActive
	}

	ctx, cancel := context.WithCancel(e.ctx)
	e.lock.Lock()
	e.cancels[req.ID] = cancel
	e.lock.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.finish(req.ID)

		log.Info().Str("job", req.ID).Str("file", req.File).Msg("export started")
		e.emit(common.StatusMessage(req.ID, "started"))

		result, err := e.runner.Run(ctx, req, e.emit)
		if err != nil {
			log.Error().Err(err).Str("job", req.ID).Msg("export failed")
			e.emit(common.ErrorMessage(req.ID, err))
			return
		}

		log.Info().Str("job", req.ID).Str("output", result.Path).Int64("size", result.Size).Msg("export finished")
		e.emit(common.CompleteMessage(req.ID, result))
	}()

	return nil
}

func (e *Executor) finish(id string) {
	e.lock.Lock()
	cancel := e.cancels[id]
	delete(e.cancels, id)
	e.lock.Unlock()

	if cancel != nil {
		cancel()
	}
	e.running.Remove(id)
}

func (e *Executor) cleanup() {
	e.lock.Lock()
	defer e.lock.Unlock()

	for id, cancel := range e.cancels {
		log.Info().Str("job", id).Msg("export cancelled")
		cancel()
	}
}

// emit delivers msg unless the executor is closed.
func (e *Executor) emit(msg common.Message) {
	select {
	case e.out <- msg:
	case <-e.ctx.Done():
	}
}

// Close stops all runs and waits for them to return.
func (e *Executor) Close() {
	e.cancel()
	e.wg.Wait()
}
