package editor

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/interaction"
	"github.com/bcc-code/bcc-media-cutter/jobs"
	"github.com/bcc-code/bcc-media-cutter/playback"
	"github.com/bcc-code/bcc-media-cutter/services/export"
	"github.com/bcc-code/bcc-media-cutter/thumbnails"
	"github.com/bcc-code/bcc-media-cutter/timeline"
	"github.com/rs/zerolog/log"
)

var ErrNoSelection = merry.Sentinel("no selection", merry.WithHTTPCode(409), merry.WithUserMessage("Select a range first"))

type Config struct {
	ID       string
	File     string
	Output   string
	Duration float64
	Preset   common.Preset

	// Renderer draws the thumbnail strip. Thumbnails are disabled when it is nil.
	Renderer       thumbnails.Renderer
	ThumbnailCount int

	// Poster delivers export requests to the job executor.
	Poster jobs.Poster

	Interaction interaction.Options
	Playback    playback.Options
}

// Session is one open media file in the editor. It owns the timeline model and everything
// that reads or mutates it. All methods are safe for concurrent use.
type Session struct {
	id     string
	file   string
	output string
	preset common.Preset

	lock       sync.Mutex
	model      *timeline.Model
	source     *playback.ReportedSource
	controller *interaction.Controller
	guard      *playback.Guard
	tracker    *jobs.Tracker

	thumbs     *thumbnails.Scheduler
	thumbCount int

	cut  *common.TimeRange
	crop *common.Crop

	unsubscribe func()
}

// DefaultOutput places the export next to the source file.
func DefaultOutput(file string) string {
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + "_edited.mp4"
}

func NewSession(cfg Config) *Session {
	if cfg.Output == "" {
		cfg.Output = DefaultOutput(cfg.File)
	}
	if cfg.Interaction.HotZone == 0 {
		cfg.Interaction = interaction.DefaultOptions()
	}
	if cfg.Playback.MaxSkipIterations == 0 {
		cfg.Playback = playback.DefaultOptions()
	}

	s := &Session{
		id:         cfg.ID,
		file:       cfg.File,
		output:     cfg.Output,
		preset:     cfg.Preset,
		model:      timeline.New(cfg.Duration),
		source:     playback.NewReportedSource(),
		tracker:    jobs.NewTracker(cfg.Poster),
		thumbCount: cfg.ThumbnailCount,
	}

	s.controller = interaction.NewController(s.model, s.source, cfg.Interaction)
	s.guard = playback.NewGuard(s.model, s.source, cfg.Playback)

	if cfg.Renderer != nil && cfg.ThumbnailCount > 0 {
		s.thumbs = thumbnails.NewScheduler(cfg.Renderer)
		s.controller.AddBackground(s.thumbs)
		s.unsubscribe = s.model.Subscribe(func(c timeline.Change) {
			if c.Structural {
				s.thumbs.Start(thumbnails.Plan(s.model.Mapper(), s.thumbCount))
			}
		})
		s.thumbs.Start(thumbnails.Plan(s.model.Mapper(), s.thumbCount))
	}

	return s
}

func (s *Session) ID() string {
	return s.id
}

// Pointer forwards a pointer event on the timeline track to the gesture controller.
func (s *Session) Pointer(ev interaction.PointerEvent) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.controller.Handle(ev)
}

func (s *Session) Escape() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.controller.Escape()
}

// SetWidth sets the pixel width of the timeline track used to interpret pointer events.
func (s *Session) SetWidth(px float64) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.controller.SetWidth(px)
}

func (s *Session) SetSelection(start, end float64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.model.SetSelection(start, end)
}

func (s *Session) ClearSelection() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.model.ClearSelection()
}

// mutate runs fn with background thumbnail work paused.
func (s *Session) mutate(fn func() bool) bool {
	if s.thumbs != nil {
		s.thumbs.Pause()
		defer s.thumbs.Resume()
	}
	return fn()
}

// DeleteSelection deletes the selected range and clears the selection.
func (s *Session) DeleteSelection(expanded bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	sel, ok := s.model.Selection()
	if !ok {
		return ErrNoSelection
	}

	s.mutate(func() bool {
		changed := s.model.AddDeletedRange(sel.Start, sel.End, expanded)
		s.model.ClearSelection()
		return changed
	})
	log.Debug().Str("session", s.id).Float64("start", sel.Start).Float64("end", sel.End).Msg("deleted selection")
	return nil
}

// RestoreSelection restores every deleted instant inside the selection.
func (s *Session) RestoreSelection() (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	sel, ok := s.model.Selection()
	if !ok {
		return false, ErrNoSelection
	}

	return s.mutate(func() bool {
		return s.model.RestoreInRange(sel.Start, sel.End)
	}), nil
}

func (s *Session) Expand(start, end float64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mutate(func() bool {
		return s.model.Expand(start, end)
	})
}

func (s *Session) Collapse(start, end float64) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.mutate(func() bool {
		return s.model.Collapse(start, end)
	})
}

func (s *Session) SetLoop(loop bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.guard.SetLoop(loop)
}

func (s *Session) PlayThroughDeleted() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.guard.PlayThroughDeleted()
}

type TickResult struct {
	playback.Result
	Command playback.Command `json:"command"`
}

// Tick records the player's position and, while it is playing, applies the playback rules.
// The returned command tells the player where to seek and whether to pause.
func (s *Session) Tick(position float64, playing bool) TickResult {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.source.Report(position, playing)
	if !playing {
		return TickResult{
			Result:  playback.Result{Action: playback.ActionNone, From: position, SeekTo: position},
			Command: s.source.TakeCommand(),
		}
	}

	result := s.guard.Tick()
	return TickResult{
		Result:  result,
		Command: s.source.TakeCommand(),
	}
}

// StopPlayback clears transient playback state after the user stopped the player.
func (s *Session) StopPlayback() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.guard.Reset()
}

// SetCut sets the hard trim applied on export. nil removes it.
func (s *Session) SetCut(cut *common.TimeRange) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if cut == nil {
		s.cut = nil
		return
	}
	c := *cut
	s.cut = &c
}

// SetCrop sets the crop applied on export, in source pixels. nil removes it.
func (s *Session) SetCrop(crop *common.Crop) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if crop == nil {
		s.crop = nil
		return
	}
	c := *crop
	s.crop = &c
}

// Plan returns the export plan for the current edit.
func (s *Session) Plan() export.Plan {
	s.lock.Lock()
	defer s.lock.Unlock()
	return export.PlanModel(s.model, s.cut, s.crop)
}

func (s *Session) CutListCSV() (string, error) {
	return s.Plan().CutListCSV()
}

// Export submits the current edit as an export job and returns its id.
func (s *Session) Export() (string, error) {
	s.lock.Lock()
	req := common.ExportRequest{
		File:       s.file,
		Output:     s.output,
		Duration:   s.model.Duration(),
		Operations: export.Describe(s.model, s.cut, s.crop),
		Preset:     s.preset,
	}
	s.lock.Unlock()

	id, err := s.tracker.Submit(req)
	if err != nil {
		return "", err
	}
	log.Info().Str("session", s.id).Str("job", id).Str("output", req.Output).Msg("export submitted")
	return id, nil
}

func (s *Session) CancelExport() bool {
	return s.tracker.Cancel()
}

// HandleJobMessage passes a message from the job executor to the export tracker.
func (s *Session) HandleJobMessage(msg common.Message) bool {
	return s.tracker.Handle(msg)
}

// PumpJobMessages feeds executor messages to the session until ctx is done.
func (s *Session) PumpJobMessages(ctx context.Context, messages <-chan common.Message) {
	s.tracker.Pump(ctx, messages)
}

// OnJobMessage registers fn for every message of the tracked export.
func (s *Session) OnJobMessage(fn func(common.Message)) func() {
	return s.tracker.Subscribe(fn)
}

// WaitThumbnails blocks until the current thumbnail sequence is done.
func (s *Session) WaitThumbnails() {
	if s.thumbs != nil {
		s.thumbs.Wait()
	}
}

// Close stops background work and cancels a running export.
func (s *Session) Close() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.thumbs != nil {
		s.thumbs.Cancel()
	}
	s.tracker.Cancel()
}
