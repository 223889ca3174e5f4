package interaction

import (
	"math"
	"time"

	"github.com/bcc-code/bcc-media-cutter/timeline"
	"github.com/rs/zerolog/log"
)

// Seeker moves the playhead of the media source.
type Seeker interface {
	Seek(t float64) error
}

// Pauser is background work that must not run while a drag gesture changes the layout.
type Pauser interface {
	Pause()
	Resume()
}

type Options struct {
	// HotZone is the distance in pixels around an edge that grabs it.
	HotZone float64
	// DragThreshold is how far in pixels the pointer must move before a press outside the
	// selection starts creating a new one.
	DragThreshold float64
	// Debounce ignores a pointer down that follows the previous one within this window.
	Debounce time.Duration
	Now      func() time.Time
}

func DefaultOptions() Options {
	return Options{
		HotZone:       6,
		DragThreshold: 4,
		Debounce:      150 * time.Millisecond,
		Now:           time.Now,
	}
}

// Controller turns pointer events on the timeline track into model mutations.
type Controller struct {
	model      *timeline.Model
	seeker     Seeker
	background []Pauser
	opts       Options
	width      float64

	state        State
	pointerID    int
	downX        float64
	anchor       float64
	lastDown     time.Time
	createOnDrag bool
	edge         timeline.Edge
	original     timeline.Range
	preview      timeline.Range
	paused       bool
}

func NewController(model *timeline.Model, seeker Seeker, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		model:  model,
		seeker: seeker,
		opts:   opts,
		state:  StateIdle,
	}
}

// AddBackground registers work that is paused for the duration of every drag gesture.
func (c *Controller) AddBackground(p Pauser) {
	c.background = append(c.background, p)
}

// SetWidth sets the pixel width of the timeline track.
func (c *Controller) SetWidth(px float64) {
	c.width = px
}

func (c *Controller) Width() float64 {
	return c.width
}

func (c *Controller) State() State {
	return c.state
}

// Preview returns the range being created or resized by the active gesture.
func (c *Controller) Preview() (timeline.Range, bool) {
	if !c.state.Dragging() {
		return timeline.Range{}, false
	}
	return c.preview, true
}

// Handle processes one pointer event and reports whether it was consumed.
func (c *Controller) Handle(ev PointerEvent) bool {
	if c.width <= 0 || math.IsNaN(ev.X) {
		return false
	}
	if ev.Time.IsZero() {
		ev.Time = c.opts.Now()
	}

	switch ev.Phase {
	case PhaseDown:
		return c.down(ev)
	case PhaseMove:
		if c.state == StateIdle || ev.PointerID != c.pointerID {
			return false
		}
		c.move(ev)
		return true
	case PhaseUp:
		if c.state == StateIdle || ev.PointerID != c.pointerID {
			return false
		}
		c.up(ev)
		return true
	case PhaseCancel:
		if c.state == StateIdle || ev.PointerID != c.pointerID {
			return false
		}
		c.finish()
		return true
	}
	return false
}

// Escape aborts the active gesture without committing it. When no gesture is active it
// clears the selection.
func (c *Controller) Escape() {
	if c.state != StateIdle {
		c.finish()
		return
	}
	c.model.ClearSelection()
}

func (c *Controller) collapsedAt(x float64) float64 {
	x = math.Max(0, math.Min(c.width, x))
	return x / c.width * c.model.Mapper().CollapsedDuration()
}

func (c *Controller) realAt(x float64) float64 {
	return c.model.Mapper().CollapsedToReal(c.collapsedAt(x))
}

// tolerance converts the pixel hot zone to collapsed seconds.
func (c *Controller) tolerance() float64 {
	return c.opts.HotZone / c.width * c.model.Mapper().CollapsedDuration()
}

func (c *Controller) hitSelectionEdge(pos float64) (timeline.Range, timeline.Edge, bool) {
	sel, ok := c.model.Selection()
	if !ok {
		return timeline.Range{}, 0, false
	}
	mapper := c.model.Mapper()
	tol := c.tolerance()
	ds := math.Abs(pos - mapper.RealToCollapsed(sel.Start))
	de := math.Abs(pos - mapper.RealToCollapsed(sel.End))
	if ds <= tol && ds <= de {
		return sel, timeline.EdgeStart, true
	}
	if de <= tol {
		return sel, timeline.EdgeEnd, true
	}
	return timeline.Range{}, 0, false
}

func (c *Controller) hitDeletedEdge(pos float64) (timeline.Range, timeline.Edge, bool) {
	mapper := c.model.Mapper()
	tol := c.tolerance()
	best := math.Inf(1)
	var hit timeline.Range
	var edge timeline.Edge
	for _, d := range c.model.DeletedRanges() {
		if !d.Expanded {
			continue
		}
		if dist := math.Abs(pos - mapper.RealToCollapsed(d.Start)); dist <= tol && dist < best {
			best, hit, edge = dist, d.Range(), timeline.EdgeStart
		}
		if dist := math.Abs(pos - mapper.RealToCollapsed(d.End)); dist <= tol && dist < best {
			best, hit, edge = dist, d.Range(), timeline.EdgeEnd
		}
	}
	return hit, edge, !math.IsInf(best, 1)
}

func (c *Controller) down(ev PointerEvent) bool {
	if c.state != StateIdle {
		return false
	}
	if !c.lastDown.IsZero() {
		since := ev.Time.Sub(c.lastDown)
		if since >= 0 && since < c.opts.Debounce {
			return false
		}
	}
	c.lastDown = ev.Time
	c.pointerID = ev.PointerID
	c.downX = ev.X

	pos := c.collapsedAt(ev.X)
	c.anchor = c.model.Mapper().CollapsedToReal(pos)

	if sel, edge, ok := c.hitSelectionEdge(pos); ok {
		c.startDrag(StateResizingSelection, sel, edge)
		return true
	}
	if r, edge, ok := c.hitDeletedEdge(pos); ok {
		c.startDrag(StateResizingDeletedEdge, r, edge)
		return true
	}

	sel, hasSelection := c.model.Selection()
	c.createOnDrag = !hasSelection || c.anchor < sel.Start || c.anchor > sel.End
	c.state = StateSeeking
	c.seek(c.anchor)
	return true
}

func (c *Controller) startDrag(state State, r timeline.Range, edge timeline.Edge) {
	c.state = state
	c.original = r
	c.preview = r
	c.edge = edge
	c.pause()
}

func (c *Controller) move(ev PointerEvent) {
	t := c.realAt(ev.X)
	switch c.state {
	case StateSeeking:
		if c.createOnDrag && math.Abs(ev.X-c.downX) > c.opts.DragThreshold {
			c.state = StateCreatingSelection
			c.preview = timeline.Ordered(c.anchor, t)
			c.pause()
		}
	case StateCreatingSelection:
		c.preview = timeline.Ordered(c.anchor, t)
	case StateResizingSelection, StateResizingDeletedEdge:
		c.preview = c.resized(t)
	}
}

// resized moves the grabbed edge of the original range to t, keeping it at least
// MinDuration wide and inside the media.
func (c *Controller) resized(t float64) timeline.Range {
	r := c.original
	if c.edge == timeline.EdgeStart {
		r.Start = math.Max(0, math.Min(t, r.End-timeline.MinDuration))
	} else {
		r.End = math.Min(c.model.Duration(), math.Max(t, r.Start+timeline.MinDuration))
	}
	return r
}

func (c *Controller) up(ev PointerEvent) {
	c.move(ev)
	switch c.state {
	case StateCreatingSelection:
		dragged := math.Abs(ev.X-c.downX) > c.opts.DragThreshold
		if dragged && c.preview.Duration() >= timeline.MinDuration-timeline.Epsilon {
			c.model.SetSelection(c.preview.Start, c.preview.End)
		} else {
			c.seek(c.anchor)
		}
	case StateResizingSelection:
		c.model.SetSelection(c.preview.Start, c.preview.End)
	case StateResizingDeletedEdge:
		value := c.preview.End
		if c.edge == timeline.EdgeStart {
			value = c.preview.Start
		}
		c.model.ResizeDeletedRange(c.original.Start, c.original.End, c.edge, value)
	}
	c.finish()
}

func (c *Controller) finish() {
	c.state = StateIdle
	c.createOnDrag = false
	c.resume()
}

func (c *Controller) seek(t float64) {
	if c.seeker == nil {
		return
	}
	if err := c.seeker.Seek(t); err != nil {
		log.Warn().Err(err).Float64("time", t).Msg("seek failed")
	}
}

func (c *Controller) pause() {
	if c.paused {
		return
	}
	c.paused = true
	for _, p := range c.background {
		p.Pause()
	}
}

func (c *Controller) resume() {
	if !c.paused {
		return
	}
	c.paused = false
	for _, p := range c.background {
		p.Resume()
	}
}
