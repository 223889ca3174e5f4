package playback

import (
	"encoding/json"
	"math"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/timeline"
	"github.com/orsinium-labs/enum"
	"github.com/rs/zerolog/log"
)

// MediaSource is the player the guard polls and commands.
type MediaSource interface {
	CurrentTime() float64
	Seek(t float64) error
	Pause() error
}

type Action enum.Member[string]

var (
	ActionNone = Action{Value: "none"}
	ActionSkip = Action{Value: "skip"}
	ActionLoop = Action{Value: "loop"}
	ActionStop = Action{Value: "stop"}
	Actions    = enum.New(ActionNone, ActionSkip, ActionLoop, ActionStop)
)

//goland:noinspection GoMixedReceiverTypes
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (a *Action) UnmarshalJSON(value []byte) error {
	var stringValue string
	err := json.Unmarshal(value, &stringValue)
	if err != nil {
		return err
	}
	action := Actions.Parse(stringValue)
	if action == nil {
		return merry.Errorf("unknown playback action %q", stringValue)
	}
	*a = *action
	return nil
}

// Result describes what one tick decided.
type Result struct {
	Action Action  `json:"action"`
	From   float64 `json:"from"`
	SeekTo float64 `json:"seekTo"`
	Paused bool    `json:"paused"`
}

type Options struct {
	// SkipEpsilon is added after the end of a skipped deleted range so the next tick does
	// not land on the boundary again.
	SkipEpsilon float64
	// BoundaryTolerance is how close to the selection end playback may get before the
	// boundary rule applies.
	BoundaryTolerance float64
	// Backoff is how far before the selection end playback is parked when it stops.
	Backoff float64
	// MaxSkipIterations bounds the walk over back-to-back deleted ranges.
	MaxSkipIterations int
}

func DefaultOptions() Options {
	return Options{
		SkipEpsilon:       0.001,
		BoundaryTolerance: 0.05,
		Backoff:           0.3,
		MaxSkipIterations: 32,
	}
}

// Guard enforces the playback rules once per display tick: deleted material is skipped
// and playback loops or stops at the selection end.
type Guard struct {
	model  *timeline.Model
	source MediaSource
	opts   Options

	loop bool

	playThrough        bool
	playThroughEntered bool

	ticking bool
}

func NewGuard(model *timeline.Model, source MediaSource, opts Options) *Guard {
	return &Guard{
		model:  model,
		source: source,
		opts:   opts,
	}
}

func (g *Guard) SetLoop(loop bool) {
	g.loop = loop
}

func (g *Guard) Loop() bool {
	return g.loop
}

// PlayThroughDeleted lets playback run through the next deleted range it meets. The flag
// clears itself once playback leaves that range.
func (g *Guard) PlayThroughDeleted() {
	g.playThrough = true
	g.playThroughEntered = false
}

func (g *Guard) PlayingThroughDeleted() bool {
	return g.playThrough
}

// Reset clears transient playback state, e.g. when playback is stopped by the user.
func (g *Guard) Reset() {
	g.playThrough = false
	g.playThroughEntered = false
}

// Tick evaluates the rules against the current position of the media source. A tick
// issued while a previous one is still running is ignored.
func (g *Guard) Tick() Result {
	if g.ticking {
		return Result{Action: ActionNone}
	}
	g.ticking = true
	defer func() {
		g.ticking = false
	}()

	t := g.source.CurrentTime()
	result := Result{Action: ActionNone, From: t, SeekTo: t}
	if math.IsNaN(t) {
		return result
	}

	target := t
	if skipTo, ok := g.skipTarget(t); ok {
		target = skipTo
		result.Action = ActionSkip
	}

	duration := g.model.Duration()
	if sel, ok := g.model.Selection(); ok {
		if target >= sel.End-g.opts.BoundaryTolerance {
			if g.loop {
				return g.seek(result, ActionLoop, sel.Start, false)
			}
			return g.seek(result, ActionStop, math.Max(sel.Start, sel.End-g.opts.Backoff), true)
		}
	} else if result.Action == ActionSkip && target >= duration {
		if g.loop {
			return g.seek(result, ActionLoop, 0, false)
		}
		return g.seek(result, ActionStop, duration, true)
	}

	if result.Action == ActionSkip {
		return g.seek(result, ActionSkip, target, false)
	}
	return result
}

// skipTarget returns where playback should continue when t is inside a deleted range.
func (g *Guard) skipTarget(t float64) (float64, bool) {
	current, inside := g.model.DeletedAt(t)

	if g.playThrough {
		if inside {
			g.playThroughEntered = true
			return 0, false
		}
		if g.playThroughEntered {
			g.playThrough = false
			g.playThroughEntered = false
		}
		return 0, false
	}
	if !inside {
		return 0, false
	}

	target := current.End
	for range g.opts.MaxSkipIterations {
		next, ok := g.model.DeletedAt(target + g.opts.SkipEpsilon)
		if !ok {
			break
		}
		target = next.End
	}
	return math.Min(target+g.opts.SkipEpsilon, g.model.Duration()), true
}

func (g *Guard) seek(result Result, action Action, to float64, pause bool) Result {
	result.Action = action
	result.SeekTo = to

	if pause {
		if err := g.source.Pause(); err != nil {
			log.Warn().Err(err).Msg("pause failed")
		}
		result.Paused = true
	}
	if err := g.source.Seek(to); err != nil {
		// the rule still applies on the next tick, so the seek is retried there
		log.Warn().Err(err).Float64("from", result.From).Float64("to", to).Str("action", action.Value).Msg("seek failed")
	}
	return result
}
