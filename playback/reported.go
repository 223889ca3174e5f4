package playback

import (
	"github.com/ansel1/merry/v2"
)

var ErrNotReady = merry.Sentinel("media not ready")

// ReportedSource is a MediaSource for a player that lives elsewhere and reports its
// position. Commands issued by the guard are applied locally and queued for the player.
type ReportedSource struct {
	position float64
	playing  bool
	ready    bool

	seekTo *float64
	pause  bool
}

func NewReportedSource() *ReportedSource {
	return &ReportedSource{}
}

// Report records the player's state as of the current display tick.
func (r *ReportedSource) Report(position float64, playing bool) {
	r.position = position
	r.playing = playing
	r.ready = true
}

func (r *ReportedSource) Playing() bool {
	return r.playing
}

func (r *ReportedSource) CurrentTime() float64 {
	return r.position
}

func (r *ReportedSource) Seek(t float64) error {
	if !r.ready {
		return ErrNotReady
	}
	r.position = t
	r.seekTo = &t
	return nil
}

func (r *ReportedSource) Pause() error {
	if !r.ready {
		return ErrNotReady
	}
	r.playing = false
	r.pause = true
	return nil
}

// Command is what the remote player must do after a tick.
type Command struct {
	SeekTo *float64 `json:"seekTo,omitempty"`
	Pause  bool     `json:"pause"`
}

// TakeCommand returns and clears the queued command.
func (r *ReportedSource) TakeCommand() Command {
	cmd := Command{SeekTo: r.seekTo, Pause: r.pause}
	r.seekTo = nil
	r.pause = false
	return cmd
}
