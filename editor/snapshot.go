package editor

import (
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/interaction"
	"github.com/bcc-code/bcc-media-cutter/services/export"
	"github.com/bcc-code/bcc-media-cutter/thumbnails"
	"github.com/bcc-code/bcc-media-cutter/timeline"
)

type ExportState struct {
	Active bool            `json:"active"`
	ID     string          `json:"id,omitempty"`
	Last   *common.Message `json:"last,omitempty"`
}

// Snapshot is the state of a session as shown by a timeline renderer.
type Snapshot struct {
	ID                string                  `json:"id"`
	File              string                  `json:"file"`
	Output            string                  `json:"output"`
	Duration          float64                 `json:"duration"`
	Generation        uint64                  `json:"generation"`
	DeletedRanges     []timeline.DeletedRange `json:"deletedRanges"`
	Selection         *timeline.Range         `json:"selection,omitempty"`
	Visible           []timeline.Segment      `json:"visible"`
	CollapsedDuration float64                 `json:"collapsedDuration"`
	Gesture           interaction.State       `json:"gesture"`
	Preview           *timeline.Range         `json:"preview,omitempty"`
	Loop              bool                    `json:"loop"`
	PlayThrough       bool                    `json:"playThrough"`
	Cut               *common.TimeRange       `json:"cut,omitempty"`
	Crop              *common.Crop            `json:"crop,omitempty"`
	ExpectedDuration  float64                 `json:"expectedDuration"`
	Thumbnails        []thumbnails.Thumbnail  `json:"thumbnails"`
	Export            ExportState             `json:"export"`
}

func (s *Session) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()

	snap := Snapshot{
		ID:                s.id,
		File:              s.file,
		Output:            s.output,
		Duration:          s.model.Duration(),
		Generation:        s.model.Generation(),
		DeletedRanges:     s.model.DeletedRanges(),
		Visible:           s.model.VisibleRanges(),
		CollapsedDuration: s.model.Mapper().CollapsedDuration(),
		Gesture:           s.controller.State(),
		Loop:              s.guard.Loop(),
		PlayThrough:       s.guard.PlayingThroughDeleted(),
		Cut:               s.cut,
		Crop:              s.crop,
		ExpectedDuration:  export.PlanModel(s.model, s.cut, s.crop).ExpectedDuration,
		Thumbnails:        []thumbnails.Thumbnail{},
	}

	if sel, ok := s.model.Selection(); ok {
		snap.Selection = &sel
	}
	if preview, ok := s.controller.Preview(); ok {
		snap.Preview = &preview
	}
	if s.thumbs != nil {
		snap.Thumbnails = s.thumbs.Rendered()
	}

	snap.Export.ID, snap.Export.Active = s.tracker.Current()
	if last, ok := s.tracker.Last(); ok {
		snap.Export.Last = &last
		if !snap.Export.Active {
			snap.Export.ID = last.ID
		}
	}

	return snap
}
