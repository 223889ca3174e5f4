package thumbnails

import (
	"github.com/bcc-code/bcc-media-cutter/timeline"
)

// Thumbnail is one frame of the strip shown under the timeline.
type Thumbnail struct {
	Index     int     `json:"index"`
	Collapsed float64 `json:"collapsed"`
	Real      float64 `json:"real"`
	Path      string  `json:"path,omitempty"`
}

// Plan spaces count thumbnails evenly over collapsed time, each at the centre of its slot,
// so the strip lines up with the visible segments.
func Plan(mapper *timeline.Mapper, count int) []Thumbnail {
	total := mapper.CollapsedDuration()
	if count <= 0 || total <= 0 {
		return nil
	}

	slot := total / float64(count)
	out := make([]Thumbnail, 0, count)
	for i := range count {
		c := slot * (float64(i) + 0.5)
		out = append(out, Thumbnail{
			Index:     i,
			Collapsed: c,
			Real:      mapper.CollapsedToReal(c),
		})
	}
	return out
}
