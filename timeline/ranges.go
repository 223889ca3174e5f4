package timeline

import (
	"math"
	"sort"
)

const (
	// MinDuration is the shortest selection or resized range the editor will commit, in seconds.
	MinDuration = 0.01

	// Epsilon is the tolerance used when matching range bounds.
	Epsilon = 1e-6
)

// Range is a half-open interval [Start, End) in real (source) seconds.
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r Range) Duration() float64 {
	return r.End - r.Start
}

// Contains reports whether t is inside [Start, End).
func (r Range) Contains(t float64) bool {
	return t >= r.Start && t < r.End
}

func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Ordered returns a range with Start <= End.
func Ordered(a, b float64) Range {
	return Range{Start: math.Min(a, b), End: math.Max(a, b)}
}

// DeletedRange is a span removed from the edited output. Expanded ranges are still shown
// inline in the editor, collapsed ones take no width in collapsed time.
type DeletedRange struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Expanded bool    `json:"expanded"`
}

func (d DeletedRange) Range() Range {
	return Range{Start: d.Start, End: d.End}
}

func (d DeletedRange) Matches(start, end float64) bool {
	return math.Abs(d.Start-start) < Epsilon && math.Abs(d.End-end) < Epsilon
}

// Segment is one piece of the visible partition of the timeline.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Deleted bool    `json:"deleted"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

func invalid(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Normalize sorts the ranges by start and merges touching or overlapping ones.
// A merged range is expanded only if every range merged into it was expanded.
// Zero-width ranges are dropped.
func Normalize(ranges []DeletedRange) []DeletedRange {
	sorted := make([]DeletedRange, 0, len(ranges))
	for _, r := range ranges {
		if invalid(r.Start, r.End) || r.End-r.Start <= 0 {
			continue
		}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var out []DeletedRange
	for _, r := range sorted {
		if len(out) == 0 {
			out = append(out, r)
			continue
		}
		last := &out[len(out)-1]
		if r.Start <= last.End {
			last.End = math.Max(last.End, r.End)
			last.Expanded = last.Expanded && r.Expanded
			continue
		}
		out = append(out, r)
	}
	return out
}

// Restore removes [start, end) from every range it overlaps. Ranges fully inside the
// interval are dropped, partially covered ranges are trimmed and ranges wider than the
// interval are split in two, each half keeping the original expanded flag.
func Restore(ranges []DeletedRange, start, end float64) ([]DeletedRange, bool) {
	query := Ordered(start, end)
	changed := false

	var out []DeletedRange
	for _, r := range ranges {
		if !r.Range().Overlaps(query) {
			out = append(out, r)
			continue
		}
		changed = true
		if r.Start < query.Start {
			out = append(out, DeletedRange{Start: r.Start, End: query.Start, Expanded: r.Expanded})
		}
		if query.End < r.End {
			out = append(out, DeletedRange{Start: query.End, End: r.End, Expanded: r.Expanded})
		}
	}
	return out, changed
}

// Complement returns the parts of [0, duration] not covered by any of the ranges.
// The ranges must be normalized.
func Complement(ranges []DeletedRange, duration float64) []Range {
	var out []Range
	cursor := 0.0
	for _, r := range ranges {
		if r.Start > cursor {
			out = append(out, Range{Start: cursor, End: math.Min(r.Start, duration)})
		}
		cursor = math.Max(cursor, r.End)
	}
	if cursor < duration {
		out = append(out, Range{Start: cursor, End: duration})
	}
	return out
}

// Visible partitions [0, duration] into kept segments and expanded deleted segments.
// Collapsed deleted ranges are left out and take no width. The ranges must be normalized.
func Visible(ranges []DeletedRange, duration float64) []Segment {
	var out []Segment
	cursor := 0.0
	for _, r := range ranges {
		if r.Start > cursor {
			out = append(out, Segment{Start: cursor, End: r.Start})
		}
		if r.Expanded {
			out = append(out, Segment{Start: r.Start, End: r.End, Deleted: true})
		}
		cursor = math.Max(cursor, r.End)
	}
	if cursor < duration {
		out = append(out, Segment{Start: cursor, End: duration})
	}
	return out
}
