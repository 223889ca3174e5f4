package timeline

import (
	"math"
	"slices"
)

// Edge identifies one of the two bounds of a range.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeEnd {
		return "end"
	}
	return "start"
}

// Change is delivered to subscribers after every effective mutation.
type Change struct {
	Generation uint64
	Structural bool
}

// Model is the authoritative edit state for one media stream: its duration, the deleted
// ranges and the active selection.
//
// A Model is owned by a single editor session and is not safe for concurrent use.
// Every mutation normalizes the ranges and then notifies subscribers.
type Model struct {
	duration  float64
	deleted   []DeletedRange
	selection *Range

	generation  uint64
	subscribers map[int]func(Change)
	nextSubID   int

	mapper       *Mapper
	mapperGenKey uint64
}

// New creates a model for media of the given duration. Negative or NaN durations are treated as 0.
func New(duration float64) *Model {
	m := &Model{subscribers: map[int]func(Change){}}
	m.duration = sanitizeDuration(duration)
	return m
}

func sanitizeDuration(duration float64) float64 {
	if invalid(duration) || duration < 0 || math.IsInf(duration, 0) {
		return 0
	}
	return duration
}

// Reset discards all edits and sets a new duration, as happens when new media is loaded.
func (m *Model) Reset(duration float64) {
	m.duration = sanitizeDuration(duration)
	m.deleted = nil
	m.selection = nil
	m.commit(true)
}

func (m *Model) Duration() float64 {
	return m.duration
}

// Generation increases by one for every effective mutation.
func (m *Model) Generation() uint64 {
	return m.generation
}

// DeletedRanges returns a copy of the normalized deleted ranges.
func (m *Model) DeletedRanges() []DeletedRange {
	return slices.Clone(m.deleted)
}

func (m *Model) Selection() (Range, bool) {
	if m.selection == nil {
		return Range{}, false
	}
	return *m.selection, true
}

// Subscribe registers fn to be called after each mutation and returns a function that
// removes the subscription.
func (m *Model) Subscribe(fn func(Change)) func() {
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	return func() {
		delete(m.subscribers, id)
	}
}

func (m *Model) commit(structural bool) {
	m.generation++
	change := Change{Generation: m.generation, Structural: structural}
	ids := make([]int, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := m.subscribers[id]; ok {
			fn(change)
		}
	}
}

func (m *Model) setDeleted(ranges []DeletedRange) bool {
	normalized := Normalize(ranges)
	if slices.Equal(normalized, m.deleted) {
		return false
	}
	m.deleted = normalized
	m.commit(true)
	return true
}

// AddDeletedRange marks [start, end) as deleted. Bounds are clamped to the duration and
// the call is a no-op when the clamped width is not positive.
func (m *Model) AddDeletedRange(start, end float64, expanded bool) bool {
	if invalid(start, end) {
		return false
	}
	start = clamp(start, 0, m.duration)
	end = clamp(end, 0, m.duration)
	if end-start <= 0 {
		return false
	}
	ranges := append(slices.Clone(m.deleted), DeletedRange{Start: start, End: end, Expanded: expanded})
	return m.setDeleted(ranges)
}

// RestoreInRange un-deletes everything between start and end. It returns false when no
// deleted range overlapped the interval.
func (m *Model) RestoreInRange(start, end float64) bool {
	if invalid(start, end) {
		return false
	}
	ranges, changed := Restore(m.deleted, start, end)
	if !changed {
		return false
	}
	return m.setDeleted(ranges)
}

// SetSelection replaces the selection. The bounds may be given in any order; they are
// clamped to the duration and selections shorter than MinDuration (within Epsilon) are ignored.
func (m *Model) SetSelection(start, end float64) bool {
	if invalid(start, end) {
		return false
	}
	r := Ordered(clamp(start, 0, m.duration), clamp(end, 0, m.duration))
	if r.Duration() < MinDuration-Epsilon {
		return false
	}
	if m.selection != nil && *m.selection == r {
		return false
	}
	m.selection = &r
	m.commit(false)
	return true
}

func (m *Model) ClearSelection() bool {
	if m.selection == nil {
		return false
	}
	m.selection = nil
	m.commit(false)
	return true
}

// Expand shows the deleted range with the given bounds inline.
func (m *Model) Expand(start, end float64) bool {
	return m.setExpanded(start, end, true)
}

// Collapse hides the deleted range with the given bounds.
func (m *Model) Collapse(start, end float64) bool {
	return m.setExpanded(start, end, false)
}

func (m *Model) setExpanded(start, end float64, expanded bool) bool {
	i := m.find(start, end)
	if i < 0 || m.deleted[i].Expanded == expanded {
		return false
	}
	ranges := slices.Clone(m.deleted)
	ranges[i].Expanded = expanded
	return m.setDeleted(ranges)
}

func (m *Model) find(start, end float64) int {
	return slices.IndexFunc(m.deleted, func(d DeletedRange) bool {
		return d.Matches(start, end)
	})
}

// ResizeDeletedRange moves one edge of the deleted range with the given bounds to t.
// The edge is clamped so the range stays at least MinDuration wide, except where the
// media bounds leave less room, and never leaves the duration. The result is normalized
// and may merge with a neighbour.
func (m *Model) ResizeDeletedRange(start, end float64, edge Edge, t float64) bool {
	if invalid(t) {
		return false
	}
	i := m.find(start, end)
	if i < 0 {
		return false
	}
	ranges := slices.Clone(m.deleted)
	r := &ranges[i]
	if edge == EdgeStart {
		r.Start = math.Max(0, math.Min(t, r.End-MinDuration))
	} else {
		r.End = math.Min(m.duration, math.Max(t, r.Start+MinDuration))
	}
	return m.setDeleted(ranges)
}

// KeptRanges returns the complement of all deleted ranges, regardless of their expanded flag.
func (m *Model) KeptRanges() []Range {
	return Complement(m.deleted, m.duration)
}

// VisibleRanges returns the kept and expanded deleted segments in timeline order.
func (m *Model) VisibleRanges() []Segment {
	return Visible(m.deleted, m.duration)
}

// Mapper returns the time mapper for the current state. It is rebuilt only when the
// model changed since the last call.
func (m *Model) Mapper() *Mapper {
	if m.mapper == nil || m.mapperGenKey != m.generation {
		m.mapper = NewMapper(m.VisibleRanges())
		m.mapperGenKey = m.generation
	}
	return m.mapper
}

// DeletedAt returns the deleted range containing t.
func (m *Model) DeletedAt(t float64) (DeletedRange, bool) {
	for _, d := range m.deleted {
		if d.Range().Contains(t) {
			return d, true
		}
		if d.Start > t {
			break
		}
	}
	return DeletedRange{}, false
}
