package timeline

// Mapper converts between real time and collapsed time, where collapsed time is the
// editor timeline with every collapsed deleted range removed.
type Mapper struct {
	segments []Segment
	total    float64
}

func NewMapper(segments []Segment) *Mapper {
	total := 0.0
	for _, s := range segments {
		total += s.Duration()
	}
	return &Mapper{segments: segments, total: total}
}

func (m *Mapper) Segments() []Segment {
	return m.segments
}

// CollapsedDuration is the summed width of all visible segments.
func (m *Mapper) CollapsedDuration() float64 {
	return m.total
}

// RealToCollapsed maps a real time to collapsed seconds. Times inside a collapsed deleted
// range map to the boundary where that range was removed.
func (m *Mapper) RealToCollapsed(t float64) float64 {
	acc := 0.0
	for _, s := range m.segments {
		if t < s.Start {
			return acc
		}
		if t <= s.End {
			return acc + (t - s.Start)
		}
		acc += s.Duration()
	}
	return acc
}

// CollapsedToReal maps collapsed seconds back to a real time. A position exactly on the
// boundary between two segments resolves to the start of the later segment.
func (m *Mapper) CollapsedToReal(c float64) float64 {
	if m.total <= 0 || len(m.segments) == 0 {
		return 0
	}
	c = clamp(c, 0, m.total)
	acc := 0.0
	last := len(m.segments) - 1
	for i, s := range m.segments {
		w := s.Duration()
		if c < acc+w || i == last {
			return clamp(s.Start+(c-acc), s.Start, s.End)
		}
		acc += w
	}
	return m.segments[last].End
}

// RealToCollapsedPercent returns the position of t on the collapsed timeline in [0, 100].
func (m *Mapper) RealToCollapsedPercent(t float64) float64 {
	if m.total <= 0 {
		return 0
	}
	return clamp(m.RealToCollapsed(t)/m.total*100, 0, 100)
}

// CollapsedPercentToReal is the inverse of RealToCollapsedPercent for times inside a visible segment.
func (m *Mapper) CollapsedPercentToReal(p float64) float64 {
	if m.total <= 0 {
		return 0
	}
	return m.CollapsedToReal(clamp(p, 0, 100) / 100 * m.total)
}
