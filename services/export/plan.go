package export

import (
	"math"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/timeline"
	"github.com/samber/lo"
)

// Plan is an export as the encoder sees it: the operation descriptor plus the kept
// segments derived from it.
type Plan struct {
	Operations common.Operations
	Duration   float64

	// Kept holds the spans of real time that end up in the output, in order.
	Kept []timeline.Range
	// ExpectedDuration is the length of the output, used to normalize progress.
	ExpectedDuration float64
}

// Describe builds the operation descriptor for the current state of the model. Deleted
// ranges are exported whether they are expanded or not.
func Describe(model *timeline.Model, cut *common.TimeRange, crop *common.Crop) common.Operations {
	ops := common.Operations{
		DeletedRanges: lo.Map(model.DeletedRanges(), func(d timeline.DeletedRange, _ int) common.TimeRange {
			return common.TimeRange{Start: d.Start, End: d.End}
		}),
	}

	if cut != nil {
		r := timeline.Ordered(cut.Start, cut.End)
		r.Start = math.Max(r.Start, 0)
		r.End = math.Min(r.End, model.Duration())
		if r.Duration() >= timeline.MinDuration {
			ops.Cut = &common.TimeRange{Start: r.Start, End: r.End}
		}
	}

	if crop != nil {
		aligned := crop.Aligned()
		if !aligned.Empty() {
			ops.Crop = &aligned
		}
	}

	return ops
}

// NewPlan derives the kept segments of ops over a media of the given duration.
func NewPlan(ops common.Operations, duration float64) Plan {
	deleted := timeline.Normalize(lo.Map(ops.DeletedRanges, func(r common.TimeRange, _ int) timeline.DeletedRange {
		return timeline.DeletedRange{Start: r.Start, End: r.End}
	}))

	window := timeline.Range{Start: 0, End: duration}
	if ops.Cut != nil {
		window.Start = math.Max(ops.Cut.Start, 0)
		window.End = math.Min(ops.Cut.End, duration)
	}

	var kept []timeline.Range
	for _, r := range timeline.Complement(deleted, duration) {
		r.Start = math.Max(r.Start, window.Start)
		r.End = math.Min(r.End, window.End)
		if r.End-r.Start > timeline.Epsilon {
			kept = append(kept, r)
		}
	}

	expected := lo.SumBy(kept, func(r timeline.Range) float64 {
		return r.Duration()
	})

	normalized := common.Operations{
		Cut:  ops.Cut,
		Crop: ops.Crop,
	}
	normalized.DeletedRanges = lo.Map(deleted, func(d timeline.DeletedRange, _ int) common.TimeRange {
		return common.TimeRange{Start: d.Start, End: d.End}
	})

	return Plan{
		Operations:       normalized,
		Duration:         duration,
		Kept:             kept,
		ExpectedDuration: expected,
	}
}

// PlanModel is Describe followed by NewPlan.
func PlanModel(model *timeline.Model, cut *common.TimeRange, crop *common.Crop) Plan {
	return NewPlan(Describe(model, cut, crop), model.Duration())
}

// Keep reports whether the instant t is part of the output.
func (p Plan) Keep(t float64) bool {
	if cut := p.Operations.Cut; cut != nil && (t < cut.Start || t >= cut.End) {
		return false
	}
	return !lo.SomeBy(p.Operations.DeletedRanges, func(r common.TimeRange) bool {
		return t >= r.Start && t < r.End
	})
}

// Trivial reports whether the export keeps the media unchanged in time.
func (p Plan) Trivial() bool {
	return p.Operations.Cut == nil && len(p.Operations.DeletedRanges) == 0
}
