package export

import (
	"fmt"
	"strconv"
	"strings"
)

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// KeepExpression returns an ffmpeg expression over t that is non-zero exactly when Keep(t)
// is true. It is empty when every instant is kept.
func (p Plan) KeepExpression() string {
	var terms []string

	if cut := p.Operations.Cut; cut != nil {
		terms = append(terms, fmt.Sprintf("gte(t,%s)*lt(t,%s)", formatSeconds(cut.Start), formatSeconds(cut.End)))
	}
	for _, r := range p.Operations.DeletedRanges {
		terms = append(terms, fmt.Sprintf("not(gte(t,%s)*lt(t,%s))", formatSeconds(r.Start), formatSeconds(r.End)))
	}

	return strings.Join(terms, "*")
}

// VideoFilter returns the -vf chain of the plan. Dropped frames are re-timed from their
// index so the output has no gaps.
func (p Plan) VideoFilter() string {
	var filters []string

	if expr := p.KeepExpression(); expr != "" {
		filters = append(filters,
			fmt.Sprintf("select='%s'", expr),
			"setpts=N/FRAME_RATE/TB",
		)
	}
	if crop := p.Operations.Crop; crop != nil && !crop.Empty() {
		filters = append(filters, crop.FFmpegFilter())
	}

	return strings.Join(filters, ",")
}

// AudioFilter returns the -af chain of the plan. It uses the same predicate as the video
// filter so both tracks drop the same instants.
func (p Plan) AudioFilter() string {
	expr := p.KeepExpression()
	if expr == "" {
		return ""
	}
	return fmt.Sprintf("aselect='%s',asetpts=N/SR/TB", expr)
}
