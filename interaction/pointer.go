package interaction

import (
	"encoding/json"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/orsinium-labs/enum"
)

type Phase enum.Member[string]

var (
	PhaseDown   = Phase{Value: "down"}
	PhaseMove   = Phase{Value: "move"}
	PhaseUp     = Phase{Value: "up"}
	PhaseCancel = Phase{Value: "cancel"}
	Phases      = enum.New(PhaseDown, PhaseMove, PhaseUp, PhaseCancel)

	ErrUnknownPhase = merry.Sentinel("unknown pointer phase")
)

//goland:noinspection GoMixedReceiverTypes
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (p *Phase) UnmarshalJSON(value []byte) error {
	var stringValue string
	err := json.Unmarshal(value, &stringValue)
	if err != nil {
		return err
	}
	phase := Phases.Parse(stringValue)
	if phase == nil {
		return merry.Wrap(ErrUnknownPhase, merry.WithHTTPCode(400))
	}
	*p = *phase
	return nil
}

// PointerEvent is a presentation independent pointer record. X is measured in pixels from
// the left edge of the timeline track.
type PointerEvent struct {
	X         float64   `json:"x"`
	PointerID int       `json:"pointerId"`
	Phase     Phase     `json:"phase"`
	Time      time.Time `json:"time"`
}
