package interaction

import (
	"encoding/json"

	"github.com/ansel1/merry/v2"
	"github.com/orsinium-labs/enum"
)

// State is the active pointer gesture. Only one gesture is active at a time.
type State enum.Member[string]

var (
	StateIdle                = State{Value: "idle"}
	StateSeeking             = State{Value: "seeking"}
	StateCreatingSelection   = State{Value: "creating_selection"}
	StateResizingSelection   = State{Value: "resizing_selection"}
	StateResizingDeletedEdge = State{Value: "resizing_deleted_edge"}
	States                   = enum.New(
		StateIdle,
		StateSeeking,
		StateCreatingSelection,
		StateResizingSelection,
		StateResizingDeletedEdge,
	)
)

//goland:noinspection GoMixedReceiverTypes
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (s *State) UnmarshalJSON(value []byte) error {
	var stringValue string
	err := json.Unmarshal(value, &stringValue)
	if err != nil {
		return err
	}
	state := States.Parse(stringValue)
	if state == nil {
		return merry.Errorf("unknown gesture state %q", stringValue)
	}
	*s = *state
	return nil
}

// Dragging reports whether the state is a drag gesture that changes layout.
//
//goland:noinspection GoMixedReceiverTypes
func (s State) Dragging() bool {
	switch s {
	case StateCreatingSelection, StateResizingSelection, StateResizingDeletedEdge:
		return true
	}
	return false
}
