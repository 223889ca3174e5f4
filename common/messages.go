package common

import (
	"encoding/json"

	"github.com/ansel1/merry/v2"
	"github.com/invopop/jsonschema"
	"github.com/orsinium-labs/enum"
	"github.com/samber/lo"
)

type MessageType enum.Member[string]

var (
	MessageExport   = MessageType{Value: "export"}
	MessageProgress = MessageType{Value: "progress"}
	MessageStatus   = MessageType{Value: "status"}
	MessageComplete = MessageType{Value: "complete"}
	MessageError    = MessageType{Value: "error"}
	MessageCleanup  = MessageType{Value: "cleanup"}
	MessageTypes    = enum.New(MessageExport, MessageProgress, MessageStatus, MessageComplete, MessageError, MessageCleanup)

	ErrUnknownMessageType = merry.Sentinel("unknown message type")
)

//goland:noinspection GoMixedReceiverTypes
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (t *MessageType) UnmarshalJSON(value []byte) error {
	var stringValue string
	err := json.Unmarshal(value, &stringValue)
	if err != nil {
		return err
	}
	messageType := MessageTypes.Parse(stringValue)
	if messageType == nil {
		return merry.Wrap(ErrUnknownMessageType, merry.WithHTTPCode(400))
	}
	*t = *messageType
	return nil
}

//goland:noinspection GoMixedReceiverTypes
func (MessageType) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.Map(MessageTypes.Values(), func(v string, _ int) any { return v }),
	}
}

// Message is one entry of the job protocol. Every message but cleanup carries the id of
// the job it belongs to.
type Message struct {
	Type     MessageType `json:"type"`
	ID       string      `json:"id,omitempty"`
	Progress float64     `json:"progress,omitempty"`
	Message  string      `json:"message,omitempty"`

	// Blob is the location of the finished output.
	Blob string `json:"blob,omitempty"`
	Size int64  `json:"size,omitempty"`

	File       string      `json:"file,omitempty"`
	Output     string      `json:"output,omitempty"`
	Duration   float64     `json:"duration,omitempty"`
	Operations *Operations `json:"operations,omitempty"`
	Preset     *Preset     `json:"preset,omitempty"`
}

// ExportRequest asks an executor to render File with Operations applied.
type ExportRequest struct {
	ID         string     `json:"id"`
	File       string     `json:"file"`
	Output     string     `json:"output"`
	Duration   float64    `json:"duration"`
	Operations Operations `json:"operations"`
	Preset     Preset     `json:"preset"`
}

func (r ExportRequest) Message() Message {
	return Message{
		Type:       MessageExport,
		ID:         r.ID,
		File:       r.File,
		Output:     r.Output,
		Duration:   r.Duration,
		Operations: &r.Operations,
		Preset:     &r.Preset,
	}
}

// ExportRequest rebuilds the request carried by an export message.
func (m Message) ExportRequest() ExportRequest {
	r := ExportRequest{
		ID:       m.ID,
		File:     m.File,
		Output:   m.Output,
		Duration: m.Duration,
	}
	if m.Operations != nil {
		r.Operations = *m.Operations
	}
	if m.Preset != nil {
		r.Preset = *m.Preset
	}
	return r
}

// ExportResult is what a finished export reports back.
type ExportResult struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func ProgressMessage(id string, percent float64, message string) Message {
	return Message{Type: MessageProgress, ID: id, Progress: percent, Message: message}
}

func StatusMessage(id, message string) Message {
	return Message{Type: MessageStatus, ID: id, Message: message}
}

func CompleteMessage(id string, result ExportResult) Message {
	return Message{Type: MessageComplete, ID: id, Blob: result.Path, Size: result.Size}
}

func ErrorMessage(id string, err error) Message {
	msg := merry.UserMessage(err)
	if msg == "" {
		msg = err.Error()
	}
	return Message{Type: MessageError, ID: id, Message: msg}
}

func CleanupMessage() Message {
	return Message{Type: MessageCleanup}
}

// MarshalJSON always writes progress for progress messages, including 0.
//
//goland:noinspection GoMixedReceiverTypes
func (m Message) MarshalJSON() ([]byte, error) {
	type message Message
	out := struct {
		message
		Progress *float64 `json:"progress,omitempty"`
	}{message: message(m)}
	if m.Type == MessageProgress {
		progress := m.Progress
		out.Progress = &progress
	}
	return json.Marshal(out)
}

// Terminal reports whether no further messages are expected for the job.
func (m Message) Terminal() bool {
	return m.Type == MessageComplete || m.Type == MessageError
}
