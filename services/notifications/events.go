package notifications

import (
	"github.com/bcc-code/bcc-media-cutter/common"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const (
	EventSource = "bcc-media-cutter"

	EventExportCompleted = "media.cutter.export.completed"
	EventExportFailed    = "media.cutter.export.failed"
)

type ExportFinished struct {
	JobID            string  `json:"jobId"`
	File             string  `json:"file"`
	Output           string  `json:"output,omitempty"`
	Size             int64   `json:"size,omitempty"`
	ExpectedDuration float64 `json:"expectedDuration"`
	Error            string  `json:"error,omitempty"`
}

func NewExportEvent(data ExportFinished) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSpecVersion(cloudevents.VersionV1)
	event.SetSource(EventSource)
	event.SetSubject(data.JobID)

	if data.Error != "" {
		event.SetType(EventExportFailed)
	} else {
		event.SetType(EventExportCompleted)
	}

	err := event.SetData(cloudevents.ApplicationJSON, data)
	return event, err
}

// ExportFinishedFromMessage builds the event payload from a terminal job message.
func ExportFinishedFromMessage(req common.ExportRequest, msg common.Message, expected float64) ExportFinished {
	data := ExportFinished{
		JobID:            req.ID,
		File:             req.File,
		ExpectedDuration: expected,
	}
	if msg.Type == common.MessageError {
		data.Error = msg.Message
	} else {
		data.Output = msg.Blob
		data.Size = msg.Size
	}
	return data
}
