package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExportEvent(t *testing.T) {
	req := common.ExportRequest{ID: "job-1", File: "in.mp4"}

	event, err := NewExportEvent(ExportFinishedFromMessage(req, common.CompleteMessage("job-1", common.ExportResult{Path: "out.mp4", Size: 9}), 20))
	require.NoError(t, err)
	assert.Equal(t, EventExportCompleted, event.Type())
	assert.Equal(t, "job-1", event.Subject())
	assert.NoError(t, event.Validate())

	var data ExportFinished
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, ExportFinished{JobID: "job-1", File: "in.mp4", Output: "out.mp4", Size: 9, ExpectedDuration: 20}, data)

	event, err = NewExportEvent(ExportFinishedFromMessage(req, common.Message{Type: common.MessageError, ID: "job-1", Message: "no video"}, 20))
	require.NoError(t, err)
	assert.Equal(t, EventExportFailed, event.Type())
}

func TestPublish(t *testing.T) {
	var received map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	event, err := NewExportEvent(ExportFinished{JobID: "job-1", File: "in.mp4"})
	require.NoError(t, err)

	require.NoError(t, NewClient(server.URL).Publish(context.Background(), event))
	assert.Equal(t, "application/cloudevents+json", contentType)
	assert.Equal(t, EventExportCompleted, received["type"])
	assert.Equal(t, "1.0", received["specversion"])
	assert.Equal(t, EventSource, received["source"])
}

func TestPublishRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.restyClient.SetRetryCount(0)

	event, _ := NewExportEvent(ExportFinished{JobID: "job-1"})
	err := client.Publish(context.Background(), event)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, merry.HTTPCode(err))
}

func TestPublishDisabled(t *testing.T) {
	event, _ := NewExportEvent(ExportFinished{JobID: "job-1"})
	assert.NoError(t, NewClient("").Publish(context.Background(), event))
	assert.False(t, (*Client)(nil).Enabled())
}
