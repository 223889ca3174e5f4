package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/services/ffmpeg"
	"github.com/bcc-code/bcc-media-cutter/services/transcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type blockingRunner struct {
	release chan struct{}
	result  common.ExportResult
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{release: make(chan struct{})}
}

func (r *blockingRunner) Run(ctx context.Context, req common.ExportRequest, report func(common.Message)) (common.ExportResult, error) {
	report(common.ProgressMessage(req.ID, 50, ""))
	select {
	case <-r.release:
		return r.result, nil
	case <-ctx.Done():
		return common.ExportResult{}, ctx.Err()
	}
}

func next(t *testing.T, messages <-chan common.Message) common.Message {
	t.Helper()
	select {
	case msg := <-messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return common.Message{}
	}
}

func exportMessage(id string) common.Message {
	return common.ExportRequest{ID: id, File: "in.mp4", Output: "out.mp4", Duration: 10}.Message()
}

func TestExecutorRunsToCompletion(t *testing.T) {
	runner := newBlockingRunner()
	runner.result = common.ExportResult{Path: "out.mp4", Size: 1024}
	executor := NewExecutor(runner)
	defer executor.Close()

	require.NoError(t, executor.Post(exportMessage("a")))
	assert.ErrorIs(t, executor.Post(exportMessage("a")), ErrJobActive)
	assert.Equal(t, []string{"a"}, executor.Running())

	assert.Equal(t, common.StatusMessage("a", "started"), next(t, executor.Messages()))
	assert.Equal(t, common.ProgressMessage("a", 50, ""), next(t, executor.Messages()))

	close(runner.release)
	done := next(t, executor.Messages())
	assert.Equal(t, common.MessageComplete, done.Type)
	assert.Equal(t, "out.mp4", done.Blob)
	assert.Equal(t, int64(1024), done.Size)

	assert.Eventually(t, func() bool {
		return len(executor.Running()) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestExecutorCleanupCancelsRuns(t *testing.T) {
	executor := NewExecutor(newBlockingRunner())
	defer executor.Close()

	require.NoError(t, executor.Post(exportMessage("a")))
	next(t, executor.Messages())
	next(t, executor.Messages())

	require.NoError(t, executor.Post(common.CleanupMessage()))
	msg := next(t, executor.Messages())
	assert.Equal(t, common.MessageError, msg.Type)
	assert.Equal(t, "a", msg.ID)
	assert.Contains(t, msg.Message, "canceled")
}

func TestExecutorRejectsBadMessages(t *testing.T) {
	executor := NewExecutor(newBlockingRunner())
	defer executor.Close()

	assert.ErrorIs(t, executor.Post(common.StatusMessage("a", "hi")), ErrBadMessage)
	assert.ErrorIs(t, executor.Post(exportMessage("")), ErrBadMessage)
}

type recordingPoster struct {
	lock  sync.Mutex
	posts []common.Message
	err   error
}

func (p *recordingPoster) Post(msg common.Message) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.posts = append(p.posts, msg)
	return p.err
}

type TrackerTestSuite struct {
	suite.Suite

	poster   *recordingPoster
	tracker  *Tracker
	received []common.Message
}

func (s *TrackerTestSuite) SetupTest() {
	s.poster = &recordingPoster{}
	s.tracker = NewTracker(s.poster)
	s.received = nil
	s.tracker.Subscribe(func(msg common.Message) {
		s.received = append(s.received, msg)
	})
}

func (s *TrackerTestSuite) Test_SubmitAssignsID() {
	id, err := s.tracker.Submit(common.ExportRequest{File: "in.mp4"})
	s.Require().NoError(err)
	s.NotEmpty(id)

	s.Require().Len(s.poster.posts, 1)
	s.Equal(common.MessageExport, s.poster.posts[0].Type)
	s.Equal(id, s.poster.posts[0].ID)

	current, ok := s.tracker.Current()
	s.True(ok)
	s.Equal(id, current)
}

func (s *TrackerTestSuite) Test_SecondSubmitRejected() {
	_, err := s.tracker.Submit(common.ExportRequest{})
	s.Require().NoError(err)

	_, err = s.tracker.Submit(common.ExportRequest{})
	s.ErrorIs(err, ErrJobActive)
	s.Len(s.poster.posts, 1)
}

func (s *TrackerTestSuite) Test_DropsOtherIDs() {
	id, _ := s.tracker.Submit(common.ExportRequest{})

	s.False(s.tracker.Handle(common.ProgressMessage("stale", 10, "")))
	s.True(s.tracker.Handle(common.ProgressMessage(id, 10, "")))

	s.Require().Len(s.received, 1)
	s.Equal(id, s.received[0].ID)

	last, ok := s.tracker.Last()
	s.True(ok)
	s.InDelta(10, last.Progress, 1e-9)
}

func (s *TrackerTestSuite) Test_TerminalMessageEndsTracking() {
	id, _ := s.tracker.Submit(common.ExportRequest{})

	s.True(s.tracker.Handle(common.CompleteMessage(id, common.ExportResult{Path: "out.mp4"})))
	_, ok := s.tracker.Current()
	s.False(ok)

	s.False(s.tracker.Handle(common.ProgressMessage(id, 99, "")))

	_, err := s.tracker.Submit(common.ExportRequest{})
	s.NoError(err)
}

func (s *TrackerTestSuite) Test_Cancel() {
	id, _ := s.tracker.Submit(common.ExportRequest{})

	s.True(s.tracker.Cancel())
	s.Require().Len(s.poster.posts, 2)
	s.Equal(common.CleanupMessage(), s.poster.posts[1])

	s.False(s.tracker.Handle(common.ErrorMessage(id, context.Canceled)))
	s.Empty(s.received)
	s.False(s.tracker.Cancel())
}

func (s *TrackerTestSuite) Test_PostFailureReleasesSlot() {
	s.poster.err = errors.New("executor gone")

	_, err := s.tracker.Submit(common.ExportRequest{})
	s.Error(err)

	_, ok := s.tracker.Current()
	s.False(ok)
}

func (s *TrackerTestSuite) Test_Unsubscribe() {
	count := 0
	unsubscribe := s.tracker.Subscribe(func(common.Message) { count++ })
	id, _ := s.tracker.Submit(common.ExportRequest{})

	s.tracker.Handle(common.StatusMessage(id, "started"))
	unsubscribe()
	s.tracker.Handle(common.StatusMessage(id, "still going"))

	s.Equal(1, count)
	s.Len(s.received, 2)
}

func TestTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func TestCancelledJobMessagesAreDropped(t *testing.T) {
	runner := newBlockingRunner()
	executor := NewExecutor(runner)
	defer executor.Close()
	tracker := NewTracker(executor)

	var lock sync.Mutex
	var accepted []common.Message
	tracker.Subscribe(func(msg common.Message) {
		lock.Lock()
		defer lock.Unlock()
		accepted = append(accepted, msg)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tracker.Pump(ctx, executor.Messages())

	first, err := tracker.Submit(common.ExportRequest{File: "in.mp4", Duration: 10})
	require.NoError(t, err)
	require.True(t, tracker.Cancel())

	second, err := tracker.Submit(common.ExportRequest{File: "in.mp4", Duration: 10})
	require.NoError(t, err)
	close(runner.release)

	assert.Eventually(t, func() bool {
		_, ok := tracker.Current()
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	lock.Lock()
	defer lock.Unlock()
	for _, msg := range accepted {
		assert.Equal(t, second, msg.ID)
		assert.NotEqual(t, first, msg.ID)
	}
	require.NotEmpty(t, accepted)
	assert.Equal(t, common.MessageComplete, accepted[len(accepted)-1].Type)
}

func TestEncoderRunner(t *testing.T) {
	var input transcode.TimelineInput
	runner := &EncoderRunner{
		Probe: func(ctx context.Context, path string) (float64, error) {
			return 30, nil
		},
		Encode: func(ctx context.Context, in transcode.TimelineInput, cb ffmpeg.ProgressCallback) (*transcode.TimelineResult, error) {
			input = in
			cb(ffmpeg.Progress{Percent: 10.2})
			cb(ffmpeg.Progress{Percent: 10.7})
			cb(ffmpeg.Progress{Percent: 100})
			return &transcode.TimelineResult{OutputPath: in.OutputPath, Size: 7, VideoOnly: true}, nil
		},
	}

	var reports []common.Message
	result, err := runner.Run(context.Background(), common.ExportRequest{
		ID:     "job",
		File:   "in.mp4",
		Output: "out.mp4",
		Operations: common.Operations{
			DeletedRanges: []common.TimeRange{{Start: 0, End: 5}, {Start: 25, End: 30}},
		},
	}, func(msg common.Message) {
		reports = append(reports, msg)
	})
	require.NoError(t, err)

	assert.Equal(t, common.ExportResult{Path: "out.mp4", Size: 7}, result)
	assert.InDelta(t, 20, input.Plan.ExpectedDuration, 1e-9)
	require.Len(t, reports, 3)
	assert.InDelta(t, 10.2, reports[0].Progress, 1e-9)
	assert.InDelta(t, 100, reports[1].Progress, 1e-9)
	assert.Equal(t, common.StatusMessage("job", "exported without audio"), reports[2])
}

func TestEncoderRunnerNothingToExport(t *testing.T) {
	runner := &EncoderRunner{
		Encode: func(ctx context.Context, in transcode.TimelineInput, cb ffmpeg.ProgressCallback) (*transcode.TimelineResult, error) {
			t.Fatal("encode must not run")
			return nil, nil
		},
	}

	_, err := runner.Run(context.Background(), common.ExportRequest{
		Duration:   10,
		Operations: common.Operations{DeletedRanges: []common.TimeRange{{Start: 0, End: 10}}},
	}, func(common.Message) {})
	assert.ErrorIs(t, err, transcode.ErrExportFailed)
}
