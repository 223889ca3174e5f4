package main

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/bcc-code/bcc-media-cutter/editor"
	"github.com/bcc-code/bcc-media-cutter/environment"
	"github.com/bcc-code/bcc-media-cutter/interaction"
	"github.com/bcc-code/bcc-media-cutter/jobs"
	"github.com/bcc-code/bcc-media-cutter/services/ffmpeg"
	"github.com/bcc-code/bcc-media-cutter/thumbnails"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/teris-io/shortid"
)

var (
	errUnknownSession = merry.Sentinel("unknown session", merry.WithHTTPCode(http.StatusNotFound))
	errBadRequest     = merry.Sentinel("bad request", merry.WithHTTPCode(http.StatusBadRequest))
	errNoDuration     = merry.Sentinel("media has no duration", merry.WithHTTPCode(http.StatusUnprocessableEntity))
)

type sessionEntry struct {
	session  *editor.Session
	executor *jobs.Executor
	cancel   context.CancelFunc
}

type server struct {
	newRunner   func() jobs.Runner
	newRenderer func(ctx context.Context, file, id string) (thumbnails.Renderer, error)
	probe       func(ctx context.Context, file string) (float64, error)

	lock     sync.RWMutex
	sessions map[string]*sessionEntry
}

func newServer(newRunner func() jobs.Runner) *server {
	return &server{
		newRunner:   newRunner,
		newRenderer: ffmpegRenderer,
		probe:       probeDuration,
		sessions:    map[string]*sessionEntry{},
	}
}

func probeDuration(ctx context.Context, file string) (float64, error) {
	info, err := ffmpeg.ProbeFile(ctx, file)
	if err != nil {
		return 0, err
	}
	return info.Duration(), nil
}

func ffmpegRenderer(ctx context.Context, file, id string) (thumbnails.Renderer, error) {
	r, err := thumbnails.NewFFmpegRenderer(ctx, file, filepath.Join(environment.GetThumbnailDir(), id), id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func renderError(ctx *gin.Context, err error) {
	code := merry.HTTPCode(err)
	message := merry.UserMessage(err)
	if message == "" {
		message = err.Error()
	}
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
	}
	ctx.AbortWithStatusJSON(code, gin.H{"error": message})
}

func bind(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		renderError(ctx, merry.Wrap(errBadRequest, merry.WithUserMessage(err.Error()), merry.WithCause(err)))
		return false
	}
	return true
}

func (s *server) get(ctx *gin.Context) (*sessionEntry, bool) {
	s.lock.RLock()
	entry, ok := s.sessions[ctx.Param("id")]
	s.lock.RUnlock()
	if !ok {
		renderError(ctx, errUnknownSession)
		return nil, false
	}
	return entry, true
}

type createSessionRequest struct {
	File     string         `json:"file" binding:"required"`
	Output   string         `json:"output"`
	Duration float64        `json:"duration"`
	Width    float64        `json:"width"`
	Preset   *common.Preset `json:"preset"`
}

func (s *server) createSession(ctx *gin.Context) {
	var req createSessionRequest
	if !bind(ctx, &req) {
		return
	}

	if req.Duration <= 0 {
		duration, err := s.probe(ctx, req.File)
		if err != nil {
			renderError(ctx, err)
			return
		}
		req.Duration = duration
	}
	if req.Duration <= 0 {
		renderError(ctx, errNoDuration)
		return
	}

	id, err := shortid.Generate()
	if err != nil {
		renderError(ctx, err)
		return
	}

	preset := environment.GetDefaultPreset()
	if req.Preset != nil {
		preset = *req.Preset
	}

	var renderer thumbnails.Renderer
	if count := environment.GetThumbnailCount(); count > 0 && s.newRenderer != nil {
		renderer, err = s.newRenderer(ctx, req.File, id)
		if err != nil {
			log.Warn().Err(err).Str("file", req.File).Msg("thumbnails disabled")
			renderer = nil
		}
	}

	executor := jobs.NewExecutor(s.newRunner())
	session := editor.NewSession(editor.Config{
		ID:             id,
		File:           req.File,
		Output:         req.Output,
		Duration:       req.Duration,
		Preset:         preset,
		Renderer:       renderer,
		ThumbnailCount: environment.GetThumbnailCount(),
		Poster:         executor,
	})
	if req.Width > 0 {
		session.SetWidth(req.Width)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	go session.PumpJobMessages(pumpCtx, executor.Messages())

	s.lock.Lock()
	s.sessions[id] = &sessionEntry{session: session, executor: executor, cancel: cancel}
	s.lock.Unlock()

	log.Info().Str("session", id).Str("file", req.File).Float64("duration", req.Duration).Msg("session opened")
	ctx.JSON(http.StatusCreated, session.Snapshot())
}

func (s *server) closeSession(ctx *gin.Context) {
	entry, ok := s.get(ctx)
	if !ok {
		return
	}

	s.lock.Lock()
	delete(s.sessions, entry.session.ID())
	s.lock.Unlock()

	entry.session.Close()
	entry.cancel()
	entry.executor.Close()

	ctx.Status(http.StatusNoContent)
}

func (s *server) closeAll() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, entry := range s.sessions {
		entry.session.Close()
		entry.cancel()
		entry.executor.Close()
		delete(s.sessions, id)
	}
}

// withSession runs fn for the session in the path and responds with its snapshot.
func (s *server) withSession(fn func(ctx *gin.Context, session *editor.Session) error) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		entry, ok := s.get(ctx)
		if !ok {
			return
		}
		if err := fn(ctx, entry.session); err != nil {
			renderError(ctx, err)
			return
		}
		if ctx.IsAborted() || ctx.Writer.Written() {
			return
		}
		ctx.JSON(http.StatusOK, entry.session.Snapshot())
	}
}

type rangeRequest struct {
	Start *float64 `json:"start" binding:"required"`
	End   *float64 `json:"end" binding:"required"`
}

func bindRange(ctx *gin.Context) (float64, float64, bool) {
	var req rangeRequest
	if !bind(ctx, &req) {
		return 0, 0, false
	}
	return *req.Start, *req.End, true
}

func (s *server) routes(r *gin.Engine) {
	r.POST("/sessions", s.createSession)

	g := r.Group("/sessions/:id")
	g.GET("", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		return nil
	}))
	g.DELETE("", s.closeSession)

	g.POST("/pointer", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		var ev interaction.PointerEvent
		if !bind(ctx, &ev) {
			return nil
		}
		session.Pointer(ev)
		return nil
	}))
	g.POST("/escape", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		session.Escape()
		return nil
	}))
	g.PUT("/width", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		var req struct {
			Width float64 `json:"width" binding:"required"`
		}
		if bind(ctx, &req) {
			session.SetWidth(req.Width)
		}
		return nil
	}))

	g.PUT("/selection", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		if start, end, ok := bindRange(ctx); ok {
			session.SetSelection(start, end)
		}
		return nil
	}))
	g.DELETE("/selection", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		session.ClearSelection()
		return nil
	}))
	g.POST("/delete", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		return session.DeleteSelection(ctx.Query("expanded") == "true")
	}))
	g.POST("/restore", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		_, err := session.RestoreSelection()
		return err
	}))
	g.POST("/expand", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		if start, end, ok := bindRange(ctx); ok {
			session.Expand(start, end)
		}
		return nil
	}))
	g.POST("/collapse", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		if start, end, ok := bindRange(ctx); ok {
			session.Collapse(start, end)
		}
		return nil
	}))

	g.POST("/tick", func(ctx *gin.Context) {
		entry, ok := s.get(ctx)
		if !ok {
			return
		}
		var req struct {
			Position float64 `json:"position"`
			Playing  bool    `json:"playing"`
		}
		if !bind(ctx, &req) {
			return
		}
		ctx.JSON(http.StatusOK, entry.session.Tick(req.Position, req.Playing))
	})
	g.POST("/stop", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		session.StopPlayback()
		return nil
	}))
	g.PUT("/loop", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		var req struct {
			Loop bool `json:"loop"`
		}
		if bind(ctx, &req) {
			session.SetLoop(req.Loop)
		}
		return nil
	}))
	g.POST("/play-through", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		session.PlayThroughDeleted()
		return nil
	}))

	g.PUT("/cut", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		var cut common.TimeRange
		if bind(ctx, &cut) {
			session.SetCut(&cut)
		}
		return nil
	}))
	g.DELETE("/cut", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		session.SetCut(nil)
		return nil
	}))
	g.PUT("/crop", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		var crop common.Crop
		if bind(ctx, &crop) {
			session.SetCrop(&crop)
		}
		return nil
	}))
	g.DELETE("/crop", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		session.SetCrop(nil)
		return nil
	}))

	g.POST("/export", func(ctx *gin.Context) {
		entry, ok := s.get(ctx)
		if !ok {
			return
		}
		id, err := entry.session.Export()
		if err != nil {
			renderError(ctx, err)
			return
		}
		ctx.JSON(http.StatusAccepted, gin.H{"id": id})
	})
	g.DELETE("/export", s.withSession(func(ctx *gin.Context, session *editor.Session) error {
		if !session.CancelExport() {
			return jobs.ErrUnknownJob
		}
		return nil
	}))
	g.GET("/cutlist.csv", func(ctx *gin.Context) {
		entry, ok := s.get(ctx)
		if !ok {
			return
		}
		csv, err := entry.session.CutListCSV()
		if err != nil {
			renderError(ctx, err)
			return
		}
		ctx.Data(http.StatusOK, "text/csv", []byte(csv))
	})
}
