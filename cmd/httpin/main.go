package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcc-code/bcc-media-cutter/environment"
	"github.com/bcc-code/bcc-media-cutter/jobs"
	temporaljobs "github.com/bcc-code/bcc-media-cutter/jobs/temporal"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/client"
)

func getClient() (client.Client, error) {
	return client.Dial(client.Options{
		HostPort:  environment.GetTemporalHostPort(),
		Namespace: environment.GetTemporalNamespace(),
	})
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	s.routes(r)
	r.GET("/schema", getSchemas)

	return r
}

func main() {
	_ = godotenv.Load()
	zerolog.SetGlobalLevel(environment.GetLogLevel())

	newRunner := func() jobs.Runner {
		return jobs.NewEncoderRunner()
	}

	if environment.GetExportExecutor() == environment.ExecutorTemporal {
		wfClient, err := getClient()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to temporal")
		}
		defer wfClient.Close()

		newRunner = func() jobs.Runner {
			return temporaljobs.NewRunner(wfClient, environment.GetQueue())
		}
	}

	s := newServer(newRunner)
	defer s.closeAll()

	srv := &http.Server{
		Addr:    environment.GetHTTPAddr(),
		Handler: newRouter(s),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Str("executor", environment.GetExportExecutor()).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
