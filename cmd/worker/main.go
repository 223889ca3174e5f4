package main

import (
	"os"
	"strconv"
	"time"

	"github.com/bcc-code/bcc-media-cutter/activities"
	"github.com/bcc-code/bcc-media-cutter/environment"
	"github.com/bcc-code/bcc-media-cutter/jobs"
	"github.com/bcc-code/bcc-media-cutter/services/notifications"
	wfutils "github.com/bcc-code/bcc-media-cutter/utils/wfutils"
	"github.com/bcc-code/bcc-media-cutter/workflows"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
)

var workerWorkflows = []any{
	workflows.ExportTimeline,
}

func main() {
	_ = godotenv.Load()
	zerolog.SetGlobalLevel(environment.GetLogLevel())

	c, err := client.Dial(client.Options{
		HostPort:  environment.GetTemporalHostPort(),
		Namespace: environment.GetTemporalNamespace(),
	})

	if err != nil {
		panic(err)
	}

	defer c.Close()

	identity := os.Getenv("IDENTITY")
	if identity == "" {
		identity = "worker"
	}

	activityCountString := os.Getenv("ACTIVITY_COUNT")
	if activityCountString == "" {
		activityCountString = "2"
	}

	activityCount, err := strconv.Atoi(activityCountString)
	if err != nil {
		panic(err)
	}

	workerOptions := worker.Options{
		DeadlockDetectionTimeout:           time.Hour,
		DisableRegistrationAliasing:        true,
		Identity:                           identity,
		MaxConcurrentActivityExecutionSize: activityCount,
		Interceptors: []interceptor.WorkerInterceptor{
			&wfutils.LoggingWorkerInterceptor{},
		},
	}

	registerWorker(c, environment.GetQueue(), workerOptions)
}

func registerWorker(c client.Client, queue string, options worker.Options) {
	w := worker.New(c, queue, options)

	exportActivities := &activities.ExportActivities{
		Runner:        jobs.NewEncoderRunner(),
		Notifications: notifications.NewClient(environment.GetEventsWebhookURL()),
	}

	switch queue {
	case environment.QueueDebug:
		fallthrough
	case environment.QueueExport:
		for _, a := range activities.GetExportActivities(exportActivities) {
			w.RegisterActivity(a)
		}

		for _, wf := range workerWorkflows {
			w.RegisterWorkflow(wf)
		}
	default:
		log.Fatal().Str("queue", queue).Msg("unknown queue")
	}

	err := w.Run(worker.InterruptCh())

	log.Info().Err(err).Msg("Worker finished")
}
