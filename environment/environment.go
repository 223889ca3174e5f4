package environment

import (
	"os"
	"strconv"

	"github.com/bcc-code/bcc-media-cutter/common"
	"github.com/rs/zerolog"
)

const (
	QueueExport = "export"
	QueueDebug  = "debug"

	ExecutorLocal    = "local"
	ExecutorTemporal = "temporal"
)

func getOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntOr(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func GetQueue() string {
	return getOr("QUEUE", QueueExport)
}

func GetTemporalHostPort() string {
	return os.Getenv("TEMPORAL_HOST_PORT")
}

func GetTemporalNamespace() string {
	return os.Getenv("TEMPORAL_NAMESPACE")
}

// GetExportExecutor returns where export jobs run: in process or on a Temporal worker.
func GetExportExecutor() string {
	if os.Getenv("EXPORT_EXECUTOR") == ExecutorTemporal {
		return ExecutorTemporal
	}
	return ExecutorLocal
}

func GetHTTPAddr() string {
	return getOr("HTTP_ADDR", ":8080")
}

// GetDefaultPreset returns the export preset used when a request does not carry one.
func GetDefaultPreset() common.Preset {
	preset := common.X264Presets.Parse(os.Getenv("EXPORT_PRESET"))
	if preset == nil {
		preset = &common.X264Medium
	}

	return common.Preset{
		Video: common.VideoPreset{
			CRF:    getIntOr("EXPORT_CRF", 23),
			Preset: *preset,
		},
		Audio: common.AudioPreset{
			Bitrate: getOr("EXPORT_AUDIO_BITRATE", "128k"),
		},
	}
}

func GetThumbnailDir() string {
	return getOr("THUMBNAIL_DIR", os.TempDir())
}

func GetThumbnailCount() int {
	return getIntOr("THUMBNAIL_COUNT", 20)
}

func GetEventsWebhookURL() string {
	return os.Getenv("EVENTS_WEBHOOK_URL")
}

func GetLogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
