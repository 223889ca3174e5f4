package ffmpeg

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type ProgressCallback func(Progress)

type Progress struct {
	Params         string  `json:"command"`
	Percent        float64 `json:"percent"`
	CurrentSeconds float64 `json:"currentSeconds"`
	TotalSeconds   float64 `json:"totalSeconds"`
	CurrentFrame   int     `json:"currentFrame"`
	Bitrate        string  `json:"bitrate"`
	Speed          string  `json:"speed"`
	Done           bool    `json:"done"`
}

type StreamInfo struct {
	HasAudio     bool
	HasVideo     bool
	VideoStreams []FFProbeStream
	AudioStreams []FFProbeStream
	Progressive  bool
	TotalSeconds float64
	FrameRate    float64
	Height       int
	Width        int
}

func parseRate(rate string) float64 {
	parts := strings.Split(rate, "/")
	if len(parts) != 2 {
		return 0
	}
	frames, _ := strconv.ParseFloat(parts[0], 64)
	seconds, _ := strconv.ParseFloat(parts[1], 64)
	if seconds == 0 {
		return 0
	}
	return frames / seconds
}

func ProbeResultToInfo(info *FFProbeResult) StreamInfo {
	if info == nil {
		return StreamInfo{}
	}

	streamInfo := StreamInfo{
		VideoStreams: lo.Filter(info.Streams, func(i FFProbeStream, _ int) bool {
			return i.CodecType == "video"
		}),
		AudioStreams: lo.Filter(info.Streams, func(i FFProbeStream, _ int) bool {
			return i.CodecType == "audio"
		}),
		TotalSeconds: info.Duration(),
	}
	streamInfo.HasVideo = len(streamInfo.VideoStreams) > 0
	streamInfo.HasAudio = len(streamInfo.AudioStreams) > 0

	if !streamInfo.HasVideo {
		return streamInfo
	}

	stream := streamInfo.VideoStreams[0]
	streamInfo.Width = stream.Width
	streamInfo.Height = stream.Height
	streamInfo.Progressive = stream.FieldOrder == "progressive"
	streamInfo.FrameRate = parseRate(stream.RFrameRate)

	if streamInfo.TotalSeconds == 0 {
		streamInfo.TotalSeconds, _ = strconv.ParseFloat(stream.Duration, 64)
	}

	return streamInfo
}

// parseProgressCallback returns a line handler for the key=value blocks of -progress pipe:1.
// Percent is measured against info.TotalSeconds, which for timeline exports is the length
// of the output rather than the source.
func parseProgressCallback(command []string, info StreamInfo, cb ProgressCallback) func(string) {
	var progress Progress

	progress.Params = strings.Join(command, " ")
	progress.TotalSeconds = info.TotalSeconds

	return func(line string) {
		key, value, found := strings.Cut(line, "=")
		if !found {
			return
		}

		switch key {
		case "frame":
			frame, _ := strconv.ParseInt(value, 10, 64)
			progress.CurrentFrame = int(frame)
		case "out_time_us":
			us, _ := strconv.ParseFloat(value, 64)
			progress.CurrentSeconds = us / 1000 / 1000
			if progress.TotalSeconds != 0 && us > 0 {
				progress.Percent = math.Min(progress.CurrentSeconds/progress.TotalSeconds*100, 100)
			}
		case "bitrate":
			progress.Bitrate = value
		case "speed":
			progress.Speed = value
		case "progress":
			if value == "end" {
				progress.Percent = 100
				progress.Done = true
			}
			if cb != nil {
				cb(progress)
			}
		}
	}
}
