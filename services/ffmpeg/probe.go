package ffmpeg

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/cache"
	"github.com/bcc-code/bcc-media-cutter/utils"
)

type FFProbeStream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixFmt       string `json:"pix_fmt"`
	FieldOrder   string `json:"field_order"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	StartTime    string `json:"start_time"`
	Duration     string `json:"duration"`
	NbFrames     string `json:"nb_frames"`
	Channels     int    `json:"channels"`
	Tags         struct {
		Language string `json:"language"`
		Duration string `json:"DURATION"`
	} `json:"tags"`
}

type FFProbeResult struct {
	Streams []FFProbeStream `json:"streams"`
	Format  struct {
		Filename   string `json:"filename"`
		NbStreams  int    `json:"nb_streams"`
		FormatName string `json:"format_name"`
		StartTime  string `json:"start_time"`
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// Duration returns the container duration in seconds, or 0 when ffprobe did not report one.
func (r *FFProbeResult) Duration() float64 {
	d, _ := strconv.ParseFloat(r.Format.Duration, 64)
	return d
}

func doProbe(ctx context.Context, path string) (*FFProbeResult, error) {
	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-hide_banner",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	result, err := utils.ExecuteCmd(cmd, nil)
	if err != nil {
		return nil, merry.Wrap(err, merry.WithMessagef("couldn't execute ffprobe %s", path))
	}

	var info FFProbeResult
	err = json.Unmarshal([]byte(result), &info)
	if err != nil {
		return nil, merry.Wrap(err)
	}

	return &info, nil
}

// ProbeFile returns information about the specified media file. Requires ffprobe present.
// Results are cached for a few minutes per path.
func ProbeFile(ctx context.Context, filePath string) (*FFProbeResult, error) {
	return cache.GetOrSet("probe:"+filePath, func() (*FFProbeResult, error) {
		return doProbe(ctx, filePath)
	})
}

func GetStreamInfo(ctx context.Context, path string) (StreamInfo, error) {
	info, err := ProbeFile(ctx, path)
	if err != nil {
		return StreamInfo{}, err
	}
	return ProbeResultToInfo(info), nil
}
