package ffmpeg

import (
	"context"
	"strconv"

	"github.com/bcc-code/bcc-media-cutter/utils"
)

// ExtractFrame writes a single frame at the given source time to outputPath, scaled to size.
func ExtractFrame(ctx context.Context, path string, at float64, size utils.Resolution, outputPath string) error {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", strconv.FormatFloat(at, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-s", size.FFMpegString(),
		"-y",
		outputPath,
	}

	_, err := Do(ctx, args, StreamInfo{}, nil)
	return err
}
