package ffmpeg

import (
	"context"
	"os/exec"

	"github.com/bcc-code/bcc-media-cutter/utils"
)

// Do runs ffmpeg with the given arguments. The process is killed when ctx is done.
// progressCallback receives a Progress for every -progress block ffmpeg writes to stdout.
func Do(ctx context.Context, arguments []string, info StreamInfo, progressCallback ProgressCallback) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", arguments...)

	return utils.ExecuteCmd(cmd, parseProgressCallback(arguments, info, progressCallback))
}
