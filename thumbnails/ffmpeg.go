package thumbnails

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ansel1/merry/v2"
	"github.com/bcc-code/bcc-media-cutter/services/ffmpeg"
	"github.com/bcc-code/bcc-media-cutter/utils"
)

// DefaultSize is the bounding box of a rendered thumbnail.
var DefaultSize = utils.Resolution{Width: 160, Height: 90}

// FFmpegRenderer extracts thumbnails from a media file with ffmpeg.
type FFmpegRenderer struct {
	File   string
	Dir    string
	Prefix string
	Size   utils.Resolution
}

// NewFFmpegRenderer probes file and sizes its thumbnails to fit DefaultSize with the
// aspect ratio of the first video stream.
func NewFFmpegRenderer(ctx context.Context, file, dir, prefix string) (*FFmpegRenderer, error) {
	info, err := ffmpeg.GetStreamInfo(ctx, file)
	if err != nil {
		return nil, err
	}

	size := utils.Resolution{Width: info.Width, Height: info.Height}.ResizedToFit(DefaultSize)
	size.EnsureEven()

	err = os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return nil, merry.Wrap(err, merry.WithMessagef("failed to create thumbnail dir %s", dir))
	}

	return &FFmpegRenderer{
		File:   file,
		Dir:    dir,
		Prefix: prefix,
		Size:   size,
	}, nil
}

func (r *FFmpegRenderer) Path(index int) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s-%03d.jpg", r.Prefix, index))
}

func (r *FFmpegRenderer) Render(ctx context.Context, t Thumbnail) (string, error) {
	out := r.Path(t.Index)
	err := ffmpeg.ExtractFrame(ctx, r.File, t.Real, r.Size, out)
	if err != nil {
		return "", err
	}
	return out, nil
}
