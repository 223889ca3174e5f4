package utils

import (
	"fmt"

	"github.com/ansel1/merry/v2"
)

type Resolution struct {
	Width  int
	Height int
}

func ResolutionFromString(str string) (*Resolution, error) {
	var r Resolution
	_, err := fmt.Sscanf(str, "%dx%d", &r.Width, &r.Height)
	if err != nil {
		return nil, merry.Wrap(err, merry.WithMessagef("failed to parse resolution string %s", str))
	}
	return &r, nil
}

func (r Resolution) FFMpegString() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

func (r *Resolution) EnsureEven() {
	if r.Height%2 != 0 {
		r.Height = r.Height + 1
	}

	if r.Width%2 != 0 {
		r.Width = r.Width + 1
	}
}

// ResizedToFit returns the biggest resolution with the aspect ratio of r that fits into target.
func (r Resolution) ResizedToFit(target Resolution) Resolution {
	if r.Width <= 0 || r.Height <= 0 {
		return target
	}

	tAspect := float64(target.Width) / float64(target.Height)
	sAspect := float64(r.Width) / float64(r.Height)

	out := target
	if tAspect > sAspect {
		out.Width = int(float64(target.Height) * sAspect)
	} else {
		out.Height = int(float64(target.Width) / sAspect)
	}
	return out
}
