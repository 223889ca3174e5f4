package utils

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolution(t *testing.T) {
	for range 10 {
		x := rand.Intn(8000)
		y := rand.Intn(8000)

		resolution, err := ResolutionFromString(fmt.Sprintf("%dx%d", x, y))
		assert.NoError(t, err)
		assert.Equal(t, x, resolution.Width)
		assert.Equal(t, y, resolution.Height)

		assert.Equal(t, resolution.FFMpegString(), fmt.Sprintf("%dx%d", x, y))

		resolution.EnsureEven()

		assert.Equal(t, resolution.Height%2, 0)
		assert.Equal(t, resolution.Width%2, 0)
	}

	resolution, err := ResolutionFromString("widexhigh")
	assert.Error(t, err)
	assert.Nil(t, resolution)
}

func TestResolutionToFit(t *testing.T) {
	type testCase struct {
		Source   Resolution
		Target   Resolution
		Expected Resolution
	}

	testCases := []testCase{
		// Same aspect ratio
		{
			Source:   Resolution{Width: 1920, Height: 1080},
			Target:   Resolution{Width: 160, Height: 90},
			Expected: Resolution{Width: 160, Height: 90},
		},
		// Portrait source in a landscape box
		{
			Source:   Resolution{Width: 1080, Height: 1920},
			Target:   Resolution{Width: 160, Height: 90},
			Expected: Resolution{Width: 50, Height: 90},
		},
		// Wider source
		{
			Source:   Resolution{Width: 2560, Height: 1080},
			Target:   Resolution{Width: 160, Height: 90},
			Expected: Resolution{Width: 160, Height: 67},
		},
		// Unknown source
		{
			Source:   Resolution{},
			Target:   Resolution{Width: 160, Height: 90},
			Expected: Resolution{Width: 160, Height: 90},
		},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.Expected, tc.Source.ResizedToFit(tc.Target))
	}
}
