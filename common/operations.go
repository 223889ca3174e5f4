package common

import (
	"encoding/json"
	"fmt"

	"github.com/ansel1/merry/v2"
	"github.com/invopop/jsonschema"
	"github.com/orsinium-labs/enum"
	"github.com/samber/lo"
)

// TimeRange is a span of real media time in seconds.
type TimeRange struct {
	Start float64 `json:"startSec"`
	End   float64 `json:"endSec"`
}

func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Crop is a rectangle in source pixels.
type Crop struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func evenDown(v int) int {
	return v &^ 1
}

// Aligned returns the crop with every coordinate rounded down to an even number,
// as required by yuv420 output.
func (c Crop) Aligned() Crop {
	return Crop{
		X: evenDown(c.X),
		Y: evenDown(c.Y),
		W: evenDown(c.W),
		H: evenDown(c.H),
	}
}

func (c Crop) Empty() bool {
	return c.W <= 0 || c.H <= 0
}

// FFmpegFilter returns the crop filter for the aligned rectangle.
func (c Crop) FFmpegFilter() string {
	a := c.Aligned()
	return fmt.Sprintf("crop=%d:%d:%d:%d", a.W, a.H, a.X, a.Y)
}

// Operations is the operation descriptor sent to the encoder with every export.
type Operations struct {
	Cut           *TimeRange  `json:"cut,omitempty"`
	DeletedRanges []TimeRange `json:"deletedRanges"`
	Crop          *Crop       `json:"crop,omitempty"`
}

type X264Preset enum.Member[string]

var (
	X264Ultrafast = X264Preset{Value: "ultrafast"}
	X264Superfast = X264Preset{Value: "superfast"}
	X264Veryfast  = X264Preset{Value: "veryfast"}
	X264Faster    = X264Preset{Value: "faster"}
	X264Fast      = X264Preset{Value: "fast"}
	X264Medium    = X264Preset{Value: "medium"}
	X264Slow      = X264Preset{Value: "slow"}
	X264Slower    = X264Preset{Value: "slower"}
	X264Veryslow  = X264Preset{Value: "veryslow"}
	X264Presets   = enum.New(X264Ultrafast, X264Superfast, X264Veryfast, X264Faster, X264Fast,
		X264Medium, X264Slow, X264Slower, X264Veryslow)

	ErrUnknownPreset = merry.Sentinel("unknown x264 preset")
)

//goland:noinspection GoMixedReceiverTypes
func (p X264Preset) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (p *X264Preset) UnmarshalJSON(value []byte) error {
	var stringValue string
	err := json.Unmarshal(value, &stringValue)
	if err != nil {
		return err
	}
	preset := X264Presets.Parse(stringValue)
	if preset == nil {
		return merry.Wrap(ErrUnknownPreset, merry.WithHTTPCode(400), merry.WithUserMessagef("unknown preset %q", stringValue))
	}
	*p = *preset
	return nil
}

//goland:noinspection GoMixedReceiverTypes
func (X264Preset) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "string",
		Enum: lo.Map(X264Presets.Values(), func(v string, _ int) any { return v }),
	}
}

type VideoPreset struct {
	CRF    int        `json:"crf"`
	Preset X264Preset `json:"preset"`
}

type AudioPreset struct {
	Bitrate string `json:"bitrate"`
}

// Preset holds the encoder settings of an export.
type Preset struct {
	Video VideoPreset `json:"video"`
	Audio AudioPreset `json:"audio"`
}
