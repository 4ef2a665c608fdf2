package display

import (
	"math"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/render"
)

// channelType indexes the colorizer dispatch table. Dispatch happens once per
// channel; the per-point loop calls through a plain function value.
type channelType int

const (
	ctIntensity channelType = iota
	ctRGB
	ctR
	ctG
	ctB

	ctCount
)

// classifyChannel maps a channel name onto its colorizer slot. Names outside
// the registry return ok=false and are skipped.
func classifyChannel(name string) (channelType, bool) {
	switch name {
	case cloud.ChannelIntensity, cloud.ChannelIntensities,
		cloud.ChannelCurvature, cloud.ChannelCurvatures:
		return ctIntensity, true
	case cloud.ChannelRGB:
		return ctRGB, true
	case cloud.ChannelR:
		return ctR, true
	case cloud.ChannelG:
		return ctG, true
	case cloud.ChannelB:
		return ctB, true
	default:
		return 0, false
	}
}

// colorizeFunc writes one channel value into an output point's color.
// The point's RGB holds the max color on entry.
type colorizeFunc func(val float32, p *render.Point, minColor properties.Color, minIntensity, maxIntensity, diffIntensity float32)

var colorizers = [ctCount]colorizeFunc{
	ctIntensity: colorizeIntensity,
	ctRGB:       colorizeRGB,
	ctR:         colorizeR,
	ctG:         colorizeG,
	ctB:         colorizeB,
}

// colorizeIntensity lerps between the min color (low values) and the max
// color already present in the point (high values). A zero spread keeps the
// max color.
func colorizeIntensity(val float32, p *render.Point, minColor properties.Color, minIntensity, _, diffIntensity float32) {
	t := float32(1.0)
	if diffIntensity > 0 {
		t = (val - minIntensity) / diffIntensity
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	p.R = p.R*t + minColor.R*(1-t)
	p.G = p.G*t + minColor.G*(1-t)
	p.B = p.B*t + minColor.B*(1-t)
}

// colorizeRGB reinterprets the float's bit pattern as packed 0x00RRGGBB.
func colorizeRGB(val float32, p *render.Point, _ properties.Color, _, _, _ float32) {
	rgb := math.Float32bits(val)
	p.R = float32((rgb>>16)&0xff) / 255.0
	p.G = float32((rgb>>8)&0xff) / 255.0
	p.B = float32(rgb&0xff) / 255.0
}

// The r/g/b colorizers pass the raw value through; out-of-range values are
// not clamped.
func colorizeR(val float32, p *render.Point, _ properties.Color, _, _, _ float32) {
	p.R = val
}

func colorizeG(val float32, p *render.Point, _ properties.Color, _, _, _ float32) {
	p.G = val
}

func colorizeB(val float32, p *render.Point, _ properties.Color, _, _, _ float32) {
	p.B = val
}
