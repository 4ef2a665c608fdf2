package display

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/render"
)

func TestClassifyChannel(t *testing.T) {
	cases := []struct {
		name  string
		ct    channelType
		known bool
	}{
		{"intensity", ctIntensity, true},
		{"intensities", ctIntensity, true},
		{"curvature", ctIntensity, true},
		{"curvatures", ctIntensity, true},
		{"rgb", ctRGB, true},
		{"r", ctR, true},
		{"g", ctG, true},
		{"b", ctB, true},
		{"nx", 0, false},
		{"bogus", 0, false},
	}
	for _, tc := range cases {
		ct, known := classifyChannel(tc.name)
		assert.Equal(t, tc.known, known, "channel %q", tc.name)
		if known {
			assert.Equal(t, tc.ct, ct, "channel %q", tc.name)
		}
	}
}

func TestColorizeIntensity_Lerp(t *testing.T) {
	minColor := properties.Color{R: 0, G: 0, B: 0}

	// Point starts at max color (white).
	p := render.Point{R: 1, G: 1, B: 1}
	colorizeIntensity(2, &p, minColor, 0, 4, 4)
	assert.InDelta(t, 0.5, p.R, 1e-6)
	assert.InDelta(t, 0.5, p.G, 1e-6)
	assert.InDelta(t, 0.5, p.B, 1e-6)
}

func TestColorizeIntensity_ClampsOutOfRange(t *testing.T) {
	minColor := properties.Color{R: 0.2, G: 0.2, B: 0.2}

	low := render.Point{R: 1, G: 1, B: 1}
	colorizeIntensity(-10, &low, minColor, 0, 4, 4)
	assert.InDelta(t, 0.2, low.R, 1e-6)

	high := render.Point{R: 1, G: 1, B: 1}
	colorizeIntensity(100, &high, minColor, 0, 4, 4)
	assert.InDelta(t, 1.0, high.R, 1e-6)
}

func TestColorizeIntensity_ZeroSpreadKeepsMaxColor(t *testing.T) {
	// With max == min every point keeps the max color it entered with.
	p := render.Point{R: 0.7, G: 0.8, B: 0.9}
	colorizeIntensity(3, &p, properties.Color{}, 3, 3, 0)
	assert.InDelta(t, 0.7, p.R, 1e-6)
	assert.InDelta(t, 0.8, p.G, 1e-6)
	assert.InDelta(t, 0.9, p.B, 1e-6)
}

// TestColorizeRGB_RoundTrip packs byte triples into 0x00RRGGBB, reinterprets
// the bits as a float and checks the unpacked color.
func TestColorizeRGB_RoundTrip(t *testing.T) {
	triples := [][3]uint32{
		{0, 0, 0},
		{255, 255, 255},
		{255, 128, 0},
		{1, 2, 3},
		{17, 170, 85},
	}
	for _, tr := range triples {
		packed := tr[0]<<16 | tr[1]<<8 | tr[2]
		val := math.Float32frombits(packed)

		var p render.Point
		colorizeRGB(val, &p, properties.Color{}, 0, 0, 0)

		assert.InDelta(t, float64(tr[0])/255.0, p.R, 1e-6)
		assert.InDelta(t, float64(tr[1])/255.0, p.G, 1e-6)
		assert.InDelta(t, float64(tr[2])/255.0, p.B, 1e-6)
	}
}

func TestColorizeComponents_PassThrough(t *testing.T) {
	var p render.Point
	colorizeR(0.25, &p, properties.Color{}, 0, 0, 0)
	colorizeG(0.5, &p, properties.Color{}, 0, 0, 0)
	colorizeB(1.5, &p, properties.Color{}, 0, 0, 0) // out of range passes through

	assert.Equal(t, float32(0.25), p.R)
	assert.Equal(t, float32(0.5), p.G)
	assert.Equal(t, float32(1.5), p.B)
}
