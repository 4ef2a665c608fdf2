package display

import "github.com/banshee-data/cloudview/internal/cloud"

// IntensityCap is the ceiling applied to intensity and curvature values
// before auto-bound computation. Downstream consumers assume bounds never
// exceed it, so the range must not be widened silently.
const IntensityCap = 4096.0

// Sentinels seeding the min/max scan.
const (
	boundsSeedMin = 999999.0
	boundsSeedMax = -999999.0
)

// autoComputeBounds scans a channel for its min/max, capping each value to
// IntensityCap in place first. Returns ok=false for an empty channel, in
// which case the bounds are meaningless.
func autoComputeBounds(ch *cloud.Channel) (min, max float32, ok bool) {
	if len(ch.Values) == 0 {
		return 0, 0, false
	}
	min, max = boundsSeedMin, boundsSeedMax
	for i, v := range ch.Values {
		if v > IntensityCap {
			v = IntensityCap
			ch.Values[i] = v
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, true
}
