// Package cloud defines the decoded point-cloud message model shared by the
// ingest sources and the display pipeline. A PointCloud is immutable after
// receipt except for the documented in-place intensity cap applied during
// auto-bound computation.
package cloud

import (
	"time"

	"github.com/google/uuid"
)

// Well-known channel names recognised by the display pipeline. Unknown names
// are carried but ignored.
const (
	ChannelIntensity   = "intensity"
	ChannelIntensities = "intensities"
	ChannelCurvature   = "curvature"
	ChannelCurvatures  = "curvatures"
	ChannelRGB         = "rgb"
	ChannelR           = "r"
	ChannelG           = "g"
	ChannelB           = "b"
	ChannelNX          = "nx"
	ChannelNY          = "ny"
	ChannelNZ          = "nz"
)

// Point is a single 3D position in the cloud's source frame.
type Point struct {
	X, Y, Z float32
}

// Channel is a named per-point float array parallel to the point list.
// A channel is well-formed iff len(Values) equals the cloud's point count.
type Channel struct {
	Name   string
	Values []float32
}

// PointCloud is a decoded point-cloud message.
type PointCloud struct {
	// ID identifies this cloud in diagnostics. Assigned at ingest.
	ID string

	// FrameID names the source coordinate frame. Empty means the cloud is
	// already expressed in the display's fixed frame.
	FrameID string

	// Timestamp is the capture instant.
	Timestamp time.Time

	Points   []Point
	Channels []Channel
}

// NewPointCloud builds a cloud with a fresh ID.
func NewPointCloud(frameID string, ts time.Time, points []Point, channels []Channel) *PointCloud {
	return &PointCloud{
		ID:        uuid.NewString(),
		FrameID:   frameID,
		Timestamp: ts,
		Points:    points,
		Channels:  channels,
	}
}

// ChannelIndex returns the index of the first channel with the given name,
// or -1 when absent.
func (pc *PointCloud) ChannelIndex(name string) int {
	for i := range pc.Channels {
		if pc.Channels[i].Name == name {
			return i
		}
	}
	return -1
}

// WellFormed reports whether the channel at index i has one value per point.
func (pc *PointCloud) WellFormed(i int) bool {
	return len(pc.Channels[i].Values) == len(pc.Points)
}
