package display

import (
	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/render"
)

// RobotToRender reorders a robotics-convention vector (X forward, Y left,
// Z up) into the renderer's basis (X right, Y up, Z toward the viewer).
func RobotToRender(x, y, z float32) (rx, ry, rz float32) {
	return -y, z, -x
}

// RenderToRobot is the inverse of RobotToRender.
func RenderToRobot(x, y, z float32) (bx, by, bz float32) {
	return -z, -x, y
}

// pipelineSettings is the off-lock snapshot of display state the ingest
// pipeline works from. Ingest never touches controller fields directly while
// transforming; results are published under the state lock afterwards.
type pipelineSettings struct {
	fixedFrame      string
	channelColorIdx ChannelRole
	autoBounds      bool
	minIntensity    float32
	maxIntensity    float32
	minColor        properties.Color
	maxColor        properties.Color
}

// boundsUpdate carries freshly auto-computed intensity bounds back to the
// controller for publication.
type boundsUpdate struct {
	changed  bool
	min, max float32
}

// transformCloud runs the ingest pipeline on a fresh message: reproject into
// the fixed frame, validate channels, choose the coordinate source, convert
// to renderer coordinates and colorize. It returns the buffer entry and the
// renderer-ready points. Errors along the way are logged and never drop the
// cloud.
func (d *Display) transformCloud(pc *cloud.PointCloud, s *pipelineSettings) (*CloudEntry, []render.Point, boundsUpdate) {
	srcFrame := pc.FrameID
	if srcFrame == "" {
		// An empty frame id means the cloud is already in the fixed frame.
		srcFrame = s.fixedFrame
		pc.FrameID = s.fixedFrame
	}

	if err := d.resolver.TransformPointCloud(s.fixedFrame, pc); err != nil {
		monitoring.Logf("Error transforming point cloud '%s' from frame '%s' to frame '%s': %v",
			pc.ID, srcFrame, s.fixedFrame, err)
		monitoring.TransformFailures.Inc()
	}

	pointCount := len(pc.Points)
	validChannels := make([]bool, len(pc.Channels))
	bounds := boundsUpdate{min: s.minIntensity, max: s.maxIntensity}
	useNormals := false

	for i := range pc.Channels {
		ch := &pc.Channels[i]
		wellFormed := len(ch.Values) == pointCount
		if !wellFormed {
			monitoring.Logf("Point cloud '%s' has channel %q with mismatched values (%d values, %d points)",
				pc.ID, ch.Name, len(ch.Values), pointCount)
			monitoring.MalformedChannels.Inc()
		}
		validChannels[i] = wellFormed

		switch {
		case s.autoBounds && wellFormed && s.channelColorIdx == RoleIntensity &&
			(ch.Name == cloud.ChannelIntensity || ch.Name == cloud.ChannelIntensities):
			if mn, mx, ok := autoComputeBounds(ch); ok {
				bounds = boundsUpdate{changed: true, min: mn, max: mx}
			}
		case s.autoBounds && wellFormed && s.channelColorIdx == RoleCurvature &&
			(ch.Name == cloud.ChannelCurvature || ch.Name == cloud.ChannelCurvatures):
			if mn, mx, ok := autoComputeBounds(ch); ok {
				bounds = boundsUpdate{changed: true, min: mn, max: mx}
			}
		case ch.Name == cloud.ChannelNX && s.channelColorIdx == RoleNormalSphere:
			useNormals = true
		}
	}

	nxIdx := wellFormedChannelIndex(pc, validChannels, cloud.ChannelNX)
	nyIdx := wellFormedChannelIndex(pc, validChannels, cloud.ChannelNY)
	nzIdx := wellFormedChannelIndex(pc, validChannels, cloud.ChannelNZ)
	if useNormals && (nyIdx == -1 || nzIdx == -1) {
		monitoring.Logf("Point cloud '%s': normal coordinates requested via 'nx', but 'ny' and 'nz' channels are not present", pc.ID)
		useNormals = false
	}

	diffIntensity := bounds.max - bounds.min

	points := make([]render.Point, pointCount)
	for i := 0; i < pointCount; i++ {
		p := &points[i]
		if useNormals && nxIdx != -1 && nyIdx != -1 && nzIdx != -1 {
			p.X = pc.Channels[nxIdx].Values[i]
			p.Y = pc.Channels[nyIdx].Values[i]
			p.Z = pc.Channels[nzIdx].Values[i]
		} else {
			p.X = pc.Points[i].X
			p.Y = pc.Points[i].Y
			p.Z = pc.Points[i].Z
		}
		p.X, p.Y, p.Z = RobotToRender(p.X, p.Y, p.Z)
		p.R = s.maxColor.R
		p.G = s.maxColor.G
		p.B = s.maxColor.B
	}

	for i := range pc.Channels {
		if !validChannels[i] {
			continue
		}
		ch := &pc.Channels[i]
		ct, known := classifyChannel(ch.Name)
		if !known || !roleMatchesChannel(s.channelColorIdx, ch.Name) {
			continue
		}
		colorize := colorizers[ct]
		for j := 0; j < pointCount; j++ {
			colorize(ch.Values[j], &points[j], s.minColor, bounds.min, bounds.max, diffIntensity)
		}
	}

	entry := &CloudEntry{
		Message:    pc,
		Age:        0,
		PointCount: pointCount,
	}
	return entry, points, bounds
}

// wellFormedChannelIndex returns the index of the named channel when present
// and well-formed, -1 otherwise. Malformed normal channels have already been
// reported and are treated as missing.
func wellFormedChannelIndex(pc *cloud.PointCloud, valid []bool, name string) int {
	idx := pc.ChannelIndex(name)
	if idx == -1 || !valid[idx] {
		return -1
	}
	return idx
}
