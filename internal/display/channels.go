// Package display implements the point-cloud display pipeline: it ingests
// decoded clouds, reprojects them into the fixed frame, maps a selected
// channel to per-point color, buffers recent clouds with time-based decay and
// keeps the renderer's vertex queue synchronized.
package display

import "github.com/banshee-data/cloudview/internal/cloud"

// ChannelRole is the semantic category a channel can be rendered as.
type ChannelRole int

const (
	// RoleNone selects no channel; points render in the max color.
	RoleNone ChannelRole = -1

	// RoleIntensity maps an intensity-like scalar onto a min/max color lerp.
	RoleIntensity ChannelRole = iota - 1
	// RoleColorRGB takes color directly from rgb / r / g / b channels.
	RoleColorRGB
	// RoleNormalSphere renders normals (nx/ny/nz) as coordinates.
	RoleNormalSphere
	// RoleCurvature maps curvature onto the same lerp as intensity.
	RoleCurvature

	channelRoleCount
)

// Option labels shown in the Channel enum.
const (
	LabelIntensity    = "Intensity"
	LabelColorRGB     = "Color (RGB)"
	LabelNormalSphere = "Normal Sphere"
	LabelCurvature    = "Curvature"
)

// RoleForChannel maps a channel name to the role it makes selectable, with
// its option label. Only the channels that introduce an option are reported:
// "g"/"b" ride along with "r", and "ny"/"nz" with "nx". Unknown names return
// ok=false and are ignored.
func RoleForChannel(name string) (role ChannelRole, label string, ok bool) {
	switch name {
	case cloud.ChannelIntensity, cloud.ChannelIntensities:
		return RoleIntensity, LabelIntensity, true
	case cloud.ChannelRGB, cloud.ChannelR:
		return RoleColorRGB, LabelColorRGB, true
	case cloud.ChannelNX:
		return RoleNormalSphere, LabelNormalSphere, true
	case cloud.ChannelCurvature, cloud.ChannelCurvatures:
		return RoleCurvature, LabelCurvature, true
	default:
		return RoleNone, "", false
	}
}

// roleMatchesChannel reports whether a channel feeds the colorizer under the
// given selected role.
func roleMatchesChannel(role ChannelRole, name string) bool {
	switch role {
	case RoleIntensity:
		return name == cloud.ChannelIntensity || name == cloud.ChannelIntensities
	case RoleCurvature:
		return name == cloud.ChannelCurvature || name == cloud.ChannelCurvatures
	case RoleColorRGB:
		return name == cloud.ChannelRGB || name == cloud.ChannelR ||
			name == cloud.ChannelG || name == cloud.ChannelB
	default:
		return false
	}
}
