// Package tf resolves transforms between named coordinate frames and
// reprojects point clouds into a target frame.
package tf

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/cloudview/internal/cloud"
)

// Resolver reprojects a cloud's points into the target frame in place,
// updating the cloud's FrameID on success. Implementations must leave the
// points untouched when returning an error.
type Resolver interface {
	TransformPointCloud(targetFrame string, pc *cloud.PointCloud) error
}

// Identity is the 4x4 identity transform, row-major.
var Identity = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// ApplyTransform applies a 4x4 row-major transform T to point (x,y,z).
func ApplyTransform(x, y, z float64, T [16]float64) (wx, wy, wz float64) {
	wx = T[0]*x + T[1]*y + T[2]*z + T[3]
	wy = T[4]*x + T[5]*y + T[6]*z + T[7]
	wz = T[8]*x + T[9]*y + T[10]*z + T[11]
	return
}

// Compose returns a*b as row-major 4x4 transforms.
func Compose(a, b [16]float64) [16]float64 {
	var out [16]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[r*4+k] * b[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// TranslationTransform returns a pure translation.
func TranslationTransform(tx, ty, tz float64) [16]float64 {
	T := Identity
	T[3], T[7], T[11] = tx, ty, tz
	return T
}

// RotationZ returns a rotation about the Z axis by the given angle in radians.
func RotationZ(rad float64) [16]float64 {
	c, s := math.Cos(rad), math.Sin(rad)
	T := Identity
	T[0], T[1] = c, -s
	T[4], T[5] = s, c
	return T
}

// StaticResolver holds a set of frame poses, each expressing frame→world.
// The transform from src to dst is inverse(worldFromDst) · worldFromSrc.
type StaticResolver struct {
	mu    sync.RWMutex
	poses map[string][16]float64
}

// NewStaticResolver creates a resolver with no known frames. The empty frame
// name is implicitly the world frame.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{poses: make(map[string][16]float64)}
}

// SetFrame registers or replaces a frame's pose (frame→world, row-major).
func (r *StaticResolver) SetFrame(frame string, pose [16]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.poses[frame] = pose
}

// Frames returns the names of all registered frames.
func (r *StaticResolver) Frames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.poses))
	for f := range r.poses {
		out = append(out, f)
	}
	return out
}

func (r *StaticResolver) lookup(frame string) ([16]float64, error) {
	if frame == "" {
		return Identity, nil
	}
	pose, ok := r.poses[frame]
	if !ok {
		return Identity, fmt.Errorf("unknown frame %q", frame)
	}
	return pose, nil
}

// Between returns the transform taking src-frame coordinates to dst-frame
// coordinates.
func (r *StaticResolver) Between(src, dst string) ([16]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	srcPose, err := r.lookup(src)
	if err != nil {
		return Identity, err
	}
	dstPose, err := r.lookup(dst)
	if err != nil {
		return Identity, err
	}
	if dstPose == Identity {
		return srcPose, nil
	}

	dstMat := mat.NewDense(4, 4, dstPose[:])
	var inv mat.Dense
	if err := inv.Inverse(dstMat); err != nil {
		return Identity, fmt.Errorf("inverting pose of frame %q: %w", dst, err)
	}
	var dstInv [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			dstInv[i*4+j] = inv.At(i, j)
		}
	}
	return Compose(dstInv, srcPose), nil
}

// TransformPointCloud implements Resolver.
func (r *StaticResolver) TransformPointCloud(targetFrame string, pc *cloud.PointCloud) error {
	src := pc.FrameID
	if src == targetFrame {
		return nil
	}
	T, err := r.Between(src, targetFrame)
	if err != nil {
		return fmt.Errorf("resolving %q -> %q: %w", src, targetFrame, err)
	}
	for i := range pc.Points {
		p := &pc.Points[i]
		x, y, z := ApplyTransform(float64(p.X), float64(p.Y), float64(p.Z), T)
		p.X, p.Y, p.Z = float32(x), float32(y), float32(z)
	}
	pc.FrameID = targetFrame
	return nil
}
