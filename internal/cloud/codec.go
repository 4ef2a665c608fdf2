// This file contains the binary wire codec for PointCloud frames and the
// slice pools that keep steady-state decoding allocation-free.
package cloud

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
)

// Frame layout (little-endian):
//
//	magic   uint32  frameMagic
//	version uint8
//	frameID uint16 length + bytes
//	stamp   int64   unix nanos
//	npoints uint32
//	points  npoints * 3 * float32 (x,y,z interleaved)
//	nchans  uint16
//	per channel: name uint16 length + bytes, nvalues uint32, values float32...
//
// Channel value counts are carried independently of npoints so malformed
// channels survive the wire intact and are diagnosed by the display.
const (
	frameMagic   = 0x504C4344 // "PCLD"
	codecVersion = 1

	// maxFramePoints bounds decoder allocation against corrupt headers.
	maxFramePoints   = 2 << 20
	maxFrameChannels = 256
)

// pointSlicePool reuses point slices across decoded frames. Sized for ~70k
// points, typical of a spinning lidar at 10Hz.
var pointSlicePool = sync.Pool{
	New: func() interface{} {
		return make([]Point, 0, 75000)
	},
}

// valueSlicePool reuses channel value slices.
var valueSlicePool = sync.Pool{
	New: func() interface{} {
		return make([]float32, 0, 75000)
	},
}

func getPointSlice(n int) []Point {
	s := pointSlicePool.Get().([]Point)
	if cap(s) < n {
		pointSlicePool.Put(s)
		return make([]Point, n)
	}
	return s[:n]
}

func getValueSlice(n int) []float32 {
	s := valueSlicePool.Get().([]float32)
	if cap(s) < n {
		valueSlicePool.Put(s)
		return make([]float32, n)
	}
	return s[:n]
}

// Release returns the cloud's slices to the pools. Call only when no buffered
// entry still references the cloud.
func (pc *PointCloud) Release() {
	if pc == nil {
		return
	}
	if cap(pc.Points) > 0 && cap(pc.Points) <= 150000 {
		pointSlicePool.Put(pc.Points[:0])
	}
	for i := range pc.Channels {
		v := pc.Channels[i].Values
		if cap(v) > 0 && cap(v) <= 150000 {
			valueSlicePool.Put(v[:0])
		}
		pc.Channels[i].Values = nil
	}
	pc.Points = nil
	pc.Channels = nil
}

// EncodeFrame serialises a cloud into the wire format.
func EncodeFrame(pc *PointCloud) ([]byte, error) {
	if len(pc.FrameID) > math.MaxUint16 {
		return nil, fmt.Errorf("frame id too long: %d bytes", len(pc.FrameID))
	}
	if len(pc.Channels) > maxFrameChannels {
		return nil, fmt.Errorf("too many channels: %d", len(pc.Channels))
	}

	size := 4 + 1 + 2 + len(pc.FrameID) + 8 + 4 + 12*len(pc.Points) + 2
	for i := range pc.Channels {
		size += 2 + len(pc.Channels[i].Name) + 4 + 4*len(pc.Channels[i].Values)
	}

	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, frameMagic)
	buf = append(buf, codecVersion)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(pc.FrameID)))
	buf = append(buf, pc.FrameID...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(pc.Timestamp.UnixNano()))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pc.Points)))
	for i := range pc.Points {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(pc.Points[i].X))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(pc.Points[i].Y))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(pc.Points[i].Z))
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(pc.Channels)))
	for i := range pc.Channels {
		ch := &pc.Channels[i]
		if len(ch.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("channel %d name too long", i)
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(ch.Name)))
		buf = append(buf, ch.Name...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ch.Values)))
		for _, v := range ch.Values {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf, nil
}

type frameReader struct {
	buf []byte
	off int
}

func (r *frameReader) remain() int { return len(r.buf) - r.off }

func (r *frameReader) u8() (uint8, error) {
	if r.remain() < 1 {
		return 0, fmt.Errorf("truncated frame at offset %d", r.off)
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *frameReader) u16() (uint16, error) {
	if r.remain() < 2 {
		return 0, fmt.Errorf("truncated frame at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *frameReader) u32() (uint32, error) {
	if r.remain() < 4 {
		return 0, fmt.Errorf("truncated frame at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *frameReader) u64() (uint64, error) {
	if r.remain() < 8 {
		return 0, fmt.Errorf("truncated frame at offset %d", r.off)
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *frameReader) str(n int) (string, error) {
	if r.remain() < n {
		return "", fmt.Errorf("truncated frame at offset %d", r.off)
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n
	return s, nil
}

// DecodeFrame parses a wire frame into a PointCloud backed by pooled slices.
// The caller owns the result; pass it to Release when done if it never enters
// the display buffer.
func DecodeFrame(data []byte) (*PointCloud, error) {
	r := &frameReader{buf: data}

	magic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if magic != frameMagic {
		return nil, fmt.Errorf("bad frame magic 0x%08x", magic)
	}
	ver, err := r.u8()
	if err != nil {
		return nil, err
	}
	if ver != codecVersion {
		return nil, fmt.Errorf("unsupported frame version %d", ver)
	}

	idLen, err := r.u16()
	if err != nil {
		return nil, err
	}
	frameID, err := r.str(int(idLen))
	if err != nil {
		return nil, err
	}
	stamp, err := r.u64()
	if err != nil {
		return nil, err
	}
	npoints, err := r.u32()
	if err != nil {
		return nil, err
	}
	if npoints > maxFramePoints {
		return nil, fmt.Errorf("frame claims %d points (max %d)", npoints, maxFramePoints)
	}
	if r.remain() < int(npoints)*12 {
		return nil, fmt.Errorf("truncated frame: %d points claimed, %d bytes left", npoints, r.remain())
	}

	points := getPointSlice(int(npoints))
	for i := 0; i < int(npoints); i++ {
		x, _ := r.u32()
		y, _ := r.u32()
		z, _ := r.u32()
		points[i] = Point{
			X: math.Float32frombits(x),
			Y: math.Float32frombits(y),
			Z: math.Float32frombits(z),
		}
	}

	nchans, err := r.u16()
	if err != nil {
		return nil, err
	}
	if nchans > maxFrameChannels {
		return nil, fmt.Errorf("frame claims %d channels (max %d)", nchans, maxFrameChannels)
	}

	channels := make([]Channel, 0, nchans)
	for c := 0; c < int(nchans); c++ {
		nameLen, err := r.u16()
		if err != nil {
			return nil, err
		}
		name, err := r.str(int(nameLen))
		if err != nil {
			return nil, err
		}
		nvals, err := r.u32()
		if err != nil {
			return nil, err
		}
		if r.remain() < int(nvals)*4 {
			return nil, fmt.Errorf("truncated channel %q: %d values claimed, %d bytes left", name, nvals, r.remain())
		}
		values := getValueSlice(int(nvals))
		for i := 0; i < int(nvals); i++ {
			bits, _ := r.u32()
			values[i] = math.Float32frombits(bits)
		}
		channels = append(channels, Channel{Name: name, Values: values})
	}

	return NewPointCloud(frameID, time.Unix(0, int64(stamp)), points, channels), nil
}
