package display

import (
	"fmt"
	"sync"

	"github.com/banshee-data/cloudview/internal/cloud"
	"github.com/banshee-data/cloudview/internal/monitoring"
	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/render"
	"github.com/banshee-data/cloudview/internal/tf"
)

// Style selects the renderer primitive.
type Style int

const (
	StyleBillboards Style = iota
	StylePoints

	styleCount
)

// Config carries construction-time collaborators and defaults for a Display.
type Config struct {
	Name       string
	Renderer   render.Renderer
	Resolver   tf.Resolver
	FixedFrame string

	// RequestRender is invoked (never under the state lock) whenever the
	// renderer's contents or settings changed. Optional.
	RequestRender func()
}

// Display is the point-cloud display controller. It owns the configuration
// state, the cloud buffer and the renderer synchronization.
//
// Concurrency: a single state lock serializes the buffer, the pending flags
// and every renderer mutation. The heavy per-point work in ingest runs on a
// settings snapshot before the lock is taken.
type Display struct {
	name     string
	renderer render.Renderer
	resolver tf.Resolver

	mu sync.Mutex // the state lock

	style           Style
	billboardSize   float32
	alpha           float32
	minColor        properties.Color
	maxColor        properties.Color
	minIntensity    float32
	maxIntensity    float32
	autoBounds      bool
	channelColorIdx ChannelRole
	decayTime       float32
	fixedFrame      string
	enabled         bool

	buffer                 CloudBuffer
	newCloud               bool
	intensityBoundsChanged bool

	requestRender func()

	props        *properties.Manager
	styleProp    *properties.Property
	channelProp  *properties.Property
	alphaProp    *properties.Property
	minColorProp *properties.Property
	maxColorProp *properties.Property
	sizeProp     *properties.Property
	autoProp     *properties.Property
	minIntProp   *properties.Property
	maxIntProp   *properties.Property
	decayProp    *properties.Property
}

// New creates a Display with its standard defaults: billboards of size 0.01,
// alpha 1, black-to-white intensity ramp over [0, 4096], auto bounds on, no
// channel selected, decay 0 (keep only the latest cloud).
func New(cfg Config) *Display {
	d := &Display{
		name:            cfg.Name,
		renderer:        cfg.Renderer,
		resolver:        cfg.Resolver,
		fixedFrame:      cfg.FixedFrame,
		requestRender:   cfg.RequestRender,
		style:           StyleBillboards,
		billboardSize:   0.01,
		alpha:           1.0,
		minColor:        properties.Color{R: 0, G: 0, B: 0},
		maxColor:        properties.Color{R: 1, G: 1, B: 1},
		minIntensity:    0,
		maxIntensity:    IntensityCap,
		autoBounds:      true,
		channelColorIdx: RoleNone,
		decayTime:       0,
		enabled:         true,
	}

	d.renderer.SetUsePoints(d.style == StylePoints)
	d.renderer.SetBillboardDimensions(d.billboardSize, d.billboardSize)
	d.renderer.SetAlpha(d.alpha)
	return d
}

// Name returns the display's diagnostic name.
func (d *Display) Name() string { return d.name }

func (d *Display) causeRender() {
	if d.requestRender != nil {
		d.requestRender()
	}
}

// CreateProperties registers the display's options on the given manager.
// The Channel enum starts empty; Update repopulates it from incoming clouds.
func (d *Display) CreateProperties(m *properties.Manager) {
	d.props = m

	d.styleProp = m.Enum("Style",
		func() int { return int(d.Style()) },
		func(v int) { d.SetStyle(Style(v)) })
	d.styleProp.AddOption("Billboards", int(StyleBillboards))
	d.styleProp.AddOption("Points", int(StylePoints))

	d.channelProp = m.Enum("Channel",
		func() int { return int(d.ChannelColorIndex()) },
		func(v int) { d.SetChannelColorIndex(ChannelRole(v)) })

	d.alphaProp = m.Float("Alpha", d.Alpha, d.SetAlpha)

	d.minColorProp = m.Color("Min Color", d.MinColor, d.SetMinColor)
	d.maxColorProp = m.Color("Max Color", d.MaxColor, d.SetMaxColor)
	// Legacy configs call this option "Color"; accept it as the max color.
	d.maxColorProp.AddLegacyName("Color")

	d.sizeProp = m.Float("Billboard Size", d.BillboardSize, d.SetBillboardSize)
	d.sizeProp.SetMin(0.0001)

	d.autoProp = m.Bool("Autocompute Intensity Bounds",
		d.AutoComputeIntensityBounds, d.SetAutoComputeIntensityBounds)
	d.minIntProp = m.Float("Min Intensity", d.MinIntensity, d.SetMinIntensity)
	d.maxIntProp = m.Float("Max Intensity", d.MaxIntensity, d.SetMaxIntensity)

	d.decayProp = m.Float("Decay Time", d.DecayTime, d.SetDecayTime)
	d.decayProp.SetMin(0)
}

func changed(p *properties.Property) {
	if p != nil {
		p.Changed()
	}
}

// Style returns the current render style.
func (d *Display) Style() Style {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.style
}

// SetStyle switches between billboard and point primitives. Passing an
// out-of-range style is a programmer error and panics.
func (d *Display) SetStyle(style Style) {
	if style < 0 || style >= styleCount {
		panic(fmt.Sprintf("display: style index %d out of range", style))
	}
	d.mu.Lock()
	d.style = style
	d.renderer.SetUsePoints(style == StylePoints)
	d.mu.Unlock()

	changed(d.styleProp)
	d.causeRender()
}

// BillboardSize returns the billboard edge length in world units.
func (d *Display) BillboardSize() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.billboardSize
}

// SetBillboardSize resizes the billboard quads.
func (d *Display) SetBillboardSize(size float32) {
	d.mu.Lock()
	d.billboardSize = size
	d.renderer.SetBillboardDimensions(size, size)
	d.mu.Unlock()

	changed(d.sizeProp)
	d.causeRender()
}

// Alpha returns the display opacity.
func (d *Display) Alpha() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alpha
}

// SetAlpha sets the display opacity.
func (d *Display) SetAlpha(alpha float32) {
	d.mu.Lock()
	d.alpha = alpha
	d.renderer.SetAlpha(alpha)
	d.mu.Unlock()

	changed(d.alphaProp)
	d.causeRender()
}

// MinColor returns the color rendered at the low end of the intensity ramp.
func (d *Display) MinColor() properties.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.minColor
}

// SetMinColor sets the low end of the intensity ramp.
func (d *Display) SetMinColor(c properties.Color) {
	d.mu.Lock()
	d.minColor = c
	d.mu.Unlock()

	changed(d.minColorProp)
	d.causeRender()
}

// MaxColor returns the color rendered at the high end of the intensity ramp.
func (d *Display) MaxColor() properties.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxColor
}

// SetMaxColor sets the high end of the intensity ramp and the base color of
// uncolorized points.
func (d *Display) SetMaxColor(c properties.Color) {
	d.mu.Lock()
	d.maxColor = c
	d.mu.Unlock()

	changed(d.maxColorProp)
	d.causeRender()
}

// MinIntensity returns the lower intensity bound.
func (d *Display) MinIntensity() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.minIntensity
}

// SetMinIntensity sets the lower intensity bound, clamping it down to the
// upper bound so min <= max always holds.
func (d *Display) SetMinIntensity(v float32) {
	d.mu.Lock()
	if v > d.maxIntensity {
		v = d.maxIntensity
	}
	d.minIntensity = v
	d.mu.Unlock()

	changed(d.minIntProp)
	d.causeRender()
}

// MaxIntensity returns the upper intensity bound.
func (d *Display) MaxIntensity() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxIntensity
}

// SetMaxIntensity sets the upper intensity bound, clamping it up to the
// lower bound so min <= max always holds.
func (d *Display) SetMaxIntensity(v float32) {
	d.mu.Lock()
	if v < d.minIntensity {
		v = d.minIntensity
	}
	d.maxIntensity = v
	d.mu.Unlock()

	changed(d.maxIntProp)
	d.causeRender()
}

// AutoComputeIntensityBounds reports whether auto bounds mode is on.
func (d *Display) AutoComputeIntensityBounds() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.autoBounds
}

// SetAutoComputeIntensityBounds toggles automatic min/max intensity
// computation on ingest.
func (d *Display) SetAutoComputeIntensityBounds(auto bool) {
	d.mu.Lock()
	d.autoBounds = auto
	d.mu.Unlock()

	changed(d.autoProp)
	d.causeRender()
}

// ChannelColorIndex returns the selected channel role.
func (d *Display) ChannelColorIndex() ChannelRole {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.channelColorIdx
}

// SetChannelColorIndex selects which channel role drives point color.
// Passing a role >= the known role count is a programmer error and panics.
func (d *Display) SetChannelColorIndex(idx ChannelRole) {
	if idx >= channelRoleCount {
		panic(fmt.Sprintf("display: channel role index %d out of range", idx))
	}
	d.mu.Lock()
	d.channelColorIdx = idx
	d.mu.Unlock()
}

// DecayTime returns the maximum cloud age in seconds; 0 keeps only the
// latest cloud.
func (d *Display) DecayTime() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.decayTime
}

// SetDecayTime sets the maximum cloud age.
func (d *Display) SetDecayTime(t float32) {
	d.mu.Lock()
	d.decayTime = t
	d.mu.Unlock()

	changed(d.decayProp)
	d.causeRender()
}

// FixedFrame returns the frame all buffered clouds are expressed in.
func (d *Display) FixedFrame() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fixedFrame
}

// SetFixedFrame changes the fixed frame. Buffered clouds were reprojected
// into the previous frame at insertion, so the buffer and renderer reset.
func (d *Display) SetFixedFrame(frame string) {
	d.mu.Lock()
	d.fixedFrame = frame
	d.clearLocked()
	d.mu.Unlock()

	d.causeRender()
}

// OnEnable resumes ingest.
func (d *Display) OnEnable() {
	d.mu.Lock()
	d.enabled = true
	d.mu.Unlock()
}

// OnDisable stops ingest and drops the buffer and renderer contents.
func (d *Display) OnDisable() {
	d.mu.Lock()
	d.enabled = false
	d.clearLocked()
	d.mu.Unlock()

	d.causeRender()
}

// Enabled reports whether the display ingests messages.
func (d *Display) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Reset drops the buffer and the renderer contents.
func (d *Display) Reset() {
	d.mu.Lock()
	d.clearLocked()
	d.mu.Unlock()

	d.causeRender()
}

func (d *Display) clearLocked() {
	d.buffer.Clear()
	d.renderer.Clear()
	d.newCloud = false
}

// BufferLen returns the number of buffered clouds.
func (d *Display) BufferLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffer.Len()
}

// BufferedPoints returns the total point count across buffered clouds.
func (d *Display) BufferedPoints() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buffer.TotalPoints()
}

// AddMessage ingests a fresh cloud: the heavy transform and colorize work
// runs on a settings snapshot without the lock, then the entry is published
// under the lock. A failed reprojection or malformed channel never drops the
// cloud.
func (d *Display) AddMessage(pc *cloud.PointCloud) {
	d.mu.Lock()
	if !d.enabled {
		d.mu.Unlock()
		return
	}
	settings := pipelineSettings{
		fixedFrame:      d.fixedFrame,
		channelColorIdx: d.channelColorIdx,
		autoBounds:      d.autoBounds,
		minIntensity:    d.minIntensity,
		maxIntensity:    d.maxIntensity,
		minColor:        d.minColor,
		maxColor:        d.maxColor,
	}
	d.mu.Unlock()

	entry, points, bounds := d.transformCloud(pc, &settings)

	monitoring.CloudsReceived.Inc()
	monitoring.PointsRendered.Add(float64(entry.PointCount))

	d.mu.Lock()
	if bounds.changed {
		d.minIntensity = bounds.min
		d.maxIntensity = bounds.max
		d.intensityBoundsChanged = true
	}
	if d.decayTime == 0 {
		d.buffer.Clear()
		d.renderer.Clear()
	}
	d.buffer.Push(entry)
	if len(points) > 0 {
		d.renderer.AddPoints(points)
	}
	d.newCloud = true
	d.mu.Unlock()

	d.causeRender()
}

// Update is the per-frame tick: re-broadcast auto-computed bounds, age the
// buffer, evict expired clouds and refresh the Channel options after new
// clouds arrived.
func (d *Display) Update(dt float32) {
	d.mu.Lock()
	rebroadcast := d.intensityBoundsChanged
	d.intensityBoundsChanged = false
	mn, mx := d.minIntensity, d.maxIntensity
	d.mu.Unlock()

	if rebroadcast {
		// Auto-bounds ran inside ingest; push the change back through the
		// setters so the panel hears about it.
		d.SetMinIntensity(mn)
		d.SetMaxIntensity(mx)
	}

	needRender := false

	d.mu.Lock()
	d.buffer.Tick(dt)

	if d.decayTime > 0 {
		evicted := d.buffer.EvictExpired(d.decayTime, d.renderer.PopPoints)
		if evicted > 0 {
			monitoring.CloudsEvicted.Add(float64(evicted))
			needRender = true
		}
	}

	var refreshEntry *CloudEntry
	if d.newCloud && d.buffer.Len() > 0 {
		refreshEntry = d.buffer.Newest()
	}
	d.newCloud = false
	idx := d.channelColorIdx
	d.mu.Unlock()

	if refreshEntry != nil {
		d.refreshChannelOptions(refreshEntry.Message, idx)
		needRender = true
	}

	if needRender {
		d.causeRender()
	}
}

// refreshChannelOptions rebuilds the Channel enum from the given cloud's
// channels. When nothing was selected yet, the first recognised role becomes
// the selection.
func (d *Display) refreshChannelOptions(pc *cloud.PointCloud, idx ChannelRole) {
	if d.channelProp == nil {
		return
	}

	d.channelProp.ClearOptions()
	for i := range pc.Channels {
		role, label, ok := RoleForChannel(pc.Channels[i].Name)
		if !ok {
			continue
		}
		if idx == RoleNone {
			idx = role
		}
		d.channelProp.AddOption(label, int(role))
	}
	d.channelProp.Changed()

	d.SetChannelColorIndex(idx)
}
