package motion

import (
	"math"

	"shortsengine/internal/blueprint"
)

// Trajectory evaluates the camera scale and center of one shot's motion
// style over its duration. The same eased progress value drives both scale
// and position so they stay synchronized.
type Trajectory struct {
	Style     blueprint.MotionStyle
	Duration  float64 // seconds
	FrameRate int
}

// NewTrajectory builds a trajectory for a shot.
func NewTrajectory(style blueprint.MotionStyle, duration float64, frameRate int) Trajectory {
	return Trajectory{Style: style, Duration: duration, FrameRate: frameRate}
}

// TotalFrames returns the number of output frames the motion spans.
func (tr Trajectory) TotalFrames() int {
	n := int(tr.Duration * float64(tr.FrameRate))
	if n < 1 {
		n = 1
	}
	return n
}

// Progress returns the eased progress at the given elapsed time, clamped
// to [0,1] on both sides of the easing curve.
func (tr Trajectory) Progress(elapsed float64) float64 {
	if tr.Duration <= 0 {
		return 1
	}
	t := elapsed / tr.Duration
	t = clamp(t, 0, 1)
	return clamp(tr.Style.Easing.Apply(t), 0, 1)
}

// ScaleAt returns the zoom level at the given elapsed time, clamped to the
// interval spanned by the start and end scales regardless of direction.
func (tr Trajectory) ScaleAt(elapsed float64) float64 {
	p := tr.Progress(elapsed)
	s := tr.Style.StartScale + (tr.Style.EndScale-tr.Style.StartScale)*p
	lo := math.Min(tr.Style.StartScale, tr.Style.EndScale)
	hi := math.Max(tr.Style.StartScale, tr.Style.EndScale)
	return clamp(s, lo, hi)
}

// CenterAt returns the normalized center position at the given elapsed
// time, interpolated linearly by the same progress that drives the scale.
func (tr Trajectory) CenterAt(elapsed float64) blueprint.Position {
	p := tr.Progress(elapsed)
	return blueprint.Position{
		X: clamp(lerp(tr.Style.StartCenter.X, tr.Style.EndCenter.X, p), 0, 1),
		Y: clamp(lerp(tr.Style.StartCenter.Y, tr.Style.EndCenter.Y, p), 0, 1),
	}
}

// CropOffset returns the crop window origin in source pixels for a source
// of the given dimensions, matching the compiled pan expression: the pan
// moves across the pannable extent (iw - iw/zoom) and is clamped to the
// source bounds, so at zoom 1 the frame is unshifted.
func (tr Trajectory) CropOffset(elapsed float64, srcW, srcH float64) (x, y float64) {
	zoom := tr.ScaleAt(elapsed)
	center := tr.CenterAt(elapsed)
	extentX := srcW - srcW/zoom
	extentY := srcH - srcH/zoom
	x = clamp(extentX/2+center.X*extentX, 0, extentX)
	y = clamp(extentY/2+center.Y*extentY, 0, extentY)
	return x, y
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
