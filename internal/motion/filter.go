package motion

import (
	"fmt"

	"shortsengine/internal/blueprint"
	"shortsengine/internal/easing"
)

// Compile renders a trajectory into the zoompan filter expression consumed
// by the external frame renderer. This is pure string generation; the
// generated formula agrees with the trajectory's own arithmetic, which the
// tests verify by evaluating it.
//
// Image sources are expanded by the filter itself (d = total frames); video
// sources already feed the filter one frame per output frame, so d stays 1
// and the expressions remain functions of the renderer's output-frame
// counter "on". Looping a too-short video source is the invoker's concern.
func Compile(tr Trajectory, width, height int) string {
	d := 1
	if tr.Style.MediaKind == blueprint.MediaImage {
		d = tr.TotalFrames()
	}
	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		zoomExpr(tr), panExpr(tr, axisX), panExpr(tr, axisY), d, width, height, tr.FrameRate)
}

type axis int

const (
	axisX axis = iota
	axisY
)

// progressExpr compiles the eased progress variable as a function of the
// output-frame counter. The frame ratio is clamped before easing so frames
// past the motion's end hold the final pose.
func progressExpr(curve easing.Curve, totalFrames int) string {
	r := fmt.Sprintf("clip(on/%d,0,1)", totalFrames)
	switch curve {
	case easing.InQuad:
		return fmt.Sprintf("pow(%s,2)", r)
	case easing.OutQuad:
		return fmt.Sprintf("(1-pow(1-%s,2))", r)
	case easing.InOutQuad:
		return fmt.Sprintf("if(lt(%s,0.5),0.5*pow(2*%s,2),1-0.5*pow(2*(1-%s),2))", r, r, r)
	case easing.InCubic:
		return fmt.Sprintf("pow(%s,3)", r)
	case easing.OutCubic:
		return fmt.Sprintf("(1-pow(1-%s,3))", r)
	case easing.InOutCubic:
		return fmt.Sprintf("if(lt(%s,0.5),0.5*pow(2*%s,3),1-0.5*pow(2*(1-%s),3))", r, r, r)
	default:
		// Unknown ids ease linearly, mirroring easing.Curve.Apply.
		return r
	}
}

// zoomExpr compiles the scale ramp, clamped to the interval spanned by the
// start and end scales so zoom-out styles clamp correctly too.
func zoomExpr(tr Trajectory) string {
	start := tr.Style.StartScale
	end := tr.Style.EndScale
	lo, hi := start, end
	if lo > hi {
		lo, hi = hi, lo
	}
	p := progressExpr(tr.Style.Easing, tr.TotalFrames())
	return fmt.Sprintf("clip(%g+%g*%s,%g,%g)", start, end-start, p, lo, hi)
}

// panExpr compiles one axis of the crop-window origin. The pan moves across
// the pannable extent (iw - iw/zoom), which is zero at zoom 1, so an
// unzoomed frame is never shifted; the clip keeps the window inside the
// source bounds once scale is applied.
func panExpr(tr Trajectory, a axis) string {
	dim := "iw"
	start := tr.Style.StartCenter.X
	end := tr.Style.EndCenter.X
	if a == axisY {
		dim = "ih"
		start = tr.Style.StartCenter.Y
		end = tr.Style.EndCenter.Y
	}
	p := progressExpr(tr.Style.Easing, tr.TotalFrames())
	extent := fmt.Sprintf("(%s-%s/zoom)", dim, dim)
	base := fmt.Sprintf("(%s/2-(%s/zoom/2))", dim, dim)
	return fmt.Sprintf("clip(%s+%g*%s+%g*%s*%s,0,%s)", base, start, extent, end-start, extent, p, extent)
}
