package easing

// Curve identifies one of the supported progress-remapping functions.
// Curves map normalized progress t in [0,1] to eased progress in [0,1]
// with f(0)=0 and f(1)=1.
type Curve string

const (
	Linear     Curve = "linear"
	InQuad     Curve = "ease_in_quad"
	OutQuad    Curve = "ease_out_quad"
	InOutQuad  Curve = "ease_in_out_quad"
	InCubic    Curve = "ease_in_cubic"
	OutCubic   Curve = "ease_out_cubic"
	InOutCubic Curve = "ease_in_out_cubic"
)

var allCurves = []Curve{
	Linear,
	InQuad,
	OutQuad,
	InOutQuad,
	InCubic,
	OutCubic,
	InOutCubic,
}

// Curves returns the supported curves in declaration order.
func Curves() []Curve {
	cp := make([]Curve, len(allCurves))
	copy(cp, allCurves)
	return cp
}

// Known reports whether id names a supported curve.
func Known(id Curve) bool {
	for _, c := range allCurves {
		if c == id {
			return true
		}
	}
	return false
}

// Apply maps normalized progress t to eased progress. An unknown curve id
// behaves as Linear; blueprint validation rejects unknown ids upstream, so
// the fallback keeps rendering total rather than guarding a case that
// cannot normally occur.
func (c Curve) Apply(t float64) float64 {
	switch c {
	case InQuad:
		return t * t
	case OutQuad:
		return -t * (t - 2)
	case InOutQuad:
		t *= 2
		if t < 1 {
			return 0.5 * t * t
		}
		t--
		return -0.5 * (t*(t-2) - 1)
	case InCubic:
		return t * t * t
	case OutCubic:
		t--
		return t*t*t + 1
	case InOutCubic:
		t *= 2
		if t < 1 {
			return 0.5 * t * t * t
		}
		t -= 2
		return 0.5 * (t*t*t + 2)
	default:
		return t
	}
}
