package pipeline

import "errors"

var (
	// ErrMissingInput means a stage's required input artifact is absent,
	// before any external tool was invoked.
	ErrMissingInput = errors.New("stage input missing")

	// ErrToolFailure means the external render engine exited non-zero or
	// produced an empty artifact. The stage flag is left untouched.
	ErrToolFailure = errors.New("render tool failure")

	// ErrResumeInconsistent means a completion flag claims an artifact that
	// is no longer on disk. Re-rendering silently would hide the corruption,
	// so the run stops instead.
	ErrResumeInconsistent = errors.New("resume state inconsistent")
)
