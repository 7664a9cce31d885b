package blueprint

import (
	"fmt"

	"shortsengine/internal/easing"
)

// MediaKind distinguishes still-image sources from looping video sources.
// The filter compiler dispatches on it once; everything downstream treats
// the shot the same way.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Position is a normalized point inside the source frame, both axes in [0,1].
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MotionStyle describes the pan/zoom applied to a shot: a linear move from
// the start scale/center pair to the end pair, driven by one easing curve.
type MotionStyle struct {
	MediaKind   MediaKind    `json:"media_kind"`
	StartScale  float64      `json:"start_scale"`
	EndScale    float64      `json:"end_scale"`
	StartCenter Position     `json:"start_center"`
	EndCenter   Position     `json:"end_center"`
	Easing      easing.Curve `json:"easing"`
}

// Normalize clamps the centers into [0,1] on both axes. Out-of-range
// positions are clamped rather than rejected.
func (s *MotionStyle) Normalize() {
	s.StartCenter = clampPosition(s.StartCenter)
	s.EndCenter = clampPosition(s.EndCenter)
}

// Validate checks the style invariants. Zoom-out (end < start) is valid;
// non-positive scales are not.
func (s MotionStyle) Validate() error {
	switch s.MediaKind {
	case MediaImage, MediaVideo:
	default:
		return fmt.Errorf("unknown media kind %q", s.MediaKind)
	}
	if s.StartScale <= 0 || s.EndScale <= 0 {
		return fmt.Errorf("scales must be positive, got start=%v end=%v", s.StartScale, s.EndScale)
	}
	if !easing.Known(s.Easing) {
		return fmt.Errorf("unknown easing curve %q", s.Easing)
	}
	return nil
}

func clampPosition(p Position) Position {
	return Position{X: clamp01(p.X), Y: clamp01(p.Y)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// VoiceSettings carries the per-shot narration delivery parameters passed
// through to the speech-synthesis service.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed"`
	SpeakerBoost    bool    `json:"use_speaker_boost"`
}

// Shot is the unit of pipeline work: one source asset, its narration, and
// three independent stage-completion flags. Flags are set only after the
// stage's artifact is durably on disk.
type Shot struct {
	ShotID          string      `json:"shot_id"`
	Script          string      `json:"script"`
	AssetPath       string      `json:"asset_path"`
	AudioPath       string      `json:"audio_path,omitempty"`
	SubtitlePath    string      `json:"subtitle_path,omitempty"`
	DurationSeconds float64     `json:"duration_seconds"`
	MotionStyle     MotionStyle `json:"motion_style"`
	Voice           *VoiceSettings `json:"voice_settings,omitempty"`

	MotionApplied     bool `json:"motion_applied"`
	CaptionsGenerated bool `json:"captions_generated"`
	FinalRendered     bool `json:"final_rendered"`
}

// Scene is an ordered sequence of shots processed strictly in order.
type Scene struct {
	SceneID string  `json:"scene_id"`
	Shots   []*Shot `json:"shots"`
}

// Blueprint is the persisted, authoritative description of one project
// version: its scene, narration settings, and pipeline-wide flags. Every
// stage reads and rewrites the whole document.
type Blueprint struct {
	ProjectName      string `json:"project_name"`
	Version          string `json:"version"`
	VideoTitle       string `json:"video_title,omitempty"`
	VideoDescription string `json:"video_description,omitempty"`
	ScriptFormula    string `json:"script_formula,omitempty"`
	TTSVoiceID       string `json:"tts_voice_id,omitempty"`
	TTSModelID       string `json:"tts_model_id,omitempty"`
	Promotion        bool   `json:"promotion,omitempty"`
	CTAText          string `json:"cta_text,omitempty"`

	Scene *Scene `json:"scene"`

	AudioGenerated            bool   `json:"audio_generated"`
	FinalShotsVideosGenerated bool   `json:"final_shots_videos_generated"`
	Rendered                  bool   `json:"rendered"`
	OutputPath                string `json:"output_path,omitempty"`
}

// Validate checks the structural invariants the pipeline relies on.
func (b *Blueprint) Validate() error {
	if b.ProjectName == "" {
		return fmt.Errorf("blueprint has no project name")
	}
	if b.Version == "" {
		return fmt.Errorf("blueprint %q has no version", b.ProjectName)
	}
	if b.Scene == nil || len(b.Scene.Shots) == 0 {
		return fmt.Errorf("blueprint %q/%s has no shots", b.ProjectName, b.Version)
	}
	for i, shot := range b.Scene.Shots {
		if shot.AssetPath == "" {
			return fmt.Errorf("shot %d has no asset path", i+1)
		}
		if shot.DurationSeconds < 0 {
			return fmt.Errorf("shot %d has negative duration", i+1)
		}
		if err := shot.MotionStyle.Validate(); err != nil {
			return fmt.Errorf("shot %d: %w", i+1, err)
		}
	}
	return nil
}

// Normalize applies in-place clamping to every shot's motion style.
func (b *Blueprint) Normalize() {
	if b.Scene == nil {
		return
	}
	for _, shot := range b.Scene.Shots {
		shot.MotionStyle.Normalize()
	}
}

// AllFinalRendered reports whether every shot has its final segment.
func (b *Blueprint) AllFinalRendered() bool {
	if b.Scene == nil {
		return false
	}
	for _, shot := range b.Scene.Shots {
		if !shot.FinalRendered {
			return false
		}
	}
	return true
}
