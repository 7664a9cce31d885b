package ffmpeg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shortsengine/internal/blueprint"
)

// MotionRender describes one pan/zoom render of a shot's source asset:
// the compiled filter applied to a still image or looping video, with the
// narration muxed in when present.
type MotionRender struct {
	AssetPath  string
	AudioPath  string
	OutputPath string
	Filter     string
	MediaKind  blueprint.MediaKind
	LoopSource bool // video source shorter than the shot
	Duration   float64
	FrameRate  int
	Encoder    string
	Quality    int
}

// Args builds the ffmpeg invocation: inputs first, then filters and
// mapping, then output options.
func (m MotionRender) Args() []string {
	var args []string

	if m.MediaKind == blueprint.MediaVideo {
		if m.LoopSource {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", m.AssetPath)
	} else {
		args = append(args, "-loop", "1", "-i", m.AssetPath)
	}
	if m.AudioPath != "" {
		args = append(args, "-i", m.AudioPath)
	}

	args = append(args, "-vf", m.Filter)

	if m.AudioPath != "" {
		args = append(args, "-map", "0:v:0", "-map", "1:a:0", "-c:a", "aac", "-shortest")
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-c:v", m.Encoder)
	if m.MediaKind == blueprint.MediaImage {
		args = append(args, "-r", fmt.Sprintf("%d", m.FrameRate), "-pix_fmt", "yuv420p")
	}
	args = append(args, "-t", fmt.Sprintf("%f", m.Duration))
	args = append(args, qualityArgs(m.Encoder, m.Quality, "medium")...)
	args = append(args, "-y", m.OutputPath)
	return args
}

// CompositeRender resizes and pads the motion-rendered segment to the
// canonical frame, burns in the subtitle document, and muxes the narration.
type CompositeRender struct {
	VideoPath    string
	SubtitlePath string
	AudioPath    string
	OutputPath   string
	Width        int
	Height       int
	FrameRate    int
	Encoder      string
	Quality      int
}

// Args builds the compositing invocation.
func (c CompositeRender) Args() []string {
	args := []string{"-i", c.VideoPath}
	if c.AudioPath != "" {
		args = append(args, "-i", c.AudioPath)
	}

	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		c.Width, c.Height, c.Width, c.Height,
	)
	if c.SubtitlePath != "" {
		filter += ",ass=" + escapeFilterPath(c.SubtitlePath)
	}
	args = append(args, "-vf", filter)

	args = append(args, "-map", "0:v:0")
	if c.AudioPath != "" {
		args = append(args, "-map", "1:a:0", "-c:a", "aac", "-shortest")
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-c:v", c.Encoder)
	args = append(args, "-r", fmt.Sprintf("%d", c.FrameRate), "-pix_fmt", "yuv420p")
	args = append(args, qualityArgs(c.Encoder, c.Quality, "ultrafast")...)
	args = append(args, "-y", c.OutputPath)
	return args
}

// Concat joins already-final segments with the concat demuxer, no re-encode.
type Concat struct {
	ListPath   string
	OutputPath string
}

// Args builds the concat invocation.
func (c Concat) Args() []string {
	return []string{
		"-f", "concat", "-safe", "0",
		"-i", c.ListPath,
		"-c", "copy",
		"-y", c.OutputPath,
	}
}

// WriteConcatList writes the concat demuxer input list with absolute paths.
func WriteConcatList(path string, segments []string) error {
	var b strings.Builder
	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// qualityArgs maps the constant-quality knob onto whatever the encoder
// understands.
func qualityArgs(encoder string, quality int, preset string) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox has no reliable constant-quality flag; use bitrate.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", preset}
	}
}

// escapeFilterPath escapes a path for use inside a filter argument.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, `/`)
	replacer := strings.NewReplacer(`:`, `\:`, `'`, `\'`, `,`, `\,`, `[`, `\[`, `]`, `\]`)
	return replacer.Replace(path)
}
