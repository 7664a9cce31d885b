package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"shortsengine/internal/captions"
)

// Config holds every knob the engine reads. Values come from the defaults,
// overlaid by an optional YAML file, with secrets taken from the
// environment.
type Config struct {
	ProjectsRoot string `yaml:"projects_root"`

	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	MotionFPS    int `yaml:"motion_fps"`
	CompositeFPS int `yaml:"composite_fps"`

	// Quality is the constant-quality encode parameter; zero selects an
	// encoder-appropriate default at preflight.
	Quality int    `yaml:"quality"`
	Encoder string `yaml:"encoder"`

	VoiceID string `yaml:"voice_id"`
	ModelID string `yaml:"model_id"`

	Subtitle SubtitleStyle `yaml:"subtitle"`

	// APIKeys is populated from ELEVENLABS_API_KEYS, never from the file.
	APIKeys []string `yaml:"-"`
}

// SubtitleStyle overrides parts of the burned-in caption style.
type SubtitleStyle struct {
	Font          string  `yaml:"font"`
	FontSize      int     `yaml:"font_size"`
	PrimaryColour string  `yaml:"primary_colour"`
	OutlineColour string  `yaml:"outline_colour"`
	Outline       float64 `yaml:"outline"`
	MarginV       int     `yaml:"margin_v"`
}

// Default returns the portrait-shorts configuration.
func Default() *Config {
	return &Config{
		ProjectsRoot: "projects",
		Width:        1080,
		Height:       1920,
		MotionFPS:    30,
		CompositeFPS: 24,
		ModelID:      "eleven_multilingual_v2",
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (when path is empty the default file is used if present), then
// environment secrets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = "shortsengine.yaml"
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if raw := os.Getenv("ELEVENLABS_API_KEYS"); raw != "" {
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				cfg.APIKeys = append(cfg.APIKeys, key)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the render engine cannot honor.
func (c *Config) Validate() error {
	if c.ProjectsRoot == "" {
		return fmt.Errorf("projects_root must be set")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid canvas %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("canvas dimensions must be even, got %dx%d", c.Width, c.Height)
	}
	if c.MotionFPS <= 0 || c.CompositeFPS <= 0 {
		return fmt.Errorf("frame rates must be positive, got motion=%d composite=%d", c.MotionFPS, c.CompositeFPS)
	}
	if c.Quality < 0 {
		return fmt.Errorf("quality must be non-negative, got %d", c.Quality)
	}
	return nil
}

// CaptionStyle merges the subtitle overrides onto the default style and
// matches the subtitle canvas to the video canvas.
func (c *Config) CaptionStyle() captions.Style {
	style := captions.DefaultStyle()
	style.PlayResX = c.Width
	style.PlayResY = c.Height
	if c.Subtitle.Font != "" {
		style.Font = c.Subtitle.Font
	}
	if c.Subtitle.FontSize > 0 {
		style.FontSize = c.Subtitle.FontSize
	}
	if c.Subtitle.PrimaryColour != "" {
		style.PrimaryColour = c.Subtitle.PrimaryColour
	}
	if c.Subtitle.OutlineColour != "" {
		style.OutlineColour = c.Subtitle.OutlineColour
	}
	if c.Subtitle.Outline > 0 {
		style.Outline = c.Subtitle.Outline
	}
	if c.Subtitle.MarginV > 0 {
		style.MarginV = c.Subtitle.MarginV
	}
	return style
}

// ProjectDirs is one project's directory tree under the projects root.
type ProjectDirs struct {
	Root       string
	Assets     string
	Audio      string
	Blueprints string
	Output     string
}

// Project returns the directory layout for a project name.
func (c *Config) Project(name string) ProjectDirs {
	root := filepath.Join(c.ProjectsRoot, name)
	return ProjectDirs{
		Root:       root,
		Assets:     filepath.Join(root, "assets"),
		Audio:      filepath.Join(root, "audio"),
		Blueprints: filepath.Join(root, "blueprints"),
		Output:     filepath.Join(root, "output"),
	}
}

// Ensure creates the project tree on disk.
func (d ProjectDirs) Ensure() error {
	for _, dir := range []string{d.Assets, d.Audio, d.Blueprints, d.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// BlueprintPath returns the blueprint document location for a version.
func (c *Config) BlueprintPath(project, version string) string {
	return filepath.Join(c.Project(project).Blueprints, fmt.Sprintf("final_%s.json", version))
}
