package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"shortsengine/internal/blueprint"
	"shortsengine/internal/captions"
	"shortsengine/internal/config"
	"shortsengine/internal/ffmpeg"
	"shortsengine/internal/logging"
	"shortsengine/internal/motion"
)

// Runner is the pipeline's view of the external render engine. The real
// implementation shells out to ffmpeg/ffprobe; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, args []string) error
	Duration(ctx context.Context, path string) (float64, error)
}

// Pipeline drives every shot of a blueprint through its three stages:
// motion render, caption synthesis, final composite. Each stage persists
// its completion flag only after its artifact is durably on disk, so an
// interrupted run resumes by skipping completed stages.
type Pipeline struct {
	cfg     *config.Config
	repo    *blueprint.Repository
	runner  Runner
	encoder string
	quality int
	log     zerolog.Logger
}

// New builds a pipeline over an already-locked blueprint repository.
func New(cfg *config.Config, repo *blueprint.Repository, runner Runner, encoder string, quality int) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		repo:    repo,
		runner:  runner,
		encoder: encoder,
		quality: quality,
		log:     logging.WithComponent("pipeline"),
	}
}

// Run processes every shot strictly in scene order. It stops at the first
// failure, leaving the blueprint reflecting exactly the stages that
// completed; a subsequent run picks up from there.
func (p *Pipeline) Run(ctx context.Context) error {
	bp, err := p.repo.Load()
	if err != nil {
		return err
	}
	if err := bp.Validate(); err != nil {
		return err
	}
	dirs := p.cfg.Project(bp.ProjectName)

	for i, shot := range bp.Scene.Shots {
		shotLog := p.log.With().Str("shot", shot.ShotID).Int("index", i+1).Logger()

		// After the composite stage the asset path points at the final
		// artifact, so a rendered shot vouches for exactly one file.
		if shot.FinalRendered {
			if !fileNonEmpty(shot.AssetPath) {
				return fmt.Errorf("shot %s marked rendered but %s is absent: %w",
					shot.ShotID, shot.AssetPath, ErrResumeInconsistent)
			}
			shotLog.Info().Msg("shot already rendered, skipping")
			continue
		}

		if err := p.motionStage(ctx, bp, shot, shotLog); err != nil {
			return err
		}
		if err := p.captionStage(bp, shot, shotLog); err != nil {
			return err
		}
		if err := p.compositeStage(ctx, dirs, bp, shot, i, shotLog); err != nil {
			return err
		}
	}

	if bp.AllFinalRendered() && !bp.FinalShotsVideosGenerated {
		bp.FinalShotsVideosGenerated = true
		if err := p.repo.Save(bp); err != nil {
			return err
		}
	}
	p.log.Info().Str("project", bp.ProjectName).Str("version", bp.Version).
		Msg("all shot segments rendered")
	return nil
}

// motionStage applies the shot's pan/zoom to its source asset, producing
// the animated intermediate next to the asset. On success the shot's asset
// path is rewritten to the intermediate; the source path stays untouched
// until then.
func (p *Pipeline) motionStage(ctx context.Context, bp *blueprint.Blueprint, shot *blueprint.Shot, log zerolog.Logger) error {
	if shot.MotionApplied {
		if !fileNonEmpty(shot.AssetPath) {
			return fmt.Errorf("shot %s marked motion-applied but %s is absent: %w",
				shot.ShotID, shot.AssetPath, ErrResumeInconsistent)
		}
		log.Debug().Msg("motion already applied, skipping")
		return nil
	}
	if !fileNonEmpty(shot.AssetPath) {
		return fmt.Errorf("shot %s asset %s: %w", shot.ShotID, shot.AssetPath, ErrMissingInput)
	}
	out := animatedPath(shot.AssetPath)

	duration, err := p.shotDuration(ctx, shot)
	if err != nil {
		return err
	}

	loop := false
	if shot.MotionStyle.MediaKind == blueprint.MediaVideo {
		srcDuration, err := p.runner.Duration(ctx, shot.AssetPath)
		if err != nil {
			return fmt.Errorf("probing %s: %w (%v)", shot.AssetPath, ErrToolFailure, err)
		}
		loop = srcDuration < duration
	}

	tr := motion.NewTrajectory(shot.MotionStyle, duration, p.cfg.MotionFPS)
	render := ffmpeg.MotionRender{
		AssetPath:  shot.AssetPath,
		AudioPath:  shot.AudioPath,
		OutputPath: out,
		Filter:     motion.Compile(tr, p.cfg.Width, p.cfg.Height),
		MediaKind:  shot.MotionStyle.MediaKind,
		LoopSource: loop,
		Duration:   duration,
		FrameRate:  p.cfg.MotionFPS,
		Encoder:    p.encoder,
		Quality:    p.quality,
	}

	log.Info().Str("easing", string(shot.MotionStyle.Easing)).Msg("rendering motion")
	if err := p.runner.Run(ctx, render.Args()); err != nil {
		return fmt.Errorf("motion render for shot %s: %w (%v)", shot.ShotID, ErrToolFailure, err)
	}
	if !fileNonEmpty(out) {
		return fmt.Errorf("motion render for shot %s produced no output at %s: %w",
			shot.ShotID, out, ErrToolFailure)
	}

	shot.AssetPath = out
	shot.MotionApplied = true
	return p.repo.Save(bp)
}

// captionStage synthesizes the karaoke subtitle document from the shot's
// character alignment. Shots without narration, or narration without an
// alignment, complete the stage with no document.
func (p *Pipeline) captionStage(bp *blueprint.Blueprint, shot *blueprint.Shot, log zerolog.Logger) error {
	if shot.CaptionsGenerated {
		if shot.SubtitlePath != "" && !fileNonEmpty(shot.SubtitlePath) {
			return fmt.Errorf("shot %s marked captioned but %s is absent: %w",
				shot.ShotID, shot.SubtitlePath, ErrResumeInconsistent)
		}
		log.Debug().Msg("captions already generated, skipping")
		return nil
	}

	alignmentFile := ""
	if shot.AudioPath != "" {
		alignmentFile = stemPath(shot.AudioPath) + ".json"
		if !fileNonEmpty(alignmentFile) {
			log.Warn().Str("alignment", alignmentFile).Msg("no character alignment, shot stays uncaptioned")
			alignmentFile = ""
		}
	}
	if alignmentFile == "" {
		shot.CaptionsGenerated = true
		return p.repo.Save(bp)
	}

	alignment, err := captions.LoadAlignment(alignmentFile)
	if err != nil {
		return fmt.Errorf("shot %s: %w", shot.ShotID, err)
	}
	chunks, err := alignment.Synthesize()
	if err != nil {
		return fmt.Errorf("shot %s: %w", shot.ShotID, err)
	}

	subtitlePath := stemPath(shot.AudioPath) + ".ass"
	if err := captions.WriteDocument(subtitlePath, shot.ShotID, chunks, p.cfg.CaptionStyle()); err != nil {
		return fmt.Errorf("shot %s: %w", shot.ShotID, err)
	}

	log.Info().Int("chunks", len(chunks)).Msg("captions generated")
	shot.SubtitlePath = subtitlePath
	shot.CaptionsGenerated = true
	return p.repo.Save(bp)
}

// compositeStage scales, pads, and captions the animated intermediate into
// the shot's final segment in the project output directory, then rewrites
// the asset path to the final artifact.
func (p *Pipeline) compositeStage(ctx context.Context, dirs config.ProjectDirs, bp *blueprint.Blueprint, shot *blueprint.Shot, index int, log zerolog.Logger) error {
	animated := shot.AssetPath
	if !fileNonEmpty(animated) {
		return fmt.Errorf("shot %s animated intermediate %s: %w", shot.ShotID, animated, ErrMissingInput)
	}
	out := p.compositePath(dirs, bp, index)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	render := ffmpeg.CompositeRender{
		VideoPath:    animated,
		SubtitlePath: shot.SubtitlePath,
		AudioPath:    shot.AudioPath,
		OutputPath:   out,
		Width:        p.cfg.Width,
		Height:       p.cfg.Height,
		FrameRate:    p.cfg.CompositeFPS,
		Encoder:      p.encoder,
		Quality:      p.quality,
	}

	log.Info().Str("output", out).Msg("rendering final segment")
	if err := p.runner.Run(ctx, render.Args()); err != nil {
		return fmt.Errorf("composite render for shot %s: %w (%v)", shot.ShotID, ErrToolFailure, err)
	}
	if !fileNonEmpty(out) {
		return fmt.Errorf("composite render for shot %s produced no output at %s: %w",
			shot.ShotID, out, ErrToolFailure)
	}

	shot.AssetPath = out
	shot.FinalRendered = true
	return p.repo.Save(bp)
}

// shotDuration resolves how long the shot runs: the recorded duration, or
// the narration's probed length when none was recorded.
func (p *Pipeline) shotDuration(ctx context.Context, shot *blueprint.Shot) (float64, error) {
	if shot.DurationSeconds > 0 {
		return shot.DurationSeconds, nil
	}
	if shot.AudioPath == "" {
		return 0, fmt.Errorf("shot %s has no duration and no narration: %w", shot.ShotID, ErrMissingInput)
	}
	duration, err := p.runner.Duration(ctx, shot.AudioPath)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w (%v)", shot.AudioPath, ErrToolFailure, err)
	}
	shot.DurationSeconds = duration
	return duration, nil
}

func (p *Pipeline) compositePath(dirs config.ProjectDirs, bp *blueprint.Blueprint, index int) string {
	name := fmt.Sprintf("%s_%s_shot_%d.mp4", bp.ProjectName, bp.Version, index+1)
	return filepath.Join(dirs.Output, name)
}

// animatedPath names the motion intermediate next to the source asset.
func animatedPath(assetPath string) string {
	return stemPath(assetPath) + "_animated.mp4"
}

func stemPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func fileNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// IsRecoverable reports whether a pipeline error is one a re-run can fix
// without operator intervention.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrToolFailure)
}
