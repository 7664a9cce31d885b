package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"shortsengine/internal/blueprint"
	"shortsengine/internal/config"
	"shortsengine/internal/ffmpeg"
	"shortsengine/internal/logging"
	"shortsengine/internal/pipeline"
)

// Assembler joins the per-shot final segments into the deliverable video.
// Segments are stream-copied, never re-encoded; they were already rendered
// at the canonical canvas and frame rate.
type Assembler struct {
	cfg    *config.Config
	repo   *blueprint.Repository
	runner pipeline.Runner
	log    zerolog.Logger
}

// New builds an assembler over a locked repository.
func New(cfg *config.Config, repo *blueprint.Repository, runner pipeline.Runner) *Assembler {
	return &Assembler{
		cfg:    cfg,
		repo:   repo,
		runner: runner,
		log:    logging.WithComponent("assembler"),
	}
}

// Assemble concatenates every shot's final segment in scene order. It
// refuses to run before the shot pipeline has finished, and does nothing
// when the deliverable already exists.
func (a *Assembler) Assemble(ctx context.Context) error {
	bp, err := a.repo.Load()
	if err != nil {
		return err
	}
	if !bp.FinalShotsVideosGenerated {
		return fmt.Errorf("shot segments are not all rendered yet")
	}
	if bp.Rendered && bp.OutputPath != "" {
		if info, err := os.Stat(bp.OutputPath); err == nil && info.Size() > 0 {
			a.log.Info().Str("output", bp.OutputPath).Msg("deliverable already assembled")
			return nil
		}
		return fmt.Errorf("blueprint marked rendered but %s is absent: %w",
			bp.OutputPath, pipeline.ErrResumeInconsistent)
	}

	dirs := a.cfg.Project(bp.ProjectName)
	segments := make([]string, len(bp.Scene.Shots))
	for i := range bp.Scene.Shots {
		segments[i] = filepath.Join(dirs.Output,
			fmt.Sprintf("%s_%s_shot_%d.mp4", bp.ProjectName, bp.Version, i+1))
	}

	if err := a.validateSegments(ctx, segments); err != nil {
		return err
	}

	listPath := filepath.Join(dirs.Output, fmt.Sprintf("%s_%s_concat.txt", bp.ProjectName, bp.Version))
	if err := ffmpeg.WriteConcatList(listPath, segments); err != nil {
		return err
	}
	defer os.Remove(listPath)

	outputPath := filepath.Join(dirs.Output, fmt.Sprintf("%s_%s.mp4", bp.ProjectName, bp.Version))
	a.log.Info().Int("segments", len(segments)).Str("output", outputPath).Msg("assembling deliverable")
	concat := ffmpeg.Concat{ListPath: listPath, OutputPath: outputPath}
	if err := a.runner.Run(ctx, concat.Args()); err != nil {
		return fmt.Errorf("concatenating segments: %w (%v)", pipeline.ErrToolFailure, err)
	}
	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		return fmt.Errorf("concatenation produced no output at %s: %w", outputPath, pipeline.ErrToolFailure)
	}

	bp.Rendered = true
	bp.OutputPath = outputPath
	return a.repo.Save(bp)
}

// validateSegments probes every segment concurrently; a segment that is
// missing or unreadable fails the assembly before any concatenation starts.
func (a *Assembler) validateSegments(ctx context.Context, segments []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, segment := range segments {
		segment := segment // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			info, err := os.Stat(segment)
			if err != nil || info.Size() == 0 {
				return fmt.Errorf("segment %s: %w", segment, pipeline.ErrMissingInput)
			}
			duration, err := a.runner.Duration(ctx, segment)
			if err != nil {
				return fmt.Errorf("probing segment %s: %w", segment, err)
			}
			if duration <= 0 {
				return fmt.Errorf("segment %s has zero duration: %w", segment, pipeline.ErrToolFailure)
			}
			return nil
		})
	}
	return g.Wait()
}
