package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"shortsengine/internal/assembler"
	"shortsengine/internal/blueprint"
	"shortsengine/internal/ffmpeg"
	"shortsengine/internal/pipeline"
	"shortsengine/internal/system"
	"shortsengine/internal/tts"
)

func newAudioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audio <project> <version>",
		Short: "Synthesize narration and character alignments for every shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := system.CheckTools(); err != nil {
				return err
			}
			repo, err := blueprint.Open(cfg.BlueprintPath(args[0], args[1]))
			if err != nil {
				return err
			}
			defer repo.Close()

			client, err := tts.NewClient(cfg.APIKeys)
			if err != nil {
				return err
			}
			executor, err := ffmpeg.NewExecutor(log.Logger)
			if err != nil {
				return err
			}
			return tts.NewService(cfg, repo, client, executor).GenerateProjectAudio(cmd.Context())
		},
	}
}

func newEffectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "effects <project> <version>",
		Short: "Render motion, captions, and final segments for every shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(args[0], args[1])
			if err != nil {
				return err
			}
			defer repo.Close()
			return runEffects(cmd, repo)
		},
	}
}

func newAssembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assemble <project> <version>",
		Short: "Concatenate the final shot segments into the deliverable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(args[0], args[1])
			if err != nil {
				return err
			}
			defer repo.Close()
			return runAssemble(cmd, repo)
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <project> <version>",
		Short: "Render the whole project: narration, shot pipeline, assembly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(args[0], args[1])
			if err != nil {
				return err
			}
			defer repo.Close()

			if len(cfg.APIKeys) > 0 {
				client, err := tts.NewClient(cfg.APIKeys)
				if err != nil {
					return err
				}
				executor, err := ffmpeg.NewExecutor(log.Logger)
				if err != nil {
					return err
				}
				if err := tts.NewService(cfg, repo, client, executor).GenerateProjectAudio(cmd.Context()); err != nil {
					return err
				}
			} else {
				log.Warn().Msg("no API keys configured, skipping narration")
			}

			if err := runEffects(cmd, repo); err != nil {
				if pipeline.IsRecoverable(err) {
					log.Warn().Msg("render failed, re-run to resume from the last completed stage")
				}
				return err
			}
			return runAssemble(cmd, repo)
		},
	}
}

func openRepo(project, version string) (*blueprint.Repository, error) {
	if err := system.CheckTools(); err != nil {
		return nil, err
	}
	return blueprint.Open(cfg.BlueprintPath(project, version))
}

func runEffects(cmd *cobra.Command, repo *blueprint.Repository) error {
	encoder := cfg.Encoder
	if encoder == "" {
		encoder = system.BestH264Encoder()
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = system.DefaultQuality(encoder)
	}
	log.Info().Str("encoder", encoder).Int("quality", quality).
		Str("host", system.Describe().String()).Msg("starting shot pipeline")

	executor, err := ffmpeg.NewExecutor(log.Logger)
	if err != nil {
		return err
	}
	return pipeline.New(cfg, repo, executor, encoder, quality).Run(cmd.Context())
}

func runAssemble(cmd *cobra.Command, repo *blueprint.Repository) error {
	executor, err := ffmpeg.NewExecutor(log.Logger)
	if err != nil {
		return err
	}
	return assembler.New(cfg, repo, executor).Assemble(cmd.Context())
}
