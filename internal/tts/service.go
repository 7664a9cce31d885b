package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shortsengine/internal/blueprint"
	"shortsengine/internal/config"
	"shortsengine/internal/logging"
)

// SpeechClient is the service's view of the synthesis API; the production
// implementation is Client.
type SpeechClient interface {
	WithTimestamps(ctx context.Context, voiceID string, req SpeechRequest) (*SpeechResult, error)
}

// Prober measures the duration of a rendered audio file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Service generates narration for every shot of a blueprint. Each shot's
// audio and alignment land on disk before the blueprint records them, and
// the blueprint is saved after every shot, so an interrupted run never
// repays for narration it already has.
type Service struct {
	cfg    *config.Config
	repo   *blueprint.Repository
	client SpeechClient
	prober Prober
	log    zerolog.Logger
}

// NewService builds the narration service over a locked repository.
func NewService(cfg *config.Config, repo *blueprint.Repository, client SpeechClient, prober Prober) *Service {
	return &Service{
		cfg:    cfg,
		repo:   repo,
		client: client,
		prober: prober,
		log:    logging.WithComponent("tts"),
	}
}

// GenerateProjectAudio synthesizes narration for every shot that does not
// already have a playable audio file.
func (s *Service) GenerateProjectAudio(ctx context.Context) error {
	bp, err := s.repo.Load()
	if err != nil {
		return err
	}
	if err := bp.Validate(); err != nil {
		return err
	}
	if bp.AudioGenerated {
		s.log.Info().Msg("narration already generated, nothing to do")
		return nil
	}

	audioDir := s.cfg.Project(bp.ProjectName).Audio
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return err
	}

	for i, shot := range bp.Scene.Shots {
		if shot.Script == "" {
			s.log.Debug().Str("shot", shot.ShotID).Msg("no script, skipping narration")
			continue
		}
		if shot.AudioPath != "" {
			if info, err := os.Stat(shot.AudioPath); err == nil && info.Size() > 0 {
				s.log.Debug().Str("shot", shot.ShotID).Msg("narration cached, skipping")
				continue
			}
		}

		if err := s.generateShotAudio(ctx, bp, shot, audioDir); err != nil {
			return fmt.Errorf("shot %d (%s): %w", i+1, shot.ShotID, err)
		}
		if err := s.repo.Save(bp); err != nil {
			return err
		}
	}

	bp.AudioGenerated = true
	return s.repo.Save(bp)
}

func (s *Service) generateShotAudio(ctx context.Context, bp *blueprint.Blueprint, shot *blueprint.Shot, audioDir string) error {
	voiceID := bp.TTSVoiceID
	if voiceID == "" {
		voiceID = s.cfg.VoiceID
	}
	if voiceID == "" {
		return fmt.Errorf("no voice configured for narration")
	}
	modelID := bp.TTSModelID
	if modelID == "" {
		modelID = s.cfg.ModelID
	}

	s.log.Info().Str("shot", shot.ShotID).Int("chars", len(shot.Script)).Msg("synthesizing narration")
	result, err := s.client.WithTimestamps(ctx, voiceID, SpeechRequest{
		Text:    shot.Script,
		ModelID: modelID,
		Voice:   shot.Voice,
	})
	if err != nil {
		return err
	}

	stem := filepath.Join(audioDir, uuid.New().String())
	audioPath := stem + ".mp3"
	if err := os.WriteFile(audioPath, result.Audio, 0o644); err != nil {
		return fmt.Errorf("writing narration audio: %w", err)
	}
	alignmentData, err := json.Marshal(result.Alignment)
	if err != nil {
		return err
	}
	if err := os.WriteFile(stem+".json", alignmentData, 0o644); err != nil {
		return fmt.Errorf("writing character alignment: %w", err)
	}

	duration, err := s.prober.Duration(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("probing narration duration: %w", err)
	}

	shot.AudioPath = audioPath
	shot.DurationSeconds = duration
	return nil
}
