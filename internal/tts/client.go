package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"shortsengine/internal/blueprint"
	"shortsengine/internal/captions"
	"shortsengine/internal/logging"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// ErrKeysExhausted means every configured API key was rejected or
// rate-limited; the run cannot continue without fresh quota.
var ErrKeysExhausted = errors.New("all speech-service API keys exhausted")

// Client talks to the ElevenLabs with-timestamps endpoint. It holds a pool
// of API keys and rotates to the next one whenever the current key is
// rejected or rate-limited, so one depleted free-tier key does not stop a
// long project.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keys       []string
	current    int
	log        zerolog.Logger
}

// NewClient builds a client over the given key pool.
func NewClient(keys []string) (*Client, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no speech-service API keys configured")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    defaultBaseURL,
		keys:       keys,
		log:        logging.WithComponent("tts"),
	}, nil
}

// SpeechRequest is one narration synthesis call.
type SpeechRequest struct {
	Text    string
	ModelID string
	Voice   *blueprint.VoiceSettings
}

// SpeechResult carries the decoded audio and its character alignment.
type SpeechResult struct {
	Audio     []byte
	Alignment *captions.Alignment
}

type speechPayload struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id,omitempty"`
	VoiceSettings *blueprint.VoiceSettings `json:"voice_settings,omitempty"`
}

type speechResponse struct {
	AudioBase64 string             `json:"audio_base64"`
	Alignment   captions.Alignment `json:"alignment"`
}

// WithTimestamps synthesizes narration for the given voice, returning the
// audio together with per-character timing. Keys that come back 401 or 429
// are skipped permanently for this client's lifetime.
func (c *Client) WithTimestamps(ctx context.Context, voiceID string, req SpeechRequest) (*SpeechResult, error) {
	body, err := json.Marshal(speechPayload{
		Text:          req.Text,
		ModelID:       req.ModelID,
		VoiceSettings: req.Voice,
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/text-to-speech/%s/with-timestamps", c.baseURL, voiceID)

	for c.current < len(c.keys) {
		key := c.keys[c.current]

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("xi-api-key", key)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("speech request: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			defer resp.Body.Close()
			var parsed speechResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return nil, fmt.Errorf("decoding speech response: %w", err)
			}
			audio, err := base64.StdEncoding.DecodeString(parsed.AudioBase64)
			if err != nil {
				return nil, fmt.Errorf("decoding speech audio: %w", err)
			}
			alignment := parsed.Alignment
			if err := alignment.Validate(); err != nil {
				return nil, err
			}
			return &SpeechResult{Audio: audio, Alignment: &alignment}, nil

		case http.StatusUnauthorized, http.StatusTooManyRequests:
			resp.Body.Close()
			c.log.Warn().Int("key", c.current+1).Int("status", resp.StatusCode).
				Msg("API key rejected, rotating to next")
			c.current++

		default:
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, fmt.Errorf("speech service returned %d: %s", resp.StatusCode, detail)
		}
	}
	return nil, ErrKeysExhausted
}
