package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortsengine/internal/blueprint"
	"shortsengine/internal/captions"
	"shortsengine/internal/config"
)

func alignmentFor(text string) captions.Alignment {
	a := captions.Alignment{}
	for i, r := range text {
		a.Characters = append(a.Characters, string(r))
		a.CharStart = append(a.CharStart, float64(i)*0.1)
		a.CharEnd = append(a.CharEnd, float64(i+1)*0.1)
	}
	return a
}

func speechHandler(t *testing.T, wantKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/") ||
			!strings.HasSuffix(r.URL.Path, "/with-timestamps") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != wantKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("mp3 bytes")),
			"alignment":    alignmentFor(payload.Text),
		})
	}
}

func TestClientSynthesizes(t *testing.T) {
	srv := httptest.NewServer(speechHandler(t, "key-1"))
	defer srv.Close()

	client, err := NewClient([]string{"key-1"})
	if err != nil {
		t.Fatal(err)
	}
	client.baseURL = srv.URL

	result, err := client.WithTimestamps(context.Background(), "voice-a", SpeechRequest{Text: "hi go"})
	if err != nil {
		t.Fatalf("WithTimestamps: %v", err)
	}
	if string(result.Audio) != "mp3 bytes" {
		t.Errorf("audio = %q", result.Audio)
	}
	if len(result.Alignment.Characters) != len("hi go") {
		t.Errorf("alignment has %d characters, want %d", len(result.Alignment.Characters), len("hi go"))
	}
}

func TestClientRotatesRejectedKeys(t *testing.T) {
	srv := httptest.NewServer(speechHandler(t, "key-3"))
	defer srv.Close()

	client, err := NewClient([]string{"key-1", "key-2", "key-3"})
	if err != nil {
		t.Fatal(err)
	}
	client.baseURL = srv.URL

	if _, err := client.WithTimestamps(context.Background(), "voice-a", SpeechRequest{Text: "x"}); err != nil {
		t.Fatalf("rotation should reach the working key: %v", err)
	}
	if client.current != 2 {
		t.Errorf("client settled on key %d, want 2", client.current)
	}
}

func TestClientExhaustsKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient([]string{"key-1", "key-2"})
	if err != nil {
		t.Fatal(err)
	}
	client.baseURL = srv.URL

	if _, err := client.WithTimestamps(context.Background(), "voice-a", SpeechRequest{Text: "x"}); !errors.Is(err, ErrKeysExhausted) {
		t.Errorf("got %v, want key exhaustion", err)
	}
}

func TestClientRequiresKeys(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("empty key pool should be rejected")
	}
}

// fakeSpeech returns fixed audio with a real alignment for the text.
type fakeSpeech struct {
	calls int
}

func (f *fakeSpeech) WithTimestamps(_ context.Context, _ string, req SpeechRequest) (*SpeechResult, error) {
	f.calls++
	a := alignmentFor(req.Text)
	return &SpeechResult{Audio: []byte("mp3 bytes"), Alignment: &a}, nil
}

type fixedProber float64

func (p fixedProber) Duration(context.Context, string) (float64, error) {
	return float64(p), nil
}

func serviceFixture(t *testing.T, mutate func(*blueprint.Blueprint)) (*config.Config, *blueprint.Repository, *blueprint.Blueprint) {
	t.Helper()

	cfg := config.Default()
	cfg.ProjectsRoot = t.TempDir()
	cfg.VoiceID = "voice-a"
	dirs := cfg.Project("demo")
	if err := dirs.Ensure(); err != nil {
		t.Fatal(err)
	}

	bp := &blueprint.Blueprint{
		ProjectName: "demo",
		Version:     "A",
		Scene: &blueprint.Scene{
			SceneID: "scene_1",
			Shots: []*blueprint.Shot{
				{
					ShotID:    "shot_1",
					Script:    "first line",
					AssetPath: "assets/1.png",
					MotionStyle: blueprint.MotionStyle{
						MediaKind: blueprint.MediaImage, StartScale: 1, EndScale: 1.2, Easing: "linear",
					},
				},
				{
					ShotID:    "shot_2",
					Script:    "second line",
					AssetPath: "assets/2.png",
					MotionStyle: blueprint.MotionStyle{
						MediaKind: blueprint.MediaImage, StartScale: 1, EndScale: 1.2, Easing: "linear",
					},
				},
			},
		},
	}
	if mutate != nil {
		mutate(bp)
	}

	path := cfg.BlueprintPath("demo", "A")
	data, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := blueprint.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })
	return cfg, repo, bp
}

func TestGenerateProjectAudio(t *testing.T) {
	cfg, repo, _ := serviceFixture(t, nil)
	client := &fakeSpeech{}
	svc := NewService(cfg, repo, client, fixedProber(3.5))

	if err := svc.GenerateProjectAudio(context.Background()); err != nil {
		t.Fatalf("GenerateProjectAudio: %v", err)
	}

	bp, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !bp.AudioGenerated {
		t.Error("project-wide narration flag not set")
	}
	for _, shot := range bp.Scene.Shots {
		if shot.AudioPath == "" {
			t.Fatalf("shot %s has no audio path", shot.ShotID)
		}
		if data, err := os.ReadFile(shot.AudioPath); err != nil || len(data) == 0 {
			t.Errorf("shot %s audio unreadable: %v", shot.ShotID, err)
		}
		alignmentPath := strings.TrimSuffix(shot.AudioPath, filepath.Ext(shot.AudioPath)) + ".json"
		if _, err := captions.LoadAlignment(alignmentPath); err != nil {
			t.Errorf("shot %s alignment unreadable: %v", shot.ShotID, err)
		}
		if shot.DurationSeconds != 3.5 {
			t.Errorf("shot %s duration = %v, want probed 3.5", shot.ShotID, shot.DurationSeconds)
		}
	}
	if client.calls != 2 {
		t.Errorf("synthesis calls = %d, want 2", client.calls)
	}
}

func TestGenerateSkipsCachedNarration(t *testing.T) {
	cfg, repo, _ := serviceFixture(t, nil)

	audioPath := filepath.Join(cfg.Project("demo").Audio, "existing.mp3")
	if err := os.WriteFile(audioPath, []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}
	bp, err := repo.Load()
	if err != nil {
		t.Fatal(err)
	}
	bp.Scene.Shots[0].AudioPath = audioPath
	if err := repo.Save(bp); err != nil {
		t.Fatal(err)
	}

	client := &fakeSpeech{}
	svc := NewService(cfg, repo, client, fixedProber(2.0))
	if err := svc.GenerateProjectAudio(context.Background()); err != nil {
		t.Fatalf("GenerateProjectAudio: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("synthesis calls = %d, want 1 (shot 1 cached)", client.calls)
	}
}

func TestGenerateIdempotentWhenFlagSet(t *testing.T) {
	cfg, repo, _ := serviceFixture(t, func(bp *blueprint.Blueprint) {
		bp.AudioGenerated = true
	})
	client := &fakeSpeech{}
	svc := NewService(cfg, repo, client, fixedProber(2.0))

	if err := svc.GenerateProjectAudio(context.Background()); err != nil {
		t.Fatalf("GenerateProjectAudio: %v", err)
	}
	if client.calls != 0 {
		t.Errorf("synthesis calls = %d, want 0 when already generated", client.calls)
	}
}
