package blueprint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleBlueprint() *Blueprint {
	return &Blueprint{
		ProjectName: "demo",
		Version:     "A",
		VideoTitle:  "Demo short",
		TTSVoiceID:  "voice-a",
		Scene: &Scene{
			SceneID: "scene_1",
			Shots: []*Shot{
				{
					ShotID:          "shot_1",
					Script:          "hello",
					AssetPath:       "assets/1.png",
					DurationSeconds: 3,
					MotionStyle: MotionStyle{
						MediaKind:   MediaImage,
						StartScale:  1.0,
						EndScale:    1.4,
						StartCenter: Position{X: 0.5, Y: 0.5},
						EndCenter:   Position{X: 0.3, Y: 0.7},
						Easing:      "ease_out_cubic",
					},
					MotionApplied: true,
				},
				{
					ShotID:          "shot_2",
					Script:          "world",
					AssetPath:       "assets/2.mp4",
					DurationSeconds: 5,
					MotionStyle: MotionStyle{
						MediaKind:  MediaVideo,
						StartScale: 1.2,
						EndScale:   1.0,
						Easing:     "linear",
					},
				},
			},
		},
	}
}

func TestBlueprintRoundTrip(t *testing.T) {
	original := sampleBlueprint()
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	var decoded Blueprint
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.ProjectName != "demo" || decoded.Version != "A" {
		t.Errorf("identity lost: %s/%s", decoded.ProjectName, decoded.Version)
	}
	if len(decoded.Scene.Shots) != 2 {
		t.Fatalf("got %d shots, want 2", len(decoded.Scene.Shots))
	}
	shot := decoded.Scene.Shots[0]
	if !shot.MotionApplied || shot.CaptionsGenerated {
		t.Errorf("stage flags lost: %v/%v", shot.MotionApplied, shot.CaptionsGenerated)
	}
	if shot.MotionStyle.Easing != "ease_out_cubic" {
		t.Errorf("easing lost: %q", shot.MotionStyle.Easing)
	}
	if decoded.Scene.Shots[1].MotionStyle.MediaKind != MediaVideo {
		t.Errorf("media kind lost: %q", decoded.Scene.Shots[1].MotionStyle.MediaKind)
	}

	// Snake-case wire names are part of the on-disk contract.
	for _, field := range []string{
		`"motion_applied"`, `"captions_generated"`, `"final_rendered"`,
		`"start_scale"`, `"media_kind"`, `"duration_seconds"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("serialized blueprint missing field %s", field)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := sampleBlueprint()
	if err := ok.Validate(); err != nil {
		t.Errorf("valid blueprint rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Blueprint)
	}{
		{"no project name", func(b *Blueprint) { b.ProjectName = "" }},
		{"no version", func(b *Blueprint) { b.Version = "" }},
		{"no shots", func(b *Blueprint) { b.Scene.Shots = nil }},
		{"no asset", func(b *Blueprint) { b.Scene.Shots[0].AssetPath = "" }},
		{"negative duration", func(b *Blueprint) { b.Scene.Shots[0].DurationSeconds = -1 }},
		{"zero scale", func(b *Blueprint) { b.Scene.Shots[0].MotionStyle.StartScale = 0 }},
		{"unknown easing", func(b *Blueprint) { b.Scene.Shots[0].MotionStyle.Easing = "bounce" }},
		{"unknown media kind", func(b *Blueprint) { b.Scene.Shots[0].MotionStyle.MediaKind = "gif" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := sampleBlueprint()
			tc.mutate(b)
			if err := b.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNormalizeClampsCenters(t *testing.T) {
	b := sampleBlueprint()
	b.Scene.Shots[0].MotionStyle.StartCenter = Position{X: -0.4, Y: 1.8}
	b.Normalize()

	got := b.Scene.Shots[0].MotionStyle.StartCenter
	if got.X != 0 || got.Y != 1 {
		t.Errorf("center = %+v, want clamped to {0 1}", got)
	}
}

func TestAllFinalRendered(t *testing.T) {
	b := sampleBlueprint()
	if b.AllFinalRendered() {
		t.Error("incomplete scene reported as rendered")
	}
	for _, shot := range b.Scene.Shots {
		shot.FinalRendered = true
	}
	if !b.AllFinalRendered() {
		t.Error("complete scene reported as unrendered")
	}
}

func TestRepositorySaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "final_A.json")
	data, err := json.Marshal(sampleBlueprint())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()

	b, err := repo.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b.Scene.Shots[0].CaptionsGenerated = true
	if err := repo.Save(b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Scene.Shots[0].CaptionsGenerated {
		t.Error("saved flag lost on reload")
	}

	// Saves never leave temp files behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".blueprint-") {
			t.Errorf("stray temp file %s", e.Name())
		}
	}
}

func TestRepositoryExclusiveLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "final_A.json")
	data, err := json.Marshal(sampleBlueprint())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Error("second open should fail while the lock is held")
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	second, err := Open(path)
	if err != nil {
		t.Errorf("open after release failed: %v", err)
	} else {
		second.Close()
	}
}

func TestOpenMissingBlueprint(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("opening a missing blueprint should fail")
	}
}

func TestReadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "final_A.json")
	b := sampleBlueprint()
	b.Scene.Shots[0].MotionStyle.EndCenter = Position{X: 2, Y: -1}
	data, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	got := loaded.Scene.Shots[0].MotionStyle.EndCenter
	if got.X != 1 || got.Y != 0 {
		t.Errorf("center = %+v, want clamped to {1 0}", got)
	}
}
