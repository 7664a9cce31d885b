package captions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMalformed reports alignment data the synthesizer cannot caption:
// mismatched arrays or a character stream with no words. A caption-less
// shot is a data error in this pipeline, never an empty document.
var ErrMalformed = errors.New("malformed alignment data")

// Alignment mirrors the per-character timing document produced by the
// narration service: three parallel arrays, one entry per character.
type Alignment struct {
	Characters []string  `json:"characters"`
	CharStart  []float64 `json:"character_start_times_seconds"`
	CharEnd    []float64 `json:"character_end_times_seconds"`
}

// LoadAlignment reads and validates an alignment document.
func LoadAlignment(path string) (*Alignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alignment %s: %w", path, err)
	}
	var a Alignment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrMalformed, path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &a, nil
}

// Validate checks the parallel-array invariants.
func (a *Alignment) Validate() error {
	if len(a.Characters) == 0 {
		return fmt.Errorf("%w: no characters", ErrMalformed)
	}
	if len(a.CharStart) != len(a.Characters) || len(a.CharEnd) != len(a.Characters) {
		return fmt.Errorf("%w: arrays of length %d/%d/%d",
			ErrMalformed, len(a.Characters), len(a.CharStart), len(a.CharEnd))
	}
	for i := range a.Characters {
		if a.CharStart[i] > a.CharEnd[i] {
			return fmt.Errorf("%w: character %d starts after it ends", ErrMalformed, i)
		}
	}
	return nil
}
