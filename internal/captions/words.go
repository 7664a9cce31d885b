package captions

import "fmt"

// ChunkSize is the fixed number of words per caption chunk; the last chunk
// of a shot may hold a single word.
const ChunkSize = 2

// Word is one narrated word with its reveal window taken from the first
// and last character of its run.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Chunk is one subtitle display event covering up to ChunkSize words.
type Chunk struct {
	Words []Word
}

// Start returns the chunk's display start: the first word's reveal start.
func (c Chunk) Start() float64 {
	return c.Words[0].Start
}

// End returns the chunk's display end: the last word's reveal end.
func (c Chunk) End() float64 {
	return c.Words[len(c.Words)-1].End
}

// HighlightSeconds returns the karaoke highlight duration of word i inside
// the chunk: the gap to the next word's reveal start, or the word's own
// span for the chunk's last word. Never negative.
func (c Chunk) HighlightSeconds(i int) float64 {
	w := c.Words[i]
	var d float64
	if i < len(c.Words)-1 {
		d = c.Words[i+1].Start - w.Start
	} else {
		d = w.End - w.Start
	}
	if d < 0 {
		return 0
	}
	return d
}

// Words segments the character stream into words: a word is a maximal run
// of non-space characters, a space ends the current word and belongs to no
// word, and a trailing run without a closing space is still emitted.
func (a *Alignment) Words() ([]Word, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	var words []Word
	current := ""
	start := -1
	for i, ch := range a.Characters {
		if ch != " " {
			if current == "" {
				start = i
			}
			current += ch
			continue
		}
		if current != "" {
			words = append(words, Word{
				Text:  current,
				Start: a.CharStart[start],
				End:   a.CharEnd[i-1],
			})
			current = ""
		}
	}
	if current != "" {
		words = append(words, Word{
			Text:  current,
			Start: a.CharStart[start],
			End:   a.CharEnd[len(a.Characters)-1],
		})
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("%w: character stream holds no words", ErrMalformed)
	}
	return words, nil
}

// ChunkWords groups words into fixed chunks of ChunkSize in order.
func ChunkWords(words []Word) []Chunk {
	var chunks []Chunk
	for i := 0; i < len(words); i += ChunkSize {
		end := i + ChunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{Words: words[i:end]})
	}
	return chunks
}

// Synthesize runs the whole caption derivation: characters to words to
// chunks. It fails rather than returning zero chunks.
func (a *Alignment) Synthesize() ([]Chunk, error) {
	words, err := a.Words()
	if err != nil {
		return nil, err
	}
	return ChunkWords(words), nil
}
