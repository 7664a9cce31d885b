package captions

import (
	"fmt"
	"os"
	"strings"
)

// Style holds the single subtitle style block burned into every document.
// Colours use the ASS &HAABBGGRR notation.
type Style struct {
	Font            string
	FontSize        int
	PrimaryColour   string
	SecondaryColour string
	OutlineColour   string
	BackColour      string
	Outline         float64
	Shadow          float64
	MarginV         int
	PlayResX        int
	PlayResY        int
}

// DefaultStyle is the portrait-canvas karaoke style.
func DefaultStyle() Style {
	return Style{
		Font:            "Roboto Bold",
		FontSize:        62,
		PrimaryColour:   "&H0000FFFF",
		SecondaryColour: "&H00FFFFFF",
		OutlineColour:   "&H00000000",
		BackColour:      "&H80000000",
		Outline:         3,
		Shadow:          1.5,
		MarginV:         70,
		PlayResX:        1080,
		PlayResY:        1920,
	}
}

// Document serializes chunks into a subtitle document: one style block and
// one dialogue event per chunk, each word prefixed with its progressive
// highlight duration in centiseconds.
func Document(title string, chunks []Chunk, style Style) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("%w: no caption chunks", ErrMalformed)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Script Info]\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	fmt.Fprintf(&b, "ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "WrapStyle: 0\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", style.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", style.PlayResY)
	fmt.Fprintf(&b, "ScaledBorderAndShadow: yes\n")
	fmt.Fprintf(&b, "YCbCr Matrix: TV.709\n\n")

	fmt.Fprintf(&b, "[V4+ Styles]\n")
	fmt.Fprintf(&b, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,%s,%s,%s,-1,0,0,0,100,100,0,0,1,%g,%g,2,30,30,%d,1\n\n",
		style.Font, style.FontSize, style.PrimaryColour, style.SecondaryColour,
		style.OutlineColour, style.BackColour, style.Outline, style.Shadow, style.MarginV)

	fmt.Fprintf(&b, "[Events]\n")
	fmt.Fprintf(&b, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatTime(chunk.Start()), formatTime(chunk.End()), dialogueText(chunk))
	}
	return b.String(), nil
}

// WriteDocument serializes chunks and writes the document to path.
func WriteDocument(path, title string, chunks []Chunk, style Style) error {
	doc, err := Document(title, chunks, style)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing subtitle document: %w", err)
	}
	return nil
}

// dialogueText builds the karaoke text for one chunk. {\q2} disables the
// renderer's own line wrapping; {\K<cs>} reveals each word progressively.
func dialogueText(c Chunk) string {
	parts := make([]string, len(c.Words))
	for i, w := range c.Words {
		cs := int(c.HighlightSeconds(i) * 100)
		parts[i] = fmt.Sprintf("{\\K%d}%s", cs, w.Text)
	}
	return "{\\q2}" + strings.Join(parts, " ")
}

// formatTime converts seconds to the H:MM:SS.cc timestamp format.
func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds / 3600)
	m := int(seconds/60) % 60
	s := seconds - float64(h*3600) - float64(m*60)
	return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
}
