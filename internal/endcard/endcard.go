package endcard

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card describes the closing call-to-action frame appended to promotional
// videos: a dark portrait canvas with a centered QR code and a caption
// under it.
type Card struct {
	Width   int
	Height  int
	URL     string
	Caption string
}

// Render draws the card and writes it as a PNG asset, ready for the motion
// pipeline to animate like any other still.
func (c Card) Render(path string) error {
	if c.URL == "" {
		return fmt.Errorf("endcard needs a target URL")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid endcard canvas %dx%d", c.Width, c.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	background := color.RGBA{R: 16, G: 16, B: 20, A: 255}
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	qr, err := qrcode.New(c.URL, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encoding QR code: %w", err)
	}
	qr.BackgroundColor = background
	qr.ForegroundColor = color.White

	// QR occupies half the canvas width, centered slightly above the middle.
	side := c.Width / 2
	qrImage := qr.Image(side)
	left := (c.Width - side) / 2
	top := c.Height/2 - side*2/3
	target := image.Rect(left, top, left+side, top+side)
	xdraw.NearestNeighbor.Scale(canvas, target, qrImage, qrImage.Bounds(), xdraw.Src, nil)

	if c.Caption != "" {
		drawCenteredText(canvas, c.Caption, c.Width/2, top+side+80)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating endcard %s: %w", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, canvas); err != nil {
		return fmt.Errorf("encoding endcard: %w", err)
	}
	return nil
}

func drawCenteredText(dst *image.RGBA, text string, centerX, baselineY int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(centerX - width/2),
			Y: fixed.I(baselineY),
		},
	}
	drawer.DrawString(text)
}
