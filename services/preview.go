/*
# Module: services/preview.go
Renders the 3:2 embed preview image shown when the mini app is shared in a feed.

## Linked Modules
- [storage/s3](../storage/s3.go) - Publishes the rendered image
- [handlers/embed](../handlers/embed.go) - Serves the image at /preview.png

## Tags
images, rendering, freetype, embed

## Exports
PreviewRenderer, NewPreviewRenderer, PreviewContent, PreviewWidth, PreviewHeight

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "services/preview.go" ;
    code:description "Renders the 3:2 embed preview image shown when the mini app is shared in a feed" ;
    code:linksTo [
        code:name "storage/s3" ;
        code:path "../storage/s3.go" ;
        code:relationship "Publishes the rendered image"
    ], [
        code:name "handlers/embed" ;
        code:path "../handlers/embed.go" ;
        code:relationship "Serves the image at /preview.png"
    ] ;
    code:exports :PreviewRenderer, :NewPreviewRenderer, :PreviewContent, :PreviewWidth, :PreviewHeight ;
    code:tags "images", "rendering", "freetype", "embed" .
<!-- End LinkedDoc RDF -->
*/
package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Embed images must be 3:2
const (
	PreviewWidth  = 1200
	PreviewHeight = 800
)

// PreviewContent is the text drawn on the preview
type PreviewContent struct {
	Title     string
	Tagline   string
	Recipient string
	Footer    string
}

// PreviewRenderer draws preview PNGs. The result only depends on the content,
// so the last render is reused.
type PreviewRenderer struct {
	font *truetype.Font

	mu      sync.Mutex
	lastKey PreviewContent
	lastPNG []byte
}

// NewPreviewRenderer parses the embedded Go font
func NewPreviewRenderer() (*PreviewRenderer, error) {
	parsed, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &PreviewRenderer{font: parsed}, nil
}

// Render returns the PNG for content
func (r *PreviewRenderer) Render(content PreviewContent) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lastPNG != nil && r.lastKey == content {
		return r.lastPNG, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, PreviewWidth, PreviewHeight))
	drawNightGradient(img)
	drawTree(img, 900, 560)

	y := 140
	y = r.drawText(img, content.Title, 80, y, 640, 72, color.RGBA{236, 253, 245, 255})
	y += 20
	y = r.drawText(img, content.Tagline, 80, y, 640, 34, color.RGBA{167, 243, 208, 255})
	if content.Recipient != "" {
		y += 30
		r.drawText(img, "Recipient "+content.Recipient, 80, y, 640, 26, color.RGBA{148, 163, 184, 255})
	}
	if content.Footer != "" {
		r.drawText(img, content.Footer, 80, PreviewHeight-90, 1040, 22, color.RGBA{100, 116, 139, 255})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	r.lastKey = content
	r.lastPNG = buf.Bytes()
	return r.lastPNG, nil
}

// drawNightGradient fills the image from the splash background #050509 to a deep green
func drawNightGradient(img *image.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		ratio := float64(y) / float64(bounds.Max.Y)
		c := color.RGBA{uint8(5 + ratio*5), uint8(5 + ratio*40), uint8(9 + ratio*20), 255}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

// drawTree paints a trunk and three stacked canopy discs centred on (cx, baseY)
func drawTree(img *image.RGBA, cx, baseY int) {
	trunk := image.Rect(cx-22, baseY-140, cx+22, baseY)
	draw.Draw(img, trunk, image.NewUniform(color.RGBA{120, 80, 45, 255}), image.Point{}, draw.Src)

	canopy := []struct {
		dx, dy, radius int
		c              color.RGBA
	}{
		{0, -250, 150, color.RGBA{22, 101, 52, 255}},
		{-90, -190, 100, color.RGBA{21, 128, 61, 255}},
		{90, -190, 100, color.RGBA{34, 197, 94, 255}},
	}
	for _, disc := range canopy {
		fillCircle(img, cx+disc.dx, baseY+disc.dy, disc.radius, disc.c)
	}
}

func fillCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= r2 {
				img.Set(cx+x, cy+y, c)
			}
		}
	}
}

// drawText draws word-wrapped text and returns the y below the last line
func (r *PreviewRenderer) drawText(img *image.RGBA, text string, x, y, maxWidth int, size float64, c color.RGBA) int {
	face := truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if drawer.MeasureString(candidate).Ceil() > maxWidth && current != "" {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}

	lineHeight := int(size * 1.25)
	baseline := y + int(size)
	for _, line := range lines {
		drawer.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)}
		drawer.DrawString(line)
		baseline += lineHeight
	}
	return baseline - lineHeight + int(size*0.4)
}
