// Command hwvgdemo renders a sample scene with the software backend
// and saves it as a PNG.
package main

import (
	"flag"
	"image"
	"image/png"
	"log"
	"math"
	"os"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/hwvg"
	"github.com/gogpu/hwvg/backend/software"
	"github.com/gogpu/hwvg/text"
)

func main() {
	var (
		width  = flag.Int("width", 800, "image width")
		height = flag.Int("height", 600, "image height")
		output = flag.String("output", "demo.png", "output file")
	)
	flag.Parse()

	ctx := software.New()
	r, err := hwvg.NewRenderer(ctx, hwvg.DefaultRendererConfig())
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	defer r.Close()

	if err := r.BeginFrame(*width, *height); err != nil {
		log.Fatalf("Failed to begin frame: %v", err)
	}

	drawBackground(r, *width, *height)
	drawShapes(r)
	drawStrokes(r)
	drawClipped(r)
	if err := drawText(r); err != nil {
		log.Fatalf("Failed to draw text: %v", err)
	}

	if err := r.EndFrame(); err != nil {
		log.Fatalf("Failed to end frame: %v", err)
	}

	if err := savePNG(*output, ctx); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
}

func drawBackground(r *hwvg.Renderer, w, h int) {
	bg := hwvg.NewPath()
	bg.Rectangle(0, 0, float64(w), float64(h))

	grad := hwvg.LinearGradient(
		hwvg.Point{X: 0, Y: 0},
		hwvg.Point{X: 0, Y: float64(h)},
		hwvg.ColorStop{Offset: 0, Color: hwvg.RGB(0.10, 0.20, 0.40)},
		hwvg.ColorStop{Offset: 1, Color: hwvg.RGB(0.50, 0.50, 0.60)},
	)
	check(r.DrawPath(bg, grad, hwvg.FillRuleNonZero, hwvg.Identity()))
}

func drawShapes(r *hwvg.Renderer) {
	// Overlapping translucent circles.
	colors := []hwvg.RGBA{
		hwvg.NewRGBA(1, 0.3, 0.3, 0.8),
		hwvg.NewRGBA(0.3, 1, 0.3, 0.8),
		hwvg.NewRGBA(0.3, 0.3, 1, 0.8),
	}
	centers := []hwvg.Point{{X: 150, Y: 150}, {X: 200, Y: 150}, {X: 175, Y: 200}}
	for i, c := range centers {
		p := hwvg.NewPath()
		p.Circle(c.X, c.Y, 60)
		check(r.DrawPath(p, hwvg.Solid(colors[i]), hwvg.FillRuleNonZero, hwvg.Identity()))
	}

	// Radial gradient disc.
	disc := hwvg.NewPath()
	disc.Circle(420, 160, 80)
	radial := hwvg.RadialGradient(
		hwvg.Point{X: 420, Y: 160}, 80,
		hwvg.ColorStop{Offset: 0, Color: hwvg.RGB(1, 0.9, 0.3)},
		hwvg.ColorStop{Offset: 1, Color: hwvg.NewRGBA(1, 0.9, 0.3, 0)},
	)
	check(r.DrawPath(disc, radial, hwvg.FillRuleNonZero, hwvg.Identity()))

	// Rotated squares around a center.
	for i := 0; i < 6; i++ {
		angle := float64(i) * math.Pi / 6
		m := hwvg.Translate(620, 160).Multiply(hwvg.Rotate(angle))
		sq := hwvg.NewPath()
		sq.Rectangle(-50, -50, 100, 100)
		check(r.DrawStroke(sq, hwvg.Solid(hwvg.NewRGBA(1, 1, 1, 0.5)),
			hwvg.DefaultStrokeStyle(), m))
	}
}

func drawStrokes(r *hwvg.Renderer) {
	// A thick round-capped wave.
	wave := hwvg.NewPath()
	wave.MoveTo(60, 420)
	wave.CubicTo(160, 320, 260, 520, 360, 420)
	style := hwvg.StrokeStyle{
		Width:      12,
		Cap:        hwvg.LineCapRound,
		Join:       hwvg.LineJoinRound,
		MiterLimit: 4,
	}
	check(r.DrawStroke(wave, hwvg.Solid(hwvg.RGB(0.9, 0.6, 0.1)), style, hwvg.Identity()))

	// Dashed outline.
	box := hwvg.NewPath()
	box.Rectangle(420, 360, 160, 120)
	dashed := hwvg.DefaultStrokeStyle()
	dashed.Width = 3
	dashed.Dashes = []float64{12, 8}
	check(r.DrawStroke(box, hwvg.Solid(hwvg.White), dashed, hwvg.Identity()))
}

func drawClipped(r *hwvg.Renderer) {
	r.PushClip(hwvg.RectWH(620, 360, 140, 140), hwvg.Identity())
	defer r.PopClip()

	// Stripes clipped to the square window.
	for i := 0; i < 10; i++ {
		p := hwvg.NewPath()
		p.Rectangle(600+float64(i)*20, 340, 10, 200)
		check(r.DrawPath(p, hwvg.Solid(hwvg.RGB(0.2, 0.8, 0.7)),
			hwvg.FillRuleNonZero, hwvg.Rotate(0.2)))
	}
}

func drawText(r *hwvg.Renderer) error {
	face, err := text.ParseFont(goregular.TTF)
	if err != nil {
		return err
	}
	shaper := text.NewShaper()
	run := shaper.Shape(face, "hwvg demo", 48, text.DirectionLTR, hwvg.Point{X: 60, Y: 80})
	return r.DrawText(run, hwvg.Solid(hwvg.White), hwvg.Identity())
}

func savePNG(path string, ctx *software.Context) error {
	w, h := ctx.Size()
	img := &image.RGBA{
		Pix:    ctx.Pixels(),
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func check(err error) {
	if err != nil {
		log.Fatalf("Draw failed: %v", err)
	}
}
