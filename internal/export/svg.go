package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vector"
	"github.com/san-kum/particlesim/internal/viz"
)

// CanvasToSVG draws every lit canvas dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64, fill string) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	width, height := float64(w)*scale, float64(h)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="%s">
`, width, height, width, height, fill)

	radius := scale * 0.4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, radius)
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// Unpack splits a packed frame back into positions.
func Unpack(frame []float32) []vector.Vec3 {
	out := make([]vector.Vec3, 0, len(frame)/sim.PackStride)
	for i := 0; i+sim.PackStride <= len(frame); i += sim.PackStride {
		out = append(out, vector.New(frame[i], frame[i+1], frame[i+2]))
	}
	return out
}

type SnapshotOptions struct {
	Cols, Rows int
	Scale      float64
	Fill       string
	Camera     *viz.Camera
}

func DefaultSnapshotOptions() SnapshotOptions {
	return SnapshotOptions{Cols: 80, Rows: 40, Scale: 4, Fill: "#00ffff", Camera: viz.NewCamera()}
}

// WriteSnapshot renders one packed frame inside box and writes it as SVG.
func WriteSnapshot(w io.Writer, box physics.Box, frame []float32, opts SnapshotOptions) error {
	if opts.Camera == nil {
		opts.Camera = viz.NewCamera()
	}
	canvas := viz.NewCanvas(opts.Cols, opts.Rows)
	viz.Render(canvas, opts.Camera, box, Unpack(frame))
	_, err := io.WriteString(w, CanvasToSVG(canvas, opts.Scale, opts.Fill))
	return err
}
