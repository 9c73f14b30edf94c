// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/relabs-tech/scan_producer/internal/scan"
	"github.com/relabs-tech/scan_producer/internal/tf"
)

var (
	previewBackground = color.RGBA{R: 16, G: 16, B: 24, A: 255}
	previewAxis       = color.RGBA{R: 70, G: 70, B: 90, A: 255}
	previewPoint      = color.RGBA{R: 80, G: 220, B: 120, A: 255}
	previewText       = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// renderScan draws a top-down view of s in the parent frame of t, with the
// parent origin at the centre, x pointing right and y pointing up. The
// sensor height from t is shown in the text overlay.
func renderScan(s *scan.Scan, t tf.Transform, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{previewBackground}, image.Point{}, draw.Src)

	c := size / 2
	for i := 0; i < size; i++ {
		img.SetRGBA(i, c, previewAxis)
		img.SetRGBA(c, i, previewAxis)
	}

	scanPts := s.Points()
	pts := make([]r3.Vec, len(scanPts))
	for i, p := range scanPts {
		pts[i] = t.Apply(r3.Vec{X: p.X, Y: p.Y})
	}

	// Fit the farthest point inside the frame with a small margin.
	extent := 1.0
	for _, p := range pts {
		extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	pxPerMetre := float64(size) * 0.45 / extent

	for _, p := range pts {
		px := c + int(math.Round(p.X*pxPerMetre))
		py := c - int(math.Round(p.Y*pxPerMetre))
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				x, y := px+dx, py+dy
				if image.Pt(x, y).In(img.Rect) {
					img.SetRGBA(x, y, previewPoint)
				}
			}
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{previewText},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(4, 13)
	drawer.DrawString(fmt.Sprintf("%s %d.%03d", s.Header.FrameID,
		s.Header.Stamp.Secs, s.Header.Stamp.Nsecs/1_000_000))
	drawer.Dot = fixed.P(4, 26)
	drawer.DrawString(fmt.Sprintf("z=%.3f  n=%d/%d", t.Translation.Z, len(pts), len(s.Ranges)))
	drawer.Dot = fixed.P(4, 39)
	drawer.DrawString(fmt.Sprintf("scale %.1fm", extent))

	return img
}

// writeScanPNG encodes the preview of s as PNG into w.
func writeScanPNG(w io.Writer, s *scan.Scan, t tf.Transform, size int) error {
	return png.Encode(w, renderScan(s, t, size))
}
