// Package visualization renders segmentation results for display and
// debugging: the candidate tumor mask drawn over the source image with
// a translucent fill and a contour line.
package visualization

import (
	"fmt"
	"image"
	imagecolor "image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"brainradiomics/internal/models"
)

// fill and contour colors, matching the conventional red-region,
// yellow-outline presentation of segmentation overlays.
var (
	fillColor    = imagecolor.RGBA{R: 255, A: 255}
	contourColor = imagecolor.RGBA{R: 255, G: 255, A: 255}
)

// Overlay scales the source image to the mask resolution and paints the
// mask over it: a 50% red fill inside the region and a yellow contour
// along its boundary.
func Overlay(src image.Image, mask *models.TumorMask) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	draw.BiLinear.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if !mask.Bits[y*mask.Width+x] {
				continue
			}
			if isBoundary(mask, x, y) {
				out.SetRGBA(x, y, contourColor)
				continue
			}
			c := out.RGBAAt(x, y)
			out.SetRGBA(x, y, imagecolor.RGBA{
				R: uint8((uint16(c.R) + uint16(fillColor.R)) / 2),
				G: uint8(uint16(c.G) / 2),
				B: uint8(uint16(c.B) / 2),
				A: 255,
			})
		}
	}
	return out
}

// isBoundary reports whether a mask pixel touches a non-mask pixel or
// the image border.
func isBoundary(mask *models.TumorMask, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= mask.Width || ny < 0 || ny >= mask.Height {
				return true
			}
			if !mask.Bits[ny*mask.Width+nx] {
				return true
			}
		}
	}
	return false
}

// SaveOverlayPNG writes the overlay for (src, mask) to path, creating
// parent directories as needed.
func SaveOverlayPNG(path string, src image.Image, mask *models.TumorMask) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create overlay directory: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %v", err)
	}
	defer file.Close()

	if err := png.Encode(file, Overlay(src, mask)); err != nil {
		return fmt.Errorf("failed to encode overlay: %v", err)
	}
	return nil
}
