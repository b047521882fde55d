// Package preprocess turns an arbitrary source image into the fixed
// analysis representation the rest of the pipeline works on: a single
// channel 256x256 grid with zero mean and unit variance.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/stat"

	"brainradiomics/internal/models"
)

// TargetSize is the fixed square analysis resolution.
const TargetSize = 256

// sigmaFloor below which a source image is treated as flat.
const sigmaFloor = 1e-6

// InputError reports a raw image that cannot enter the pipeline:
// undecodable bytes, zero area, or a nil image.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input image: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input image: %s", e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// Decode reads and decodes a JPEG or PNG image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &InputError{Reason: "decode failed", Err: err}
	}
	return img, nil
}

// LoadImage decodes an image file from disk.
func LoadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Reason: "open failed", Err: err}
	}
	defer file.Close()

	return Decode(file)
}

// Normalize converts an image to grayscale, resamples it to
// TargetSize x TargetSize with bilinear interpolation and standardizes
// the intensities to zero mean and unit variance.
//
// A flat source image (standard deviation below sigmaFloor) cannot be
// standardized; the result is the all-zero grid with Degenerate set, a
// warning condition rather than an error.
func Normalize(img image.Image) (*models.NormalizedImage, error) {
	if img == nil {
		return nil, &InputError{Reason: "nil image"}
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &InputError{Reason: "zero area"}
	}

	gray := toGray(img)
	resized := resize.Resize(TargetSize, TargetSize, gray, resize.Bilinear)

	pix := make([]float64, TargetSize*TargetSize)
	rb := resized.Bounds()
	for y := 0; y < TargetSize; y++ {
		for x := 0; x < TargetSize; x++ {
			r, _, _, _ := resized.At(rb.Min.X+x, rb.Min.Y+y).RGBA()
			// 16-bit grayscale back to the 0..255 unit.
			pix[y*TargetSize+x] = float64(r) / 257.0
		}
	}

	mean := stat.Mean(pix, nil)
	var ss float64
	for _, v := range pix {
		d := v - mean
		ss += d * d
	}
	sigma := math.Sqrt(ss / float64(len(pix)))

	out := &models.NormalizedImage{
		Pix:    pix,
		Width:  TargetSize,
		Height: TargetSize,
	}

	if sigma < sigmaFloor {
		// Flat image: standardizing would divide by zero. Emit the
		// all-zero grid and let downstream stages run on it.
		for i := range pix {
			pix[i] = 0
		}
		out.Degenerate = true
		return out, nil
	}

	for i := range pix {
		pix[i] = (pix[i] - mean) / sigma
	}
	return out, nil
}

// toGray converts any image to 8-bit grayscale using the ITU-R 601
// luma weights. Already-gray images are copied through unchanged.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			if luma > 255 {
				luma = 255
			}
			gray.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{Y: uint8(luma + 0.5)})
		}
	}
	return gray
}
