// Package binarize converts photos and scans of handwriting into binary
// glyph canvases using OpenCV.
package binarize

import (
	"fmt"
	"image"
	"image/draw"

	"glyphocr/internal/raster"

	"gocv.io/x/gocv"
)

// Params holds the preprocessing settings.
type Params struct {
	// MaxDim downscales images whose larger side exceeds it (0 = never).
	MaxDim int `mapstructure:"max_dim" json:"max_dim,omitempty"`

	// CLAHE parameters; a zero clip limit skips equalization.
	CLAHEClipLimit float64 `mapstructure:"clahe_clip" json:"clahe_clip,omitempty"`
	CLAHETileSize  int     `mapstructure:"clahe_tile" json:"clahe_tile,omitempty"`

	// Use Otsu threshold; otherwise FixedThreshold, or adaptive when set.
	UseOtsu        bool `mapstructure:"use_otsu" json:"use_otsu,omitempty"`
	FixedThreshold int  `mapstructure:"fixed_threshold" json:"fixed_threshold,omitempty"`

	UseAdaptive   bool `mapstructure:"use_adaptive" json:"use_adaptive,omitempty"`
	AdaptiveBlock int  `mapstructure:"adaptive_block" json:"adaptive_block,omitempty"` // odd
	AdaptiveC     int  `mapstructure:"adaptive_c" json:"adaptive_c,omitempty"`

	// Morphological cleanup of the ink mask.
	DilateIterations int `mapstructure:"dilate" json:"dilate,omitempty"`
	ErodeIterations  int `mapstructure:"erode" json:"erode,omitempty"`
}

// DefaultParams returns settings suited to pen on paper.
func DefaultParams() Params {
	return Params{
		MaxDim:         1024,
		CLAHEClipLimit: 2.0,
		CLAHETileSize:  8,
		UseOtsu:        true,
	}
}

// File reads an image from disk and binarizes it.
func File(path string, params Params) (*raster.Grid, error) {
	gray := gocv.IMRead(path, gocv.IMReadGrayScale)
	if gray.Empty() {
		return nil, fmt.Errorf("failed to read image %s", path)
	}
	defer gray.Close()
	return Gray(gray, params)
}

// Image binarizes an in-memory image.
func Image(img image.Image, params Params) (*raster.Grid, error) {
	b := img.Bounds()
	if b.Empty() {
		return raster.MustNew(0, 0), nil
	}
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)

	gray, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, g.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer gray.Close()
	return Gray(gray, params)
}

// Gray binarizes a single-channel 8-bit Mat. Ink is taken to be the
// minority class after thresholding, so light-on-dark input works too.
func Gray(gray gocv.Mat, params Params) (*raster.Grid, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	src := gray
	if params.MaxDim > 0 && max(gray.Rows(), gray.Cols()) > params.MaxDim {
		scale := float64(params.MaxDim) / float64(max(gray.Rows(), gray.Cols()))
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(gray, &scaled, image.Point{}, scale, scale, gocv.InterpolationArea)
		src = scaled
	}

	var enhanced gocv.Mat
	if params.CLAHEClipLimit > 0 {
		tile := max(params.CLAHETileSize, 1)
		clahe := gocv.NewCLAHEWithParams(params.CLAHEClipLimit, image.Point{tile, tile})
		enhanced = gocv.NewMat()
		clahe.Apply(src, &enhanced)
		clahe.Close()
	} else {
		enhanced = src.Clone()
	}
	defer enhanced.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	switch {
	case params.UseAdaptive:
		blockSize := params.AdaptiveBlock
		if blockSize < 3 {
			blockSize = 11
		}
		if blockSize%2 == 0 {
			blockSize++
		}
		c := params.AdaptiveC
		if c == 0 {
			c = 5
		}
		gocv.AdaptiveThreshold(enhanced, &binary, 255,
			gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, blockSize, float32(c))
	case params.UseOtsu:
		gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	default:
		t := params.FixedThreshold
		if t <= 0 {
			t = raster.DefaultThreshold
		}
		gocv.Threshold(enhanced, &binary, float32(t), 255, gocv.ThresholdBinary)
	}

	// Make ink the nonzero class.
	total := binary.Rows() * binary.Cols()
	if gocv.CountNonZero(binary)*2 > total {
		gocv.BitwiseNot(binary, &binary)
	}

	if params.DilateIterations > 0 || params.ErodeIterations > 0 {
		kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{3, 3})
		for i := 0; i < params.DilateIterations; i++ {
			gocv.Dilate(binary, &binary, kernel)
		}
		for i := 0; i < params.ErodeIterations; i++ {
			gocv.Erode(binary, &binary, kernel)
		}
		kernel.Close()
	}

	return toGrid(binary), nil
}

func toGrid(binary gocv.Mat) *raster.Grid {
	g := raster.MustNew(binary.Cols(), binary.Rows())
	for y := 0; y < binary.Rows(); y++ {
		for x := 0; x < binary.Cols(); x++ {
			if binary.GetUCharAt(y, x) > 0 {
				g.Set(x, y, true)
			}
		}
	}
	return g
}
