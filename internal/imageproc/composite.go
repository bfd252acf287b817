package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/disintegration/imaging"
)

// Composite draws one source raster onto the output canvas per config and
// encodes the result. A watermark problem never fails the conversion - the
// overlay is just skipped.
func Composite(src image.Image, cfg model.ProcessingConfig) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source raster", model.ErrRender)
	}

	// размер выходного холста
	outW, outH := cfg.Width, cfg.Height
	if cfg.KeepOriginalSize {
		outW, outH = src.Bounds().Dx(), src.Bounds().Dy()
	}
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", model.ErrRender, outW, outH)
	}

	format, _ := cfg.Format.Encoder()

	// jpeg не умеет альфу - фон всегда белый; для png заливка по флагу
	bg := color.NRGBA{}
	if format == imaging.JPEG || cfg.FillBackground {
		bg = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	canvas := imaging.New(outW, outH, bg)

	// базовое изображение: либо 1:1, либо cover-crop - заполняем холст
	// целиком с сохранением пропорций, лишнее по одной из осей обрезается
	// симметрично
	if cfg.KeepOriginalSize {
		canvas = imaging.Overlay(canvas, src, image.Pt(0, 0), 1.0)
	} else {
		fitted := imaging.Fill(src, outW, outH, imaging.Center, imaging.Lanczos)
		canvas = imaging.Overlay(canvas, fitted, image.Pt(0, 0), 1.0)
	}

	if cfg.Watermark.Enabled && cfg.Watermark.Image != nil {
		placements := ComputePlacements(outW, outH, cfg.Watermark)
		canvas = ApplyPlacements(canvas, cfg.Watermark.Image, placements)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, format, encodeOptions(format, cfg.Quality)...); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrRender, err)
	}
	return buf.Bytes(), nil
}

// encodeOptions maps quality [0,1] to the jpeg 1..100 scale. Floor of 1:
// imaging treats 0 as "use default 95" and the user's setting would be lost.
func encodeOptions(format imaging.Format, quality float64) []imaging.EncodeOption {
	if format != imaging.JPEG {
		return nil // png lossless, quality не применим
	}

	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return []imaging.EncodeOption{imaging.JPEGQuality(q)}
}
