// Package imageproc provides the conversion core: decoding uploads,
// compositing the output canvas and computing watermark placements.
package imageproc

import (
	"bytes"
	"fmt"
	"image"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // регистрация декодера webp-исходников
)

// DecodeRaster decodes an uploaded binary resource into a drawable raster.
func DecodeRaster(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, model.ErrDecode
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return img, nil
}

// ProbeSize returns pixel dimensions without a full decode.
func ProbeSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", model.ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
