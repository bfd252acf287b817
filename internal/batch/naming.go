package batch

import (
	"fmt"
	"path"
	"strings"

	"github.com/UnendingLoop/BatchConverter/internal/model"
)

// OutputName derives the converted file name from the original one:
// photo.png at 300x300 -> photo_300x300_converted.png,
// with keep_original_size -> photo_converted.png.
func OutputName(original string, cfg model.ProcessingConfig) string {
	base := strings.TrimSuffix(path.Base(original), path.Ext(original))
	_, ext := cfg.Format.Encoder()

	if cfg.KeepOriginalSize {
		return fmt.Sprintf("%s_converted%s", base, ext)
	}
	return fmt.Sprintf("%s_%dx%d_converted%s", base, cfg.Width, cfg.Height, ext)
}

// FolderName - имя папки внутри результирующего архива
func FolderName(cfg model.ProcessingConfig) string {
	if cfg.KeepOriginalSize {
		return "converted_original_size"
	}
	return fmt.Sprintf("converted_%dx%d", cfg.Width, cfg.Height)
}
