// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

type (
	Status             string
	OutputFormat       string
	WatermarkMode      string
	WatermarkPosition  string
	WatermarkColorMode string
)

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

var StatusMap = map[Status]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusSuccess:    true,
	StatusError:      true,
}

const (
	FormatJPEG OutputFormat = "jpeg"
	FormatPNG  OutputFormat = "png"
	FormatWEBP OutputFormat = "webp"
)

var OutputFormatMap = map[OutputFormat]bool{
	FormatJPEG: true,
	FormatPNG:  true,
	FormatWEBP: true,
}

const (
	ModeSingle WatermarkMode = "single"
	ModeDual   WatermarkMode = "dual"
	ModeTriple WatermarkMode = "triple"
	ModeTiled  WatermarkMode = "tiled"
)

var ModesMap = map[WatermarkMode]bool{
	ModeSingle: true,
	ModeDual:   true,
	ModeTriple: true,
	ModeTiled:  true,
}

const (
	PosCenter      WatermarkPosition = "center"
	PosTopLeft     WatermarkPosition = "top-left"
	PosTopRight    WatermarkPosition = "top-right"
	PosBottomLeft  WatermarkPosition = "bottom-left"
	PosBottomRight WatermarkPosition = "bottom-right"
	PosCustom      WatermarkPosition = "custom"
)

var PositionsMap = map[WatermarkPosition]bool{
	PosCenter:      true,
	PosTopLeft:     true,
	PosTopRight:    true,
	PosBottomLeft:  true,
	PosBottomRight: true,
	PosCustom:      true,
}

const (
	ColorOriginal  WatermarkColorMode = "original"
	ColorGrayscale WatermarkColorMode = "grayscale"
)

var ColorModesMap = map[WatermarkColorMode]bool{
	ColorOriginal:  true,
	ColorGrayscale: true,
}

//---------------------

// WatermarkConfig - настройки наложения ватермарка на один холст
type WatermarkConfig struct {
	Enabled         bool               `json:"enabled"`
	Image           image.Image        `json:"-"` // декодированный растр, заполняется сервисом
	Opacity         float64            `json:"opacity"`
	ScalePercent    float64            `json:"scale_percent"`
	RotationDegrees float64            `json:"rotation_degrees"`
	Position        WatermarkPosition  `json:"position"`
	Mode            WatermarkMode      `json:"mode"`
	ColorMode       WatermarkColorMode `json:"color_mode"`
	CustomX         float64            `json:"custom_x"` // проценты [0,100], осмысленно только при position=custom
	CustomY         float64            `json:"custom_y"`
}

// ProcessingConfig - иммутабельный на время прогона снапшот настроек конвертации
type ProcessingConfig struct {
	KeepOriginalSize bool            `json:"keep_original_size"`
	Width            int             `json:"width"`
	Height           int             `json:"height"`
	Format           OutputFormat    `json:"format"`
	Quality          float64         `json:"quality"` // [0,1]
	FillBackground   bool            `json:"fill_background"`
	Watermark        WatermarkConfig `json:"watermark"`
}

//-------------------

// UploadedItem - один элемент очереди загрузок. Растр декодируется лениво,
// уже внутри прогона - битый файл должен стать error-статусом итема, а не
// ошибкой загрузки.
type UploadedItem struct {
	UID      uuid.UUID `json:"uid"`
	FileName string    `json:"file_name"`
	Data     []byte    `json:"-"`
	Width    int       `json:"width,omitempty"` // размеры исходника, справочно; 0x0 если пробник не прочитал файл
	Height   int       `json:"height,omitempty"`
	Status   Status    `json:"status"`
	ErrMsg   string    `json:"error,omitempty"`
	Result   []byte    `json:"-"`
}

// BatchResult - итог одного прогона; после завершения не меняется
type BatchResult struct {
	Total        int    `json:"total"`
	Success      int    `json:"success"`
	Failed       int    `json:"failed"`
	ArtifactName string `json:"artifact_name,omitempty"`
}

// ------------------

var (
	ErrCommon500       error = errors.New("something went wrong. Try again later")      // 500
	ErrEmptyQueue      error = errors.New("upload queue is empty")                      // 400
	ErrRunInProgress   error = errors.New("conversion run is already in progress")      // 409
	ErrNoArtifact      error = errors.New("no conversion result is ready for download") // 404
	ErrDecode          error = errors.New("unreadable or unsupported image resource")   // 400
	ErrArchive         error = errors.New("corrupt or unreadable archive")              // 400
	ErrRender          error = errors.New("failed to render output image")              // per-item
	ErrIncorrectConfig error = errors.New("incorrect processing configuration")         // 400
	ErrEmptyUpload     error = errors.New("empty file provided")                        // 400
	ErrEmptyQuestion   error = errors.New("empty question provided")                    // 400
	ErrAdviceOffline   error = errors.New("advice endpoint is not configured")          // 503
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
	ZIP  = "application/zip"
)

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
}

// Encoder returns the actual codec and file extension used for the requested
// output format. WEBP has no encoder in the imaging stack - such requests are
// written as PNG and the extension is corrected accordingly.
func (f OutputFormat) Encoder() (imaging.Format, string) {
	if f == FormatJPEG {
		return imaging.JPEG, ".jpg"
	}
	return imaging.PNG, ".png"
}

// ContentType - MIME-тип итогового файла с учетом webp->png фолбэка
func (f OutputFormat) ContentType() string {
	format, _ := f.Encoder()
	return GetCType[format]
}
