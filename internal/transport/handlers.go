// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type ImageHandler struct {
	service ImageService
	advisor Advisor
}

type ImageService interface {
	Intake(ctx context.Context, fileName string, data []byte) ([]model.UploadedItem, error)
	List(ctx context.Context) []model.UploadedItem
	Clear(ctx context.Context) error // чистит очередь и сохраненный артефакт в minio
	StartRun(ctx context.Context, cfg model.ProcessingConfig, wmData []byte) (*model.BatchResult, error)
	Progress(ctx context.Context) (running bool, percent int)
	DownloadArtifact(ctx context.Context) (io.ReadCloser, string, string, error) // прям скачать результат
}

type Advisor interface {
	Ask(ctx context.Context, question string, cfg model.ProcessingConfig) (string, error)
}

func NewImageHandler(svc ImageService, adv Advisor) *ImageHandler {
	return &ImageHandler{
		service: svc,
		advisor: adv,
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

// Upload принимает multipart-форму с повторяющимся полем "files":
// картинки и/или zip-архивы с картинками
func (h ImageHandler) Upload(ctx *ginext.Context) {
	if err := ctx.Request.ParseMultipartForm(64 << 20); err != nil {
		ctx.JSON(400, map[string]string{"error": "invalid multipart form"})
		return
	}

	files := ctx.Request.MultipartForm.File["files"]
	if len(files) == 0 {
		ctx.JSON(400, map[string]string{"error": "at least one file is required"})
		return
	}

	added := make([]model.UploadedItem, 0, len(files))
	partErrors := map[string]string{}

	for _, fh := range files {
		data, err := readPart(fh)
		if err != nil {
			partErrors[fh.Filename] = "failed to read file"
			continue
		}

		items, err := h.service.Intake(ctx.Request.Context(), fh.Filename, data)
		if err != nil {
			if errors.Is(err, model.ErrRunInProgress) {
				ctx.JSON(409, map[string]string{"error": err.Error()})
				return
			}
			// битая часть загрузки не валит остальные
			partErrors[fh.Filename] = err.Error()
			continue
		}
		added = append(added, items...)
	}

	if len(added) == 0 {
		ctx.JSON(400, map[string]any{"error": "no files accepted", "errors": partErrors})
		return
	}

	ctx.JSON(201, map[string]any{"items": added, "errors": partErrors})
}

func (h ImageHandler) ListQueue(ctx *ginext.Context) {
	ctx.JSON(200, h.service.List(ctx.Request.Context()))
}

func (h ImageHandler) ClearQueue(ctx *ginext.Context) {
	if err := h.service.Clear(ctx.Request.Context()); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}

// RunBatch запускает синхронный прогон: конфиг идет json-строкой в поле
// "config", ватермарк - опциональным файлом "watermark"
func (h ImageHandler) RunBatch(ctx *ginext.Context) {
	var cfg model.ProcessingConfig
	if err := json.Unmarshal([]byte(ctx.PostForm("config")), &cfg); err != nil {
		ctx.JSON(400, map[string]string{"error": "invalid config"})
		return
	}

	var wmData []byte
	wmFile, _, err := ctx.Request.FormFile("watermark")
	if err == nil {
		// watermark опционален
		defer closeFileFlow(wmFile)
		if wmData, err = io.ReadAll(wmFile); err != nil {
			ctx.JSON(400, map[string]string{"error": "failed to read watermark"})
			return
		}
	}

	res, err := h.service.StartRun(ctx.Request.Context(), cfg, wmData)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) Progress(ctx *ginext.Context) {
	running, percent := h.service.Progress(ctx.Request.Context())
	ctx.JSON(200, map[string]any{"running": running, "percent": percent})
}

func (h ImageHandler) DownloadArtifact(ctx *ginext.Context) {
	res, cType, name, err := h.service.DownloadArtifact(ctx.Request.Context())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for artifact %q: %v", n, name, err)
	}
}

type adviceRequest struct {
	Question string             `json:"question"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Format   model.OutputFormat `json:"format"`
}

// Advice пробрасывает вопрос во внешний LLM-сервис вместе с текущими
// настройками конвертации
func (h ImageHandler) Advice(ctx *ginext.Context) {
	if h.advisor == nil {
		ctx.JSON(errorCodeDefiner(model.ErrAdviceOffline), map[string]string{"error": model.ErrAdviceOffline.Error()})
		return
	}

	var req adviceRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	answer, err := h.advisor.Ask(ctx.Request.Context(), req.Question, model.ProcessingConfig{
		Width:  req.Width,
		Height: req.Height,
		Format: req.Format,
	})
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, map[string]string{"answer": answer})
}
