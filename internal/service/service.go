// Package service provides business-logic for the app
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/UnendingLoop/BatchConverter/internal/archive"
	"github.com/UnendingLoop/BatchConverter/internal/batch"
	"github.com/UnendingLoop/BatchConverter/internal/imageproc"
	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/UnendingLoop/BatchConverter/internal/mwlogger"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

// ImageService владеет очередью загрузок и единственный пишет в статусы итемов.
// Прогон строго один: пока running=true, новые прогоны и очистка отклоняются.
type ImageService struct {
	mu             sync.Mutex
	queue          []*model.UploadedItem
	running        bool
	percent        int
	artifactKey    string
	artifactName   string
	publisher      EventPublisher
	storage        ArtifactStorage
	artifactPrefix string
}

func NewImageService(pub EventPublisher, strg ArtifactStorage) *ImageService {
	return &ImageService{
		publisher:      pub,
		storage:        strg,
		artifactPrefix: "artifacts/",
	}
}

// EventPublisher - контракт для отправки событий о завершении прогона
type EventPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// ArtifactStorage - контракт для работы с хранилищем
type ArtifactStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

// Стратегия ретрая отправки событий - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

// Intake adds one uploaded resource to the queue: a direct image as a single
// item, a zip archive expanded into an item per qualifying entry. Returned
// items are value snapshots - callers may marshal them while a run mutates
// the live queue.
func (c *ImageService) Intake(ctx context.Context, fileName string, data []byte) ([]model.UploadedItem, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if len(data) == 0 {
		return nil, model.ErrEmptyUpload
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil, model.ErrRunInProgress
	}

	// архив раскрываем в отдельные итемы; битый архив - один алерт на весь
	// инпут, остальные загрузки он не трогает
	if strings.EqualFold(path.Ext(fileName), ".zip") {
		entries, err := archive.ExtractImages(data)
		if err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to expand archive %q", fileName))
			return nil, model.ErrArchive
		}

		added := make([]model.UploadedItem, 0, len(entries))
		for _, e := range entries {
			item := newItem(e.Name, e.Data)
			c.queue = append(c.queue, item)
			added = append(added, *item)
		}
		return added, nil
	}

	item := newItem(fileName, data)
	c.queue = append(c.queue, item)
	return []model.UploadedItem{*item}, nil
}

func newItem(name string, data []byte) *model.UploadedItem {
	item := &model.UploadedItem{
		UID:      uuid.New(),
		FileName: name,
		Data:     data,
		Status:   model.StatusPending,
	}

	// размеры - справочная информация для списка очереди; нечитаемый файл
	// остается 0x0 и станет error-статусом уже в прогоне
	if w, h, err := imageproc.ProbeSize(data); err == nil {
		item.Width, item.Height = w, h
	}
	return item
}

// List returns value snapshots of the queue, taken under the same lock the
// run's status writes go through.
func (c *ImageService) List(ctx context.Context) []model.UploadedItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]model.UploadedItem, 0, len(c.queue))
	for _, item := range c.queue {
		res = append(res, *item)
	}
	return res
}

// Clear drops the queue and releases everything it owned: item blobs and the
// stored artifact of the previous run.
func (c *ImageService) Clear(ctx context.Context) error {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return model.ErrRunInProgress
	}
	oldKey := c.artifactKey
	c.queue = nil
	c.percent = 0
	c.artifactKey = ""
	c.artifactName = ""
	c.mu.Unlock()

	// удаление из хранилища - best-effort, как и в storeArtifact: очередь уже
	// очищена, возврат ошибки оставил бы половинчатое состояние
	if oldKey != "" {
		if err := c.storage.Delete(ctx, oldKey); err != nil {
			logger.Error().Err(err).Msg("Failed to delete stale artifact from Storage")
		}
	}
	return nil
}

// StartRun validates the config, decodes the optional watermark and converts
// the whole queue synchronously. Once started the run goes to completion over
// every queued item - there is no cancellation.
func (c *ImageService) StartRun(ctx context.Context, cfg model.ProcessingConfig, wmData []byte) (*model.BatchResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if err := validateNormalizeConfig(&cfg); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, model.ErrRunInProgress
	}
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return nil, model.ErrEmptyQueue
	}
	items := c.queue
	c.running = true
	c.percent = 0
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	// ватермарк падает мягко: без него конвертация продолжается
	if cfg.Watermark.Enabled {
		cfg.Watermark.Image = decodeWatermark(ctx, wmData)
		cfg.Watermark.Enabled = cfg.Watermark.Image != nil
	}

	orch := batch.NewOrchestrator(c.setPercent, c.applyItemState)
	res, artifact, err := orch.Run(ctx, items, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Batch run failed")
		return nil, model.ErrCommon500
	}

	if err := c.storeArtifact(ctx, res, artifact, cfg); err != nil {
		logger.Error().Err(err).Msg("Failed to save artifact in Storage")
		return nil, model.ErrCommon500
	}

	c.publishResult(ctx, res)

	return res, nil
}

// applyItemState - единственная точка записи статусов во время прогона, под
// тем же мьютексом, что и снапшоты List
func (c *ImageService) applyItemState(item *model.UploadedItem, status model.Status, errMsg string, result []byte) {
	c.mu.Lock()
	item.Status = status
	item.ErrMsg = errMsg
	item.Result = result
	c.mu.Unlock()
}

func decodeWatermark(ctx context.Context, wmData []byte) image.Image {
	logger := mwlogger.LoggerFromContext(ctx)

	if len(wmData) == 0 {
		return nil
	}
	wm, err := imageproc.DecodeRaster(wmData)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to decode watermark, converting without it")
		return nil
	}
	return wm
}

func (c *ImageService) storeArtifact(ctx context.Context, res *model.BatchResult, blob []byte, cfg model.ProcessingConfig) error {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	oldKey := c.artifactKey
	c.mu.Unlock()

	// нулевой по успехам прогон - скачивать нечего
	if len(blob) == 0 {
		c.mu.Lock()
		c.artifactKey = ""
		c.artifactName = ""
		c.mu.Unlock()
		return nil
	}

	key := c.artifactPrefix + uuid.New().String() + path.Ext(res.ArtifactName)
	ctype := artifactContentType(res.ArtifactName, cfg)
	if err := c.storage.Put(ctx, key, int64(len(blob)), ctype, bytes.NewReader(blob)); err != nil {
		return err
	}

	c.mu.Lock()
	c.artifactKey = key
	c.artifactName = res.ArtifactName
	c.mu.Unlock()

	// прошлый артефакт больше не нужен
	if oldKey != "" {
		if err := c.storage.Delete(ctx, oldKey); err != nil {
			logger.Error().Err(err).Msg("Failed to delete previous artifact from Storage")
		}
	}
	return nil
}

func (c *ImageService) publishResult(ctx context.Context, res *model.BatchResult) {
	logger := mwlogger.LoggerFromContext(ctx)

	payload, err := json.Marshal(res)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal run-completed event")
		return
	}
	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(res.ArtifactName), payload); err != nil {
		logger.Error().Err(err).Msg("Failed to publish run-completed event to queue")
	}
}

// Progress reports whether a run is active and its last reported percent.
func (c *ImageService) Progress(ctx context.Context) (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running, c.percent
}

// setPercent - колбэк оркестратора; процент не убывает
func (c *ImageService) setPercent(p int) {
	c.mu.Lock()
	if p > c.percent {
		c.percent = p
	}
	c.mu.Unlock()
}

// DownloadArtifact streams the last produced artifact from storage.
func (c *ImageService) DownloadArtifact(ctx context.Context) (io.ReadCloser, string, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	c.mu.Lock()
	key, name := c.artifactKey, c.artifactName
	c.mu.Unlock()

	if key == "" {
		return nil, "", "", model.ErrNoArtifact
	}

	data, cType, err := c.storage.Get(ctx, key)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch artifact %q from Storage", key))
		return nil, "", "", model.ErrCommon500
	}
	return data, cType, name, nil
}
