// Package batch runs the upload queue through the compositor one item at a
// time and packages successful results into a download artifact.
package batch

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/UnendingLoop/BatchConverter/internal/archive"
	"github.com/UnendingLoop/BatchConverter/internal/imageproc"
	"github.com/UnendingLoop/BatchConverter/internal/metrics"
	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/UnendingLoop/BatchConverter/internal/mwlogger"
)

// UpdateFunc применяет один переход состояния итема; владелец очереди может
// обернуть его своей синхронизацией
type UpdateFunc func(item *model.UploadedItem, status model.Status, errMsg string, result []byte)

type Orchestrator struct {
	// progress вызывается после каждого итема с round(100*done/total)
	progress func(percent int)
	update   UpdateFunc
}

func NewOrchestrator(progress func(percent int), update UpdateFunc) *Orchestrator {
	return &Orchestrator{progress: progress, update: update}
}

// Run converts every queued item strictly in order, one at a time. Per-item
// failures are contained: a broken file becomes an error-status item and the
// loop moves on, nothing aborts the batch.
func (o *Orchestrator) Run(ctx context.Context, items []*model.UploadedItem, cfg model.ProcessingConfig) (*model.BatchResult, []byte, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	res := &model.BatchResult{Total: len(items)}

	for i, item := range items {
		o.setItem(item, model.StatusProcessing, "", nil)

		blob, err := convertItem(item, cfg)
		if err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to convert %q", item.FileName))
			o.setItem(item, model.StatusError, "conversion failed", nil)
			res.Failed++
			metrics.ImagesProcessed.WithLabelValues("error").Inc()
		} else {
			o.setItem(item, model.StatusSuccess, "", blob)
			res.Success++
			metrics.ImagesProcessed.WithLabelValues("success").Inc()
		}

		o.reportProgress(i+1, len(items))
	}

	artifact, err := packageResults(items, cfg, res)
	if err != nil {
		return nil, nil, err
	}

	metrics.RunsTotal.Inc()
	return res, artifact, nil
}

func convertItem(item *model.UploadedItem, cfg model.ProcessingConfig) ([]byte, error) {
	raster, err := imageproc.DecodeRaster(item.Data)
	if err != nil {
		return nil, err
	}
	return imageproc.Composite(raster, cfg)
}

// setItem - все переходы статусов идут через update-колбэк, если он задан:
// очередь могут параллельно читать, пока прогон пишет
func (o *Orchestrator) setItem(item *model.UploadedItem, status model.Status, errMsg string, result []byte) {
	if o.update != nil {
		o.update(item, status, errMsg, result)
		return
	}
	item.Status = status
	item.ErrMsg = errMsg
	item.Result = result
}

func (o *Orchestrator) reportProgress(done, total int) {
	if o.progress == nil || total == 0 {
		return
	}
	o.progress(int(math.Round(100 * float64(done) / float64(total))))
}

// packageResults: один успех - файл отдается как есть, два и больше -
// складываются в zip-архив, ноль - артефакта нет.
func packageResults(items []*model.UploadedItem, cfg model.ProcessingConfig, res *model.BatchResult) ([]byte, error) {
	switch {
	case res.Success == 0:
		return nil, nil
	case res.Success == 1:
		for _, item := range items {
			if item.Status == model.StatusSuccess {
				res.ArtifactName = OutputName(item.FileName, cfg)
				return item.Result, nil
			}
		}
		return nil, nil
	default:
		res.ArtifactName = fmt.Sprintf("converted_images_%d.zip", time.Now().Unix())

		b := archive.NewBuilder(FolderName(cfg))
		for _, item := range items {
			if item.Status != model.StatusSuccess {
				continue
			}
			if err := b.Add(OutputName(item.FileName, cfg), item.Result); err != nil {
				return nil, err
			}
		}
		return b.Close()
	}
}
