package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/BatchConverter/internal/model"
)

// MOCK SERVICE

type mockImageService struct {
	intakeFn   func(ctx context.Context, fileName string, data []byte) ([]model.UploadedItem, error)
	listFn     func(ctx context.Context) []model.UploadedItem
	clearFn    func(ctx context.Context) error
	startRunFn func(ctx context.Context, cfg model.ProcessingConfig, wmData []byte) (*model.BatchResult, error)
	progressFn func(ctx context.Context) (bool, int)
	downloadFn func(ctx context.Context) (io.ReadCloser, string, string, error)
}

func (m *mockImageService) Intake(ctx context.Context, fileName string, data []byte) ([]model.UploadedItem, error) {
	return m.intakeFn(ctx, fileName, data)
}

func (m *mockImageService) List(ctx context.Context) []model.UploadedItem {
	return m.listFn(ctx)
}

func (m *mockImageService) Clear(ctx context.Context) error {
	return m.clearFn(ctx)
}

func (m *mockImageService) StartRun(ctx context.Context, cfg model.ProcessingConfig, wmData []byte) (*model.BatchResult, error) {
	return m.startRunFn(ctx, cfg, wmData)
}

func (m *mockImageService) Progress(ctx context.Context) (bool, int) {
	return m.progressFn(ctx)
}

func (m *mockImageService) DownloadArtifact(ctx context.Context) (io.ReadCloser, string, string, error) {
	return m.downloadFn(ctx)
}

// MOCK ADVISOR

type mockAdvisor struct {
	askFn func(ctx context.Context, question string, cfg model.ProcessingConfig) (string, error)
}

func (m *mockAdvisor) Ask(ctx context.Context, question string, cfg model.ProcessingConfig) (string, error) {
	return m.askFn(ctx, question, cfg)
}
