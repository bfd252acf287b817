package main

import (
	"context"
	"io"

	"github.com/UnendingLoop/BatchConverter/internal/model"
)

type ImageAPIService interface {
	Intake(ctx context.Context, fileName string, data []byte) ([]model.UploadedItem, error)
	List(ctx context.Context) []model.UploadedItem
	Clear(ctx context.Context) error
	StartRun(ctx context.Context, cfg model.ProcessingConfig, wmData []byte) (*model.BatchResult, error)
	Progress(ctx context.Context) (bool, int)
	DownloadArtifact(ctx context.Context) (io.ReadCloser, string, string, error)
}
