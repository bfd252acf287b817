package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

// хелпер для генерации закодированной картинки
func encodedImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

// хелпер для генерации zip с картинками и мусором
func encodedZip(t *testing.T, imgNames []string, junkNames []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range imgNames {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(encodedImage(t, 8, 8))
		require.NoError(t, err)
	}
	for _, name := range junkNames {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("junk"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func validRunConfig() model.ProcessingConfig {
	return model.ProcessingConfig{
		Width:   100,
		Height:  100,
		Format:  model.FormatPNG,
		Quality: 0.9,
	}
}

// INTAKE - SUCCESS, DIRECT FILE
func TestImageService_Intake_Direct(t *testing.T) {
	svc := NewImageService(nil, nil)

	items, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 10, 10))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "photo.png", items[0].FileName)
	require.Equal(t, model.StatusPending, items[0].Status)
	require.NotEmpty(t, items[0].UID)

	// размеры исходника снимаются на приеме
	require.Equal(t, 10, items[0].Width)
	require.Equal(t, 10, items[0].Height)

	require.Len(t, svc.List(context.Background()), 1)
}

// INTAKE - SUCCESS, ZIP EXPANDED INTO N ITEMS
func TestImageService_Intake_Archive(t *testing.T) {
	svc := NewImageService(nil, nil)

	data := encodedZip(t, []string{"a.png", "dir/b.png"}, []string{"readme.txt"})
	items, err := svc.Intake(context.Background(), "upload.zip", data)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "a.png", items[0].FileName)
	require.Equal(t, "b.png", items[1].FileName)
}

// INTAKE - FAIL
func TestImageService_Intake_Errors(t *testing.T) {
	svc := NewImageService(nil, nil)

	_, err := svc.Intake(context.Background(), "empty.png", nil)
	require.ErrorIs(t, err, model.ErrEmptyUpload)

	_, err = svc.Intake(context.Background(), "broken.zip", []byte("not-a-zip"))
	require.ErrorIs(t, err, model.ErrArchive)

	// битый архив не затрагивает остальную очередь
	require.Empty(t, svc.List(context.Background()))
}

// STARTRUN - FAIL - EMPTY QUEUE
func TestImageService_StartRun_EmptyQueue(t *testing.T) {
	svc := NewImageService(nil, nil)

	_, err := svc.StartRun(context.Background(), validRunConfig(), nil)
	require.ErrorIs(t, err, model.ErrEmptyQueue)
}

// STARTRUN - FAIL - BAD CONFIG
func TestImageService_StartRun_InvalidConfig(t *testing.T) {
	svc := NewImageService(nil, nil)

	tests := []struct {
		name string
		cfg  model.ProcessingConfig
	}{
		{name: "unknown format", cfg: model.ProcessingConfig{Width: 10, Height: 10, Format: "bmp"}},
		{name: "zero size", cfg: model.ProcessingConfig{Format: model.FormatPNG}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.StartRun(context.Background(), tt.cfg, nil)
			require.ErrorIs(t, err, model.ErrIncorrectConfig)
		})
	}
}

// STARTRUN - SUCCESS: артефакт уходит в хранилище, событие - в очередь
func TestImageService_StartRun_OK(t *testing.T) {
	var putKey, putCType string
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			putKey, putCType = key, ct
			require.Greater(t, size, int64(0))
			return nil
		},
	}

	var published []byte
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			published = v
			return nil
		},
	}

	svc := NewImageService(pub, storage)
	_, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 50, 50))
	require.NoError(t, err)

	res, err := svc.StartRun(context.Background(), validRunConfig(), nil)
	require.NoError(t, err)

	require.Equal(t, 1, res.Total)
	require.Equal(t, 1, res.Success)
	require.Zero(t, res.Failed)
	require.Equal(t, "photo_100x100_converted.png", res.ArtifactName)

	require.True(t, strings.HasPrefix(putKey, "artifacts/"))
	require.Equal(t, model.PNG, putCType)

	var event model.BatchResult
	require.NoError(t, json.Unmarshal(published, &event))
	require.Equal(t, res.Success, event.Success)

	running, percent := svc.Progress(context.Background())
	require.False(t, running)
	require.Equal(t, 100, percent)
}

// STARTRUN - битый ватермарк не валит конвертацию
func TestImageService_StartRun_BrokenWatermarkSoftFails(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return nil
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return nil
		},
	}

	svc := NewImageService(pub, storage)
	_, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 50, 50))
	require.NoError(t, err)

	cfg := validRunConfig()
	cfg.Watermark.Enabled = true

	res, err := svc.StartRun(context.Background(), cfg, []byte("not-a-watermark"))
	require.NoError(t, err)
	require.Equal(t, 1, res.Success)
}

// STARTRUN - FAIL - STORAGE DOWN
func TestImageService_StartRun_StorageError(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return errors.New("storage is down")
		},
	}

	svc := NewImageService(nil, storage)
	_, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 50, 50))
	require.NoError(t, err)

	_, err = svc.StartRun(context.Background(), validRunConfig(), nil)
	require.ErrorIs(t, err, model.ErrCommon500)
}

// STARTRUN - ноль успехов: артефакта нет, но прогон завершается штатно
func TestImageService_StartRun_ZeroSuccess(t *testing.T) {
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return nil
		},
	}

	svc := NewImageService(pub, &mockStorage{})
	_, err := svc.Intake(context.Background(), "broken.png", []byte("garbage"))
	require.NoError(t, err)

	res, err := svc.StartRun(context.Background(), validRunConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)

	_, _, _, err = svc.DownloadArtifact(context.Background())
	require.ErrorIs(t, err, model.ErrNoArtifact)
}

// снапшоты очереди безопасно читать и маршалить во время активного прогона
func TestImageService_ListDuringRun(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return nil
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return nil
		},
	}

	svc := NewImageService(pub, storage)
	for i := 0; i < 16; i++ {
		_, err := svc.Intake(context.Background(), fmt.Sprintf("img_%02d.png", i), encodedImage(t, 64, 64))
		require.NoError(t, err)
	}

	runErr := make(chan error, 1)
	go func() {
		_, err := svc.StartRun(context.Background(), validRunConfig(), nil)
		runErr <- err
	}()

	for {
		select {
		case err := <-runErr:
			require.NoError(t, err)

			items := svc.List(context.Background())
			require.Len(t, items, 16)
			for _, it := range items {
				require.Equal(t, model.StatusSuccess, it.Status)
			}
			return
		default:
			_, err := json.Marshal(svc.List(context.Background()))
			require.NoError(t, err)
		}
	}
}

// DOWNLOAD - SUCCESS
func TestImageService_DownloadArtifact_OK(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return nil
		},
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return io.NopCloser(bytes.NewReader([]byte("blob"))), model.PNG, nil
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return nil
		},
	}

	svc := NewImageService(pub, storage)
	_, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 20, 20))
	require.NoError(t, err)
	_, err = svc.StartRun(context.Background(), validRunConfig(), nil)
	require.NoError(t, err)

	rc, cType, name, err := svc.DownloadArtifact(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	require.Equal(t, model.PNG, cType)
	require.Equal(t, "photo_100x100_converted.png", name)
}

// CLEAR - чистит очередь и сохраненный артефакт
func TestImageService_Clear(t *testing.T) {
	deleted := 0
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			deleted++
			return nil
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return nil
		},
	}

	svc := NewImageService(pub, storage)
	_, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 20, 20))
	require.NoError(t, err)
	_, err = svc.StartRun(context.Background(), validRunConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background()))
	require.Equal(t, 1, deleted)
	require.Empty(t, svc.List(context.Background()))

	_, _, _, err = svc.DownloadArtifact(context.Background())
	require.ErrorIs(t, err, model.ErrNoArtifact)

	// повторная очистка пустой очереди - no-op
	require.NoError(t, svc.Clear(context.Background()))
	require.Equal(t, 1, deleted)
}

// CLEAR - недоступное хранилище не оставляет половинчатого состояния:
// очередь и ссылка на артефакт очищены, ошибки наружу нет
func TestImageService_Clear_DeleteFailureIsBestEffort(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			return errors.New("storage is down")
		},
	}
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			return nil
		},
	}

	svc := NewImageService(pub, storage)
	_, err := svc.Intake(context.Background(), "photo.png", encodedImage(t, 20, 20))
	require.NoError(t, err)
	_, err = svc.StartRun(context.Background(), validRunConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background()))
	require.Empty(t, svc.List(context.Background()))

	_, _, _, err = svc.DownloadArtifact(context.Background())
	require.ErrorIs(t, err, model.ErrNoArtifact)
}
