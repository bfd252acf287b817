package transport

import (
	"errors"
	"io"
	"log"
	"mime/multipart"

	"github.com/UnendingLoop/BatchConverter/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrAdviceOffline):
		return 503
	case errors.Is(err, model.ErrRunInProgress):
		return 409
	case errors.Is(err, model.ErrNoArtifact):
		return 404
	case errors.Is(err, model.ErrEmptyQueue),
		errors.Is(err, model.ErrEmptyUpload),
		errors.Is(err, model.ErrDecode),
		errors.Is(err, model.ErrArchive),
		errors.Is(err, model.ErrIncorrectConfig),
		errors.Is(err, model.ErrEmptyQuestion):
		return 400
	default:
		return 500
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer closeFileFlow(f)

	return io.ReadAll(f)
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
