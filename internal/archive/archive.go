// Package archive wraps zip reading/writing: expanding uploaded archives into
// image entries and packaging conversion results into a single blob.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/UnendingLoop/BatchConverter/internal/model"
)

var imageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// HasImageExt reports whether the entry name carries a supported raster extension.
func HasImageExt(name string) bool {
	return imageExt[strings.ToLower(path.Ext(name))]
}

// Entry - один файл-картинка, извлеченный из загруженного архива
type Entry struct {
	Name string
	Data []byte
}

// ExtractImages enumerates non-directory entries with a supported image
// extension and reads each one as binary. Everything else is skipped silently.
func ExtractImages(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrArchive, err)
	}

	var res []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !HasImageExt(f.Name) {
			continue
		}

		content, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", model.ErrArchive, f.Name, err)
		}
		res = append(res, Entry{Name: path.Base(f.Name), Data: content})
	}
	return res, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

//--------------------

// Builder собирает результирующий архив: папка + именованные бинарные элементы
type Builder struct {
	buf    bytes.Buffer
	zw     *zip.Writer
	folder string
}

func NewBuilder(folder string) *Builder {
	b := &Builder{folder: folder}
	b.zw = zip.NewWriter(&b.buf)
	return b
}

// Add puts one named binary entry into the archive's folder.
func (b *Builder) Add(name string, data []byte) error {
	w, err := b.zw.Create(path.Join(b.folder, name))
	if err != nil {
		return fmt.Errorf("failed to create archive entry %q: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write archive entry %q: %w", name, err)
	}
	return nil
}

// Close finalizes the archive and returns it as a single blob.
func (b *Builder) Close() ([]byte, error) {
	if err := b.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return b.buf.Bytes(), nil
}
