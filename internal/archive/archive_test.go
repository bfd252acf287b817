package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/stretchr/testify/require"
)

func testZip(t *testing.T, entries map[string][]byte, dirs ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, d := range dirs {
		_, err := zw.Create(d + "/")
		require.NoError(t, err)
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestExtractImages_FiltersByExtension(t *testing.T) {
	// 3 подходящих файла + мусор: текст, файл без расширения, директория
	data := testZip(t, map[string][]byte{
		"photos/a.jpg": []byte("jpg-bytes"),
		"photos/B.PNG": []byte("png-bytes"),
		"deep/c.webp":  []byte("webp-bytes"),
		"notes.txt":    []byte("text"),
		"README":       []byte("readme"),
		"archive.zip":  []byte("nested"),
	}, "photos", "deep")

	entries, err := ExtractImages(data)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := map[string][]byte{}
	for _, e := range entries {
		byName[e.Name] = e.Data
	}
	require.Equal(t, []byte("jpg-bytes"), byName["a.jpg"])
	require.Equal(t, []byte("png-bytes"), byName["B.PNG"])
	require.Equal(t, []byte("webp-bytes"), byName["c.webp"])
}

func TestExtractImages_CorruptArchive(t *testing.T) {
	_, err := ExtractImages([]byte("definitely-not-a-zip"))
	require.ErrorIs(t, err, model.ErrArchive)
}

func TestHasImageExt(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "a.jpg", want: true},
		{name: "a.JPEG", want: true},
		{name: "a.png", want: true},
		{name: "a.webp", want: true},
		{name: "a.gif", want: true},
		{name: "a.txt", want: false},
		{name: "a", want: false},
		{name: "a.jpg.bak", want: false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, HasImageExt(tt.name), tt.name)
	}
}

func TestBuilder_RoundTrip(t *testing.T) {
	b := NewBuilder("converted_300x300")
	require.NoError(t, b.Add("one_300x300_converted.png", []byte("one")))
	require.NoError(t, b.Add("two_300x300_converted.png", []byte("two")))

	blob, err := b.Close()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	require.Equal(t, "converted_300x300/one_300x300_converted.png", zr.File[0].Name)
	require.Equal(t, "converted_300x300/two_300x300_converted.png", zr.File[1].Name)
}
