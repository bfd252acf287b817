package imageproc

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func encodedRaster(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()

	var buf bytes.Buffer
	err := imaging.Encode(&buf, testRaster(w, h, color.NRGBA{R: 100, G: 100, B: 200, A: 255}), format)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeRaster(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "OK png", data: encodedRaster(t, 200, 100, imaging.PNG)},
		{name: "OK jpeg", data: encodedRaster(t, 64, 64, imaging.JPEG)},
		{name: "broken image", data: []byte("not-an-image"), wantErr: true},
		{name: "empty data", data: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeRaster(tt.data)

			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrDecode)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, img)
		})
	}
}

func TestProbeSize(t *testing.T) {
	w, h, err := ProbeSize(encodedRaster(t, 320, 240, imaging.PNG))
	require.NoError(t, err)
	require.Equal(t, 320, w)
	require.Equal(t, 240, h)

	_, _, err = ProbeSize([]byte("broken"))
	require.ErrorIs(t, err, model.ErrDecode)
}
