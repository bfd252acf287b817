package service

import (
	"testing"

	"github.com/UnendingLoop/BatchConverter/internal/model"
	"github.com/stretchr/testify/require"
)

func TestValidateNormalizeConfig_Defaults(t *testing.T) {
	cfg := model.ProcessingConfig{
		Width:  800,
		Height: 600,
		Format: model.FormatJPEG,
		Watermark: model.WatermarkConfig{
			Enabled: true,
		},
	}

	require.NoError(t, validateNormalizeConfig(&cfg))

	require.Equal(t, 0.92, cfg.Quality)
	require.Equal(t, model.ModeSingle, cfg.Watermark.Mode)
	require.Equal(t, model.PosCenter, cfg.Watermark.Position)
	require.Equal(t, model.ColorOriginal, cfg.Watermark.ColorMode)
	require.Equal(t, 0.5, cfg.Watermark.Opacity)
	require.Equal(t, 20.0, cfg.Watermark.ScalePercent)
}

func TestValidateNormalizeConfig_Clamps(t *testing.T) {
	cfg := model.ProcessingConfig{
		KeepOriginalSize: true,
		Format:           model.FormatPNG,
		Quality:          3,
		Watermark: model.WatermarkConfig{
			Enabled:         true,
			Mode:            model.ModeSingle,
			Position:        model.PosCustom,
			ColorMode:       model.ColorGrayscale,
			Opacity:         5,
			ScalePercent:    250,
			RotationDegrees: 700,
			CustomX:         -10,
			CustomY:         140,
		},
	}

	require.NoError(t, validateNormalizeConfig(&cfg))

	require.Equal(t, 1.0, cfg.Quality)
	require.Equal(t, 1.0, cfg.Watermark.Opacity)
	require.Equal(t, 20.0, cfg.Watermark.ScalePercent)
	require.Equal(t, 180.0, cfg.Watermark.RotationDegrees)
	require.Equal(t, 0.0, cfg.Watermark.CustomX)
	require.Equal(t, 100.0, cfg.Watermark.CustomY)
}

// custom-позиция вне single-режима понижается до center
func TestValidateNormalizeConfig_CustomOnlyForSingle(t *testing.T) {
	cfg := model.ProcessingConfig{
		Width:  10,
		Height: 10,
		Format: model.FormatPNG,
		Watermark: model.WatermarkConfig{
			Enabled:  true,
			Mode:     model.ModeTiled,
			Position: model.PosCustom,
		},
	}

	require.NoError(t, validateNormalizeConfig(&cfg))
	require.Equal(t, model.PosCenter, cfg.Watermark.Position)
}

func TestValidateNormalizeConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  model.ProcessingConfig
	}{
		{name: "unknown format", cfg: model.ProcessingConfig{Width: 1, Height: 1, Format: "tiff"}},
		{name: "no size", cfg: model.ProcessingConfig{Format: model.FormatJPEG}},
		{
			name: "unknown watermark mode",
			cfg: model.ProcessingConfig{
				Width: 1, Height: 1, Format: model.FormatJPEG,
				Watermark: model.WatermarkConfig{Enabled: true, Mode: "quad"},
			},
		},
		{
			name: "unknown watermark position",
			cfg: model.ProcessingConfig{
				Width: 1, Height: 1, Format: model.FormatJPEG,
				Watermark: model.WatermarkConfig{Enabled: true, Position: "middle"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNormalizeConfig(&tt.cfg)
			require.ErrorIs(t, err, model.ErrIncorrectConfig)
		})
	}
}
