package service

import (
	"fmt"
	"path"
	"strings"

	"github.com/UnendingLoop/BatchConverter/internal/model"
)

// artifactContentType: zip для мультифайлового артефакта,
// иначе content-type целевого формата
func artifactContentType(artifactName string, cfg model.ProcessingConfig) string {
	if strings.EqualFold(path.Ext(artifactName), ".zip") {
		return model.ZIP
	}
	return cfg.Format.ContentType()
}

// validateNormalizeConfig приводит конфиг прогона к валидному виду: явные
// ошибки (формат, размер) отклоняются, остальное тихо зажимается в допустимые
// диапазоны как делает UI
func validateNormalizeConfig(cfg *model.ProcessingConfig) error {
	if !model.OutputFormatMap[cfg.Format] {
		return fmt.Errorf("%w: unsupported output format %q", model.ErrIncorrectConfig, cfg.Format)
	}

	if !cfg.KeepOriginalSize && (cfg.Width <= 0 || cfg.Height <= 0) {
		return fmt.Errorf("%w: target size must be positive, got %dx%d", model.ErrIncorrectConfig, cfg.Width, cfg.Height)
	}

	// quality вне [0,1]: ноль считаем "не задано"
	if cfg.Quality <= 0 {
		cfg.Quality = 0.92
	}
	if cfg.Quality > 1 {
		cfg.Quality = 1
	}

	if !cfg.Watermark.Enabled {
		return nil
	}
	return validateNormalizeWatermark(&cfg.Watermark)
}

func validateNormalizeWatermark(wm *model.WatermarkConfig) error {
	// пустые поля - дефолты
	if wm.Mode == "" {
		wm.Mode = model.ModeSingle
	}
	if wm.Position == "" {
		wm.Position = model.PosCenter
	}
	if wm.ColorMode == "" {
		wm.ColorMode = model.ColorOriginal
	}

	if !model.ModesMap[wm.Mode] {
		return fmt.Errorf("%w: unknown watermark mode %q", model.ErrIncorrectConfig, wm.Mode)
	}
	if !model.PositionsMap[wm.Position] {
		return fmt.Errorf("%w: unknown watermark position %q", model.ErrIncorrectConfig, wm.Position)
	}
	if !model.ColorModesMap[wm.ColorMode] {
		return fmt.Errorf("%w: unknown watermark color mode %q", model.ErrIncorrectConfig, wm.ColorMode)
	}

	// custom-позиция осмысленна только в single-режиме,
	// остальные режимы задают раскладку сами
	if wm.Position == model.PosCustom && wm.Mode != model.ModeSingle {
		wm.Position = model.PosCenter
	}

	if wm.Opacity <= 0 {
		wm.Opacity = 0.5
	}
	if wm.Opacity > 1 {
		wm.Opacity = 1
	}

	if wm.ScalePercent <= 0 || wm.ScalePercent > 100 {
		wm.ScalePercent = 20
	}

	if wm.RotationDegrees < -180 {
		wm.RotationDegrees = -180
	}
	if wm.RotationDegrees > 180 {
		wm.RotationDegrees = 180
	}

	wm.CustomX = clampPercent(wm.CustomX)
	wm.CustomY = clampPercent(wm.CustomY)

	return nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
