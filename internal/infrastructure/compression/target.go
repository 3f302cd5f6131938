package compression

import (
	"fmt"
	"math"

	"github.com/DRSN-tech/respondr-media/pkg/e"
)

const (
	DefaultMaxDimension = 1280
	DefaultMaxBytes     = 400 * 1024
	DefaultMimeType     = "image/webp"
)

// Target — неизменяемые параметры сжатия: предельная длинная сторона, бюджет в байтах,
// выходной тип и упорядоченная по убыванию лестница качества.
type Target struct {
	maxDimension int
	maxBytes     int64
	mimeType     string
	steps        []float64
}

// DefaultTarget возвращает параметры по умолчанию: 1280px, 400 KiB, WebP, 0.82 → 0.28.
func DefaultTarget() Target {
	return Target{
		maxDimension: DefaultMaxDimension,
		maxBytes:     DefaultMaxBytes,
		mimeType:     DefaultMimeType,
		steps:        []float64{0.82, 0.72, 0.62, 0.52, 0.42, 0.34, 0.28},
	}
}

// NewTarget проверяет параметры и копирует лестницу качества, чтобы вызывающий код не мог её изменить.
func NewTarget(maxDimension int, maxBytes int64, mimeType string, steps []float64) (Target, error) {
	if maxDimension <= 0 {
		return Target{}, e.Wrap(fmt.Sprintf("max dimension %d", maxDimension), e.ErrInvalidCompressionConf)
	}
	if maxBytes <= 0 {
		return Target{}, e.Wrap(fmt.Sprintf("max bytes %d", maxBytes), e.ErrInvalidCompressionConf)
	}
	if mimeType == "" {
		return Target{}, e.Wrap("empty mime type", e.ErrInvalidCompressionConf)
	}
	if len(steps) == 0 {
		return Target{}, e.Wrap("empty quality steps", e.ErrInvalidCompressionConf)
	}
	for i, q := range steps {
		if q <= 0 || q > 1 {
			return Target{}, e.Wrap(fmt.Sprintf("quality %.2f out of range", q), e.ErrInvalidCompressionConf)
		}
		if i > 0 && q >= steps[i-1] {
			return Target{}, e.Wrap("quality steps must be strictly descending", e.ErrInvalidCompressionConf)
		}
	}

	return Target{
		maxDimension: maxDimension,
		maxBytes:     maxBytes,
		mimeType:     mimeType,
		steps:        append([]float64(nil), steps...),
	}, nil
}

func (t Target) MaxDimension() int { return t.maxDimension }
func (t Target) MaxBytes() int64   { return t.maxBytes }
func (t Target) MimeType() string  { return t.mimeType }

// QualitySteps возвращает копию лестницы качества.
func (t Target) QualitySteps() []float64 {
	return append([]float64(nil), t.steps...)
}

// Dimensions ограничивает размеры длинной стороной цели.
func (t Target) Dimensions(width, height int) (int, int) {
	return ComputeTargetDimensions(width, height, t.maxDimension)
}

// ComputeTargetDimensions возвращает размеры без изменений, если длинная сторона не превышает maxDimension.
// Иначе обе стороны масштабируются на maxDimension/longEdge и округляются независимо
// (допускается расхождение пропорций до 1px).
func ComputeTargetDimensions(width, height, maxDimension int) (int, int) {
	longEdge := max(width, height)
	if longEdge <= maxDimension {
		return width, height
	}

	scale := float64(maxDimension) / float64(longEdge)
	return int(math.Round(float64(width) * scale)), int(math.Round(float64(height) * scale))
}
