package compression

import (
	"testing"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTargetDimensions(t *testing.T) {
	cases := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"small image unchanged", 800, 600, 800, 600},
		{"exact limit unchanged", 1280, 720, 1280, 720},
		{"square at limit", 1280, 1280, 1280, 1280},
		{"landscape downscaled", 4000, 3000, 1280, 960},
		{"portrait downscaled", 3000, 4000, 960, 1280},
		{"one pixel over", 1281, 1, 1280, 1},
		{"independent rounding", 1921, 1081, 1280, 720},
		{"thin strip rounds to zero", 1, 5000, 0, 1280},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := ComputeTargetDimensions(tc.width, tc.height, 1280)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestComputeTargetDimensionsLongEdgeIsExact(t *testing.T) {
	for w := 1281; w < 6000; w += 373 {
		for _, h := range []int{1, 333, 1280, w - 1, w} {
			tw, th := ComputeTargetDimensions(w, h, 1280)
			assert.Equal(t, 1280, max(tw, th), "source %dx%d", w, h)

			tw, th = ComputeTargetDimensions(h, w, 1280)
			assert.Equal(t, 1280, max(tw, th), "source %dx%d", h, w)
		}
	}
}

func TestNewTargetCopiesSteps(t *testing.T) {
	steps := []float64{0.9, 0.5}
	target, err := NewTarget(100, 1000, "image/jpeg", steps)
	require.NoError(t, err)

	steps[0] = 0.1
	assert.Equal(t, []float64{0.9, 0.5}, target.QualitySteps())

	got := target.QualitySteps()
	got[1] = 0.01
	assert.Equal(t, []float64{0.9, 0.5}, target.QualitySteps())
}

func TestNewTargetValidation(t *testing.T) {
	_, err := NewTarget(0, 1000, "image/webp", []float64{0.5})
	require.ErrorIs(t, err, e.ErrInvalidCompressionConf)

	_, err = NewTarget(100, 0, "image/webp", []float64{0.5})
	require.ErrorIs(t, err, e.ErrInvalidCompressionConf)

	_, err = NewTarget(100, 1000, "image/webp", nil)
	require.ErrorIs(t, err, e.ErrInvalidCompressionConf)

	_, err = NewTarget(100, 1000, "image/webp", []float64{0.5, 0.6})
	require.ErrorIs(t, err, e.ErrInvalidCompressionConf)

	_, err = NewTarget(100, 1000, "image/webp", []float64{1.5})
	require.ErrorIs(t, err, e.ErrInvalidCompressionConf)
}

func TestDefaultTarget(t *testing.T) {
	target := DefaultTarget()

	assert.Equal(t, 1280, target.MaxDimension())
	assert.Equal(t, int64(409600), target.MaxBytes())
	assert.Equal(t, "image/webp", target.MimeType())
	assert.Equal(t, []float64{0.82, 0.72, 0.62, 0.52, 0.42, 0.34, 0.28}, target.QualitySteps())
}
