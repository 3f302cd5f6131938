package cfg

import (
	"testing"

	"github.com/DRSN-tech/respondr-media/internal/infrastructure/compression"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQualityStepsAcceptsDescendingLadder(t *testing.T) {
	steps, err := ParseQualitySteps("0.9, 0.7,0.5,0.25")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.7, 0.5, 0.25}, steps)
}

func TestParseQualityStepsRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"not a number":    "0.8,abc",
		"zero":            "0.5,0",
		"above one":       "1.2,0.5",
		"three decimals":  "0.825,0.5",
		"not descending":  "0.5,0.6",
		"repeated value":  "0.5,0.5",
		"empty component": "0.8,,0.5",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQualitySteps(raw)
			require.ErrorIs(t, err, e.ErrInvalidQualitySteps)
		})
	}
}

func TestLoadCompressionCfgDefaults(t *testing.T) {
	t.Setenv("COMPRESSION_MAX_DIMENSION", "")
	t.Setenv("COMPRESSION_MAX_BYTES", "")
	t.Setenv("COMPRESSION_QUALITY_STEPS", "")
	t.Setenv("COMPRESSION_MIME_TYPE", "")

	c, err := loadCompressionCfg(logger.Nop{})
	require.NoError(t, err)
	assert.Equal(t, 1280, c.MaxDimension)
	assert.Equal(t, int64(409600), c.MaxBytes)
	assert.Equal(t, "image/webp", c.MimeType)
	assert.Equal(t, []float64{0.82, 0.72, 0.62, 0.52, 0.42, 0.34, 0.28}, c.QualitySteps)

	defaults := compression.DefaultTarget()
	assert.Equal(t, defaults.MaxDimension(), c.MaxDimension)
	assert.Equal(t, defaults.MaxBytes(), c.MaxBytes)
	assert.Equal(t, defaults.MimeType(), c.MimeType)
	assert.Equal(t, defaults.QualitySteps(), c.QualitySteps)

	target, err := compression.NewTarget(c.MaxDimension, c.MaxBytes, c.MimeType, c.QualitySteps)
	require.NoError(t, err)
	assert.Equal(t, defaults, target)
}

func TestLoadCompressionCfgRejectsUnknownMimeType(t *testing.T) {
	t.Setenv("COMPRESSION_MIME_TYPE", "image/png")

	_, err := loadCompressionCfg(logger.Nop{})
	require.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestLoadIncidentAPICfgTrimsTrailingSlash(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.respondr.test/v1/")

	c, err := loadIncidentAPICfg(logger.Nop{})
	require.NoError(t, err)
	assert.Equal(t, "https://api.respondr.test/v1", c.BaseURL)
}
