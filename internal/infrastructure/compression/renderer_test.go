package compression

import (
	"image"
	"testing"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererStretchesToExactBox(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 300, 100))

	surface, err := NewRenderer().Render(src, 50, 90)
	require.NoError(t, err)

	assert.Equal(t, 50, surface.Bounds().Dx())
	assert.Equal(t, 90, surface.Bounds().Dy())
}

func TestRendererRejectsEmptySurface(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 5000))

	_, err := NewRenderer().Render(src, 0, 1280)
	require.ErrorIs(t, err, e.ErrSurface)

	_, err = NewRenderer().Render(src, 10, -1)
	require.ErrorIs(t, err, e.ErrSurface)
}

func TestRendererRejectsOversizedSurface(t *testing.T) {
	r := &Renderer{maxPixels: 100}

	_, err := r.Render(image.NewNRGBA(image.Rect(0, 0, 20, 20)), 20, 20)
	require.ErrorIs(t, err, e.ErrSurface)
}
