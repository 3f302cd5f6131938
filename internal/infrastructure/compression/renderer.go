package compression

import (
	"fmt"
	"image"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/disintegration/imaging"
)

// defaultMaxSurfacePixels ограничивает поверхность 64 Мпикс.
const defaultMaxSurfacePixels = 64 << 20

// Renderer растягивает исходник ровно в целевой прямоугольник, без полей и обрезки.
type Renderer struct {
	filter    imaging.ResampleFilter
	maxPixels int
}

func NewRenderer() *Renderer {
	return &Renderer{
		filter:    imaging.Lanczos,
		maxPixels: defaultMaxSurfacePixels,
	}
}

// Render возвращает поверхность width×height. Для нулевой или слишком большой поверхности возвращает e.ErrSurface.
func (r *Renderer) Render(src image.Image, width, height int) (image.Image, error) {
	const op = "Renderer.Render"

	if width <= 0 || height <= 0 {
		return nil, e.Wrap(op, fmt.Errorf("%w: %dx%d", e.ErrSurface, width, height))
	}
	if width*height > r.maxPixels {
		return nil, e.Wrap(op, fmt.Errorf("%w: %dx%d exceeds %d pixels", e.ErrSurface, width, height, r.maxPixels))
	}

	return imaging.Resize(src, width, height, r.filter), nil
}
