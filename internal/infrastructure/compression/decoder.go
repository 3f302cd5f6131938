package compression

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // регистрирует декодер WebP в image.Decode
)

// Decoder читает исходный файл через временный дескриптор и декодирует его.
// Дескриптор закрывается на любом пути выхода.
type Decoder struct {
	maxPixels int
}

func NewDecoder() *Decoder {
	return &Decoder{maxPixels: defaultMaxSurfacePixels}
}

// Decode возвращает декодированное изображение с учётом EXIF-ориентации.
// Нечитаемые или нераспознанные байты дают e.ErrDecode, слишком большой исходник — e.ErrSurface.
func (d *Decoder) Decode(src *domain.SourceFile) (*domain.SourceImage, error) {
	const op = "Decoder.Decode"

	rc, err := src.Open()
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: open: %v", e.ErrDecode, err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: read: %v", e.ErrDecode, err))
	}

	// Размеры из заголовка проверяются до выделения памяти под пиксели.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrDecode, err))
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(d.maxPixels) {
		return nil, e.Wrap(op, fmt.Errorf("%w: source %dx%d exceeds %d pixels", e.ErrSurface, cfg.Width, cfg.Height, d.maxPixels))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrDecode, err))
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, e.Wrap(op, fmt.Errorf("%w: empty image", e.ErrDecode))
	}

	return &domain.SourceImage{
		Image:    img,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     int64(len(data)),
		MimeType: src.ContentType,
	}, nil
}
