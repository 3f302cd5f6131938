package compression

import (
	"bytes"
	"image"
	"math"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	"github.com/jimlawless/whereami"
)

// Encoder кодирует поверхность в выходной формат с заданным качеством (0, 1].
type Encoder interface {
	MimeType() string
	Encode(img image.Image, quality float64) ([]byte, error)
}

// NewEncoder подбирает кодировщик по выходному MIME-типу.
func NewEncoder(mimeType string) (Encoder, error) {
	switch mimeType {
	case "image/webp":
		return NewWebPEncoder(), nil
	case "image/jpeg":
		return NewJPEGEncoder(), nil
	default:
		return nil, e.Wrap(mimeType, e.ErrUnsupportedMediaType)
	}
}

type JPEGEncoder struct{}

func NewJPEGEncoder() *JPEGEncoder {
	return &JPEGEncoder{}
}

func (j *JPEGEncoder) MimeType() string { return "image/jpeg" }

func (j *JPEGEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(qualityPercent(quality))); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return buf.Bytes(), nil
}

// WebPEncoder — lossy WebP.
type WebPEncoder struct {
	method int
}

func NewWebPEncoder() *WebPEncoder {
	return &WebPEncoder{method: 4}
}

func (w *WebPEncoder) MimeType() string { return "image/webp" }

func (w *WebPEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: qualityPercent(quality), Method: w.method}); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return buf.Bytes(), nil
}

// qualityPercent переводит долю (0, 1] в целое 1..100, которое понимают кодировщики.
func qualityPercent(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}
