package compression

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/stretchr/testify/require"
)

// sizedEncoder — кодировщик-заглушка, размер результата которого задаётся функцией от качества.
type sizedEncoder struct {
	mime      string
	sizeFn    func(q float64) int
	failAt    float64
	qualities []float64
}

func (s *sizedEncoder) MimeType() string {
	if s.mime == "" {
		return DefaultMimeType
	}
	return s.mime
}

func (s *sizedEncoder) Encode(_ image.Image, q float64) ([]byte, error) {
	s.qualities = append(s.qualities, q)
	if s.failAt != 0 && q == s.failAt {
		return nil, errors.New("encoder crashed")
	}
	return make([]byte, s.sizeFn(q)), nil
}

// trackedSource считает открытия и закрытия временного дескриптора.
type trackedSource struct {
	data   []byte
	opens  int
	closes int
}

type trackedReader struct {
	io.Reader
	src *trackedSource
}

func (t *trackedReader) Close() error {
	t.src.closes++
	return nil
}

func (t *trackedSource) file(name string) *domain.SourceFile {
	return domain.NewSourceFile(name, "image/png", int64(len(t.data)), func() (io.ReadCloser, error) {
		t.opens++
		return &trackedReader{Reader: bytes.NewReader(t.data), src: t}, nil
	})
}

func solidPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// noisyImage — детерминированный шум, который плохо сжимается и чувствителен к качеству.
func noisyImage(width, height int) *image.NRGBA {
	rng := rand.New(rand.NewPCG(42, 7))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.IntN(256))
		img.Pix[i+1] = uint8(rng.IntN(256))
		img.Pix[i+2] = uint8(rng.IntN(256))
		img.Pix[i+3] = 255
	}
	return img
}
