package compression

import (
	"fmt"
	"image"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
)

// SourceDecoder декодирует исходный файл.
type SourceDecoder interface {
	Decode(src *domain.SourceFile) (*domain.SourceImage, error)
}

// SurfaceRenderer рисует исходник на поверхности заданного размера.
type SurfaceRenderer interface {
	Render(src image.Image, width, height int) (image.Image, error)
}

// Observer собирает телеметрию сжатия.
type Observer interface {
	RecordCompression(duration time.Duration, attempts int, quality float64, sizeBytes int64, err error)
}

// Compressor выполняет этапы decode → dimensions → render → encodeWithBudget строго последовательно.
// Состояние между вызовами не разделяется, поэтому один Compressor безопасно использовать из разных горутин.
type Compressor struct {
	target   Target
	decoder  SourceDecoder
	renderer SurfaceRenderer
	encoder  Encoder
	observer Observer
	logger   logger.Logger
}

func NewCompressor(
	target Target,
	decoder SourceDecoder,
	renderer SurfaceRenderer,
	encoder Encoder,
	observer Observer,
	logger logger.Logger,
) (*Compressor, error) {
	if encoder.MimeType() != target.MimeType() {
		return nil, e.Wrap(
			fmt.Sprintf("encoder %s does not match target %s", encoder.MimeType(), target.MimeType()),
			e.ErrInvalidCompressionConf,
		)
	}

	return &Compressor{
		target:   target,
		decoder:  decoder,
		renderer: renderer,
		encoder:  encoder,
		observer: observer,
		logger:   logger,
	}, nil
}

// Target возвращает параметры сжатия.
func (c *Compressor) Target() Target {
	return c.target
}

// Compress декодирует файл, ограничивает размеры и перекодирует до попадания в бюджет.
func (c *Compressor) Compress(src *domain.SourceFile) (result *domain.CompressedImage, err error) {
	const op = "Compressor.Compress"

	start := time.Now()
	defer func() {
		if c.observer == nil {
			return
		}
		if result != nil {
			c.observer.RecordCompression(time.Since(start), result.Attempts, result.Quality, result.Size, nil)
			return
		}
		c.observer.RecordCompression(time.Since(start), 0, 0, 0, err)
	}()

	source, err := c.decoder.Decode(src)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	width, height := c.target.Dimensions(source.Width, source.Height)
	c.logger.Debugf("%s: %s %dx%d (%d bytes) -> %dx%d", op, src.Name, source.Width, source.Height, source.Size, width, height)

	surface, err := c.renderer.Render(source.Image, width, height)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result, err = c.EncodeWithBudget(surface)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return result, nil
}

// EncodeWithBudget перебирает ступени качества от высокой к низкой и возвращает первый кандидат,
// укладывающийся в бюджет. Если ни одна ступень не подошла или кодировщик вернул ошибку,
// возвращается e.ErrCompressionBudgetExceeded. Повторного уменьшения размеров нет.
func (c *Compressor) EncodeWithBudget(surface image.Image) (*domain.CompressedImage, error) {
	const op = "Compressor.EncodeWithBudget"

	bounds := surface.Bounds()
	var lastSize int

	for attempt, quality := range c.target.steps {
		data, err := c.encoder.Encode(surface, quality)
		if err != nil {
			return nil, e.Wrap(op, fmt.Errorf("%w: quality %.2f: %w", e.ErrCompressionBudgetExceeded, quality, err))
		}
		if len(data) == 0 {
			return nil, e.Wrap(op, fmt.Errorf("%w: quality %.2f produced no output", e.ErrCompressionBudgetExceeded, quality))
		}

		lastSize = len(data)
		if int64(lastSize) <= c.target.maxBytes {
			return &domain.CompressedImage{
				Data:     data,
				MimeType: c.encoder.MimeType(),
				Size:     int64(lastSize),
				Width:    bounds.Dx(),
				Height:   bounds.Dy(),
				Quality:  quality,
				Attempts: attempt + 1,
			}, nil
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("%w: %d bytes at lowest quality, budget %d",
		e.ErrCompressionBudgetExceeded, lastSize, c.target.maxBytes))
}
