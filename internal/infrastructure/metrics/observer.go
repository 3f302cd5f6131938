package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "respondr_media"

// PipelineObserver экспортирует метрики сжатия, загрузки и регистрации вложений в Prometheus.
// Методы безопасно вызывать на nil-получателе.
type PipelineObserver struct {
	compressionDuration prometheus.Histogram
	compressionAttempts prometheus.Histogram
	compressionQuality  prometheus.Histogram
	compressedBytes     prometheus.Histogram
	compressionErrors   *prometheus.CounterVec
	uploadDuration      prometheus.Histogram
	uploadErrors        prometheus.Counter
	uploadedBytes       prometheus.Counter
	registrations       *prometheus.CounterVec
}

func NewPipelineObserver(namespace string, reg prometheus.Registerer) (*PipelineObserver, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &PipelineObserver{
		compressionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_duration_seconds",
			Help:      "Time spent decoding, resizing and encoding one image.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		compressionAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_attempts",
			Help:      "Quality levels tried before the image fit the byte budget.",
			Buckets:   prometheus.LinearBuckets(1, 1, 7),
		}),
		compressionQuality: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_quality",
			Help:      "Quality level that produced the stored image.",
			Buckets:   []float64{0.28, 0.34, 0.42, 0.52, 0.62, 0.72, 0.82},
		}),
		compressedBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compressed_size_bytes",
			Help:      "Size of the compressed image.",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 2, 6),
		}),
		compressionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compression_errors_total",
			Help:      "Compression failures by reason.",
		}, []string{"reason"}),
		uploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "Latency of object storage writes.",
			Buckets:   prometheus.DefBuckets,
		}),
		uploadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_errors_total",
			Help:      "Count of failed object storage writes.",
		}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size successfully uploaded to object storage.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Attachment registration outcomes.",
		}, []string{"outcome"}),
	}

	var err error
	if o.compressionDuration, err = register(reg, o.compressionDuration); err != nil {
		return nil, err
	}
	if o.compressionAttempts, err = register(reg, o.compressionAttempts); err != nil {
		return nil, err
	}
	if o.compressionQuality, err = register(reg, o.compressionQuality); err != nil {
		return nil, err
	}
	if o.compressedBytes, err = register(reg, o.compressedBytes); err != nil {
		return nil, err
	}
	if o.compressionErrors, err = register(reg, o.compressionErrors); err != nil {
		return nil, err
	}
	if o.uploadDuration, err = register(reg, o.uploadDuration); err != nil {
		return nil, err
	}
	if o.uploadErrors, err = register(reg, o.uploadErrors); err != nil {
		return nil, err
	}
	if o.uploadedBytes, err = register(reg, o.uploadedBytes); err != nil {
		return nil, err
	}
	if o.registrations, err = register(reg, o.registrations); err != nil {
		return nil, err
	}

	return o, nil
}

// register регистрирует коллектор или возвращает уже зарегистрированный экземпляр того же типа.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register pipeline metric: %w", err)
	}

	return c, nil
}

// RecordCompression фиксирует исход одного сжатия.
func (o *PipelineObserver) RecordCompression(duration time.Duration, attempts int, quality float64, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.compressionDuration.Observe(duration.Seconds())
	if err != nil {
		o.compressionErrors.WithLabelValues(compressionReason(err)).Inc()
		return
	}
	o.compressionAttempts.Observe(float64(attempts))
	o.compressionQuality.Observe(quality)
	o.compressedBytes.Observe(float64(sizeBytes))
}

// RecordUpload фиксирует длительность, размер и ошибки записи в хранилище.
func (o *PipelineObserver) RecordUpload(duration time.Duration, sizeBytes int64, err error) {
	if o == nil {
		return
	}
	o.uploadDuration.Observe(duration.Seconds())
	if err != nil {
		o.uploadErrors.Inc()
		return
	}
	o.uploadedBytes.Add(float64(sizeBytes))
}

func (o *PipelineObserver) RecordRegistration(outcome string) {
	if o == nil {
		return
	}
	o.registrations.WithLabelValues(outcome).Inc()
}

func compressionReason(err error) string {
	switch {
	case errors.Is(err, e.ErrDecode):
		return "decode"
	case errors.Is(err, e.ErrSurface):
		return "surface"
	case errors.Is(err, e.ErrCompressionBudgetExceeded):
		return "budget"
	default:
		return "other"
	}
}
