package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/respondr-media/internal/cfg"
	v1Http "github.com/DRSN-tech/respondr-media/internal/delivery/v1/http"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure/compression"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure/incidentapi"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure/kafka"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure/metrics"
	minioInfra "github.com/DRSN-tech/respondr-media/internal/infrastructure/minio"
	"github.com/DRSN-tech/respondr-media/internal/infrastructure/worker"
	s3Repo "github.com/DRSN-tech/respondr-media/internal/repository/minio"
	"github.com/DRSN-tech/respondr-media/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/respondr-media/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/respondr-media/internal/repository/redis"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/clients"
	"github.com/DRSN-tech/respondr-media/pkg/closer"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/DRSN-tech/respondr-media/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	migrationsSource    = "file://db/migrations"
	startupTimeout      = 10 * time.Second
	shutdownTimeout     = 15 * time.Second
	forcedCloseTimeout  = 3 * time.Second
	kafkaTopicTimeout   = 10 * time.Second
	maxRegistrationWait = time.Hour
	redisReadyAttempts  = 5
)

// App — собранный медиасервис: HTTP API, фоновый воркер регистрации и все клиенты хранилищ.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	server   *v1Http.Server
	worker   *worker.RegistrationWorker
	pipeline *minioInfra.UploadPipeline

	// ctx живёт до завершения приложения; его отмена прерывает фоновые очистки.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp поднимает зависимости в порядке: postgres → minio → redis → kafka → сервисы.
// Каждый открытый ресурс сразу регистрируется в closer, поэтому частичная инициализация тоже закрывается.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(forcedCloseTimeout, log),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.init(); err != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if closeErr := a.closer.Close(shutdownCtx); closeErr != nil {
			log.Errorf(closeErr, "failed to release partially initialized resources")
		}
		cancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	startCtx, cancel := context.WithTimeout(a.ctx, startupTimeout)
	defer cancel()

	db, err := initPGDB(startCtx, a.logger, a.cfg.Db)
	if err != nil {
		return err
	}
	a.closer.Add("postgres", db.Close)

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		return e.Wrap("failed to initialize minio client", err)
	}
	if err := clients.EnsureBucket(startCtx, minioClient, a.cfg.Minio.BucketName); err != nil {
		return e.Wrap("failed to initialize minio bucket", err)
	}

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	a.closer.Add("redis", redisClient.Close)
	if err := redisClient.WaitReady(startCtx, redisReadyAttempts); err != nil {
		return e.Wrap("failed to connect to redis", err)
	}

	producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
	a.closer.Add("kafka producer", producer.Close)
	if err := producer.EnsureTopic(kafkaTopicTimeout); err != nil {
		a.logger.Warnf("kafka topic %s is not ready: %v", a.cfg.Kafka.Topic, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.NewPipelineObserver("", registry)
	if err != nil {
		return e.Wrap("failed to register metrics", err)
	}

	compressor, err := newCompressor(a.cfg.Compression, observer, a.logger)
	if err != nil {
		return err
	}

	imageRepo := s3Repo.NewImageRepo(minioClient, a.cfg.Minio.BucketName)
	a.pipeline = minioInfra.NewUploadPipeline(
		compressor,
		infrastructure.NewKeyGenerator(),
		imageRepo,
		a.cfg.Minio.BucketName,
		a.cfg.Minio.UploadTimeout,
		observer,
		a.logger,
		a.ctx,
	)
	a.closer.Add("minio cleanup", a.pipeline.WaitForCleanup)

	pendingRepo := pgdb.NewPendingAttachmentRepo(db.Pool, pgdbConv.NewPendingAttachmentConverterImpl())
	urlCache := redis.NewURLCacheRepo(redisClient, a.logger)
	incidentClient := incidentapi.NewClient(&http.Client{}, a.cfg.IncidentAPI, a.logger)

	attachmentUC := usecase.NewAttachmentUC(
		a.pipeline,
		incidentClient,
		pendingRepo,
		imageRepo,
		urlCache,
		producer,
		observer,
		a.logger,
		usecase.AttachmentOptions{
			PresignExpiry: a.cfg.Minio.PresignExpiry,
			ServiceToken:  a.cfg.IncidentAPI.ServiceToken,
			StaleAfter:    a.cfg.IncidentAPI.StaleAfter,
			RetryBase:     a.cfg.IncidentAPI.RetryInterval,
			RetryMax:      maxRegistrationWait,
		},
	)

	a.worker = worker.NewRegistrationWorker(
		attachmentUC,
		a.logger,
		a.cfg.IncidentAPI.RetryBatchSize,
		a.cfg.IncidentAPI.RetryInterval,
	)

	r := chi.NewRouter()
	v1Http.NewRouter(r, a.logger).Init(v1Http.RouterDeps{
		AttachmentUC:   attachmentUC,
		JWTSecret:      a.cfg.Auth.JWTSecret,
		AllowedOrigins: a.cfg.Http.AllowedOrigins,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})
	a.server = v1Http.NewServer(r, a.cfg.Http)

	return nil
}

// Run запускает HTTP-сервер и воркер и блокируется до сигнала или фатальной ошибки сервера.
func (a *App) Run() error {
	if a.cfg.IncidentAPI.ServiceToken != "" {
		a.worker.Start(a.ctx)
		a.closer.Add("registration worker", a.worker.Stop)
	} else {
		a.logger.Warnf("INCIDENT_API_SERVICE_TOKEN is empty, background registration retries are disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on %s", a.server.Addr())
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.closer.Add("http server", a.server.Stop)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case sig := <-shutdown:
		a.logger.Infof("Received %s, stopping gracefully...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Errorf(err, "shutdown finished with errors")
		appErr = errors.Join(appErr, err)
	}
	a.cancel()

	a.logger.Infof("Application shutdown complete")
	return appErr
}

func newCompressor(cfg *config.CompressionCfg, observer compression.Observer, log logger.Logger) (*compression.Compressor, error) {
	target, err := compression.NewTarget(cfg.MaxDimension, cfg.MaxBytes, cfg.MimeType, cfg.QualitySteps)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	encoder, err := compression.NewEncoder(cfg.MimeType)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	compressor, err := compression.NewCompressor(
		target,
		compression.NewDecoder(),
		compression.NewRenderer(),
		encoder,
		observer,
		log,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return compressor, nil
}

func initPGDB(ctx context.Context, log logger.Logger, cfg *config.PGDBCfg) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg)
	if err != nil {
		log.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(migrationsSource, log); err != nil {
		log.Errorf(err, "failed to run migrations")
		db.Close(ctx)
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
