package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/infrastructure/compression"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Minio       *MinIOCfg
	Http        *HTTPConfig
	Db          *PGDBCfg
	Redis       *RedisCfg
	Kafka       *KafkaCfg
	IncidentAPI *IncidentAPICfg
	Auth        *AuthCfg
	Compression *CompressionCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string        // Адрес конечной точки Minio
	BucketName        string        // Название бакета для вложений инцидентов
	MinioRootUser     string        // Имя пользователя для доступа к Minio
	MinioRootPassword string        // Пароль для доступа к Minio
	MinioUseSSL       bool          // Использовать ли TLS при подключении
	UploadTimeout     time.Duration // Таймаут одной записи объекта
	PresignExpiry     time.Duration // Время жизни ссылки на скачивание
}

type HTTPConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
}

// IncidentAPICfg описывает внешний REST API инцидентов, в котором регистрируются вложения.
type IncidentAPICfg struct {
	BaseURL        string
	Timeout        time.Duration
	ServiceToken   string // без токена фоновый воркер не запускается
	RetryBatchSize int
	RetryInterval  time.Duration
	StaleAfter     time.Duration
}

type AuthCfg struct {
	JWTSecret string
}

// CompressionCfg — неизменяемые параметры конвейера сжатия.
type CompressionCfg struct {
	MaxDimension int
	MaxBytes     int64
	MimeType     string
	QualitySteps []float64
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file found, reading from environment")
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	api, err := loadIncidentAPICfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	auth, err := loadAuthCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	compression, err := loadCompressionCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:       minio,
		Http:        http,
		Db:          db,
		Redis:       redis,
		Kafka:       kafka,
		IncidentAPI: api,
		Auth:        auth,
		Compression: compression,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "incident-attachments"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL        = false
		defaultEndpoint      = "minio:9000"
		defaultBucket        = "respondr-incidents"
		defaultUploadTimeout = 30 * time.Second
		defaultPresignExpiry = 15 * time.Minute
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	uploadTimeout, err := parseDurationEnv("UPLOAD_TIMEOUT", defaultUploadTimeout)
	if err != nil {
		log.Errorf(err, "invalid UPLOAD_TIMEOUT")
		return nil, err
	}

	presignExpiry, err := parseDurationEnv("PRESIGN_EXPIRY", defaultPresignExpiry)
	if err != nil {
		log.Errorf(err, "invalid PRESIGN_EXPIRY")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		UploadTimeout:     uploadTimeout,
		PresignExpiry:     presignExpiry,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 15 * time.Second
		defaultWriteTimeout = 60 * time.Second
		defaultIdleTimeout  = 60 * time.Second
		defaultOrigins      = "*"
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:           port,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		AllowedOrigins: strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultOrigins), ","),
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     max(readTimeout, writeTimeout),
	}, nil
}

func loadIncidentAPICfg(log logger.Logger) (*IncidentAPICfg, error) {
	const (
		defaultTimeout        = 10 * time.Second
		defaultRetryBatchSize = 10
		defaultRetryInterval  = 30 * time.Second
		defaultStaleAfter     = 5 * time.Minute
	)

	baseURL := strings.TrimRight(getEnv("API_BASE_URL"), "/")
	if baseURL == "" {
		err := fmt.Errorf("API_BASE_URL is required")
		log.Errorf(err, "missing API_BASE_URL")
		return nil, err
	}

	timeout, err := parseDurationEnv("INCIDENT_API_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid INCIDENT_API_TIMEOUT")
		return nil, err
	}

	batchSize, err := parseIntEnv("REGISTRATION_RETRY_BATCH", defaultRetryBatchSize)
	if err != nil {
		log.Errorf(err, "invalid REGISTRATION_RETRY_BATCH")
		return nil, err
	}

	interval, err := parseDurationEnv("REGISTRATION_RETRY_INTERVAL", defaultRetryInterval)
	if err != nil {
		log.Errorf(err, "invalid REGISTRATION_RETRY_INTERVAL")
		return nil, err
	}

	staleAfter, err := parseDurationEnv("REGISTRATION_STALE_AFTER", defaultStaleAfter)
	if err != nil {
		log.Errorf(err, "invalid REGISTRATION_STALE_AFTER")
		return nil, err
	}

	return &IncidentAPICfg{
		BaseURL:        baseURL,
		Timeout:        timeout,
		ServiceToken:   getEnv("INCIDENT_API_SERVICE_TOKEN"),
		RetryBatchSize: batchSize,
		RetryInterval:  interval,
		StaleAfter:     staleAfter,
	}, nil
}

func loadAuthCfg() (*AuthCfg, error) {
	secret := getEnv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return &AuthCfg{JWTSecret: secret}, nil
}

func loadCompressionCfg(log logger.Logger) (*CompressionCfg, error) {
	defaults := compression.DefaultTarget()

	maxDimension, err := parseIntEnv("COMPRESSION_MAX_DIMENSION", defaults.MaxDimension())
	if err != nil {
		log.Errorf(err, "invalid COMPRESSION_MAX_DIMENSION")
		return nil, err
	}

	maxBytes, err := parseIntEnv("COMPRESSION_MAX_BYTES", int(defaults.MaxBytes()))
	if err != nil {
		log.Errorf(err, "invalid COMPRESSION_MAX_BYTES")
		return nil, err
	}

	steps := defaults.QualitySteps()
	if raw := getEnv("COMPRESSION_QUALITY_STEPS"); raw != "" {
		steps, err = ParseQualitySteps(raw)
		if err != nil {
			log.Errorf(err, "invalid COMPRESSION_QUALITY_STEPS")
			return nil, err
		}
	}

	mimeType := getEnvOrDefault("COMPRESSION_MIME_TYPE", defaults.MimeType())
	if _, err := compression.NewEncoder(mimeType); err != nil {
		return nil, e.Wrap("COMPRESSION_MIME_TYPE", err)
	}

	return &CompressionCfg{
		MaxDimension: maxDimension,
		MaxBytes:     int64(maxBytes),
		MimeType:     mimeType,
		QualitySteps: steps,
	}, nil
}

// ParseQualitySteps разбирает строку вида "0.82,0.72,0.5".
// Каждая ступень должна лежать в (0, 1], иметь не более двух знаков после запятой,
// а последовательность должна строго убывать.
func ParseQualitySteps(raw string) ([]float64, error) {
	var (
		one   = decimal.NewFromInt(1)
		parts = strings.Split(raw, ",")
		steps = make([]float64, 0, len(parts))
		prev  *decimal.Decimal
	)

	for _, part := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, e.Wrap(part, e.ErrInvalidQualitySteps)
		}

		if !d.IsPositive() || d.GreaterThan(one) {
			return nil, e.Wrap(fmt.Sprintf("%s out of range (0, 1]", part), e.ErrInvalidQualitySteps)
		}

		if d.Exponent() < -2 {
			return nil, e.Wrap(fmt.Sprintf("%s has more than 2 decimal places", part), e.ErrInvalidQualitySteps)
		}

		if prev != nil && !d.LessThan(*prev) {
			return nil, e.Wrap(fmt.Sprintf("%s is not lower than %s", part, prev.String()), e.ErrInvalidQualitySteps)
		}

		f, _ := d.Float64()
		steps = append(steps, f)
		prev = &d
	}

	return steps, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
