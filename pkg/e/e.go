package e

import (
	"errors"
	"fmt"
)

var (
	// Ошибки конвейера сжатия и загрузки изображений
	ErrDecode                    = errors.New("image cannot be decoded; choose a different file")
	ErrSurface                   = errors.New("unable to allocate image surface")
	ErrCompressionBudgetExceeded = errors.New("compressed image is too large; choose a smaller image")
	ErrMissingUploadContext      = errors.New("missing upload context")
	ErrUploadTransport           = errors.New("object storage upload failed")

	// Регистрация вложения во внешнем API
	ErrRegistrationPending    = errors.New("attachment uploaded, registration pending")
	ErrRegistrationFailed     = errors.New("attachment registration failed")
	ErrPendingNotFound        = errors.New("pending attachment not found")
	ErrInvalidStoragePath     = errors.New("invalid storage path")
	ErrRegistrationDisabled   = errors.New("registration is not configured")
	ErrUnsupportedMediaType   = errors.New("unsupported media type")
	ErrIncorrectEnvVariable   = errors.New("incorrect environment variable")
	ErrInvalidQualitySteps    = errors.New("invalid quality steps")
	ErrInvalidCompressionConf = errors.New("invalid compression target")

	// 400 / 401
	ErrStatusBadRequest    = errors.New("bad request")
	ErrExpectedMultipart   = errors.New("expected multipart/form-data")
	ErrMissingFields       = errors.New("missing required fields")
	ErrNoImage             = errors.New("no image provided")
	ErrFileTooLarge        = errors.New("file is too large")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInternalServerError = errors.New("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
