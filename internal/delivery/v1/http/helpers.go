package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/jimlawless/whereami"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrNoImage):
		return http.StatusBadRequest, e.ErrNoImage.Error()
	case errors.Is(err, e.ErrMissingUploadContext):
		return http.StatusBadRequest, e.ErrMissingUploadContext.Error()
	case errors.Is(err, e.ErrInvalidStoragePath):
		return http.StatusBadRequest, e.ErrInvalidStoragePath.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrPendingNotFound):
		return http.StatusNotFound, e.ErrPendingNotFound.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrCompressionBudgetExceeded):
		return http.StatusRequestEntityTooLarge, e.ErrCompressionBudgetExceeded.Error()
	case errors.Is(err, e.ErrDecode):
		return http.StatusUnprocessableEntity, e.ErrDecode.Error()
	case errors.Is(err, e.ErrUploadTransport):
		return http.StatusBadGateway, e.ErrUploadTransport.Error()
	case errors.Is(err, e.ErrRegistrationFailed):
		return http.StatusBadGateway, e.ErrRegistrationFailed.Error()
	case errors.Is(err, e.ErrSurface):
		return http.StatusInternalServerError, e.ErrSurface.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrStatusBadRequest, err))
	}

	return nil
}

// sourceFileFromForm превращает единственный файл формы в SourceFile.
// Дескриптор открывается лениво и закрывается потребителем.
func sourceFileFromForm(form *multipart.Form, field string, maxSize int64) (*domain.SourceFile, error) {
	files := form.File[field]
	if len(files) == 0 {
		return nil, e.ErrNoImage
	}

	fh := files[0]
	if fh.Size > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	return domain.NewSourceFile(fh.Filename, fh.Header.Get("Content-Type"), fh.Size, func() (io.ReadCloser, error) {
		return fh.Open()
	}), nil
}

// parseBoolForm читает необязательный булев флаг формы.
func parseBoolForm(r *http.Request, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, e.Wrap(key+"="+raw, e.ErrStatusBadRequest)
	}

	return v, nil
}
