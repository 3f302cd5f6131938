package http

import (
	"net/http"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	imageField          = "image"
	maxImageSize        = 40 << 20
	maxTotalRequestSize = maxImageSize + 1<<20
	maxMemory           = 8 << 20
)

// UploadImageResponse — результат загрузки изображения инцидента.
type UploadImageResponse struct {
	Attachment          *domain.AttachmentMetadata `json:"attachment"`
	Registered          bool                       `json:"registered"`
	RegistrationPending bool                       `json:"registration_pending"`
	PendingID           string                     `json:"pending_id,omitempty"`
}

type RetryPendingResponse struct {
	Attachment *domain.AttachmentMetadata `json:"attachment"`
	IncidentID string                     `json:"incident_id"`
	Registered bool                       `json:"registered"`
}

type DownloadURLResponse struct {
	URL    string `json:"url"`
	Cached bool   `json:"cached"`
}

type AttachmentHandler struct {
	attachmentUsecase usecase.AttachmentUC
	logger            logger.Logger
}

func NewAttachmentHandler(attachmentUsecase usecase.AttachmentUC, logger logger.Logger) *AttachmentHandler {
	return &AttachmentHandler{attachmentUsecase: attachmentUsecase, logger: logger}
}

// uploadIncidentImage
//
//	@Summary		Загрузка изображения инцидента
//	@Description	Сжимает изображение до 1280px и 400 KiB, сохраняет его и регистрирует вложение в API инцидентов
//	@Tags			attachments
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			incidentID	path		string	true	"Идентификатор инцидента"
//	@Param			image		formData	file	true	"Изображение"
//	@Param			register	formData	bool	false	"Регистрировать вложение (по умолчанию true)"
//	@Success		201			{object}	UploadImageResponse	"Загружено"
//	@Success		202			{object}	UploadImageResponse	"Загружено, регистрация отложена"
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		413			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Router			/incidents/{incidentID}/images [post]
func (a *AttachmentHandler) uploadIncidentImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		a.logger.Warnf("%d %s: %v", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err)
		WriteError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	register, err := parseBoolForm(r, "register", true)
	if err != nil {
		WriteError(w, err)
		return
	}

	file, err := sourceFileFromForm(r.MultipartForm, imageField, maxImageSize)
	if err != nil {
		a.logger.Warnf("%d %s: %v", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err)
		WriteError(w, err)
		return
	}

	upload := usecase.NewUploadImageReq(OwnerIDFromContext(r.Context()), chi.URLParam(r, "incidentID"), file)
	res, err := a.attachmentUsecase.UploadAndRegister(r.Context(),
		usecase.NewUploadAndRegisterReq(*upload, TokenFromContext(r.Context()), register))
	if err != nil {
		a.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	status := http.StatusCreated
	pending := register && !res.Registered
	if pending {
		status = http.StatusAccepted
		if res.RegistrationErr != nil {
			a.logger.Warnf("%s: %v", res.Metadata.StoragePath, res.RegistrationErr)
		}
	}

	WriteSuccess(w, status, &UploadImageResponse{
		Attachment:          res.Metadata,
		Registered:          res.Registered,
		RegistrationPending: pending,
		PendingID:           res.PendingID,
	})
}

// retryPending
//
//	@Summary		Повтор регистрации вложения
//	@Description	Повторно регистрирует ранее загруженное вложение без повторной загрузки файла
//	@Tags			attachments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			pendingID	path		string	true	"Идентификатор ожидающего вложения"
//	@Success		200			{object}	RetryPendingResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Router			/attachments/pending/{pendingID}/retry [post]
func (a *AttachmentHandler) retryPending(w http.ResponseWriter, r *http.Request) {
	res, err := a.attachmentUsecase.RetryPending(r.Context(), usecase.NewRetryPendingReq(
		chi.URLParam(r, "pendingID"),
		OwnerIDFromContext(r.Context()),
		TokenFromContext(r.Context()),
	))
	if err != nil {
		a.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &RetryPendingResponse{
		Attachment: res.Metadata,
		IncidentID: res.IncidentID,
		Registered: true,
	})
}

// discardPending
//
//	@Summary		Отказ от ожидающего вложения
//	@Description	Удаляет запись ожидающего вложения и сам объект из хранилища
//	@Tags			attachments
//	@Security		BearerAuth
//	@Param			pendingID	path	string	true	"Идентификатор ожидающего вложения"
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/attachments/pending/{pendingID} [delete]
func (a *AttachmentHandler) discardPending(w http.ResponseWriter, r *http.Request) {
	err := a.attachmentUsecase.DiscardPending(r.Context(), usecase.NewDiscardPendingReq(
		chi.URLParam(r, "pendingID"),
		OwnerIDFromContext(r.Context()),
	))
	if err != nil {
		a.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getDownloadURL
//
//	@Summary		Ссылка на скачивание вложения
//	@Tags			attachments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			path	query		string	true	"storage_path вложения"
//	@Success		200		{object}	DownloadURLResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/attachments/url [get]
func (a *AttachmentHandler) getDownloadURL(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, e.Wrap("path", e.ErrMissingFields))
		return
	}

	res, err := a.attachmentUsecase.GetDownloadURL(r.Context(), path)
	if err != nil {
		a.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &DownloadURLResponse{URL: res.URL, Cached: res.Cached})
}
