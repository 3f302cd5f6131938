package incidentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/cfg"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/jimlawless/whereami"
)

const (
	defaultErrorMessage = "API request failed"
	maxResponseBody     = 1 << 20
)

// APIError — ответ API инцидентов со статусом вне 2xx.
type APIError struct {
	StatusCode int
	Message    string
}

func (a *APIError) Error() string {
	return a.Message
}

// Client — HTTP-клиент внешнего REST API инцидентов.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(httpClient *http.Client, cfg *cfg.IncidentAPICfg, logger logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// RegisterAttachment публикует метаданные вложения: POST /incidents/{id}/attachments.
func (c *Client) RegisterAttachment(ctx context.Context, req *usecase.RegisterAttachmentReq) error {
	const op = "Client.RegisterAttachment"

	endpoint := fmt.Sprintf("/incidents/%s/attachments", url.PathEscape(req.IncidentID))
	if _, err := c.do(ctx, http.MethodPost, endpoint, req.Token, req.Metadata); err != nil {
		return e.Wrap(op, err)
	}

	c.logger.Debugf("%s: %s registered for incident %s", op, req.Metadata.StoragePath, req.IncidentID)
	return nil
}

// do выполняет JSON-запрос. Ответы 204/205 не разбираются; тело ошибки превращается в сообщение.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body any) (map[string]any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	return data, nil
}

// readBody разбирает тело как JSON-объект, если это заявлено, иначе оборачивает текст в {"message": text}.
func readBody(resp *http.Response) (map[string]any, error) {
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusResetContent {
		return nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, nil
		}
		return data, nil
	}

	if text := string(raw); text != "" {
		return map[string]any{"message": text}, nil
	}

	return nil, nil
}

func errorMessage(data map[string]any) string {
	if msg, ok := data["message"].(string); ok && msg != "" {
		return msg
	}

	return defaultErrorMessage
}
