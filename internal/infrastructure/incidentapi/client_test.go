package incidentapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/cfg"
	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMetadata = domain.AttachmentMetadata{
	StoragePath: "incidents/owner-1/incident 9/1718000000000_abc123.webp",
	FileName:    "pothole.jpg",
	MimeType:    "image/webp",
	SizeBytes:   2048,
	Width:       1280,
	Height:      960,
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.Client(), &cfg.IncidentAPICfg{BaseURL: srv.URL + "/", Timeout: time.Second}, logger.Nop{})
}

func TestRegisterAttachmentSendsMetadata(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotType string
		gotBody map[string]any
	)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.RegisterAttachment(context.Background(),
		usecase.NewRegisterAttachmentReq("incident 9", "token-123", testMetadata))
	require.NoError(t, err)

	assert.Equal(t, "/incidents/incident%209/attachments", gotPath)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, map[string]any{
		"storage_path": testMetadata.StoragePath,
		"file_name":    "pothole.jpg",
		"mime_type":    "image/webp",
		"size_bytes":   float64(2048),
		"width":        float64(1280),
		"height":       float64(960),
	}, gotBody)
}

func TestRegisterAttachmentErrorMessages(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"json message", http.StatusForbidden, "application/json", `{"message":"not your incident"}`, "not your incident"},
		{"json without message", http.StatusBadRequest, "application/json", `{"error":"x"}`, "API request failed"},
		{"broken json", http.StatusBadGateway, "application/json; charset=utf-8", `{oops`, "API request failed"},
		{"plain text", http.StatusInternalServerError, "text/plain", "database is down", "database is down"},
		{"empty body", http.StatusServiceUnavailable, "text/plain", "", "API request failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			err := client.RegisterAttachment(context.Background(),
				usecase.NewRegisterAttachmentReq("incident-9", "t", testMetadata))
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.want, apiErr.Message)
		})
	}
}

func TestRegisterAttachmentAcceptsJSONSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"att-1"}`))
	})

	require.NoError(t, client.RegisterAttachment(context.Background(),
		usecase.NewRegisterAttachmentReq("incident-9", "t", testMetadata)))
}

func TestRegisterAttachmentTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.Client(), &cfg.IncidentAPICfg{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, logger.Nop{})

	err := client.RegisterAttachment(context.Background(),
		usecase.NewRegisterAttachmentReq("incident-9", "t", testMetadata))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
