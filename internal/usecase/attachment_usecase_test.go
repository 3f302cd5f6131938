package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/DRSN-tech/respondr-media/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImagesInfra struct {
	meta      *domain.AttachmentMetadata
	err       error
	uploads   int
	cleanedUp []string
}

func (f *fakeImagesInfra) UploadIncidentImage(_ context.Context, _ *UploadImageReq) (*domain.AttachmentMetadata, error) {
	f.uploads++
	if f.err != nil {
		return nil, f.err
	}
	m := *f.meta
	return &m, nil
}

func (f *fakeImagesInfra) CleanupImages(keys []string) {
	f.cleanedUp = append(f.cleanedUp, keys...)
}

type fakeIncidentAPI struct {
	errs   []error
	calls  []*RegisterAttachmentReq
	onCall func()
}

func (f *fakeIncidentAPI) RegisterAttachment(_ context.Context, req *RegisterAttachmentReq) error {
	f.calls = append(f.calls, req)
	if f.onCall != nil {
		f.onCall()
	}
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakePendingRepo struct {
	rows       map[string]*domain.PendingAttachment
	createErr  error
	failed     []*FailedAttemptReq
	registered []string
	batchLimit int
}

func newFakePendingRepo() *fakePendingRepo {
	return &fakePendingRepo{rows: make(map[string]*domain.PendingAttachment)}
}

func (f *fakePendingRepo) Create(ctx context.Context, p *domain.PendingAttachment) (*domain.PendingAttachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakePendingRepo) ClaimByID(_ context.Context, id, ownerID string) (*domain.PendingAttachment, error) {
	p, ok := f.rows[id]
	if !ok || p.OwnerID != ownerID || p.Status != domain.PendingStatusPending {
		return nil, e.ErrPendingNotFound
	}
	p.Status = domain.PendingStatusProcessing
	return p, nil
}

func (f *fakePendingRepo) GetAndMarkAsProcessing(_ context.Context, limit int, _ time.Duration) ([]*domain.PendingAttachment, error) {
	f.batchLimit = limit
	var out []*domain.PendingAttachment
	for _, p := range f.rows {
		if p.Status == domain.PendingStatusPending && len(out) < limit {
			p.Status = domain.PendingStatusProcessing
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePendingRepo) MarkAsRegistered(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.registered = append(f.registered, id)
	f.rows[id].Status = domain.PendingStatusRegistered
	return nil
}

func (f *fakePendingRepo) MarkAsFailed(ctx context.Context, req *FailedAttemptReq) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.failed = append(f.failed, req)
	p := f.rows[req.ID]
	p.Status = domain.PendingStatusPending
	p.Attempts++
	p.LastError = req.LastError
	p.NextAttemptAt = req.NextAttemptAt
	return nil
}

func (f *fakePendingRepo) Delete(_ context.Context, id, ownerID string) (*domain.PendingAttachment, error) {
	p, ok := f.rows[id]
	if !ok || p.OwnerID != ownerID {
		return nil, e.ErrPendingNotFound
	}
	delete(f.rows, id)
	return p, nil
}

type fakeImageRepo struct {
	url      string
	presigns int
}

func (f *fakeImageRepo) Upload(context.Context, *domain.Image) (string, error) { return "", nil }
func (f *fakeImageRepo) Delete(context.Context, string) error                  { return nil }
func (f *fakeImageRepo) PresignedURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	f.presigns++
	return f.url, nil
}

type fakeURLCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  time.Duration
	set  chan struct{}
}

func newFakeURLCache() *fakeURLCache {
	return &fakeURLCache{data: make(map[string]string), set: make(chan struct{}, 1)}
}

func (f *fakeURLCache) Get(_ context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[path], nil
}

func (f *fakeURLCache) Set(_ context.Context, path, url string, ttl time.Duration) error {
	f.mu.Lock()
	f.data[path] = url
	f.ttl = ttl
	f.mu.Unlock()
	f.set <- struct{}{}
	return nil
}

type fakeProducer struct {
	events []*domain.AttachmentEvent
}

func (f *fakeProducer) PublishAttachmentEvent(_ context.Context, ev *domain.AttachmentEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeProducer) types() []domain.AttachmentEventType {
	out := make([]domain.AttachmentEventType, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeObserver struct {
	outcomes []string
}

func (f *fakeObserver) RecordRegistration(outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

type ucFixture struct {
	uc       *AttachmentUseCase
	images   *fakeImagesInfra
	api      *fakeIncidentAPI
	pending  *fakePendingRepo
	repo     *fakeImageRepo
	cache    *fakeURLCache
	producer *fakeProducer
	observer *fakeObserver
	now      time.Time
}

func newFixture(opts AttachmentOptions) *ucFixture {
	f := &ucFixture{
		images: &fakeImagesInfra{meta: &domain.AttachmentMetadata{
			StoragePath: "incidents/owner-1/incident-9/1718000000000_abc123.webp",
			FileName:    "pothole.jpg",
			MimeType:    "image/webp",
			SizeBytes:   2048,
			Width:       1280,
			Height:      960,
		}},
		api:      &fakeIncidentAPI{},
		pending:  newFakePendingRepo(),
		repo:     &fakeImageRepo{url: "http://minio/presigned"},
		cache:    newFakeURLCache(),
		producer: &fakeProducer{},
		observer: &fakeObserver{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.uc = NewAttachmentUC(f.images, f.api, f.pending, f.repo, f.cache, f.producer, f.observer, logger.Nop{}, opts)
	f.uc.now = func() time.Time { return f.now }
	return f
}

func uploadReq(register bool) *UploadAndRegisterReq {
	return NewUploadAndRegisterReq(
		*NewUploadImageReq("owner-1", "incident-9", domain.NewSourceFile("pothole.jpg", "image/jpeg", 10, nil)),
		"user-token",
		register,
	)
}

func TestUploadAndRegisterRegistersOnce(t *testing.T) {
	f := newFixture(AttachmentOptions{})

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	assert.True(t, res.Registered)
	assert.Empty(t, res.PendingID)
	require.Len(t, f.api.calls, 1)
	assert.Equal(t, "incident-9", f.api.calls[0].IncidentID)
	assert.Equal(t, "user-token", f.api.calls[0].Token)
	assert.Equal(t, *f.images.meta, f.api.calls[0].Metadata)
	assert.Equal(t, []domain.AttachmentEventType{domain.AttachmentUploaded, domain.AttachmentRegistered}, f.producer.types())
	assert.Empty(t, f.pending.rows)
}

func TestUploadAndRegisterSkipsRegistration(t *testing.T) {
	f := newFixture(AttachmentOptions{})

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(false))
	require.NoError(t, err)

	assert.False(t, res.Registered)
	assert.Empty(t, res.PendingID)
	assert.Empty(t, f.api.calls)
	assert.Equal(t, f.images.meta.StoragePath, res.Metadata.StoragePath)
}

func TestUploadAndRegisterKeepsPendingOnFailure(t *testing.T) {
	f := newFixture(AttachmentOptions{RetryBase: time.Second, RetryMax: time.Minute})
	f.api.errs = []error{errors.New("API request failed")}

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	assert.False(t, res.Registered)
	require.NotEmpty(t, res.PendingID)
	assert.ErrorIs(t, res.RegistrationErr, e.ErrRegistrationPending)
	assert.Equal(t, f.images.meta.StoragePath, res.Metadata.StoragePath)
	assert.Equal(t, 1, f.images.uploads)
	assert.Empty(t, f.images.cleanedUp, "upload is never rolled back")

	row := f.pending.rows[res.PendingID]
	require.NotNil(t, row)
	assert.Equal(t, "incident-9", row.IncidentID)
	assert.Equal(t, "owner-1", row.OwnerID)
	assert.Equal(t, "API request failed", row.LastError)
	assert.Equal(t, domain.PendingStatusPending, row.Status)
	assert.True(t, row.NextAttemptAt.After(f.now))
	assert.Equal(t, []string{OutcomePending}, f.observer.outcomes)
}

func TestUploadAndRegisterReturnsMetadataWhenPendingNotSaved(t *testing.T) {
	f := newFixture(AttachmentOptions{})
	f.api.errs = []error{errors.New("boom")}
	f.pending.createErr = errors.New("db down")

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	assert.False(t, res.Registered)
	assert.Empty(t, res.PendingID)
	assert.NotNil(t, res.Metadata)
	assert.ErrorIs(t, res.RegistrationErr, e.ErrRegistrationPending)
}

func TestUploadAndRegisterTracksPendingAfterClientGone(t *testing.T) {
	f := newFixture(AttachmentOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.api.onCall = cancel
	f.api.errs = []error{context.Canceled}

	res, err := f.uc.UploadAndRegister(ctx, uploadReq(true))
	require.NoError(t, err)

	require.NotEmpty(t, res.PendingID, "uploaded object must stay tracked")
	row := f.pending.rows[res.PendingID]
	require.NotNil(t, row)
	assert.Equal(t, f.images.meta.StoragePath, row.Metadata.StoragePath)
	assert.Equal(t, domain.PendingStatusPending, row.Status)
	assert.Empty(t, f.images.cleanedUp)
}

func TestUploadAndRegisterPropagatesPipelineErrors(t *testing.T) {
	f := newFixture(AttachmentOptions{})
	f.images.err = e.Wrap("pipeline", e.ErrCompressionBudgetExceeded)

	_, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.ErrorIs(t, err, e.ErrCompressionBudgetExceeded)
	assert.Empty(t, f.api.calls)
	assert.Empty(t, f.producer.events)
}

func TestRetryPendingDoesNotReupload(t *testing.T) {
	f := newFixture(AttachmentOptions{})
	f.api.errs = []error{errors.New("first failure")}

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	retried, err := f.uc.RetryPending(context.Background(), NewRetryPendingReq(res.PendingID, "owner-1", "fresh-token"))
	require.NoError(t, err)

	assert.Equal(t, 1, f.images.uploads)
	assert.Equal(t, "incident-9", retried.IncidentID)
	assert.Equal(t, res.Metadata.StoragePath, retried.Metadata.StoragePath)
	require.Len(t, f.api.calls, 2)
	assert.Equal(t, "fresh-token", f.api.calls[1].Token)
	assert.Equal(t, []string{res.PendingID}, f.pending.registered)
	assert.Equal(t, domain.PendingStatusRegistered, f.pending.rows[res.PendingID].Status)
}

func TestRetryPendingFailureReleasesRow(t *testing.T) {
	f := newFixture(AttachmentOptions{RetryBase: time.Second, RetryMax: time.Minute})
	f.api.errs = []error{errors.New("first"), errors.New("second")}

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	_, err = f.uc.RetryPending(context.Background(), NewRetryPendingReq(res.PendingID, "owner-1", "t"))
	require.ErrorIs(t, err, e.ErrRegistrationFailed)

	row := f.pending.rows[res.PendingID]
	assert.Equal(t, domain.PendingStatusPending, row.Status)
	assert.Equal(t, 2, row.Attempts)
	assert.Equal(t, "second", row.LastError)
	require.Len(t, f.pending.failed, 1)
	assert.True(t, f.pending.failed[0].NextAttemptAt.After(f.now))
}

func TestRetryPendingRecordsOutcomeAfterClientGone(t *testing.T) {
	t.Run("failed attempt releases row", func(t *testing.T) {
		f := newFixture(AttachmentOptions{RetryBase: time.Second, RetryMax: time.Minute})
		f.api.errs = []error{errors.New("first")}

		res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.api.onCall = cancel
		f.api.errs = []error{context.Canceled}

		_, err = f.uc.RetryPending(ctx, NewRetryPendingReq(res.PendingID, "owner-1", "t"))
		require.ErrorIs(t, err, e.ErrRegistrationFailed)

		require.Len(t, f.pending.failed, 1)
		assert.Equal(t, domain.PendingStatusPending, f.pending.rows[res.PendingID].Status)
	})

	t.Run("successful attempt marks row", func(t *testing.T) {
		f := newFixture(AttachmentOptions{})
		f.api.errs = []error{errors.New("first")}

		res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.api.onCall = cancel

		_, err = f.uc.RetryPending(ctx, NewRetryPendingReq(res.PendingID, "owner-1", "t"))
		require.NoError(t, err)

		assert.Equal(t, []string{res.PendingID}, f.pending.registered)
		assert.Equal(t, domain.PendingStatusRegistered, f.pending.rows[res.PendingID].Status)
	})
}

func TestRetryPendingUnknownOrForeign(t *testing.T) {
	f := newFixture(AttachmentOptions{})
	f.api.errs = []error{errors.New("x")}

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	_, err = f.uc.RetryPending(context.Background(), NewRetryPendingReq("missing", "owner-1", "t"))
	require.ErrorIs(t, err, e.ErrPendingNotFound)

	_, err = f.uc.RetryPending(context.Background(), NewRetryPendingReq(res.PendingID, "someone-else", "t"))
	require.ErrorIs(t, err, e.ErrPendingNotFound)
}

func TestDiscardPendingCleansObject(t *testing.T) {
	f := newFixture(AttachmentOptions{})
	f.api.errs = []error{errors.New("x")}

	res, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	require.NoError(t, f.uc.DiscardPending(context.Background(), NewDiscardPendingReq(res.PendingID, "owner-1")))

	assert.Equal(t, []string{res.Metadata.StoragePath}, f.images.cleanedUp)
	assert.Empty(t, f.pending.rows)
	assert.Contains(t, f.producer.types(), domain.AttachmentDiscarded)

	err = f.uc.DiscardPending(context.Background(), NewDiscardPendingReq(res.PendingID, "owner-1"))
	require.ErrorIs(t, err, e.ErrPendingNotFound)
}

func TestProcessPendingBatchUsesServiceToken(t *testing.T) {
	f := newFixture(AttachmentOptions{ServiceToken: "svc", StaleAfter: time.Minute})
	f.api.errs = []error{errors.New("a"), errors.New("b")}

	_, err := f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)
	_, err = f.uc.UploadAndRegister(context.Background(), uploadReq(true))
	require.NoError(t, err)

	n, err := f.uc.ProcessPendingBatch(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, 10, f.pending.batchLimit)
	assert.Len(t, f.pending.registered, 2)
	for _, call := range f.api.calls[2:] {
		assert.Equal(t, "svc", call.Token)
	}
}

func TestProcessPendingBatchDisabledWithoutToken(t *testing.T) {
	f := newFixture(AttachmentOptions{})

	_, err := f.uc.ProcessPendingBatch(context.Background(), 10)
	require.ErrorIs(t, err, e.ErrRegistrationDisabled)
}

func TestGetDownloadURLCaches(t *testing.T) {
	f := newFixture(AttachmentOptions{PresignExpiry: 15 * time.Minute})
	path := "incidents/owner-1/incident-9/1718000000000_abc123.webp"

	first, err := f.uc.GetDownloadURL(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://minio/presigned", first.URL)
	assert.False(t, first.Cached)

	select {
	case <-f.cache.set:
	case <-time.After(time.Second):
		t.Fatal("url was not cached")
	}
	assert.Less(t, f.cache.ttl, 15*time.Minute)

	second, err := f.uc.GetDownloadURL(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, f.repo.presigns)
}

func TestGetDownloadURLRejectsForeignPaths(t *testing.T) {
	f := newFixture(AttachmentOptions{})

	for _, p := range []string{"", "avatars/x.png", "incidents/../etc/passwd"} {
		_, err := f.uc.GetDownloadURL(context.Background(), p)
		require.ErrorIs(t, err, e.ErrInvalidStoragePath, p)
	}
	assert.Zero(t, f.repo.presigns)
}
