package pgdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPendingID = "b3c1f0a2-0000-4000-8000-000000000001"

// execQuerier отвечает на Exec заданным тегом; остальные методы репозиторию в этих тестах не нужны.
type execQuerier struct {
	tag  pgconn.CommandTag
	err  error
	args []any
}

func (q *execQuerier) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	q.args = args
	return q.tag, q.err
}

func (q *execQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("unexpected QueryRow")
}

func (q *execQuerier) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("unexpected Begin")
}

func newTestRepo(q Querier) *PendingAttachmentRepo {
	return NewPendingAttachmentRepo(q, converter.NewPendingAttachmentConverterImpl())
}

func TestMarkAsFailed(t *testing.T) {
	next := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	req := usecase.NewFailedAttemptReq(testPendingID, "API request failed", next)

	t.Run("released", func(t *testing.T) {
		q := &execQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}

		require.NoError(t, newTestRepo(q).MarkAsFailed(context.Background(), req))
		require.Len(t, q.args, 5)
		assert.Equal(t, domain.PendingStatusPending, q.args[0])
		assert.Equal(t, "API request failed", q.args[1])
		assert.Equal(t, next, q.args[2])
		assert.Equal(t, domain.PendingStatusProcessing, q.args[4])
	})

	t.Run("row no longer processing", func(t *testing.T) {
		q := &execQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}

		err := newTestRepo(q).MarkAsFailed(context.Background(), req)
		require.ErrorIs(t, err, e.ErrPendingNotFound)
	})

	t.Run("bad id", func(t *testing.T) {
		q := &execQuerier{}

		err := newTestRepo(q).MarkAsFailed(context.Background(), usecase.NewFailedAttemptReq("nope", "x", next))
		require.ErrorIs(t, err, e.ErrPendingNotFound)
		assert.Nil(t, q.args)
	})

	t.Run("exec error", func(t *testing.T) {
		q := &execQuerier{err: errors.New("connection reset")}

		err := newTestRepo(q).MarkAsFailed(context.Background(), req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, e.ErrPendingNotFound)
	})
}

func TestMarkAsRegistered(t *testing.T) {
	q := &execQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
	require.NoError(t, newTestRepo(q).MarkAsRegistered(context.Background(), testPendingID))
	assert.Equal(t, domain.PendingStatusRegistered, q.args[0])

	q = &execQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
	require.ErrorIs(t, newTestRepo(q).MarkAsRegistered(context.Background(), testPendingID), e.ErrPendingNotFound)
}
