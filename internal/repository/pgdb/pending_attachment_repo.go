package pgdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/respondr-media/internal/domain"
	"github.com/DRSN-tech/respondr-media/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/respondr-media/internal/usecase"
	"github.com/DRSN-tech/respondr-media/pkg/e"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jimlawless/whereami"
)

const pendingColumns = `
	id, incident_id, owner_id, storage_path, file_name, mime_type, size_bytes, width, height,
	status, attempts, last_error, next_attempt_at, processing_started_at, created_at, updated_at, registered_at`

// Querier — часть *pgxpool.Pool, которой пользуется репозиторий.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PendingAttachmentRepo хранит вложения, ожидающие регистрации в API инцидентов.
type PendingAttachmentRepo struct {
	pool Querier
	conv converter.PendingAttachmentConverter
}

func NewPendingAttachmentRepo(pool Querier, conv converter.PendingAttachmentConverter) *PendingAttachmentRepo {
	return &PendingAttachmentRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *PendingAttachmentRepo) Create(ctx context.Context, pending *domain.PendingAttachment) (*domain.PendingAttachment, error) {
	model, err := p.conv.ToModel(pending)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO pending_attachments (
			id, incident_id, owner_id, storage_path, file_name, mime_type, size_bytes, width, height,
			status, attempts, last_error, next_attempt_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + pendingColumns

	row := p.pool.QueryRow(ctx, query,
		model.ID,
		model.IncidentID,
		model.OwnerID,
		model.StoragePath,
		model.FileName,
		model.MimeType,
		model.SizeBytes,
		model.Width,
		model.Height,
		model.Status,
		model.Attempts,
		model.LastError,
		model.NextAttemptAt,
		model.CreatedAt,
	)

	saved, err := scanPending(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: pending attachment for %s already exists", whereami.WhereAmI(), model.StoragePath)
		}
		return nil, fmt.Errorf("%s: failed to insert pending attachment: %w", whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(saved), nil
}

// ClaimByID захватывает ожидающую запись владельца для ручного повтора.
func (p *PendingAttachmentRepo) ClaimByID(ctx context.Context, id, ownerID string) (*domain.PendingAttachment, error) {
	pendingID, err := uuid.Parse(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
	}

	query := `
		UPDATE pending_attachments
		SET status = $1, processing_started_at = now(), updated_at = now()
		WHERE id = $2 AND owner_id = $3 AND status = $4
		RETURNING ` + pendingColumns

	model, err := scanPending(p.pool.QueryRow(ctx, query,
		domain.PendingStatusProcessing, pendingID, ownerID, domain.PendingStatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing захватывает записи, чья очередь попытки наступила, а также зависшие в processing.
func (p *PendingAttachmentRepo) GetAndMarkAsProcessing(ctx context.Context, limit int, staleAfter time.Duration) ([]*domain.PendingAttachment, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	query := `
		UPDATE pending_attachments
		SET status = $1, processing_started_at = now(), updated_at = now()
		WHERE id IN (
			SELECT id FROM pending_attachments
			WHERE (status = $2 AND next_attempt_at <= now())
			   OR (status = $1 AND processing_started_at < now() - $3::interval)
			ORDER BY next_attempt_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + pendingColumns

	rows, err := tx.Query(ctx, query,
		domain.PendingStatusProcessing, domain.PendingStatusPending, staleAfter, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending attachments: %w", whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.PendingAttachmentModel
	for rows.Next() {
		model, scanErr := scanPending(rows)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("%s: failed to scan pending attachment: %w", whereami.WhereAmI(), err)
		}
		models = append(models, model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iterator error: %w", whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

func (p *PendingAttachmentRepo) MarkAsRegistered(ctx context.Context, id string) error {
	pendingID, err := uuid.Parse(id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
	}

	query := `
		UPDATE pending_attachments
		SET status = $1, registered_at = now(), updated_at = now(), processing_started_at = NULL
		WHERE id = $2
	`

	result, err := p.pool.Exec(ctx, query, domain.PendingStatusRegistered, pendingID)
	if err != nil {
		return fmt.Errorf("%s: failed to mark %s as registered: %w", whereami.WhereAmI(), id, err)
	}

	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
	}

	return nil
}

// MarkAsFailed возвращает запись в очередь с новым временем попытки.
func (p *PendingAttachmentRepo) MarkAsFailed(ctx context.Context, req *usecase.FailedAttemptReq) error {
	pendingID, err := uuid.Parse(req.ID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
	}

	query := `
		UPDATE pending_attachments
		SET status = $1,
			attempts = attempts + 1,
			last_error = $2,
			next_attempt_at = $3,
			processing_started_at = NULL,
			updated_at = now()
		WHERE id = $4 AND status = $5
	`

	result, err := p.pool.Exec(ctx, query,
		domain.PendingStatusPending, req.LastError, req.NextAttemptAt, pendingID, domain.PendingStatusProcessing)
	if err != nil {
		return fmt.Errorf("%s: failed to release %s: %w", whereami.WhereAmI(), req.ID, err)
	}

	// Запись уже освобождена другим обработчиком или удалена
	if result.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
	}

	return nil
}

// Delete удаляет незарегистрированную запись владельца и возвращает её.
func (p *PendingAttachmentRepo) Delete(ctx context.Context, id, ownerID string) (*domain.PendingAttachment, error) {
	pendingID, err := uuid.Parse(id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
	}

	query := `
		DELETE FROM pending_attachments
		WHERE id = $1 AND owner_id = $2 AND status <> $3
		RETURNING ` + pendingColumns

	model, err := scanPending(p.pool.QueryRow(ctx, query, pendingID, ownerID, domain.PendingStatusRegistered))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrPendingNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

func scanPending(row pgx.Row) (*converter.PendingAttachmentModel, error) {
	var m converter.PendingAttachmentModel
	err := row.Scan(
		&m.ID,
		&m.IncidentID,
		&m.OwnerID,
		&m.StoragePath,
		&m.FileName,
		&m.MimeType,
		&m.SizeBytes,
		&m.Width,
		&m.Height,
		&m.Status,
		&m.Attempts,
		&m.LastError,
		&m.NextAttemptAt,
		&m.ProcessingStartedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.RegisteredAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
