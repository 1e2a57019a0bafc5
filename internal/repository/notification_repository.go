package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/perpusku/library-engine/internal/domain"
	apperrors "github.com/perpusku/library-engine/pkg/errors"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, message, read, created_at) VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.UserID, n.Message, n.Read, n.CreatedAt,
	)
	return err
}

func (r *notificationRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	var notifications []*domain.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.ErrForbidden
	}

	return nil
}

func (r *notificationRepository) ExistsSince(ctx context.Context, userID uuid.UUID, message string, since time.Time) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND message = $2 AND created_at >= $3`,
		userID, message, since,
	)
	return count > 0, err
}
