package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"mandat/internal/notification"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
	txcontext "mandat/pkg/platform/tx"
)

// Postgres persists notifications in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, n *notification.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, mandate_id, title, message, type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var mandateID *uuid.UUID
	if n.MandateID != nil {
		mid := uuid.UUID(*n.MandateID)
		mandateID = &mid
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(n.ID),
		uuid.UUID(n.RecipientID),
		mandateID,
		n.Title,
		n.Message,
		string(n.Type),
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, notificationID id.NotificationID) (*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, mandate_id, title, message, type, read, created_at
		FROM notifications
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(notificationID))
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	return n, nil
}

func (s *Postgres) ListByRecipient(ctx context.Context, recipientID id.UserID) ([]*notification.Notification, error) {
	query := `
		SELECT id, recipient_id, mandate_id, title, message, type, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(recipientID))
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) MarkRead(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	query := `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(notificationID), uuid.UUID(recipientID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, notificationID id.NotificationID, recipientID id.UserID) error {
	query := `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(notificationID), uuid.UUID(recipientID))
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var (
		n         notification.Notification
		rawID     uuid.UUID
		recipient uuid.UUID
		mandateID *uuid.UUID
		typ       string
	)
	if err := row.Scan(&rawID, &recipient, &mandateID, &n.Title, &n.Message, &typ, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ID = id.NotificationID(rawID)
	n.RecipientID = id.UserID(recipient)
	n.Type = notification.Type(typ)
	if mandateID != nil {
		mid := id.MandateID(*mandateID)
		n.MandateID = &mid
	}
	return &n, nil
}
