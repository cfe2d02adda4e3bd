package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mandat/internal/mandate/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
	txcontext "mandat/pkg/platform/tx"
)

// PostgresCandidatures persists candidatures in PostgreSQL. The
// (mandate_id, investigator_id) unique constraint backs the
// one-candidature-per-pair rule.
type PostgresCandidatures struct {
	db *sql.DB
}

func NewPostgresCandidatures(db *sql.DB) *PostgresCandidatures {
	return &PostgresCandidatures{db: db}
}

func (s *PostgresCandidatures) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresCandidatures) Create(ctx context.Context, c *models.Candidature) error {
	query := `
		INSERT INTO candidatures (id, mandate_id, investigator_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.MandateID),
		uuid.UUID(c.InvestigatorID),
		string(c.Status),
		c.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert candidature: %w", err)
	}
	return nil
}

func (s *PostgresCandidatures) FindByID(ctx context.Context, candidatureID id.CandidatureID) (*models.Candidature, error) {
	query := `
		SELECT id, mandate_id, investigator_id, status, created_at
		FROM candidatures
		WHERE id = $1
	`
	c, err := scanCandidature(s.db.QueryRowContext(ctx, query, uuid.UUID(candidatureID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find candidature: %w", err)
	}
	return c, nil
}

func (s *PostgresCandidatures) ListByMandate(ctx context.Context, mandateID id.MandateID) ([]*models.Candidature, error) {
	query := `
		SELECT id, mandate_id, investigator_id, status, created_at
		FROM candidatures
		WHERE mandate_id = $1
		ORDER BY created_at ASC
	`
	return s.list(ctx, query, uuid.UUID(mandateID))
}

func (s *PostgresCandidatures) ListByInvestigator(ctx context.Context, investigatorID id.InvestigatorID) ([]*models.Candidature, error) {
	query := `
		SELECT id, mandate_id, investigator_id, status, created_at
		FROM candidatures
		WHERE investigator_id = $1
		ORDER BY created_at ASC
	`
	return s.list(ctx, query, uuid.UUID(investigatorID))
}

func (s *PostgresCandidatures) Update(ctx context.Context, c *models.Candidature) error {
	query := `UPDATE candidatures SET status = $2 WHERE id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(c.ID), string(c.Status))
	if err != nil {
		return fmt.Errorf("update candidature: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresCandidatures) list(ctx context.Context, query string, args ...any) ([]*models.Candidature, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidatures: %w", err)
	}
	defer rows.Close()

	var out []*models.Candidature
	for rows.Next() {
		c, err := scanCandidature(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidature: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCandidature(row rowScanner) (*models.Candidature, error) {
	var (
		c              models.Candidature
		candidatureID  uuid.UUID
		mandateID      uuid.UUID
		investigatorID uuid.UUID
		status         string
	)
	if err := row.Scan(&candidatureID, &mandateID, &investigatorID, &status, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ID = id.CandidatureID(candidatureID)
	c.MandateID = id.MandateID(mandateID)
	c.InvestigatorID = id.InvestigatorID(investigatorID)
	c.Status = models.CandidatureStatus(status)
	return &c, nil
}
