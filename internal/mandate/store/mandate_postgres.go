package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mandat/internal/mandate/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
	txcontext "mandat/pkg/platform/tx"
)

const mandateColumns = `id, agency_id, title, type, description, city, region, postal_code,
	latitude, longitude, date_required, duration_hours, priority, budget,
	assignment_type, status, assigned_to, created_at, updated_at`

// PostgresMandates persists mandates and ratings in PostgreSQL.
type PostgresMandates struct {
	db *sql.DB
}

func NewPostgresMandates(db *sql.DB) *PostgresMandates {
	return &PostgresMandates{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresMandates) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresMandates) Create(ctx context.Context, m *models.Mandate) error {
	query := `
		INSERT INTO mandates (` + mandateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(m.ID),
		uuid.UUID(m.AgencyID),
		m.Title,
		m.Type,
		m.Description,
		m.Location.City,
		m.Location.Region,
		m.Location.PostalCode,
		m.Location.Latitude,
		m.Location.Longitude,
		m.DateRequired,
		m.DurationHours,
		string(m.Priority),
		m.Budget,
		string(m.AssignmentType),
		string(m.Status),
		investigatorParam(m.AssignedTo),
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert mandate: %w", err)
	}
	return nil
}

func (s *PostgresMandates) FindByID(ctx context.Context, mandateID id.MandateID) (*models.Mandate, error) {
	query := `SELECT ` + mandateColumns + ` FROM mandates WHERE id = $1`
	m, err := scanMandate(s.db.QueryRowContext(ctx, query, uuid.UUID(mandateID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find mandate: %w", err)
	}
	return m, nil
}

func (s *PostgresMandates) Update(ctx context.Context, m *models.Mandate) error {
	query := `
		UPDATE mandates
		SET title = $2, type = $3, description = $4, city = $5, region = $6,
			postal_code = $7, latitude = $8, longitude = $9, date_required = $10,
			duration_hours = $11, priority = $12, budget = $13, status = $14,
			assigned_to = $15, updated_at = $16
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(m.ID),
		m.Title,
		m.Type,
		m.Description,
		m.Location.City,
		m.Location.Region,
		m.Location.PostalCode,
		m.Location.Latitude,
		m.Location.Longitude,
		m.DateRequired,
		m.DurationHours,
		string(m.Priority),
		m.Budget,
		string(m.Status),
		investigatorParam(m.AssignedTo),
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update mandate: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresMandates) ListByAgency(ctx context.Context, agencyID id.AgencyID) ([]*models.Mandate, error) {
	query := `SELECT ` + mandateColumns + ` FROM mandates WHERE agency_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, uuid.UUID(agencyID))
}

func (s *PostgresMandates) ListOpenPublic(ctx context.Context) ([]*models.Mandate, error) {
	query := `SELECT ` + mandateColumns + ` FROM mandates
		WHERE status = 'open' AND assignment_type = 'public'
		ORDER BY created_at DESC`
	return s.list(ctx, query)
}

// AssignIfUnassigned is the conditional update that closes the
// double-assignment race: the WHERE clause only matches an open unassigned
// mandate or an in-progress one already held by this investigator, so of
// two concurrent accepts exactly one row update wins. The status guard on
// the same-holder arm keeps a terminal mandate from being flipped back to
// in-progress.
func (s *PostgresMandates) AssignIfUnassigned(ctx context.Context, mandateID id.MandateID, investigatorID id.InvestigatorID, now time.Time) (bool, error) {
	query := `
		UPDATE mandates
		SET assigned_to = $2, status = 'in-progress', updated_at = $3
		WHERE id = $1
		  AND ((assigned_to IS NULL AND status = 'open')
		    OR (assigned_to = $2 AND status = 'in-progress'))
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(mandateID), uuid.UUID(investigatorID), now)
	if err != nil {
		return false, fmt.Errorf("assign mandate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresMandates) ClearAssignment(ctx context.Context, mandateID id.MandateID, now time.Time) (id.InvestigatorID, error) {
	// The self-join captures the pre-update assigned_to, which RETURNING
	// alone cannot see.
	query := `
		UPDATE mandates m
		SET assigned_to = NULL, status = 'open', updated_at = $2
		FROM (
			SELECT id, assigned_to FROM mandates
			WHERE id = $1 AND assigned_to IS NOT NULL
			FOR UPDATE
		) prev
		WHERE m.id = prev.id
		RETURNING prev.assigned_to
	`
	var previous uuid.UUID
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(mandateID), now).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.InvestigatorID{}, s.classifyClearMiss(ctx, mandateID)
		}
		return id.InvestigatorID{}, fmt.Errorf("clear assignment: %w", err)
	}
	return id.InvestigatorID(previous), nil
}

// classifyClearMiss tells a missing mandate apart from an unassigned one
// after ClearAssignment matched no row.
func (s *PostgresMandates) classifyClearMiss(ctx context.Context, mandateID id.MandateID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM mandates WHERE id = $1)`, uuid.UUID(mandateID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check mandate exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresMandates) CountInProgressByInvestigator(ctx context.Context, investigatorID id.InvestigatorID) (int, error) {
	query := `SELECT COUNT(*) FROM mandates WHERE assigned_to = $1 AND status = 'in-progress'`
	var count int
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(investigatorID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count in-progress mandates: %w", err)
	}
	return count, nil
}

func (s *PostgresMandates) CreateRating(ctx context.Context, r *models.Rating) error {
	query := `INSERT INTO mandate_ratings (mandate_id, score, comment, created_at) VALUES ($1, $2, $3, $4)`
	_, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(r.MandateID), r.Score, r.Comment, r.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (s *PostgresMandates) FindRating(ctx context.Context, mandateID id.MandateID) (*models.Rating, error) {
	query := `SELECT mandate_id, score, comment, created_at FROM mandate_ratings WHERE mandate_id = $1`
	var (
		r   models.Rating
		mid uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(mandateID)).Scan(&mid, &r.Score, &r.Comment, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find rating: %w", err)
	}
	r.MandateID = id.MandateID(mid)
	return &r, nil
}

func (s *PostgresMandates) list(ctx context.Context, query string, args ...any) ([]*models.Mandate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mandates: %w", err)
	}
	defer rows.Close()

	var out []*models.Mandate
	for rows.Next() {
		m, err := scanMandate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mandate: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMandate(row rowScanner) (*models.Mandate, error) {
	var (
		m              models.Mandate
		mandateID      uuid.UUID
		agencyID       uuid.UUID
		priority       string
		assignmentType string
		status         string
		assignedTo     *uuid.UUID
	)
	err := row.Scan(
		&mandateID,
		&agencyID,
		&m.Title,
		&m.Type,
		&m.Description,
		&m.Location.City,
		&m.Location.Region,
		&m.Location.PostalCode,
		&m.Location.Latitude,
		&m.Location.Longitude,
		&m.DateRequired,
		&m.DurationHours,
		&priority,
		&m.Budget,
		&assignmentType,
		&status,
		&assignedTo,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ID = id.MandateID(mandateID)
	m.AgencyID = id.AgencyID(agencyID)
	m.Priority = models.Priority(priority)
	m.AssignmentType = models.AssignmentType(assignmentType)
	m.Status = models.Status(status)
	if assignedTo != nil {
		inv := id.InvestigatorID(*assignedTo)
		m.AssignedTo = &inv
	}
	return &m, nil
}

func investigatorParam(investigatorID *id.InvestigatorID) *uuid.UUID {
	if investigatorID == nil {
		return nil
	}
	raw := uuid.UUID(*investigatorID)
	return &raw
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
