package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mandat/internal/investigator/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
	txcontext "mandat/pkg/platform/tx"
)

const investigatorColumns = `id, user_id, full_name, city, region, availability_status, created_at, updated_at`

// Postgres persists investigator profiles in PostgreSQL. Unavailable dates
// live in their own table keyed by investigator and calendar date.
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

func (s *Postgres) Create(ctx context.Context, inv *models.Investigator) error {
	query := `
		INSERT INTO investigators (` + investigatorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(inv.ID),
		uuid.UUID(inv.UserID),
		inv.FullName,
		inv.City,
		inv.Region,
		string(inv.Availability),
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert investigator: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, investigatorID id.InvestigatorID) (*models.Investigator, error) {
	query := `SELECT ` + investigatorColumns + ` FROM investigators WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(investigatorID))
}

func (s *Postgres) FindByUserID(ctx context.Context, userID id.UserID) (*models.Investigator, error) {
	query := `SELECT ` + investigatorColumns + ` FROM investigators WHERE user_id = $1`
	return s.findOne(ctx, query, uuid.UUID(userID))
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.Investigator, error) {
	inv, err := scanInvestigator(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find investigator: %w", err)
	}
	return inv, nil
}

func (s *Postgres) Update(ctx context.Context, inv *models.Investigator) error {
	query := `
		UPDATE investigators
		SET full_name = $2, city = $3, region = $4, availability_status = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(inv.ID),
		inv.FullName,
		inv.City,
		inv.Region,
		string(inv.Availability),
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update investigator: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) ListAvailableInRegion(ctx context.Context, region string) ([]*models.Investigator, error) {
	query := `SELECT ` + investigatorColumns + ` FROM investigators
		WHERE region = $1 AND availability_status = 'available'
		ORDER BY full_name ASC`
	rows, err := s.db.QueryContext(ctx, query, region)
	if err != nil {
		return nil, fmt.Errorf("query investigators: %w", err)
	}
	defer rows.Close()

	var out []*models.Investigator
	for rows.Next() {
		inv, err := scanInvestigator(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investigator: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Postgres) UnavailableDates(ctx context.Context, investigatorID id.InvestigatorID) ([]time.Time, error) {
	query := `SELECT day FROM investigator_unavailable_dates WHERE investigator_id = $1 ORDER BY day ASC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(investigatorID))
	if err != nil {
		return nil, fmt.Errorf("query unavailable dates: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan unavailable date: %w", err)
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

func (s *Postgres) AddUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error {
	query := `INSERT INTO investigator_unavailable_dates (investigator_id, day) VALUES ($1, $2)`
	_, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(investigatorID), day.UTC().Truncate(24*time.Hour))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return sentinel.ErrConflict
			case "foreign_key_violation":
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("insert unavailable date: %w", err)
	}
	return nil
}

func (s *Postgres) RemoveUnavailableDate(ctx context.Context, investigatorID id.InvestigatorID, day time.Time) error {
	query := `DELETE FROM investigator_unavailable_dates WHERE investigator_id = $1 AND day = $2`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(investigatorID), day.UTC().Truncate(24*time.Hour))
	if err != nil {
		return fmt.Errorf("delete unavailable date: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestigator(row rowScanner) (*models.Investigator, error) {
	var (
		inv            models.Investigator
		investigatorID uuid.UUID
		userID         uuid.UUID
		availability   string
	)
	err := row.Scan(
		&investigatorID,
		&userID,
		&inv.FullName,
		&inv.City,
		&inv.Region,
		&availability,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.ID = id.InvestigatorID(investigatorID)
	inv.UserID = id.UserID(userID)
	inv.Availability = models.AvailabilityStatus(availability)
	return &inv, nil
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
