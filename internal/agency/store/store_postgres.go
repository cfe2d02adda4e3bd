package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mandat/internal/agency/models"
	id "mandat/pkg/domain"
	"mandat/pkg/platform/sentinel"
	txcontext "mandat/pkg/platform/tx"
)

const agencyColumns = `id, owner_user_id, name, license_number, license_status, city, region, api_secret_hash, created_at, updated_at`

// Postgres persists agencies in PostgreSQL.
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

func (s *Postgres) Create(ctx context.Context, a *models.Agency) error {
	query := `
		INSERT INTO agencies (` + agencyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.OwnerUserID),
		a.Name,
		a.LicenseNumber,
		string(a.LicenseStatus),
		a.City,
		a.Region,
		a.APISecretHash,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert agency: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE id = $1`
	return s.findOne(ctx, query, uuid.UUID(agencyID))
}

func (s *Postgres) FindByOwner(ctx context.Context, ownerUserID id.UserID) (*models.Agency, error) {
	query := `SELECT ` + agencyColumns + ` FROM agencies WHERE owner_user_id = $1`
	return s.findOne(ctx, query, uuid.UUID(ownerUserID))
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.Agency, error) {
	a, err := scanAgency(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find agency: %w", err)
	}
	return a, nil
}

func (s *Postgres) Update(ctx context.Context, a *models.Agency) error {
	query := `
		UPDATE agencies
		SET name = $2, license_number = $3, license_status = $4, city = $5, region = $6,
		    api_secret_hash = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		a.Name,
		a.LicenseNumber,
		string(a.LicenseStatus),
		a.City,
		a.Region,
		a.APISecretHash,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update agency: %w", err)
	}
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

func scanAgency(row rowScanner) (*models.Agency, error) {
	var (
		a             models.Agency
		agencyID      uuid.UUID
		ownerUserID   uuid.UUID
		licenseStatus string
	)
	err := row.Scan(
		&agencyID,
		&ownerUserID,
		&a.Name,
		&a.LicenseNumber,
		&licenseStatus,
		&a.City,
		&a.Region,
		&a.APISecretHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ID = id.AgencyID(agencyID)
	a.OwnerUserID = id.UserID(ownerUserID)
	a.LicenseStatus = models.LicenseStatus(licenseStatus)
	return &a, nil
}
