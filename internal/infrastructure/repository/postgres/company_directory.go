package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

type CompanyDirectory struct {
	db *sql.DB
}

func NewCompanyDirectory(db *sql.DB) *CompanyDirectory {
	return &CompanyDirectory{db: db}
}

func (d *CompanyDirectory) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := d.db.QueryContext(ctx, `
SELECT id, canonical_name, aliases, ticker
FROM companies
ORDER BY canonical_name
`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func (d *CompanyDirectory) GetCompany(ctx context.Context, companyID string) (*domain.Company, error) {
	row := d.db.QueryRowContext(ctx, `
SELECT id, canonical_name, aliases, ticker
FROM companies
WHERE id = $1
`, companyID)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCompanyNotFound, "get company", err)
		}
		return nil, err
	}
	return company, nil
}

// AppendAlias adds a surface form to a company's alias set. Aliases are
// append-only; re-appending an existing alias is a no-op.
func (d *CompanyDirectory) AppendAlias(ctx context.Context, companyID, alias string) error {
	res, err := d.db.ExecContext(ctx, `
UPDATE companies
SET aliases = aliases || to_jsonb($2::text), updated_at = $3
WHERE id = $1 AND NOT aliases @> to_jsonb($2::text)
`, companyID, alias, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "append alias", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "append alias", err)
	}
	if rows == 0 {
		// Either the alias is already present or the company is missing.
		if _, err := d.GetCompany(ctx, companyID); err != nil {
			return err
		}
	}
	return nil
}

// SeedCompany inserts a company unless its canonical name already exists.
// Company IDs are never reassigned, so repeated seeding is harmless.
func (d *CompanyDirectory) SeedCompany(ctx context.Context, company domain.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	if company.Aliases == nil {
		// jsonb null would break alias concatenation later.
		company.Aliases = []string{}
	}
	aliasesJSON, err := json.Marshal(company.Aliases)
	if err != nil {
		return fmt.Errorf("marshal aliases: %w", err)
	}
	now := time.Now().UTC()
	_, err = d.db.ExecContext(ctx, `
INSERT INTO companies (id, canonical_name, aliases, ticker, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (canonical_name) DO NOTHING
`, company.ID, company.CanonicalName, aliasesJSON, company.Ticker, now, now)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "seed company", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*domain.Company, error) {
	var company domain.Company
	var aliasesRaw []byte
	if err := row.Scan(&company.ID, &company.CanonicalName, &aliasesRaw, &company.Ticker); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(aliasesRaw, &company.Aliases); err != nil {
		return nil, fmt.Errorf("unmarshal aliases: %w", err)
	}
	return &company, nil
}
