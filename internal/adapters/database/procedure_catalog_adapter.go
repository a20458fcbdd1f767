package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/domain/repositories"
	"github.com/ricky2013dev/pm-bdm/internal/infrastructure/clients/postgres"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

const procedureCatalogTable = "dental_procedures"

// ProcedureCatalogAdapter implements ProcedureCatalogRepository on PostgreSQL
type ProcedureCatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProcedureCatalogAdapter creates a new procedure catalog adapter
func NewProcedureCatalogAdapter(client *postgres.Client) repositories.ProcedureCatalogRepository {
	return &ProcedureCatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// List returns active procedures ordered by sort_order, then code
func (a *ProcedureCatalogAdapter) List(ctx context.Context) ([]entities.ProcedureDescriptor, error) {
	query, args, err := a.db.Select("code", "description", "category").
		From(procedureCatalogTable).
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("sort_order").Asc(), goqu.I("code").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build catalog query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list procedure catalog", err)
	}
	defer rows.Close()

	descriptors := []entities.ProcedureDescriptor{}
	for rows.Next() {
		var d entities.ProcedureDescriptor
		var description, category sql.NullString
		if err := rows.Scan(&d.Code, &description, &category); err != nil {
			return nil, apperrors.NewInternalError("failed to scan procedure", err)
		}
		d.Description = description.String
		d.Category = category.String
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate procedure catalog", err)
	}

	return descriptors, nil
}
