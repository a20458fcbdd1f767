package repositories

import (
	"context"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
)

// ProcedureCatalogRepository loads the procedure catalog
type ProcedureCatalogRepository interface {
	// List returns every procedure descriptor in catalog order
	List(ctx context.Context) ([]entities.ProcedureDescriptor, error)
}
