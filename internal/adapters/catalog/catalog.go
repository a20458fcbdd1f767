package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/domain/repositories"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

// Catalog is the read-only, ordered procedure catalog. It is loaded once at
// startup and shared by all requests.
type Catalog struct {
	procedures []entities.ProcedureDescriptor
}

// New validates descriptors and builds a catalog. Codes must be non-empty
// and unique; order is preserved.
func New(descriptors []entities.ProcedureDescriptor) (*Catalog, error) {
	seen := make(map[string]struct{}, len(descriptors))
	procedures := make([]entities.ProcedureDescriptor, 0, len(descriptors))

	for i, d := range descriptors {
		d.Code = strings.TrimSpace(d.Code)
		if d.Code == "" {
			return nil, fmt.Errorf("catalog entry %d has no code", i)
		}
		key := strings.ToUpper(d.Code)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("catalog code %s is duplicated", d.Code)
		}
		seen[key] = struct{}{}
		procedures = append(procedures, d)
	}

	return &Catalog{procedures: procedures}, nil
}

// Load reads every descriptor from repo into a catalog. Failures are
// configuration errors.
func Load(ctx context.Context, repo repositories.ProcedureCatalogRepository) (*Catalog, error) {
	descriptors, err := repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to load procedure catalog", err)
	}
	c, err := New(descriptors)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid procedure catalog", err)
	}
	return c, nil
}

// Procedures returns a copy of the descriptors in catalog order
func (c *Catalog) Procedures() []entities.ProcedureDescriptor {
	if c == nil {
		return nil
	}
	out := make([]entities.ProcedureDescriptor, len(c.procedures))
	copy(out, c.procedures)
	return out
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.procedures)
}
