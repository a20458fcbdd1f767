package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricky2013dev/pm-bdm/internal/adapters/catalog"
	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	apperrors "github.com/ricky2013dev/pm-bdm/pkg/errors"
)

type stubRepo struct {
	descriptors []entities.ProcedureDescriptor
	err         error
}

func (s stubRepo) List(ctx context.Context) ([]entities.ProcedureDescriptor, error) {
	return s.descriptors, s.err
}

func TestNew_PreservesOrderAndCopies(t *testing.T) {
	c, err := catalog.New([]entities.ProcedureDescriptor{
		{Code: " D2140 ", Description: "Amalgam", Category: "Restorative"},
		{Code: "D0120", Description: "Periodic oral evaluation", Category: "Preventive"},
	})
	require.NoError(t, err)

	procs := c.Procedures()
	require.Len(t, procs, 2)
	assert.Equal(t, "D2140", procs[0].Code)
	assert.Equal(t, "D0120", procs[1].Code)

	procs[0].Code = "mutated"
	assert.Equal(t, "D2140", c.Procedures()[0].Code)
	assert.Equal(t, 2, c.Len())
}

func TestNew_RejectsDuplicatesAndBlankCodes(t *testing.T) {
	_, err := catalog.New([]entities.ProcedureDescriptor{{Code: "D0120"}, {Code: "d0120"}})
	assert.Error(t, err)

	_, err = catalog.New([]entities.ProcedureDescriptor{{Code: "  "}})
	assert.Error(t, err)
}

func TestNew_Empty(t *testing.T) {
	c, err := catalog.New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Procedures())
}

func TestLoad_ConfigurationError(t *testing.T) {
	_, err := catalog.Load(context.Background(), stubRepo{err: errors.New("no such table")})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))

	_, err = catalog.Load(context.Background(), stubRepo{descriptors: []entities.ProcedureDescriptor{{Code: ""}}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestDecode_Layouts(t *testing.T) {
	plain, err := catalog.Decode([]byte(`[{"code":"D0120","description":"Periodic","category":"Preventive"}]`))
	require.NoError(t, err)
	assert.Equal(t, []entities.ProcedureDescriptor{{Code: "D0120", Description: "Periodic", Category: "Preventive"}}, plain)

	envelope, err := catalog.Decode([]byte(`{"success":true,"data":{"procedures":[
		{"code":"D1110","description":"Adult prophylaxis","category":"Preventive","benefit":{"percentageCovered":"100"}}
	]}}`))
	require.NoError(t, err)
	assert.Equal(t, "D1110", envelope[0].Code)

	_, err = catalog.Decode([]byte(`{"success":true}`))
	assert.Error(t, err)

	_, err = catalog.Decode([]byte(`  `))
	assert.Error(t, err)
}

func TestFileRepository_List(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "codes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"code":"D0120","description":"Periodic","category":"Preventive"},{"code":"D2140","description":"Amalgam","category":"Restorative"}]`), 0o600))

	c, err := catalog.Load(context.Background(), catalog.NewFileRepository(path))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = catalog.Load(context.Background(), catalog.NewFileRepository(filepath.Join(dir, "missing.json")))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
}

func TestFileRepository_BundledCatalog(t *testing.T) {
	c, err := catalog.Load(context.Background(), catalog.NewFileRepository(filepath.Join("..", "..", "..", "data", "dental_cdt_codes.json")))
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 20)
}
