package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ricky2013dev/pm-bdm/internal/domain/entities"
	"github.com/ricky2013dev/pm-bdm/internal/domain/repositories"
)

// FileRepository reads the catalog from a JSON file. The file holds either a
// plain array of descriptors or the envelope
// {"success": true, "data": {"procedures": [...]}}.
type FileRepository struct {
	path string
}

// NewFileRepository creates a file-backed catalog repository
func NewFileRepository(path string) repositories.ProcedureCatalogRepository {
	return &FileRepository{path: path}
}

// List implements repositories.ProcedureCatalogRepository
func (r *FileRepository) List(ctx context.Context) ([]entities.ProcedureDescriptor, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", r.path, err)
	}
	descriptors, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", r.path, err)
	}
	return descriptors, nil
}

// Decode parses catalog JSON in either supported layout
func Decode(data []byte) ([]entities.ProcedureDescriptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	var descriptors []entities.ProcedureDescriptor
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &descriptors); err != nil {
			return nil, err
		}
		return descriptors, nil
	}

	var envelope struct {
		Data struct {
			Procedures []entities.ProcedureDescriptor `json:"procedures"`
		} `json:"data"`
		Procedures []entities.ProcedureDescriptor `json:"procedures"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.Procedures != nil {
		return envelope.Data.Procedures, nil
	}
	if envelope.Procedures != nil {
		return envelope.Procedures, nil
	}
	return nil, fmt.Errorf("catalog has no procedures array")
}
