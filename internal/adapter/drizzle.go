package adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/drizzle"
	"github.com/schemalens/schemalens/internal/source"
)

// Drizzle extracts schema metadata from a Drizzle ORM schema module.
type Drizzle struct {
	path   string
	strict bool
}

// NewDrizzle creates a new Drizzle schema-file adapter.
func NewDrizzle(cfg *config.SourceConfig) (*Drizzle, error) {
	if cfg.SchemaFile == "" {
		return nil, fmt.Errorf("drizzle: schema_file is required")
	}
	return &Drizzle{path: cfg.SchemaFile, strict: cfg.Strict}, nil
}

// Extract reads and parses the schema module. A missing file is fatal.
func (d *Drizzle) Extract(ctx context.Context) (source.Schema, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", d.path, err)
	}
	return drizzle.Parse(d.path, string(data), d.strict)
}

// Close is a no-op; the adapter holds no resources beyond Extract.
func (d *Drizzle) Close(ctx context.Context) error {
	return nil
}

var _ Adapter = (*Drizzle)(nil)
