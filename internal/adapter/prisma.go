package adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/prisma"
	"github.com/schemalens/schemalens/internal/source"
)

// Prisma extracts schema metadata from a Prisma schema definition file.
type Prisma struct {
	path   string
	strict bool
}

// NewPrisma creates a new Prisma schema-file adapter.
func NewPrisma(cfg *config.SourceConfig) (*Prisma, error) {
	if cfg.SchemaFile == "" {
		return nil, fmt.Errorf("prisma: schema_file is required")
	}
	return &Prisma{path: cfg.SchemaFile, strict: cfg.Strict}, nil
}

// Extract reads and parses the schema file. A missing file is fatal; there
// is no catalog fallback.
func (p *Prisma) Extract(ctx context.Context) (source.Schema, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", p.path, err)
	}

	file, err := prisma.Parse(p.path, string(data), p.strict)
	if err != nil {
		return nil, err
	}
	return prisma.Resolve(file, p.path), nil
}

// Close is a no-op; the adapter holds no resources beyond Extract.
func (p *Prisma) Close(ctx context.Context) error {
	return nil
}

var _ Adapter = (*Prisma)(nil)
