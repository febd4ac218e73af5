// Package adapter implements source-specific schema extraction. One adapter
// exists per source kind; each produces its family's schema struct from
// package source, which the normalizer converts into the unified model.
package adapter

import (
	"context"
	"regexp"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/source"
)

// Adapter extracts structural metadata from one source.
//
// Extract acquires any connection it needs and fails without partial
// results. Close releases held resources; it is idempotent and safe to call
// even if Extract was never called or already failed.
type Adapter interface {
	Extract(ctx context.Context) (source.Schema, error)
	Close(ctx context.Context) error
}

// New creates an Adapter for the given source configuration.
func New(cfg *config.SourceConfig) (Adapter, error) {
	switch cfg.Type {
	case "postgres", "postgresql":
		return NewPostgres(cfg)
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite":
		return NewSQLite(cfg)
	case "mongodb":
		return NewMongo(cfg)
	case "firestore":
		return NewFirestore(cfg)
	case "prisma":
		return NewPrisma(cfg)
	case "drizzle":
		return NewDrizzle(cfg)
	default:
		return nil, &UnsupportedSourceError{SourceType: cfg.Type}
	}
}

// UnsupportedSourceError is returned when the source type is not supported.
type UnsupportedSourceError struct {
	SourceType string
}

func (e *UnsupportedSourceError) Error() string {
	return "unsupported source type: " + e.SourceType
}

var dsnPassword = regexp.MustCompile(`([^:/@]+):([^@/]+)@`)

// sanitizeDSN redacts the password portion of a connection string so the
// DSN can be recorded as provenance in the output.
func sanitizeDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, "$1:***@")
}
