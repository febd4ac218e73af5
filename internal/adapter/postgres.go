package adapter

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/source"
)

// Postgres extracts schema metadata from a PostgreSQL database.
type Postgres struct {
	cfg    *config.SourceConfig
	pool   *pgxpool.Pool
	schema string // pg schema to extract, defaults to "public"
}

// NewPostgres creates a new PostgreSQL adapter.
func NewPostgres(cfg *config.SourceConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	s := cfg.Schema
	if s == "" {
		s = "public"
	}
	return &Postgres{cfg: cfg, schema: s}, nil
}

func (p *Postgres) connect(ctx context.Context) error {
	if p.pool != nil {
		return nil
	}

	poolCfg, err := pgxpool.ParseConfig(p.cfg.DSN)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	poolCfg.MaxConns = tableFetchConcurrency

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}

	p.pool = pool
	return nil
}

// Extract runs the catalog queries and returns the relational schema. Any
// query failure is fatal; no partial result is returned.
func (p *Postgres) Extract(ctx context.Context) (source.Schema, error) {
	if err := p.connect(ctx); err != nil {
		return nil, err
	}

	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	// Detail fetches for distinct tables have no cross-table dependency,
	// so they run concurrently. Each table's phases stay sequential.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tableFetchConcurrency)
	for i := range tables {
		t := &tables[i]
		g.Go(func() error {
			return p.fetchTableDetails(gctx, t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &source.Relational{
		Dialect:    "postgres",
		SchemaName: p.schema,
		Source:     sanitizeDSN(p.cfg.DSN),
		Tables:     tables,
	}, nil
}

// Close releases the connection pool. Safe to call at any point.
func (p *Postgres) Close(ctx context.Context) error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func (p *Postgres) fetchTableDetails(ctx context.Context, t *source.RelationalTable) error {
	var err error
	if t.Columns, err = p.fetchColumns(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching columns: %w", t.Name, err)
	}
	if t.Indexes, err = p.fetchIndexes(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching indexes: %w", t.Name, err)
	}
	if t.ForeignKeys, err = p.fetchForeignKeys(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching foreign keys: %w", t.Name, err)
	}
	return nil
}

func (p *Postgres) listTables(ctx context.Context) ([]source.RelationalTable, error) {
	query := `
		SELECT c.relname, COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND c.relkind = 'r'
		ORDER BY c.relname`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []source.RelationalTable
	for rows.Next() {
		var t source.RelationalTable
		if err := rows.Scan(&t.Name, &t.Comment); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (p *Postgres) fetchColumns(ctx context.Context, table string) ([]source.RelationalColumn, error) {
	query := `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			pg_get_expr(d.adbin, d.adrelid),
			COALESCE(col_description(a.attrelid, a.attnum), '')
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1
		  AND c.relname = $2
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum`

	rows, err := p.pool.Query(ctx, query, p.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []source.RelationalColumn
	for rows.Next() {
		var col source.RelationalColumn
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.Default, &col.Comment); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (p *Postgres) fetchIndexes(ctx context.Context, table string) ([]source.RelationalIndex, error) {
	query := `
		SELECT
			i.relname,
			ix.indisunique,
			ix.indisprimary,
			a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
		  AND t.relname = $2
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)`

	rows, err := p.pool.Query(ctx, query, p.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []source.RelationalIndex
	byName := make(map[string]int)
	for rows.Next() {
		var name, col string
		var unique, primary bool
		if err := rows.Scan(&name, &unique, &primary, &col); err != nil {
			return nil, err
		}
		i, ok := byName[name]
		if !ok {
			i = len(indexes)
			byName[name] = i
			indexes = append(indexes, source.RelationalIndex{Name: name, Unique: unique, Primary: primary})
		}
		indexes[i].Columns = append(indexes[i].Columns, col)
	}
	return indexes, rows.Err()
}

func (p *Postgres) fetchForeignKeys(ctx context.Context, table string) ([]source.ForeignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name,
			ccu.column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		  AND tc.table_schema = ccu.table_schema
		JOIN information_schema.referential_constraints rc
		  ON tc.constraint_name = rc.constraint_name
		  AND tc.table_schema = rc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []source.ForeignKey
	for rows.Next() {
		var fk source.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// tableFetchConcurrency bounds concurrent per-table detail fetches.
const tableFetchConcurrency = 4

var _ Adapter = (*Postgres)(nil)
