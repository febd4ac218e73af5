package adapter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/source"
)

// MySQL extracts schema metadata from a MySQL or MariaDB database.
type MySQL struct {
	cfg    *config.SourceConfig
	db     *sql.DB
	schema string
}

// NewMySQL creates a new MySQL adapter.
func NewMySQL(cfg *config.SourceConfig) (*MySQL, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql: dsn is required")
	}
	return &MySQL{cfg: cfg, schema: cfg.Schema}, nil
}

func (m *MySQL) connect(ctx context.Context) error {
	if m.db != nil {
		return nil
	}

	db, err := sql.Open("mysql", m.cfg.DSN)
	if err != nil {
		return fmt.Errorf("opening MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(tableFetchConcurrency)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging MySQL: %w", err)
	}

	if m.schema == "" {
		if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&m.schema); err != nil {
			db.Close()
			return fmt.Errorf("resolving current database: %w", err)
		}
	}

	m.db = db
	return nil
}

// Extract runs the information_schema queries and returns the relational
// schema. Any query failure is fatal; no partial result is returned.
func (m *MySQL) Extract(ctx context.Context) (source.Schema, error) {
	if err := m.connect(ctx); err != nil {
		return nil, err
	}

	tables, err := m.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tableFetchConcurrency)
	for i := range tables {
		t := &tables[i]
		g.Go(func() error {
			return m.fetchTableDetails(gctx, t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &source.Relational{
		Dialect:    "mysql",
		SchemaName: m.schema,
		Source:     sanitizeDSN(m.cfg.DSN),
		Tables:     tables,
	}, nil
}

// Close releases the database handle. Safe to call at any point.
func (m *MySQL) Close(ctx context.Context) error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

func (m *MySQL) fetchTableDetails(ctx context.Context, t *source.RelationalTable) error {
	var err error
	if t.Columns, err = m.fetchColumns(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching columns: %w", t.Name, err)
	}
	if t.Indexes, err = m.fetchIndexes(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching indexes: %w", t.Name, err)
	}
	if t.ForeignKeys, err = m.fetchForeignKeys(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching foreign keys: %w", t.Name, err)
	}
	return nil
}

func (m *MySQL) listTables(ctx context.Context) ([]source.RelationalTable, error) {
	query := `
		SELECT table_name, table_comment
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.QueryContext(ctx, query, m.schema)
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

func (m *MySQL) fetchColumns(ctx context.Context, table string) ([]source.RelationalColumn, error) {
	query := `
		SELECT column_name, column_type, is_nullable, column_default, column_comment
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := m.db.QueryContext(ctx, query, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []source.RelationalColumn
	for rows.Next() {
		var col source.RelationalColumn
		var nullable string
		var defaultVal sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &defaultVal, &col.Comment); err != nil {
			return nil, err
		}
		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (m *MySQL) fetchIndexes(ctx context.Context, table string) ([]source.RelationalIndex, error) {
	query := `
		SELECT index_name, non_unique, column_name
		FROM information_schema.statistics
		WHERE table_schema = ? AND table_name = ?
		ORDER BY index_name, seq_in_index`

	rows, err := m.db.QueryContext(ctx, query, m.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []source.RelationalIndex
	byName := make(map[string]int)
	for rows.Next() {
		var name, col string
		var nonUnique int
		if err := rows.Scan(&name, &nonUnique, &col); err != nil {
			return nil, err
		}
		i, ok := byName[name]
		if !ok {
			i = len(indexes)
			byName[name] = i
			indexes = append(indexes, source.RelationalIndex{
				Name:    name,
				Unique:  nonUnique == 0,
				Primary: name == "PRIMARY",
			})
		}
		indexes[i].Columns = append(indexes[i].Columns, col)
	}
	return indexes, rows.Err()
}

func (m *MySQL) fetchForeignKeys(ctx context.Context, table string) ([]source.ForeignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name = kcu.constraint_name
		  AND rc.constraint_schema = kcu.table_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.constraint_name, kcu.ordinal_position`

	rows, err := m.db.QueryContext(ctx, query, m.schema, table)
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

var _ Adapter = (*MySQL)(nil)
