package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/source"
)

// SQLite extracts schema metadata from a SQLite database file using the
// pure-Go driver.
type SQLite struct {
	cfg  *config.SourceConfig
	db   *sql.DB
	path string
}

// NewSQLite creates a new SQLite adapter. The DSN is the database file path.
func NewSQLite(cfg *config.SourceConfig) (*SQLite, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite: database file path is required")
	}
	return &SQLite{cfg: cfg, path: cfg.DSN}, nil
}

func (s *SQLite) connect(ctx context.Context) error {
	if s.db != nil {
		return nil
	}

	// The driver happily creates a missing file; extraction from a database
	// that does not exist should fail instead.
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("sqlite database %s: %w", s.path, err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("opening SQLite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging SQLite: %w", err)
	}

	s.db = db
	return nil
}

// Extract reads sqlite_master and the table PRAGMAs and returns the
// relational schema.
func (s *SQLite) Extract(ctx context.Context) (source.Schema, error) {
	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	tables, err := s.listTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tableFetchConcurrency)
	for i := range tables {
		t := &tables[i]
		g.Go(func() error {
			return s.fetchTableDetails(gctx, t)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &source.Relational{
		Dialect:    "sqlite",
		SchemaName: "main",
		Source:     s.path,
		Tables:     tables,
	}, nil
}

// Close releases the database handle. Safe to call at any point.
func (s *SQLite) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLite) fetchTableDetails(ctx context.Context, t *source.RelationalTable) error {
	pkCols, err := s.fetchColumns(ctx, t)
	if err != nil {
		return fmt.Errorf("table %s: fetching columns: %w", t.Name, err)
	}
	if t.Indexes, err = s.fetchIndexes(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching indexes: %w", t.Name, err)
	}
	// Rowid tables with INTEGER PRIMARY KEY have no pk-origin index, so the
	// primary key from table_info gets a synthetic index entry.
	if len(pkCols) > 0 && !hasPrimaryIndex(t.Indexes) {
		t.Indexes = append(t.Indexes, source.RelationalIndex{
			Name:    t.Name + "_pk",
			Columns: pkCols,
			Unique:  true,
			Primary: true,
		})
	}
	if t.ForeignKeys, err = s.fetchForeignKeys(ctx, t.Name); err != nil {
		return fmt.Errorf("table %s: fetching foreign keys: %w", t.Name, err)
	}
	return nil
}

func (s *SQLite) listTables(ctx context.Context) ([]source.RelationalTable, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []source.RelationalTable
	for rows.Next() {
		var t source.RelationalTable
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// fetchColumns populates t.Columns and returns the primary key columns in
// declaration order.
func (s *SQLite) fetchColumns(ctx context.Context, t *source.RelationalTable) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(t.Name)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type pkCol struct {
		name string
		rank int
	}
	var pk []pkCol
	for rows.Next() {
		var (
			cid, notNull, pkRank int
			name, dataType       string
			defaultVal           sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pkRank); err != nil {
			return nil, err
		}
		col := source.RelationalColumn{
			Name:     name,
			DataType: dataType,
			Nullable: notNull == 0 && pkRank == 0,
		}
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		t.Columns = append(t.Columns, col)
		if pkRank > 0 {
			pk = append(pk, pkCol{name: name, rank: pkRank})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, len(pk))
	for _, c := range pk {
		names[c.rank-1] = c.name
	}
	return names, nil
}

func (s *SQLite) fetchIndexes(ctx context.Context, table string) ([]source.RelationalIndex, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA index_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}

	type idxMeta struct {
		name    string
		unique  bool
		primary bool
	}
	var metas []idxMeta
	for rows.Next() {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		metas = append(metas, idxMeta{name: name, unique: unique == 1, primary: origin == "pk"})
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	var indexes []source.RelationalIndex
	for _, meta := range metas {
		cols, err := s.fetchIndexColumns(ctx, meta.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, source.RelationalIndex{
			Name:    meta.name,
			Columns: cols,
			Unique:  meta.unique,
			Primary: meta.primary,
		})
	}
	return indexes, nil
}

func (s *SQLite) fetchIndexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA index_info("+quoteIdent(index)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		// Expression index entries have a NULL column name.
		if name.Valid {
			cols = append(cols, name.String)
		}
	}
	return cols, rows.Err()
}

func (s *SQLite) fetchForeignKeys(ctx context.Context, table string) ([]source.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []source.ForeignKey
	for rows.Next() {
		var (
			id, seq               int
			refTable, from, match string
			to                    sql.NullString
			onUpdate, onDelete    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		fk := source.ForeignKey{
			Column:   from,
			RefTable: refTable,
			OnDelete: onDelete,
			OnUpdate: onUpdate,
		}
		// A NULL "to" means the FK references the target's primary key.
		if to.Valid {
			fk.RefColumn = to.String
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func hasPrimaryIndex(indexes []source.RelationalIndex) bool {
	for _, idx := range indexes {
		if idx.Primary {
			return true
		}
	}
	return false
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ Adapter = (*SQLite)(nil)
