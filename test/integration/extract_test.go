//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/schemalens/schemalens/internal/adapter"
	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/normalize"
	"github.com/schemalens/schemalens/internal/source"
)

// Expects the Pagila sample schema loaded into the test database.
func TestExtractPostgresPagila(t *testing.T) {
	skipIfNoPostgres(t)
	ctx := context.Background()

	a, err := adapter.New(&config.SourceConfig{
		Type:   "postgres",
		DSN:    pgDSN(t),
		Schema: "public",
	})
	if err != nil {
		t.Fatalf("creating adapter: %v", err)
	}
	defer a.Close(ctx)

	s, err := a.Extract(ctx)
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}

	rel, ok := s.(*source.Relational)
	if !ok {
		t.Fatalf("expected relational schema, got %T", s)
	}
	if len(rel.Tables) < 10 {
		t.Errorf("expected at least 10 tables, got %d", len(rel.Tables))
	}

	tableNames := make(map[string]bool)
	for _, table := range rel.Tables {
		tableNames[table.Name] = true
	}
	for _, name := range []string{"actor", "film", "customer", "rental", "film_actor"} {
		if !tableNames[name] {
			t.Errorf("expected table %q not found", name)
		}
	}

	out, err := normalize.Convert(rel)
	if err != nil {
		t.Fatalf("normalizing: %v", err)
	}

	filmActor := out.Table("film_actor")
	if filmActor == nil {
		t.Fatal("film_actor missing from unified output")
	}
	if len(filmActor.Relations) < 2 {
		t.Errorf("film_actor should carry its two foreign key relations, got %d", len(filmActor.Relations))
	}
	for _, rel := range filmActor.Relations {
		if !rel.Cardinality.Valid() {
			t.Errorf("relation cardinality %q outside the enum", rel.Cardinality)
		}
	}
}

func TestExtractMySQL(t *testing.T) {
	skipIfNoMySQL(t)
	ctx := context.Background()

	a, err := adapter.New(&config.SourceConfig{
		Type: "mysql",
		DSN:  mysqlDSN(t),
	})
	if err != nil {
		t.Fatalf("creating adapter: %v", err)
	}
	defer a.Close(ctx)

	s, err := a.Extract(ctx)
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}

	rel, ok := s.(*source.Relational)
	if !ok {
		t.Fatalf("expected relational schema, got %T", s)
	}
	if len(rel.Tables) == 0 {
		t.Error("expected at least one table")
	}

	for _, table := range rel.Tables {
		for _, idx := range table.Indexes {
			if idx.Primary && !idx.Unique {
				t.Errorf("table %s: primary index %s should be unique", table.Name, idx.Name)
			}
		}
	}
}

func TestExtractMongo(t *testing.T) {
	skipIfNoMongo(t)
	ctx := context.Background()

	a, err := adapter.New(&config.SourceConfig{
		Type:       "mongodb",
		DSN:        mongoURI(t),
		Database:   mongoDatabase(t),
		SampleSize: 20,
	})
	if err != nil {
		t.Fatalf("creating adapter: %v", err)
	}
	defer a.Close(ctx)

	s, err := a.Extract(ctx)
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}

	doc, ok := s.(*source.Document)
	if !ok {
		t.Fatalf("expected document schema, got %T", s)
	}
	if doc.IDField != "_id" {
		t.Errorf("id field = %q, want _id", doc.IDField)
	}
	for _, coll := range doc.Collections {
		if coll.SampledCount > 20 {
			t.Errorf("collection %s sampled %d documents, limit was 20", coll.Name, coll.SampledCount)
		}
	}

	out, err := normalize.Convert(doc)
	if err != nil {
		t.Fatalf("normalizing: %v", err)
	}
	for _, table := range out.Tables {
		if len(table.Relations) != 0 {
			t.Errorf("document table %s must not carry relations", table.Name)
		}
		if id := table.Column("_id"); id == nil || !id.IsPrimaryKey {
			t.Errorf("table %s missing synthetic _id primary key", table.Name)
		}
	}
}
