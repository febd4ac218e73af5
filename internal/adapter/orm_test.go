package adapter

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/source"
)

func writeSchemaFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrismaExtract(t *testing.T) {
	path := writeSchemaFile(t, "schema.prisma", `
model User {
  id    Int    @id
  email String @unique
  posts Post[]
}

model Post {
  id       Int  @id
  author   User @relation(fields: [authorId], references: [id], onDelete: Cascade)
  authorId Int
}
`)

	a, err := NewPrisma(&config.SourceConfig{Type: "prisma", SchemaFile: path})
	if err != nil {
		t.Fatalf("NewPrisma: %v", err)
	}
	ctx := context.Background()
	defer a.Close(ctx)

	s, err := a.Extract(ctx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	orm, ok := s.(*source.ORM)
	if !ok {
		t.Fatalf("expected *source.ORM, got %T", s)
	}
	if orm.Dialect != "prisma" {
		t.Errorf("dialect = %q, want prisma", orm.Dialect)
	}
	if orm.Source != path {
		t.Errorf("source = %q, want the schema path", orm.Source)
	}
	if len(orm.Models) != 2 {
		t.Fatalf("models = %d, want 2", len(orm.Models))
	}
}

func TestPrismaExtractMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.prisma")
	a, err := NewPrisma(&config.SourceConfig{Type: "prisma", SchemaFile: missing})
	if err != nil {
		t.Fatalf("NewPrisma: %v", err)
	}

	_, err = a.Extract(context.Background())
	if err == nil {
		t.Fatal("Extract should fail on a missing schema file")
	}
	// The error names the attempted path.
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error should include the path: %v", err)
	}
}

func TestDrizzleExtract(t *testing.T) {
	path := writeSchemaFile(t, "schema.ts", `
export const users = pgTable("users", {
  id: serial("id").primaryKey(),
  name: text("name").notNull(),
});
`)

	a, err := NewDrizzle(&config.SourceConfig{Type: "drizzle", SchemaFile: path})
	if err != nil {
		t.Fatalf("NewDrizzle: %v", err)
	}
	ctx := context.Background()
	defer a.Close(ctx)

	s, err := a.Extract(ctx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	orm, ok := s.(*source.ORM)
	if !ok {
		t.Fatalf("expected *source.ORM, got %T", s)
	}
	if len(orm.Models) != 1 || orm.Models[0].Name != "users" {
		t.Fatalf("models = %+v", orm.Models)
	}
}

func TestDrizzleExtractMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.ts")
	a, err := NewDrizzle(&config.SourceConfig{Type: "drizzle", SchemaFile: missing})
	if err != nil {
		t.Fatalf("NewDrizzle: %v", err)
	}

	_, err = a.Extract(context.Background())
	if err == nil {
		t.Fatal("Extract should fail on a missing schema file")
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error should include the path: %v", err)
	}
}
