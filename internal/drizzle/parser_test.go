package drizzle

import (
	"strings"
	"testing"

	"github.com/schemalens/schemalens/internal/source"
)

const appSchema = `
import { pgTable, serial, text, integer, boolean, timestamp } from "drizzle-orm/pg-core";
import { relations } from "drizzle-orm";

export const organizations = pgTable("organizations", {
  id: serial("id").primaryKey(),
  name: text("name").notNull(),
});

export const users = pgTable("users", {
  id: serial("id").primaryKey(),
  email: text("email").notNull().unique(),
  bio: text("bio"),
  active: boolean("active").default(true),
  createdAt: timestamp("created_at").defaultNow(),
  organizationId: integer("organization_id")
    .notNull()
    .references(() => organizations.id, { onDelete: "cascade" }),
});

export const posts = pgTable("posts", {
  id: serial("id").primaryKey(),
  title: text("title").notNull(),
  tags: text("tags").array(),
  authorId: integer("author_id").references(() => users.id, { onDelete: "set null" }),
});

export const organizationsRelations = relations(organizations, ({ many }) => ({
  users: many(users),
}));

export const usersRelations = relations(users, ({ one, many }) => ({
  organization: one(organizations, {
    fields: [users.organizationId],
    references: [organizations.id],
  }),
  posts: many(posts),
}));

export const postsRelations = relations(posts, ({ one }) => ({
  author: one(users, {
    fields: [posts.authorId],
    references: [users.id],
  }),
}));
`

func parseApp(t *testing.T) *source.ORM {
	t.Helper()
	orm, err := Parse("schema.ts", appSchema, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return orm
}

func modelByName(t *testing.T, orm *source.ORM, name string) *source.Model {
	t.Helper()
	for i := range orm.Models {
		if orm.Models[i].Name == name {
			return &orm.Models[i]
		}
	}
	t.Fatalf("model %q not found", name)
	return nil
}

func mustFieldByName(t *testing.T, m *source.Model, name string) *source.ModelField {
	t.Helper()
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	t.Fatalf("field %q not found on %s", name, m.Name)
	return nil
}

func TestParseTables(t *testing.T) {
	orm := parseApp(t)

	if orm.Dialect != "drizzle" {
		t.Errorf("dialect = %q, want drizzle", orm.Dialect)
	}
	if len(orm.Models) != 3 {
		t.Fatalf("expected 3 models, got %d", len(orm.Models))
	}

	users := modelByName(t, orm, "users")
	if len(users.Fields) != 6 {
		t.Fatalf("users fields = %d, want 6", len(users.Fields))
	}

	// Column names come from the builder argument, not the TS property key.
	org := mustFieldByName(t, users, "organization_id")
	if org.Type != "integer" {
		t.Errorf("organization_id type = %q, want integer", org.Type)
	}
	if org.Optional {
		t.Error("organization_id is notNull and should not be optional")
	}

	id := mustFieldByName(t, users, "id")
	if !id.ID {
		t.Error("id should be flagged primary key")
	}
	if email := mustFieldByName(t, users, "email"); !email.Unique {
		t.Error("email should be flagged unique")
	}
	if bio := mustFieldByName(t, users, "bio"); !bio.Optional {
		t.Error("bio has no notNull and should be optional")
	}
}

func TestDefaults(t *testing.T) {
	users := modelByName(t, parseApp(t), "users")

	active := mustFieldByName(t, users, "active")
	if active.Default == nil || *active.Default != "true" {
		t.Errorf("active default = %v, want true", active.Default)
	}
	created := mustFieldByName(t, users, "created_at")
	if created.Default == nil || *created.Default != "now()" {
		t.Errorf("created_at default = %v, want now()", created.Default)
	}
}

func TestArrayColumn(t *testing.T) {
	posts := modelByName(t, parseApp(t), "posts")
	if tags := mustFieldByName(t, posts, "tags"); !tags.List {
		t.Error("tags uses .array() and should be a list")
	}
}

func TestRelationsBlocks(t *testing.T) {
	orm := parseApp(t)
	users := modelByName(t, orm, "users")

	kinds := map[string]string{}
	var orgRel source.ModelRelation
	for _, rel := range users.Relations {
		kinds[rel.ToModel] = rel.Kind
		if rel.ToModel == "organizations" {
			orgRel = rel
		}
	}

	if kinds["organizations"] != "many-to-one" {
		t.Errorf("users->organizations kind = %q, want many-to-one", kinds["organizations"])
	}
	if kinds["posts"] != "one-to-many" {
		t.Errorf("users->posts kind = %q, want one-to-many", kinds["posts"])
	}

	// The edge resolves the TS key to the column name and picks up the
	// column's referential action.
	if orgRel.FromField != "organization_id" {
		t.Errorf("FromField = %q, want organization_id", orgRel.FromField)
	}
	if orgRel.ToField != "id" {
		t.Errorf("ToField = %q, want id", orgRel.ToField)
	}
	if orgRel.OnDelete != "CASCADE" {
		t.Errorf("onDelete = %q, want CASCADE", orgRel.OnDelete)
	}
}

func TestColumnReferencesWithoutRelationsBlock(t *testing.T) {
	schema := `
export const teams = pgTable("teams", {
  id: serial("id").primaryKey(),
});

export const players = pgTable("players", {
  id: serial("id").primaryKey(),
  teamId: integer("team_id").references(() => teams.id, { onDelete: "cascade", onUpdate: "no-action" }),
});
`
	orm, err := Parse("schema.ts", schema, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	players := modelByName(t, orm, "players")
	if len(players.Relations) != 1 {
		t.Fatalf("expected 1 relation from .references(), got %d", len(players.Relations))
	}
	rel := players.Relations[0]
	if rel.FromField != "team_id" || rel.ToModel != "teams" || rel.ToField != "id" {
		t.Errorf("edge = %s -> %s.%s, want team_id -> teams.id", rel.FromField, rel.ToModel, rel.ToField)
	}
	if rel.Kind != "many-to-one" {
		t.Errorf("kind = %q, want many-to-one", rel.Kind)
	}
	if rel.OnDelete != "CASCADE" || rel.OnUpdate != "NO ACTION" {
		t.Errorf("rules = %q/%q, want CASCADE/NO ACTION", rel.OnDelete, rel.OnUpdate)
	}
}

func TestManyToManyRelations(t *testing.T) {
	schema := `
export const students = pgTable("students", {
  id: serial("id").primaryKey(),
});

export const courses = pgTable("courses", {
  id: serial("id").primaryKey(),
});

export const studentsRelations = relations(students, ({ many }) => ({
  courses: many(courses),
}));

export const coursesRelations = relations(courses, ({ many }) => ({
  students: many(students),
}));
`
	orm, err := Parse("schema.ts", schema, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	students := modelByName(t, orm, "students")
	if len(students.Relations) != 1 || students.Relations[0].Kind != "many-to-many" {
		t.Errorf("students relations = %+v, want one many-to-many", students.Relations)
	}
}

func TestLenientSkipsMalformedColumn(t *testing.T) {
	schema := `
export const things = pgTable("things", {
  id: serial("id").primaryKey(),
  ...spreadColumns,
  name: text("name"),
});
`
	orm, err := Parse("schema.ts", schema, false)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	things := modelByName(t, orm, "things")
	if len(things.Fields) != 2 {
		t.Fatalf("fields = %d, want 2 (spread entry skipped)", len(things.Fields))
	}
	mustFieldByName(t, things, "id")
	mustFieldByName(t, things, "name")
}

func TestStrictRejectsMalformedColumn(t *testing.T) {
	schema := `
export const things = pgTable("things", {
  id: serial("id").primaryKey(),
  ...spreadColumns,
});
`
	_, err := Parse("schema.ts", schema, true)
	if err == nil {
		t.Fatal("strict mode should reject an unrecognized column declaration")
	}
	if !strings.Contains(err.Error(), "things") {
		t.Errorf("error should name the table: %v", err)
	}
}

func TestSplitEntriesRespectsNesting(t *testing.T) {
	entries := splitEntries(`a: one(x, { fields: [x.a], references: [y.b] }), b: text("b")`)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2: %q", len(entries), entries)
	}
	if !strings.HasPrefix(entries[1], "b:") {
		t.Errorf("second entry = %q", entries[1])
	}
}
