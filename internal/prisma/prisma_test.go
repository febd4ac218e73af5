package prisma

import (
	"reflect"
	"strings"
	"testing"

	"github.com/schemalens/schemalens/internal/source"
)

const blogSchema = `
// Blog example schema.
datasource db {
  provider = "postgresql"
  url      = env("DATABASE_URL")
}

generator client {
  provider = "prisma-client-js"
}

enum Role {
  USER
  ADMIN
}

model User {
  id      Int      @id @default(autoincrement())
  email   String   @unique
  role    Role     @default(USER)
  profile Profile?
  posts   Post[]
}

model Profile {
  id     Int    @id @default(autoincrement())
  bio    String?
  user   User   @relation(fields: [userId], references: [id], onDelete: Cascade)
  userId Int    @unique
}

model Post {
  id       Int    @id @default(autoincrement())
  title    String
  author   User   @relation(fields: [authorId], references: [id], onDelete: SetNull)
  authorId Int
}
`

func parseAndResolve(t *testing.T, text string, strict bool) *source.ORM {
	t.Helper()
	file, err := Parse("schema.prisma", text, strict)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return Resolve(file, "schema.prisma")
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

func fieldByName(t *testing.T, m *source.Model, name string) *source.ModelField {
	t.Helper()
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	t.Fatalf("field %q not found on %s", name, m.Name)
	return nil
}

func TestParseBlogSchema(t *testing.T) {
	orm := parseAndResolve(t, blogSchema, true)

	if orm.Dialect != "prisma" {
		t.Errorf("dialect = %q, want prisma", orm.Dialect)
	}
	if len(orm.Models) != 3 {
		t.Fatalf("expected 3 models, got %d", len(orm.Models))
	}

	user := modelByName(t, orm, "User")
	id := fieldByName(t, user, "id")
	if !id.ID {
		t.Error("User.id should be flagged @id")
	}
	if id.Default == nil || *id.Default != "autoincrement()" {
		t.Errorf("User.id default = %v, want autoincrement()", id.Default)
	}
	if email := fieldByName(t, user, "email"); !email.Unique {
		t.Error("User.email should be flagged @unique")
	}
	// Role is an enum, so role stays a plain column.
	if role := fieldByName(t, user, "role"); role.IsRelation {
		t.Error("enum-typed field must not become a relation")
	}
}

func TestRelationClassification(t *testing.T) {
	orm := parseAndResolve(t, blogSchema, true)
	user := modelByName(t, orm, "User")

	profile := fieldByName(t, user, "profile")
	if !profile.IsRelation {
		t.Error("User.profile should be a relation field")
	}
	if !profile.Optional {
		t.Error("User.profile should be optional")
	}
	posts := fieldByName(t, user, "posts")
	if !posts.IsRelation || !posts.List {
		t.Error("User.posts should be a list relation field")
	}

	kinds := map[string]string{}
	for _, rel := range user.Relations {
		kinds[rel.ToModel] = rel.Kind
	}
	if kinds["Profile"] != "one-to-one" {
		t.Errorf("User->Profile kind = %q, want one-to-one", kinds["Profile"])
	}
	if kinds["Post"] != "one-to-many" {
		t.Errorf("User->Post kind = %q, want one-to-many", kinds["Post"])
	}

	// The onDelete declared on the owning Profile side is visible on the
	// User->Profile edge too.
	for _, rel := range user.Relations {
		if rel.ToModel == "Profile" && rel.OnDelete != "CASCADE" {
			t.Errorf("User->Profile onDelete = %q, want CASCADE", rel.OnDelete)
		}
	}
}

func TestOwningSideRelation(t *testing.T) {
	orm := parseAndResolve(t, blogSchema, true)
	post := modelByName(t, orm, "Post")

	if len(post.Relations) != 1 {
		t.Fatalf("expected 1 relation on Post, got %d", len(post.Relations))
	}
	rel := post.Relations[0]
	if rel.FromField != "authorId" {
		t.Errorf("FromField = %q, want the declared scalar column authorId", rel.FromField)
	}
	if rel.ToModel != "User" || rel.ToField != "id" {
		t.Errorf("relation target = %s.%s, want User.id", rel.ToModel, rel.ToField)
	}
	if rel.Kind != "many-to-one" {
		t.Errorf("kind = %q, want many-to-one", rel.Kind)
	}
	if rel.OnDelete != "SET NULL" {
		t.Errorf("onDelete = %q, want SET NULL", rel.OnDelete)
	}
}

func TestManyToMany(t *testing.T) {
	orm := parseAndResolve(t, `
model Post {
  id   Int   @id
  tags Tag[]
}

model Tag {
  id    Int    @id
  posts Post[]
}
`, true)

	post := modelByName(t, orm, "Post")
	if len(post.Relations) != 1 || post.Relations[0].Kind != "many-to-many" {
		t.Errorf("Post relations = %+v, want one many-to-many", post.Relations)
	}
}

func TestCompositeID(t *testing.T) {
	orm := parseAndResolve(t, `
model Membership {
  userId Int
  orgId  Int

  @@id([userId, orgId])
}
`, true)

	m := modelByName(t, orm, "Membership")
	if !fieldByName(t, m, "userId").ID || !fieldByName(t, m, "orgId").ID {
		t.Error("@@id columns should be flagged as ID fields")
	}
}

func TestUndeclaredModelTypeStaysColumn(t *testing.T) {
	orm := parseAndResolve(t, `
model Event {
  id      Int     @id
  payload Unknown
}
`, true)

	m := modelByName(t, orm, "Event")
	if fieldByName(t, m, "payload").IsRelation {
		t.Error("field typed with an undeclared name must stay a plain column")
	}
	if len(m.Relations) != 0 {
		t.Errorf("unexpected relations: %+v", m.Relations)
	}
}

func TestStrictModeRejectsMalformed(t *testing.T) {
	malformed := `
model User {
  id Int @id
}

model Broken {
  this is : not ? valid @ syntax {{
}
`
	if _, err := Parse("schema.prisma", malformed, true); err == nil {
		t.Fatal("strict mode should reject a malformed schema")
	}
}

func TestLenientModeSkipsMalformedBlock(t *testing.T) {
	malformed := `
model User {
  id    Int    @id
  email String @unique
}

model Broken {
  id Int @
  === not a field
}

model Post {
  id Int @id
}
`
	orm := parseAndResolve(t, malformed, false)

	var names []string
	for _, m := range orm.Models {
		names = append(names, m.Name)
	}
	if !reflect.DeepEqual(names, []string{"User", "Post"}) {
		t.Fatalf("models = %v, want [User Post]", names)
	}
	if email := fieldByName(t, modelByName(t, orm, "User"), "email"); !email.Unique {
		t.Error("surviving blocks should parse fully")
	}
}

func TestSelfRelation(t *testing.T) {
	orm := parseAndResolve(t, `
model Employee {
  id        Int        @id
  manager   Employee?  @relation("reports", fields: [managerId], references: [id])
  managerId Int?
  reports   Employee[] @relation("reports")
}
`, true)

	m := modelByName(t, orm, "Employee")
	var managerRel *source.ModelRelation
	for i := range m.Relations {
		if m.Relations[i].FromField == "managerId" {
			managerRel = &m.Relations[i]
		}
	}
	if managerRel == nil {
		t.Fatalf("manager relation not found: %+v", m.Relations)
	}
	if managerRel.Kind != "many-to-one" {
		t.Errorf("manager relation kind = %q, want many-to-one", managerRel.Kind)
	}
}

func TestRenderRuleMapping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cascade", "CASCADE"},
		{"SetNull", "SET NULL"},
		{"SetDefault", "SET DEFAULT"},
		{"Restrict", "RESTRICT"},
		{"NoAction", "NO ACTION"},
	}
	for _, tt := range tests {
		v := &Value{Ident: &tt.in}
		if got := renderRule(v); got != tt.want {
			t.Errorf("renderRule(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitBlocks(t *testing.T) {
	blocks := splitBlocks(blogSchema)
	if len(blocks) != 6 {
		t.Fatalf("expected 6 top-level blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "// Blog example schema.") {
		t.Errorf("unexpected first block: %q", blocks[0])
	}
	if !strings.HasSuffix(blocks[5], "}") {
		t.Errorf("blocks should end at their closing brace: %q", blocks[5])
	}
}
