// Package source defines the intermediate schema structs produced by each
// adapter family. The shapes deliberately stay close to what each source
// reports; they converge only in the normalizer, which type-switches over
// the three concrete schema types.
package source

import "github.com/schemalens/schemalens/internal/inference"

// Kind identifies a source family.
type Kind string

const (
	KindRelational Kind = "relational"
	KindDocument   Kind = "document"
	KindORM        Kind = "orm"
)

// Schema is implemented by all source-specific schema structs.
type Schema interface {
	Kind() Kind
}

// Relational is the raw catalog extraction from a SQL database.
type Relational struct {
	Dialect    string // postgres, mysql, sqlite
	SchemaName string
	Source     string // sanitized connection descriptor
	Tables     []RelationalTable
}

func (*Relational) Kind() Kind { return KindRelational }

// RelationalTable carries one table's catalog metadata. The primary key is
// not stored here; the normalizer derives it from the indexes flagged
// Primary.
type RelationalTable struct {
	Name        string
	Comment     string
	Columns     []RelationalColumn
	Indexes     []RelationalIndex
	ForeignKeys []ForeignKey
}

// RelationalColumn is one column as reported by the catalog.
type RelationalColumn struct {
	Name     string
	DataType string
	Nullable bool
	Default  *string
	Comment  string
}

// RelationalIndex is one index with its covered columns in ordinal order.
type RelationalIndex struct {
	Name    string
	Columns []string
	Unique  bool
	Primary bool
}

// ForeignKey is one single-column foreign key edge.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
	OnUpdate  string
}

// Document is the sampled-inference extraction from a document store.
type Document struct {
	Store    string // mongodb, firestore
	Database string
	Source   string
	// IDField and IDType describe the store's native document identifier,
	// which the normalizer turns into a synthetic primary key column.
	IDField     string
	IDType      string
	Collections []Collection
}

func (*Document) Kind() Kind { return KindDocument }

// Collection is one collection with its inferred field descriptors.
type Collection struct {
	Name         string
	SampledCount int
	Fields       []inference.Field
}

// ORM is the parsed extraction from an ORM schema definition file.
type ORM struct {
	Dialect string // prisma, drizzle
	Source  string // schema file path
	Models  []Model
}

func (*ORM) Kind() Kind { return KindORM }

// Model is one declared model/table with its relations already resolved by
// the adapter's second pass.
type Model struct {
	Name      string
	Fields    []ModelField
	Relations []ModelRelation
}

// ModelField is one declared field. Relation-typed fields keep IsRelation
// set and do not become columns.
type ModelField struct {
	Name       string
	Type       string
	Optional   bool
	List       bool
	ID         bool
	Unique     bool
	Default    *string
	IsRelation bool
	// Populated from explicit relation attributes on the owning side.
	RelFields     []string
	RelReferences []string
	OnDelete      string
	OnUpdate      string
}

// ModelRelation is one resolved relation edge. Kind uses the ORM-level
// vocabulary (one-to-one, one-to-many, many-to-one, many-to-many).
type ModelRelation struct {
	FromField string
	ToModel   string
	ToField   string
	Kind      string
	OnDelete  string
	OnUpdate  string
}
