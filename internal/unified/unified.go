// Package unified defines the canonical, source-agnostic schema model that
// every adapter's output is normalized into.
package unified

// Cardinality describes the relationship shape between the two ends of a
// relation.
type Cardinality string

const (
	OneToOne   Cardinality = "1:1"
	OneToMany  Cardinality = "1:N"
	ManyToOne  Cardinality = "N:1"
	ManyToMany Cardinality = "N:M"
)

// Valid reports whether c is one of the four enumerated cardinalities.
func (c Cardinality) Valid() bool {
	switch c {
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return true
	}
	return false
}

// Schema is the unified representation of one extracted source.
type Schema struct {
	DatabaseType string  `yaml:"database_type" json:"databaseType"`
	SchemaName   string  `yaml:"schema_name,omitempty" json:"schemaName,omitempty"`
	Source       string  `yaml:"source,omitempty" json:"source,omitempty"`
	Tables       []Table `yaml:"tables" json:"tables"`
}

// Table is one table, model, or collection.
type Table struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Columns     []Column   `yaml:"columns" json:"columns"`
	Indexes     []Index    `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	Relations   []Relation `yaml:"relations,omitempty" json:"relations,omitempty"`
	PrimaryKey  []string   `yaml:"primary_key,omitempty" json:"primaryKey,omitempty"`
}

// Column is one column or inferred document field. Type keeps the
// source-native type string; it is not normalized across sources.
type Column struct {
	Name             string  `yaml:"name" json:"name"`
	Type             string  `yaml:"type" json:"type"`
	Nullable         bool    `yaml:"nullable" json:"nullable"`
	Default          *string `yaml:"default,omitempty" json:"default,omitempty"`
	IsPrimaryKey     bool    `yaml:"is_primary_key,omitempty" json:"isPrimaryKey,omitempty"`
	IsUnique         bool    `yaml:"is_unique,omitempty" json:"isUnique,omitempty"`
	IsForeignKey     bool    `yaml:"is_foreign_key,omitempty" json:"isForeignKey,omitempty"`
	ReferencesTable  string  `yaml:"references_table,omitempty" json:"referencesTable,omitempty"`
	ReferencesColumn string  `yaml:"references_column,omitempty" json:"referencesColumn,omitempty"`
	OnDelete         string  `yaml:"on_delete,omitempty" json:"onDelete,omitempty"`
	OnUpdate         string  `yaml:"on_update,omitempty" json:"onUpdate,omitempty"`
	Description      string  `yaml:"description,omitempty" json:"description,omitempty"`
}

// Index is a secondary or primary-key index.
type Index struct {
	Name         string   `yaml:"name" json:"name"`
	Columns      []string `yaml:"columns" json:"columns"`
	Unique       bool     `yaml:"unique" json:"unique"`
	IsPrimaryKey bool     `yaml:"is_primary_key,omitempty" json:"isPrimaryKey,omitempty"`
}

// Relation is one foreign-key-like edge originating at FromTable.
type Relation struct {
	FromTable   string      `yaml:"from_table" json:"fromTable"`
	FromColumn  string      `yaml:"from_column" json:"fromColumn"`
	ToTable     string      `yaml:"to_table" json:"toTable"`
	ToColumn    string      `yaml:"to_column" json:"toColumn"`
	Cardinality Cardinality `yaml:"cardinality" json:"cardinality"`
	OnDelete    string      `yaml:"on_delete,omitempty" json:"onDelete,omitempty"`
	OnUpdate    string      `yaml:"on_update,omitempty" json:"onUpdate,omitempty"`
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}
