// Package normalize converts source-specific schema structs into the
// unified schema model. Convert is a pure function: no I/O, no retained
// state, identical output for identical input.
package normalize

import (
	"fmt"

	"github.com/schemalens/schemalens/internal/source"
	"github.com/schemalens/schemalens/internal/unified"
)

// ormCardinalities maps ORM-level relation kinds to unified cardinalities.
// Anything unrecognized falls back to 1:N.
var ormCardinalities = map[string]unified.Cardinality{
	"one-to-one":   unified.OneToOne,
	"one-to-many":  unified.OneToMany,
	"many-to-one":  unified.ManyToOne,
	"many-to-many": unified.ManyToMany,
}

// Convert normalizes any source schema into the unified model. An
// unrecognized concrete type is a programmer or configuration error and is
// fatal; there is no best-effort path.
func Convert(s source.Schema) (*unified.Schema, error) {
	switch src := s.(type) {
	case *source.Relational:
		return convertRelational(src), nil
	case *source.Document:
		return convertDocument(src), nil
	case *source.ORM:
		return convertORM(src), nil
	default:
		return nil, fmt.Errorf("unsupported source schema type %T", s)
	}
}

func convertRelational(src *source.Relational) *unified.Schema {
	out := &unified.Schema{
		DatabaseType: src.Dialect,
		SchemaName:   src.SchemaName,
		Source:       src.Source,
		Tables:       make([]unified.Table, 0, len(src.Tables)),
	}

	for _, t := range src.Tables {
		table := unified.Table{
			Name:        t.Name,
			Description: t.Comment,
			PrimaryKey:  primaryKeyColumns(t.Indexes),
		}

		for _, idx := range t.Indexes {
			table.Indexes = append(table.Indexes, unified.Index{
				Name:         idx.Name,
				Columns:      idx.Columns,
				Unique:       idx.Unique,
				IsPrimaryKey: idx.Primary,
			})
		}

		// Foreign keys always point from the owning row to the referenced
		// row, so every relational relation is N:1.
		for _, fk := range t.ForeignKeys {
			table.Relations = append(table.Relations, unified.Relation{
				FromTable:   t.Name,
				FromColumn:  fk.Column,
				ToTable:     fk.RefTable,
				ToColumn:    fk.RefColumn,
				Cardinality: unified.ManyToOne,
				OnDelete:    fk.OnDelete,
				OnUpdate:    fk.OnUpdate,
			})
		}

		for _, c := range t.Columns {
			col := unified.Column{
				Name:         c.Name,
				Type:         c.DataType,
				Nullable:     c.Nullable,
				Default:      c.Default,
				Description:  c.Comment,
				IsPrimaryKey: contains(table.PrimaryKey, c.Name),
				IsUnique:     hasUniqueIndex(t.Indexes, c.Name),
			}
			for _, fk := range t.ForeignKeys {
				if fk.Column == c.Name {
					col.IsForeignKey = true
					col.ReferencesTable = fk.RefTable
					col.ReferencesColumn = fk.RefColumn
					col.OnDelete = fk.OnDelete
					col.OnUpdate = fk.OnUpdate
					break
				}
			}
			table.Columns = append(table.Columns, col)
		}

		out.Tables = append(out.Tables, table)
	}
	return out
}

// primaryKeyColumns derives the primary key as the union of columns covered
// by indexes flagged primary, preserving index column order.
func primaryKeyColumns(indexes []source.RelationalIndex) []string {
	var pk []string
	for _, idx := range indexes {
		if !idx.Primary {
			continue
		}
		for _, col := range idx.Columns {
			if !contains(pk, col) {
				pk = append(pk, col)
			}
		}
	}
	return pk
}

// hasUniqueIndex reports whether a unique index covers exactly this column.
func hasUniqueIndex(indexes []source.RelationalIndex, column string) bool {
	for _, idx := range indexes {
		if idx.Unique && len(idx.Columns) == 1 && idx.Columns[0] == column {
			return true
		}
	}
	return false
}

func convertDocument(src *source.Document) *unified.Schema {
	out := &unified.Schema{
		DatabaseType: src.Store,
		SchemaName:   src.Database,
		Source:       src.Source,
		Tables:       make([]unified.Table, 0, len(src.Collections)),
	}

	for _, coll := range src.Collections {
		table := unified.Table{
			Name:       coll.Name,
			PrimaryKey: []string{src.IDField},
			Columns: []unified.Column{{
				Name:         src.IDField,
				Type:         src.IDType,
				Nullable:     false,
				IsPrimaryKey: true,
			}},
		}

		for _, f := range coll.Fields {
			if f.Name == src.IDField {
				continue
			}
			table.Columns = append(table.Columns, unified.Column{
				Name:     f.Name,
				Type:     f.Type,
				Nullable: f.Nullable,
				// Document stores enforce no foreign keys, so a
				// reference-typed field flags the column but contributes
				// no relation.
				IsForeignKey: f.Type == "Reference",
			})
		}

		out.Tables = append(out.Tables, table)
	}
	return out
}

func convertORM(src *source.ORM) *unified.Schema {
	out := &unified.Schema{
		DatabaseType: src.Dialect,
		Source:       src.Source,
		Tables:       make([]unified.Table, 0, len(src.Models)),
	}

	for _, m := range src.Models {
		table := unified.Table{Name: m.Name}

		for _, f := range m.Fields {
			if f.ID {
				table.PrimaryKey = append(table.PrimaryKey, f.Name)
			}
		}

		for _, rel := range m.Relations {
			cardinality, ok := ormCardinalities[rel.Kind]
			if !ok {
				cardinality = unified.OneToMany
			}
			table.Relations = append(table.Relations, unified.Relation{
				FromTable:   m.Name,
				FromColumn:  rel.FromField,
				ToTable:     rel.ToModel,
				ToColumn:    rel.ToField,
				Cardinality: cardinality,
				OnDelete:    rel.OnDelete,
				OnUpdate:    rel.OnUpdate,
			})
		}

		for _, f := range m.Fields {
			if f.IsRelation {
				continue
			}
			col := unified.Column{
				Name:         f.Name,
				Type:         columnType(f),
				Nullable:     f.Optional,
				Default:      f.Default,
				IsPrimaryKey: f.ID,
				IsUnique:     f.Unique,
			}
			// A scalar column that is the from side of a relation edge is
			// the foreign key itself.
			for _, rel := range table.Relations {
				if rel.FromColumn != f.Name {
					continue
				}
				col.IsForeignKey = true
				col.ReferencesTable = rel.ToTable
				col.ReferencesColumn = rel.ToColumn
				col.OnDelete = rel.OnDelete
				col.OnUpdate = rel.OnUpdate
				break
			}
			table.Columns = append(table.Columns, col)
		}

		out.Tables = append(out.Tables, table)
	}
	return out
}

func columnType(f source.ModelField) string {
	if f.List {
		return f.Type + "[]"
	}
	return f.Type
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
