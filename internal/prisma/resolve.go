package prisma

import (
	"github.com/schemalens/schemalens/internal/source"
)

// Built-in scalar type names. A field whose type matches neither these nor
// a declared enum is a relation to the model named by that type.
var scalarTypes = map[string]bool{
	"String":      true,
	"Boolean":     true,
	"Int":         true,
	"BigInt":      true,
	"Float":       true,
	"Decimal":     true,
	"DateTime":    true,
	"Json":        true,
	"Bytes":       true,
	"Unsupported": true,
}

// Resolve converts the parsed AST into the ORM source schema. Pass 1 builds
// every model's field list; pass 2, with the full name lookup available,
// classifies relation fields and infers cardinality.
func Resolve(file *File, sourcePath string) *source.ORM {
	out := &source.ORM{Dialect: "prisma", Source: sourcePath}

	enums := make(map[string]bool)
	for _, e := range file.Entries {
		if e.Enum != nil {
			enums[e.Enum.Name] = true
		}
	}

	// Pass 1: declare all models and their fields.
	modelIndex := make(map[string]*source.Model)
	for _, e := range file.Entries {
		if e.Model == nil {
			continue
		}
		m := source.Model{Name: e.Model.Name}
		for _, entry := range e.Model.Entries {
			if entry.Field != nil {
				m.Fields = append(m.Fields, resolveField(entry.Field))
			}
			if entry.BlockAttr != nil && entry.BlockAttr.Name == "@@id" {
				applyCompositeID(&m, entry.BlockAttr)
			}
		}
		out.Models = append(out.Models, m)
	}
	for i := range out.Models {
		modelIndex[out.Models[i].Name] = &out.Models[i]
	}

	// Pass 2: classify relations now that every model can be looked up.
	for i := range out.Models {
		m := &out.Models[i]
		for j := range m.Fields {
			f := &m.Fields[j]
			if scalarTypes[f.Type] || enums[f.Type] {
				continue
			}
			target, ok := modelIndex[f.Type]
			if !ok {
				// Type is neither scalar, enum, nor declared model; the
				// declaration is left as a plain column.
				continue
			}
			f.IsRelation = true
			// The scalar foreign key column, when declared, is the
			// relation's from side; the relation field name otherwise.
			fromField := f.Name
			if len(f.RelFields) > 0 {
				fromField = f.RelFields[0]
			}
			// Referential actions are declared on the side holding the
			// foreign key; the inverse side inherits them.
			onDelete, onUpdate := f.OnDelete, f.OnUpdate
			if onDelete == "" && onUpdate == "" {
				if back := backReference(m.Name, f, target); back != nil {
					onDelete, onUpdate = back.OnDelete, back.OnUpdate
				}
			}
			m.Relations = append(m.Relations, source.ModelRelation{
				FromField: fromField,
				ToModel:   target.Name,
				ToField:   relationTarget(f, target),
				Kind:      cardinality(m, f, target),
				OnDelete:  onDelete,
				OnUpdate:  onUpdate,
			})
		}
	}

	return out
}

func resolveField(f *Field) source.ModelField {
	out := source.ModelField{
		Name:     f.Name,
		Type:     f.Type,
		Optional: f.Optional,
		List:     f.List,
	}
	for _, attr := range f.Attrs {
		switch attr.Name {
		case "@id":
			out.ID = true
		case "@unique":
			out.Unique = true
		case "@default":
			if len(attr.Args) > 0 {
				v := attr.Args[0].Value.Render()
				out.Default = &v
			}
		case "@relation":
			for _, arg := range attr.Args {
				switch arg.Name {
				case "fields":
					out.RelFields = arg.Value.Idents()
				case "references":
					out.RelReferences = arg.Value.Idents()
				case "onDelete":
					out.OnDelete = renderRule(arg.Value)
				case "onUpdate":
					out.OnUpdate = renderRule(arg.Value)
				}
			}
		}
	}
	return out
}

// renderRule maps Prisma referential actions (Cascade, SetNull, ...) to the
// SQL-style rule spelling used across all sources.
func renderRule(v *Value) string {
	switch v.Render() {
	case "Cascade":
		return "CASCADE"
	case "SetNull":
		return "SET NULL"
	case "SetDefault":
		return "SET DEFAULT"
	case "Restrict":
		return "RESTRICT"
	case "NoAction":
		return "NO ACTION"
	default:
		return v.Render()
	}
}

func applyCompositeID(m *source.Model, attr *BlockAttribute) {
	if len(attr.Args) == 0 {
		return
	}
	for _, name := range attr.Args[0].Value.Idents() {
		for i := range m.Fields {
			if m.Fields[i].Name == name {
				m.Fields[i].ID = true
			}
		}
	}
}

// relationTarget picks the referenced column: the explicit references list
// when declared, otherwise the target model's ID field.
func relationTarget(f *source.ModelField, target *source.Model) string {
	if len(f.RelReferences) > 0 {
		return f.RelReferences[0]
	}
	for _, tf := range target.Fields {
		if tf.ID {
			return tf.Name
		}
	}
	return ""
}

// cardinality infers the relation kind from three signals in priority
// order: list on both sides, list on this side, then back-reference shape.
func cardinality(m *source.Model, f *source.ModelField, target *source.Model) string {
	back := backReference(m.Name, f, target)

	if f.List && back != nil && back.List {
		return "many-to-many"
	}
	if f.List {
		return "one-to-many"
	}
	if back != nil && back.List {
		return "many-to-one"
	}
	return "one-to-one"
}

// backReference finds the reciprocal field on the target model, skipping
// the field itself for self-relations.
func backReference(modelName string, f *source.ModelField, target *source.Model) *source.ModelField {
	for i := range target.Fields {
		tf := &target.Fields[i]
		if tf.Type == modelName && !(target.Name == modelName && tf.Name == f.Name) {
			return tf
		}
	}
	return nil
}
