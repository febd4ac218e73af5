// Package drizzle parses Drizzle ORM schema modules. The schema is
// TypeScript source, so a full grammar is out of reach; instead a two-pass
// targeted scan recovers the pgTable/mysqlTable/sqliteTable declarations
// and the relations() blocks: pass 1 collects tables and column builder
// chains, pass 2 resolves relation declarations against the variable-name
// lookup built by pass 1.
package drizzle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemalens/schemalens/internal/source"
)

var (
	tableDecl = regexp.MustCompile(`(?ms)export\s+const\s+(\w+)\s*=\s*(pgTable|mysqlTable|sqliteTable)\s*\(\s*["'` + "`" + `]([^"'` + "`" + `]+)["'` + "`" + `]\s*,\s*\{`)
	relDecl   = regexp.MustCompile(`(?ms)export\s+const\s+(\w+)\s*=\s*relations\s*\(\s*(\w+)\s*,\s*\(\s*\{[^}]*\}\s*\)\s*=>\s*\(\s*\{`)

	columnEntry = regexp.MustCompile(`(?s)^(\w+)\s*:\s*(\w+)\s*\(`)
	firstString = regexp.MustCompile(`^\s*["'` + "`" + `]([^"'` + "`" + `]*)["'` + "`" + `]`)
	refArrow    = regexp.MustCompile(`=>\s*(\w+)\.(\w+)`)
	onDeleteOpt = regexp.MustCompile(`onDelete\s*:\s*["']([^"']+)["']`)
	onUpdateOpt = regexp.MustCompile(`onUpdate\s*:\s*["']([^"']+)["']`)
	relEntry    = regexp.MustCompile(`(?s)^(\w+)\s*:\s*(one|many)\s*\(\s*(\w+)`)
	relFields   = regexp.MustCompile(`fields\s*:\s*\[\s*(\w+)\.(\w+)`)
	relRefs     = regexp.MustCompile(`references\s*:\s*\[\s*(\w+)\.(\w+)`)
)

type table struct {
	varName string
	keys    map[string]string // TS property key -> column name
	model   source.Model
}

type relationEntry struct {
	fromVar   string
	fieldName string
	kind      string // one or many
	targetVar string
	fieldsCol string
	refsCol   string
}

// Parse parses Drizzle schema source text into the ORM source schema. In
// lenient mode declarations that fail to match are skipped; strict mode
// turns them into errors.
func Parse(filename, text string, strict bool) (*source.ORM, error) {
	out := &source.ORM{Dialect: "drizzle", Source: filename}

	// Pass 1: table declarations.
	var tables []table
	varIndex := make(map[string]int)
	for _, loc := range tableDecl.FindAllStringSubmatchIndex(text, -1) {
		varName := text[loc[2]:loc[3]]
		tableName := text[loc[6]:loc[7]]

		body, ok := balancedBraces(text, loc[1]-1)
		if !ok {
			if strict {
				return nil, fmt.Errorf("%s: unterminated column object for table %s", filename, tableName)
			}
			continue
		}

		m := source.Model{Name: tableName}
		keys := make(map[string]string)
		for _, entry := range splitEntries(body) {
			field, key, err := parseColumn(entry)
			if err != nil {
				if strict {
					return nil, fmt.Errorf("%s: table %s: %w", filename, tableName, err)
				}
				continue
			}
			keys[key] = field.Name
			m.Fields = append(m.Fields, field)
		}
		varIndex[varName] = len(tables)
		tables = append(tables, table{varName: varName, keys: keys, model: m})
	}

	// Pass 2: relations() declarations, resolved against the lookup.
	var entries []relationEntry
	for _, loc := range relDecl.FindAllStringSubmatchIndex(text, -1) {
		fromVar := text[loc[4]:loc[5]]
		body, ok := balancedBraces(text, loc[1]-1)
		if !ok {
			if strict {
				return nil, fmt.Errorf("%s: unterminated relations block for %s", filename, fromVar)
			}
			continue
		}
		for _, entry := range splitEntries(body) {
			re, err := parseRelation(fromVar, entry)
			if err != nil {
				if strict {
					return nil, fmt.Errorf("%s: relations %s: %w", filename, fromVar, err)
				}
				continue
			}
			entries = append(entries, re)
		}
	}

	resolveRelations(tables, varIndex, entries)

	// Column-level .references() edges come last so relations() blocks have
	// already claimed their field names.
	for i := range tables {
		addColumnEdges(&tables[i].model, tables, varIndex)
	}

	for _, t := range tables {
		out.Models = append(out.Models, t.model)
	}
	return out, nil
}

// parseColumn parses one `key: builder("name", ...).chain()` entry and
// returns the field plus its TS property key.
func parseColumn(entry string) (source.ModelField, string, error) {
	m := columnEntry.FindStringSubmatch(entry)
	if m == nil {
		return source.ModelField{}, "", fmt.Errorf("unrecognized column declaration %q", firstLine(entry))
	}
	key, builder := m[1], m[2]

	field := source.ModelField{Name: key, Type: builder}
	rest := entry[len(m[0]):]
	if s := firstString.FindStringSubmatch(rest); s != nil {
		field.Name = s[1]
	}

	field.ID = strings.Contains(entry, ".primaryKey()")
	field.Unique = strings.Contains(entry, ".unique(")
	field.Optional = !strings.Contains(entry, ".notNull()") && !field.ID
	field.List = strings.Contains(entry, ".array()")

	if idx := strings.Index(entry, ".default("); idx >= 0 {
		if arg, ok := balancedParens(entry, idx+len(".default(")-1); ok {
			v := strings.TrimSpace(arg)
			field.Default = &v
		}
	} else if strings.Contains(entry, ".defaultNow()") {
		v := "now()"
		field.Default = &v
	}

	if idx := strings.Index(entry, ".references("); idx >= 0 {
		if arg, ok := balancedParens(entry, idx+len(".references(")-1); ok {
			if ref := refArrow.FindStringSubmatch(arg); ref != nil {
				// Stashed as variable.column; resolved once all tables exist.
				field.RelFields = []string{ref[1]}
				field.RelReferences = []string{ref[2]}
			}
			if d := onDeleteOpt.FindStringSubmatch(arg); d != nil {
				field.OnDelete = strings.ToUpper(strings.ReplaceAll(d[1], "-", " "))
			}
			if u := onUpdateOpt.FindStringSubmatch(arg); u != nil {
				field.OnUpdate = strings.ToUpper(strings.ReplaceAll(u[1], "-", " "))
			}
		}
	}

	return field, key, nil
}

func parseRelation(fromVar, entry string) (relationEntry, error) {
	m := relEntry.FindStringSubmatch(entry)
	if m == nil {
		return relationEntry{}, fmt.Errorf("unrecognized relation declaration %q", firstLine(entry))
	}
	re := relationEntry{
		fromVar:   fromVar,
		fieldName: m[1],
		kind:      m[2],
		targetVar: m[3],
	}
	if f := relFields.FindStringSubmatch(entry); f != nil {
		re.fieldsCol = f[2]
	}
	if r := relRefs.FindStringSubmatch(entry); r != nil {
		re.refsCol = r[2]
	}
	return re, nil
}

// resolveRelations classifies each relations() entry. A many() on both
// sides is many-to-many; a bare many() is one-to-many; one() is
// many-to-one when the target declares a many() back-reference, otherwise
// one-to-one.
func resolveRelations(tables []table, varIndex map[string]int, entries []relationEntry) {
	hasMany := func(fromVar, targetVar string) bool {
		for _, e := range entries {
			if e.fromVar == fromVar && e.targetVar == targetVar && e.kind == "many" {
				return true
			}
		}
		return false
	}

	for _, e := range entries {
		fi, ok := varIndex[e.fromVar]
		if !ok {
			continue
		}
		ti, ok := varIndex[e.targetVar]
		if !ok {
			continue
		}
		from := &tables[fi].model
		keys := tables[fi].keys
		target := tables[ti].model

		var kind string
		switch {
		case e.kind == "many" && hasMany(e.targetVar, e.fromVar):
			kind = "many-to-many"
		case e.kind == "many":
			kind = "one-to-many"
		case hasMany(e.targetVar, e.fromVar):
			kind = "many-to-one"
		default:
			kind = "one-to-one"
		}

		rel := source.ModelRelation{
			FromField: e.fieldName,
			ToModel:   target.Name,
			ToField:   e.refsCol,
			Kind:      kind,
		}
		// The owning column carries the delete/update rules, and its name
		// beats the declaration key as the relation's from side.
		if e.fieldsCol != "" {
			colName, ok := keys[e.fieldsCol]
			if !ok {
				colName = e.fieldsCol
			}
			if col := fieldByName(from, colName); col != nil {
				rel.FromField = col.Name
				rel.OnDelete = col.OnDelete
				rel.OnUpdate = col.OnUpdate
				if rel.ToField == "" && len(col.RelReferences) > 0 {
					rel.ToField = col.RelReferences[0]
				}
			}
		}
		from.Relations = append(from.Relations, rel)
	}
}

// addColumnEdges turns .references() column constraints into relation
// edges, rewriting the stashed variable names into table and column names.
func addColumnEdges(m *source.Model, tables []table, varIndex map[string]int) {
	for i := range m.Fields {
		f := &m.Fields[i]
		if len(f.RelFields) == 0 {
			continue
		}
		targetVar := f.RelFields[0]
		refCol := f.RelReferences[0]
		f.RelFields = nil
		f.RelReferences = nil

		ti, ok := varIndex[targetVar]
		if !ok {
			continue
		}
		target := tables[ti].model

		if hasEdge(m, target.Name) {
			continue
		}
		m.Relations = append(m.Relations, source.ModelRelation{
			FromField: f.Name,
			ToModel:   target.Name,
			ToField:   refCol,
			Kind:      "many-to-one",
			OnDelete:  f.OnDelete,
			OnUpdate:  f.OnUpdate,
		})
	}
}

func hasEdge(m *source.Model, toModel string) bool {
	for _, r := range m.Relations {
		if r.ToModel == toModel {
			return true
		}
	}
	return false
}

func fieldByName(m *source.Model, name string) *source.ModelField {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// balancedBraces returns the text between the brace at start and its
// matching close brace, exclusive.
func balancedBraces(text string, start int) (string, bool) {
	return balanced(text, start, '{', '}')
}

// balancedParens returns the text between the paren at start and its
// matching close paren, exclusive.
func balancedParens(text string, start int) (string, bool) {
	return balanced(text, start, '(', ')')
}

func balanced(text string, start int, open, close byte) (string, bool) {
	if start < 0 || start >= len(text) || text[start] != open {
		return "", false
	}
	depth := 0
	var inString byte
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString != 0 {
			if ch == inString && text[i-1] != '\\' {
				inString = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			inString = ch
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start+1 : i], true
			}
		}
	}
	return "", false
}

// splitEntries splits an object body into its top-level comma-separated
// entries.
func splitEntries(body string) []string {
	var entries []string
	depth := 0
	var inString byte
	start := 0
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if inString != 0 {
			if ch == inString && body[i-1] != '\\' {
				inString = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			inString = ch
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				if e := strings.TrimSpace(body[start:i]); e != "" {
					entries = append(entries, e)
				}
				start = i + 1
			}
		}
	}
	if e := strings.TrimSpace(body[start:]); e != "" {
		entries = append(entries, e)
	}
	return entries
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
