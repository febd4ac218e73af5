// Package prisma parses Prisma schema definition files into an explicit AST
// and resolves model relations in a second pass. Parsing is grammar-based
// rather than pattern matching, so malformed declarations surface as parse
// errors; the caller decides whether those are fatal or skipped.
package prisma

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var prismaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "BlockAttr", Pattern: `@@[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "FieldAttr", Pattern: `@[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[\[\]{}(),?:=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// File is one parsed schema block set. The adapter feeds it whole files or,
// in lenient mode, one recovered block at a time.
type File struct {
	Entries []*Entry `parser:"@@*"`
}

// Entry is one top-level declaration.
type Entry struct {
	Model  *Model       `parser:"@@"`
	Enum   *Enum        `parser:"| @@"`
	Config *ConfigBlock `parser:"| @@"`
}

// Model is one model block with its field declarations.
type Model struct {
	Name    string        `parser:"'model' @Ident '{'"`
	Entries []*ModelEntry `parser:"@@* '}'"`
}

// ModelEntry is either a field declaration or a block-level attribute such
// as @@id or @@unique.
type ModelEntry struct {
	BlockAttr *BlockAttribute `parser:"@@"`
	Field     *Field          `parser:"| @@"`
}

// Field is one field declaration: name, type, optionality/list modifier,
// and inline attributes.
type Field struct {
	Name     string       `parser:"@Ident"`
	Type     string       `parser:"@Ident"`
	List     bool         `parser:"(@('[' ']')"`
	Optional bool         `parser:" | @'?')?"`
	Attrs    []*Attribute `parser:"@@*"`
}

// Attribute is one inline @attribute with optional arguments.
type Attribute struct {
	Name string `parser:"@FieldAttr"`
	Args []*Arg `parser:"('(' (@@ (',' @@)*)? ')')?"`
}

// BlockAttribute is one @@attribute with optional arguments.
type BlockAttribute struct {
	Name string `parser:"@BlockAttr"`
	Args []*Arg `parser:"('(' (@@ (',' @@)*)? ')')?"`
}

// Arg is one attribute argument, optionally named (fields: [...]).
type Arg struct {
	Name  string `parser:"(@Ident ':')?"`
	Value *Value `parser:"@@"`
}

// Value is one literal, array, function call, or bare identifier.
type Value struct {
	String *string  `parser:"@String"`
	Number *string  `parser:"| @Number"`
	Array  []*Value `parser:"| '[' (@@ (',' @@)*)? ']'"`
	Func   *Func    `parser:"| @@"`
	Ident  *string  `parser:"| @Ident"`
}

// Func is a function-style value such as autoincrement() or env("URL").
type Func struct {
	Name string   `parser:"@Ident '('"`
	Args []*Value `parser:"(@@ (',' @@)*)? ')'"`
}

// Enum is one enum block.
type Enum struct {
	Name    string       `parser:"'enum' @Ident '{'"`
	Entries []*EnumEntry `parser:"@@* '}'"`
}

// EnumEntry is one enum value; block attributes inside enums are parsed and
// ignored.
type EnumEntry struct {
	BlockAttr *BlockAttribute `parser:"@@"`
	Value     *string         `parser:"| @Ident"`
}

// ConfigBlock is a datasource or generator block.
type ConfigBlock struct {
	Keyword string         `parser:"@('datasource' | 'generator')"`
	Name    string         `parser:"@Ident '{'"`
	Entries []*ConfigEntry `parser:"@@* '}'"`
}

// ConfigEntry is one key = value assignment.
type ConfigEntry struct {
	Key   string `parser:"@Ident '='"`
	Value *Value `parser:"@@"`
}

var fileParser = participle.MustBuild[File](
	participle.Lexer(prismaLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Render returns the source text of a value, used for default expressions.
func (v *Value) Render() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return strings.Trim(*v.String, `"`)
	case v.Number != nil:
		return *v.Number
	case v.Array != nil:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.Render()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case v.Func != nil:
		args := make([]string, len(v.Func.Args))
		for i, a := range v.Func.Args {
			args[i] = a.Render()
		}
		return v.Func.Name + "(" + strings.Join(args, ", ") + ")"
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

// Idents returns the identifier list of an array value such as [authorId].
func (v *Value) Idents() []string {
	if v == nil || v.Array == nil {
		return nil
	}
	var out []string
	for _, e := range v.Array {
		if e.Ident != nil {
			out = append(out, *e.Ident)
		}
	}
	return out
}
