// Package inference derives a best-guess field schema for a collection from
// a bounded sample of its documents. Document stores carry no enforced
// schema, so the result is statistical: per dot-joined field path it merges
// the types observed across the sample into one label plus nullability and
// array-ness.
//
// Documents are consumed in cursor order up to the sample limit, and sample
// values are first-seen rather than reservoir-sampled. Leading-document bias
// is a standing characteristic of the result, not something this package
// tries to correct.
package inference

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultSampleSize bounds the number of documents read per collection when
// the caller does not specify one.
const DefaultSampleSize = 100

const maxSampleValues = 3

// Canonical type tags for scalar values.
const (
	TagNull    = "null"
	TagString  = "String"
	TagInt     = "Int"
	TagDouble  = "Double"
	TagBoolean = "Boolean"
	TagArray   = "Array"
	TagObject  = "Object"
)

// Tagger supplies store-native type tags. Tag returns the tag for a
// store-specific value (ObjectId, Timestamp, Reference, ...) and true, or
// ("", false) for values the generic walk should handle. Tagged values are
// not recursed into.
type Tagger interface {
	Tag(v any) (string, bool)
}

// Field is the inferred descriptor for one field path.
type Field struct {
	Name      string   `yaml:"name" json:"name"`
	Type      string   `yaml:"type" json:"type"`
	Nullable  bool     `yaml:"nullable" json:"nullable"`
	IsArray   bool     `yaml:"is_array,omitempty" json:"isArray,omitempty"`
	NullCount int      `yaml:"null_count,omitempty" json:"nullCount,omitempty"`
	Samples   []string `yaml:"samples,omitempty" json:"samples,omitempty"`
}

type fieldState struct {
	tags      []string // distinct non-null tags in first-seen order
	seen      int      // occurrences, null or not
	nullCount int
	isArray   bool
	samples   []string
}

func (f *fieldState) addTag(tag string) {
	for _, t := range f.tags {
		if t == tag {
			return
		}
	}
	f.tags = append(f.tags, tag)
}

func (f *fieldState) addSample(v any) {
	if len(f.samples) >= maxSampleValues {
		return
	}
	f.samples = append(f.samples, fmt.Sprintf("%v", v))
}

// Accumulator merges field observations across a sample of documents.
// One Accumulator serves one collection and is not safe for concurrent use.
type Accumulator struct {
	tagger Tagger
	fields map[string]*fieldState
	docs   int
	// DoubleTag lets a store rename the non-integer number tag (Firestore
	// reports "Number" where MongoDB reports "Double").
	DoubleTag string
}

// NewAccumulator returns an empty Accumulator. tagger may be nil if the
// store has no native types beyond JSON scalars.
func NewAccumulator(tagger Tagger) *Accumulator {
	return &Accumulator{
		tagger:    tagger,
		fields:    make(map[string]*fieldState),
		DoubleTag: TagDouble,
	}
}

// Observe walks one sampled document. Empty documents are skipped.
func (a *Accumulator) Observe(doc map[string]any) {
	if len(doc) == 0 {
		return
	}
	a.docs++
	for key, val := range doc {
		a.observeValue(key, val)
	}
}

func (a *Accumulator) observeValue(path string, v any) {
	state := a.fields[path]
	if state == nil {
		state = &fieldState{}
		a.fields[path] = state
	}
	state.seen++

	if v == nil {
		state.nullCount++
		return
	}

	if a.tagger != nil {
		if tag, ok := a.tagger.Tag(v); ok {
			state.addTag(tag)
			state.addSample(v)
			return
		}
	}

	switch val := v.(type) {
	case string:
		state.addTag(TagString)
		state.addSample(val)
	case bool:
		state.addTag(TagBoolean)
		state.addSample(val)
	case int, int32, int64:
		state.addTag(TagInt)
		state.addSample(val)
	case float64:
		state.addTag(a.numberTag(val))
		state.addSample(val)
	case float32:
		state.addTag(a.numberTag(float64(val)))
		state.addSample(val)
	case []any:
		state.isArray = true
		// Element type comes from the first element only.
		if len(val) > 0 {
			state.addTag(TagArray + "<" + a.elementTag(val[0]) + ">")
		} else {
			state.addTag(TagArray)
		}
	case map[string]any:
		state.addTag(TagObject)
		for key, nested := range val {
			a.observeValue(path+"."+key, nested)
		}
	default:
		// Driver-specific scalar we have no dedicated tag for.
		state.addTag(fmt.Sprintf("%T", v))
		state.addSample(v)
	}
}

func (a *Accumulator) numberTag(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return TagInt
	}
	return a.DoubleTag
}

func (a *Accumulator) elementTag(v any) string {
	if v == nil {
		return TagNull
	}
	if a.tagger != nil {
		if tag, ok := a.tagger.Tag(v); ok {
			return tag
		}
	}
	switch val := v.(type) {
	case string:
		return TagString
	case bool:
		return TagBoolean
	case int, int32, int64:
		return TagInt
	case float64:
		return a.numberTag(val)
	case float32:
		return a.numberTag(float64(val))
	case []any:
		return TagArray
	case map[string]any:
		return TagObject
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Fields resolves the accumulated observations into field descriptors,
// sorted by field path for deterministic output.
func (a *Accumulator) Fields() []Field {
	names := make([]string, 0, len(a.fields))
	for name := range a.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		state := a.fields[name]
		fields = append(fields, Field{
			Name: name,
			Type: resolveLabel(state.tags),
			// Absence from a sampled document counts as nullability just
			// like an explicit null.
			Nullable:  state.nullCount > 0 || state.seen < a.docs,
			IsArray:   state.isArray,
			NullCount: state.nullCount,
			Samples:   state.samples,
		})
	}
	return fields
}

// resolveLabel collapses the observed tag set into one label: the tag
// itself when a single type was seen, Mixed(...) when several were, and
// null when only null/undefined occurrences were recorded.
func resolveLabel(tags []string) string {
	switch len(tags) {
	case 0:
		return TagNull
	case 1:
		return tags[0]
	default:
		return "Mixed(" + strings.Join(tags, "|") + ")"
	}
}
