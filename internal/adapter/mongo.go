package adapter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/inference"
	"github.com/schemalens/schemalens/internal/source"
)

// Mongo extracts an inferred schema from a MongoDB database by sampling
// documents from each collection.
type Mongo struct {
	cfg      *config.SourceConfig
	client   *mongo.Client
	database string
	sample   int
}

// NewMongo creates a new MongoDB adapter.
func NewMongo(cfg *config.SourceConfig) (*Mongo, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mongodb: dsn is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb: database name is required")
	}
	sample := cfg.SampleSize
	if sample <= 0 {
		sample = inference.DefaultSampleSize
	}
	return &Mongo{cfg: cfg, database: cfg.Database, sample: sample}, nil
}

func (m *Mongo) connect(ctx context.Context) error {
	if m.client != nil {
		return nil
	}

	client, err := mongo.Connect(options.Client().ApplyURI(m.cfg.DSN))
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("pinging MongoDB: %w", err)
	}

	m.client = client
	return nil
}

// Extract samples every collection and returns the inferred document
// schema. A collection with zero documents yields zero fields; failing to
// list or read collections is fatal.
func (m *Mongo) Extract(ctx context.Context) (source.Schema, error) {
	if err := m.connect(ctx); err != nil {
		return nil, err
	}

	db := m.client.Database(m.database)
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	sort.Strings(names)

	collections := make([]source.Collection, 0, len(names))
	for _, name := range names {
		coll, err := m.sampleCollection(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", name, err)
		}
		collections = append(collections, coll)
	}

	return &source.Document{
		Store:       "mongodb",
		Database:    m.database,
		Source:      sanitizeDSN(m.cfg.DSN),
		IDField:     "_id",
		IDType:      "ObjectId",
		Collections: collections,
	}, nil
}

// Close disconnects the client. Safe to call at any point.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	return err
}

func (m *Mongo) sampleCollection(ctx context.Context, db *mongo.Database, name string) (source.Collection, error) {
	opts := options.Find().SetLimit(int64(m.sample))
	cursor, err := db.Collection(name).Find(ctx, bson.D{}, opts)
	if err != nil {
		return source.Collection{}, fmt.Errorf("sampling documents: %w", err)
	}
	defer cursor.Close(ctx)

	acc := inference.NewAccumulator(mongoTagger{})
	sampled := 0
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return source.Collection{}, fmt.Errorf("decoding document: %w", err)
		}
		acc.Observe(flattenBSON(doc))
		sampled++
	}
	if err := cursor.Err(); err != nil {
		return source.Collection{}, fmt.Errorf("reading cursor: %w", err)
	}

	return source.Collection{
		Name:         name,
		SampledCount: sampled,
		Fields:       acc.Fields(),
	}, nil
}

// mongoTagger tags BSON-native values that the generic walk should not
// recurse into.
type mongoTagger struct{}

func (mongoTagger) Tag(v any) (string, bool) {
	switch v.(type) {
	case bson.ObjectID:
		return "ObjectId", true
	case bson.DateTime, time.Time:
		return "Date", true
	case bson.Decimal128:
		return "Decimal128", true
	case bson.Binary:
		return "Binary", true
	case bson.Timestamp:
		return "Timestamp", true
	case bson.Regex:
		return "Regex", true
	}
	return "", false
}

// flattenBSON rewrites driver container types into the plain maps and
// slices the inference engine walks.
func flattenBSON(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = flattenBSONValue(v)
	}
	return out
}

func flattenBSONValue(v any) any {
	switch val := v.(type) {
	case bson.M:
		return flattenBSON(val)
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = flattenBSONValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = flattenBSONValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = flattenBSONValue(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = flattenBSONValue(e)
		}
		return out
	default:
		return v
	}
}

var _ Adapter = (*Mongo)(nil)
