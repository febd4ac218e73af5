package adapter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/genproto/googleapis/type/latlng"

	"github.com/schemalens/schemalens/internal/config"
	"github.com/schemalens/schemalens/internal/inference"
	"github.com/schemalens/schemalens/internal/source"
)

// Firestore extracts an inferred schema from a Firestore project by
// sampling documents from each top-level collection.
type Firestore struct {
	cfg    *config.SourceConfig
	client *firestore.Client
	sample int
}

// NewFirestore creates a new Firestore adapter.
func NewFirestore(cfg *config.SourceConfig) (*Firestore, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("firestore: project is required")
	}
	sample := cfg.SampleSize
	if sample <= 0 {
		sample = inference.DefaultSampleSize
	}
	return &Firestore{cfg: cfg, sample: sample}, nil
}

func (f *Firestore) connect(ctx context.Context) error {
	if f.client != nil {
		return nil
	}

	var opts []option.ClientOption
	if f.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(f.cfg.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, f.cfg.Project, opts...)
	if err != nil {
		return fmt.Errorf("creating Firestore client: %w", err)
	}

	f.client = client
	return nil
}

// Extract samples every top-level collection and returns the inferred
// document schema.
func (f *Firestore) Extract(ctx context.Context) (source.Schema, error) {
	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	var names []string
	collIter := f.client.Collections(ctx)
	for {
		ref, err := collIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing collections: %w", err)
		}
		names = append(names, ref.ID)
	}
	sort.Strings(names)

	collections := make([]source.Collection, 0, len(names))
	for _, name := range names {
		coll, err := f.sampleCollection(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", name, err)
		}
		collections = append(collections, coll)
	}

	return &source.Document{
		Store:       "firestore",
		Database:    f.cfg.Project,
		Source:      "firestore://" + f.cfg.Project,
		IDField:     "__name__",
		IDType:      "String",
		Collections: collections,
	}, nil
}

// Close releases the client. Safe to call at any point.
func (f *Firestore) Close(ctx context.Context) error {
	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}

func (f *Firestore) sampleCollection(ctx context.Context, name string) (source.Collection, error) {
	acc := inference.NewAccumulator(firestoreTagger{})
	acc.DoubleTag = "Number"

	docIter := f.client.Collection(name).Limit(f.sample).Documents(ctx)
	defer docIter.Stop()

	sampled := 0
	for {
		snap, err := docIter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return source.Collection{}, fmt.Errorf("reading documents: %w", err)
		}
		data := snap.Data()
		if len(data) == 0 {
			// Placeholder documents with no fields are skipped.
			continue
		}
		acc.Observe(data)
		sampled++
	}

	return source.Collection{
		Name:         name,
		SampledCount: sampled,
		Fields:       acc.Fields(),
	}, nil
}

// firestoreTagger tags Firestore-native values.
type firestoreTagger struct{}

func (firestoreTagger) Tag(v any) (string, bool) {
	switch v.(type) {
	case *firestore.DocumentRef:
		return "Reference", true
	case time.Time:
		return "Timestamp", true
	case *latlng.LatLng:
		return "Geopoint", true
	case []byte:
		return "Bytes", true
	}
	return "", false
}

var _ Adapter = (*Firestore)(nil)
