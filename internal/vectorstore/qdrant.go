package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// qdrantTracer for OpenTelemetry instrumentation.
var qdrantTracer = otel.Tracer("autocurate.vectorstore.qdrant")

// payloadIDKey stores the caller-supplied vector ID in the point payload.
// Qdrant point IDs must be UUIDs or integers, so the external ID is hashed
// into a deterministic UUID and kept verbatim in the payload.
const payloadIDKey = "vector_id"

// QdrantConfig holds configuration for the Qdrant gRPC backend.
type QdrantConfig struct {
	// Host is the Qdrant server hostname. Default: "localhost".
	Host string

	// Port is the gRPC port. Default: 6334.
	Port int

	// APIKey is an optional API key for Qdrant Cloud.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Collection is the collection name. Default: "autocurate_chunks".
	Collection string

	// Dimension is the expected embedding dimension. Must match the
	// embedding provider's output.
	Dimension int

	// Timeout bounds each gRPC call. Default: 10s.
	Timeout time.Duration

	// MaxMessageSize caps gRPC message sizes in bytes. Default: 32MB,
	// enough for large upsert batches.
	MaxMessageSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "autocurate_chunks"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 32 * 1024 * 1024
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// QdrantIndex implements Index against an external Qdrant service over gRPC.
type QdrantIndex struct {
	client *qdrant.Client
	config QdrantConfig
	logger *zap.Logger
}

// NewQdrantIndex connects to Qdrant and ensures the collection exists with
// cosine distance and the configured dimension.
func NewQdrantIndex(ctx context.Context, cfg QdrantConfig, logger *zap.Logger) (*QdrantIndex, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	idx := &QdrantIndex{client: client, config: cfg, logger: logger}
	if err := idx.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("qdrant index initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("collection", cfg.Collection),
		zap.Int("dimension", cfg.Dimension),
	)
	return idx, nil
}

// ensureCollection creates the collection if it does not exist.
func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, q.config.Timeout)
	defer cancel()

	exists, err := q.client.CollectionExists(ctx, q.config.Collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", ErrStoreUnavailable, err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.config.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", q.config.Collection, err)
	}
	return nil
}

// pointID derives a deterministic Qdrant point ID from the external vector
// ID, so re-adding the same ID overwrites the same point.
func pointID(id string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String())
}

// Add upserts a vector with its metadata.
func (q *QdrantIndex) Add(ctx context.Context, id string, vector []float32, metadata map[string]string) error {
	ctx, span := qdrantTracer.Start(ctx, "QdrantIndex.Add")
	defer span.End()
	span.SetAttributes(attribute.String("id", id))

	if len(vector) == 0 {
		return ErrEmptyVector
	}
	if len(vector) != q.config.Dimension {
		return fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vector), q.config.Dimension)
	}

	payload := make(map[string]*qdrant.Value, len(metadata)+1)
	payload[payloadIDKey] = stringValue(id)
	for k, v := range metadata {
		payload[k] = stringValue(v)
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.Timeout)
	defer cancel()

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.config.Collection,
		Points: []*qdrant.PointStruct{{
			Id:      pointID(id),
			Vectors: qdrant.NewVectors(vector...),
			Payload: payload,
		}},
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: upsert: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func keywordCondition(key, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func keywordsCondition(key string, values []string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: key,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keywords{
						Keywords: &qdrant.RepeatedStrings{Strings: values},
					},
				},
			},
		},
	}
}

// buildFilter translates a Filter into native Qdrant match conditions.
func buildFilter(filter Filter) (*qdrant.Filter, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, cond := range filter {
		switch want := cond.(type) {
		case string:
			conditions = append(conditions, keywordCondition(key, want))
		case []string:
			conditions = append(conditions, keywordsCondition(key, want))
		default:
			return nil, fmt.Errorf("unsupported filter value for key %q: %T", key, cond)
		}
	}
	return &qdrant.Filter{Must: conditions}, nil
}

// Search returns up to k hits ordered by descending similarity.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, k int, filter Filter) ([]Result, error) {
	ctx, span := qdrantTracer.Start(ctx, "QdrantIndex.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if len(vector) != q.config.Dimension {
		return nil, fmt.Errorf("%w: got %d, index expects %d", ErrDimensionMismatch, len(vector), q.config.Dimension)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	qf, err := buildFilter(filter)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.Timeout)
	defer cancel()

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: query: %v", ErrStoreUnavailable, err)
	}

	results := make([]Result, 0, len(points))
	for _, point := range points {
		metadata := make(map[string]string, len(point.Payload))
		id := ""
		for key, value := range point.Payload {
			s := value.GetStringValue()
			if key == payloadIDKey {
				id = s
				continue
			}
			metadata[key] = s
		}
		results = append(results, Result{
			ID:       id,
			Score:    point.Score,
			Metadata: metadata,
		})
	}

	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// Delete removes vectors by their external IDs. Unknown IDs are ignored.
func (q *QdrantIndex) Delete(ctx context.Context, ids []string) error {
	ctx, span := qdrantTracer.Start(ctx, "QdrantIndex.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("id_count", len(ids)))

	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = pointID(id)
	}

	ctx, cancel := context.WithTimeout(ctx, q.config.Timeout)
	defer cancel()

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.config.Collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: delete: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Count returns the number of stored vectors.
func (q *QdrantIndex) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, q.config.Timeout)
	defer cancel()

	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.config.Collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return int(count), nil
}

// Close closes the gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

var _ Index = (*QdrantIndex)(nil)
