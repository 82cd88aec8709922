package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// upsertBatchSize caps how many points go into one Qdrant write.
const upsertBatchSize = 100

// Qdrant implements Index against a Qdrant server over gRPC, with
// connection health checks and retry on transient failures.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrant creates a Qdrant-backed index. It performs a health check with
// retry on startup and fails fast if the server is unreachable.
func NewQdrant(host string, port int, collection string, dimension int) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	q := &Qdrant{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	if err := q.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	return q, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (q *Qdrant) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return q.Health(ctx)
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Health performs a single health check against Qdrant.
func (q *Qdrant) Health(ctx context.Context) error {
	result, err := q.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureReady creates the collection if missing, with cosine distance and the
// configured vector dimension, plus a payload index on document_id for
// cascade deletes. Idempotent.
func (q *Qdrant) EnsureReady(ctx context.Context) error {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", ErrIndexUnavailable, err)
	}

	for _, name := range collections {
		if name == q.collection {
			return nil
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	_, err = q.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: q.collection,
		FieldName:      "document_id",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create document_id index: %w", err)
	}

	return nil
}

// Upsert stores points with embeddings, batched in groups of 100 and retried
// with exponential backoff on transient failures.
func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	for i, p := range points {
		if len(p.Vector) != q.dimension {
			return fmt.Errorf("%w: point %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(p.Vector), q.dimension)
		}
	}

	for i := 0; i < len(points); i += upsertBatchSize {
		end := min(i+upsertBatchSize, len(points))
		batch := points[i:end]

		structs := make([]*qdrant.PointStruct, len(batch))
		for j, p := range batch {
			structs[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"document_id": p.DocumentID,
					"chunk_id":    p.ID,
					"chunk_index": p.ChunkIndex,
					"text":        p.Text,
					"filename":    p.Filename,
					"uploaded_at": p.UploadedAt.UTC().Format(time.RFC3339),
				}),
			}
		}

		if err := q.upsertWithRetry(ctx, structs); err != nil {
			return fmt.Errorf("%w: upsert batch %d-%d: %v", ErrIndexUnavailable, i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs an upsert with exponential backoff.
func (q *Qdrant) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		return err
	}, backoff.WithContext(exponentialBackoff, ctx))
}

// Search returns the limit nearest points, best score first.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	if len(vector) != q.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), q.dimension)
	}

	results, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrIndexUnavailable, err)
	}

	scored := make([]ScoredPoint, 0, len(results))
	for _, result := range results {
		payload := result.Payload

		uploadedAt, err := time.Parse(time.RFC3339, payload["uploaded_at"].GetStringValue())
		if err != nil {
			uploadedAt = time.Time{}
		}

		scored = append(scored, ScoredPoint{
			Point: Point{
				ID:         result.Id.GetUuid(),
				DocumentID: payload["document_id"].GetStringValue(),
				ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
				Filename:   payload["filename"].GetStringValue(),
				UploadedAt: uploadedAt,
			},
			Score: float64(result.Score),
		})
	}

	return scored, nil
}

// Delete removes points by id. Waits for the deletion to apply so a
// subsequent search never returns removed points.
func (q *Qdrant) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: delete points: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Count returns the number of points in the collection.
func (q *Qdrant) Count(ctx context.Context) (uint64, error) {
	collection, err := q.client.GetCollectionInfo(ctx, q.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: get collection: %v", ErrIndexUnavailable, err)
	}
	return collection.GetPointsCount(), nil
}

// Close closes the underlying gRPC connection.
func (q *Qdrant) Close() error {
	if q.client != nil {
		return q.client.Close()
	}
	return nil
}
