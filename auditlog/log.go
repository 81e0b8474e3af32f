package auditlog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// EventKind classifies one recorded decision.
type EventKind string

const (
	// EventLowSimilarityAdmit: a paragraph was admitted to its best domain
	// even though centroid similarity was below the admit threshold.
	EventLowSimilarityAdmit EventKind = "low_similarity_admit"

	// EventSplitAborted: a split would have produced an undersized half
	// and was abandoned, leaving the domain oversized.
	EventSplitAborted EventKind = "split_aborted"

	// EventMergeNoTarget: every merge candidate would have exceeded the
	// size cap, so the undersized domain was left alone.
	EventMergeNoTarget EventKind = "merge_no_target"

	// EventSplitCommitted and EventMergeCommitted record successful
	// rebalance actions with their before/after shape.
	EventSplitCommitted EventKind = "split_committed"
	EventMergeCommitted EventKind = "merge_committed"
)

// Entry is one decision document.
type Entry struct {
	Kind       EventKind      `bson:"kind"`
	DomainID   string         `bson:"domain_id"`
	RecordedAt time.Time      `bson:"recorded_at"`
	Detail     map[string]any `bson:"detail,omitempty"`
}

// Log is the append-only decision sink.
type Log interface {
	Record(ctx context.Context, kind EventKind, domainID string, detail map[string]any)
}

// MongoLog writes entries to a MongoDB collection.
type MongoLog struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// Config locates the collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// NewMongoLog connects and verifies reachability with a short ping.
func NewMongoLog(ctx context.Context, config Config, logger *zap.Logger) (*MongoLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := mongo.Connect(options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}
	return &MongoLog{
		collection: client.Database(config.Database).Collection(config.Collection),
		logger:     logger.With(zap.String("component", "audit_log")),
	}, nil
}

func (l *MongoLog) Record(ctx context.Context, kind EventKind, domainID string, detail map[string]any) {
	entry := Entry{Kind: kind, DomainID: domainID, RecordedAt: time.Now().UTC(), Detail: detail}
	if _, err := l.collection.InsertOne(ctx, entry); err != nil {
		l.logger.Warn("audit log write failed",
			zap.String("kind", string(kind)),
			zap.String("domain_id", domainID),
			zap.Error(err),
		)
	}
}

// Recent returns the newest limit entries, newest first, for the admin
// surface.
func (l *MongoLog) Recent(ctx context.Context, limit int64) ([]Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: -1}}).SetLimit(limit)
	cur, err := l.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Noop discards every entry; used in tests and when no Mongo is
// configured.
type Noop struct{}

func (Noop) Record(ctx context.Context, kind EventKind, domainID string, detail map[string]any) {}

var (
	_ Log = (*MongoLog)(nil)
	_ Log = Noop{}
)
