package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/frs/profile-directory/internal/core/domain"
)

const collectionActivity = "activity_log"

// ActivityRepository is the append-only audit trail.
type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivity)}
}

type activityDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID    string             `bson:"owner_id"`
	ActorID    string             `bson:"actor_id,omitempty"`
	Action     string             `bson:"action"`
	EntityType string             `bson:"entity_type"`
	EntityID   string             `bson:"entity_id,omitempty"`
	Summary    string             `bson:"summary"`
	Meta       bson.M             `bson:"meta,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

func (r *ActivityRepository) Insert(ctx context.Context, e *domain.ActivityEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := activityDoc{
		ID:         primitive.NewObjectID(),
		OwnerID:    e.OwnerID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Summary:    e.Summary,
		Meta:       e.Meta,
		CreatedAt:  e.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert activity: %w", err)
	}
	e.ID = doc.ID.Hex()
	return e.ID, nil
}

// ListByOwner returns newest first. Ties on created_at fall back to insertion
// order through the object id.
func (r *ActivityRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ActivityEntry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"owner_id": ownerID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	var docs []activityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode activity: %w", err)
	}

	entries := make([]domain.ActivityEntry, len(docs))
	for i, d := range docs {
		entries[i] = domain.ActivityEntry{
			ID:         d.ID.Hex(),
			OwnerID:    d.OwnerID,
			ActorID:    d.ActorID,
			Action:     d.Action,
			EntityType: d.EntityType,
			EntityID:   d.EntityID,
			Summary:    d.Summary,
			Meta:       d.Meta,
			CreatedAt:  d.CreatedAt,
		}
	}
	return entries, total, nil
}

func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
