package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionMirror = "profile_mirror"

// MirrorRepository holds a denormalised copy of each profile's attributes for
// systems that read the legacy key layout.
type MirrorRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMirrorRepository(db *mongo.Database) *MirrorRepository {
	return &MirrorRepository{
		col: db.Collection(collectionMirror),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *MirrorRepository) Mirror(ctx context.Context, profileID string, fields map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, bson.M{"_id": profileID}, bson.M{
		"$set": bson.M{"fields": fields, "mirrored_at": r.now()},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mirror profile %s: %w", profileID, err)
	}
	return nil
}

func (r *MirrorRepository) Remove(ctx context.Context, profileID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": profileID}); err != nil {
		return fmt.Errorf("remove mirror %s: %w", profileID, err)
	}
	return nil
}
