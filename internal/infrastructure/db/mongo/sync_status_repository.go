package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/frs/profile-directory/internal/core/domain"
)

const collectionSyncStatus = "sync_status"

// SyncStatusRepository keeps one document per (profile, sink).
type SyncStatusRepository struct {
	col *mongo.Collection
}

func NewSyncStatusRepository(db *mongo.Database) *SyncStatusRepository {
	return &SyncStatusRepository{col: db.Collection(collectionSyncStatus)}
}

func statusFilter(profileID, sink string) bson.M {
	return bson.M{"profile_id": profileID, "sink": sink}
}

func (r *SyncStatusRepository) Get(ctx context.Context, profileID, sink string) (*domain.SyncStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.SyncStatus
	if err := r.col.FindOne(ctx, statusFilter(profileID, sink)).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NewSyncStatus(profileID, sink), nil
		}
		return nil, fmt.Errorf("find sync status: %w", err)
	}
	if s.State == "" {
		s.State = domain.SyncDisconnected
	}
	if s.Errors == nil {
		s.Errors = []domain.SyncError{}
	}
	return &s, nil
}

func (r *SyncStatusRepository) Upsert(ctx context.Context, s *domain.SyncStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	errs := s.Errors
	if errs == nil {
		errs = []domain.SyncError{}
	}
	_, err := r.col.UpdateOne(ctx, statusFilter(s.ProfileID, s.Sink), bson.M{
		"$set": bson.M{
			"state":          s.State,
			"account_id":     s.AccountID,
			"api_key":        s.APIKey,
			"last_synced_at": s.LastSyncedAt,
			"errors":         errs,
			"updated_at":     s.UpdatedAt,
		},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert sync status: %w", err)
	}
	return nil
}

// AppendError pushes e and trims the array to the newest MaxSyncErrors entries
// in a single update, so concurrent sinks never lose each other's writes.
func (r *SyncStatusRepository) AppendError(ctx context.Context, profileID, sink string, e domain.SyncError) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, statusFilter(profileID, sink), bson.M{
		"$push": bson.M{"errors": bson.M{
			"$each":  bson.A{e},
			"$slice": -domain.MaxSyncErrors,
		}},
		"$set":         bson.M{"updated_at": e.At},
		"$setOnInsert": bson.M{"state": domain.SyncDisconnected},
	}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("append sync error: %w", err)
	}
	return nil
}

func (r *SyncStatusRepository) MarkSynced(ctx context.Context, profileID, sink string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx, statusFilter(profileID, sink), bson.M{
		"$set": bson.M{"last_synced_at": at, "updated_at": at},
	})
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (r *SyncStatusRepository) DeleteForProfile(ctx context.Context, profileID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"profile_id": profileID}); err != nil {
		return fmt.Errorf("delete sync statuses: %w", err)
	}
	return nil
}

func (r *SyncStatusRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "profile_id", Value: 1}, {Key: "sink", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
