package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const (
	collectionIdentities  = "identities"
	collectionProfileMeta = "profile_meta"

	indexEmailLower = "identities_email_lower_unique"
	indexSlug       = "identities_slug_unique"
)

// ProfileRepository stores identities and their attribute rows. Writes that
// touch both collections run inside a transaction, which requires MongoDB to
// run as a replica set.
type ProfileRepository struct {
	client     *mongo.Client
	identities *mongo.Collection
	meta       *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		client:     db.Client(),
		identities: db.Collection(collectionIdentities),
		meta:       db.Collection(collectionProfileMeta),
	}
}

type identityDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	EmailLower   string             `bson:"email_lower"`
	DisplayName  string             `bson:"display_name"`
	Slug         string             `bson:"slug"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type metaDoc struct {
	IdentityID string `bson:"identity_id"`
	Key        string `bson:"meta_key"`
	Value      string `bson:"meta_value"`
}

func (d *identityDoc) toIdentity() *domain.Identity {
	return &domain.Identity{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		Slug:         d.Slug,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (d *identityDoc) toProfile(attrs map[string]string) *domain.Profile {
	p := &domain.Profile{
		ID:          d.ID.Hex(),
		Email:       d.Email,
		Slug:        d.Slug,
		DisplayName: d.DisplayName,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	domain.Hydrate(p, attrs)
	return p
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProfileNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"email_lower": domain.NormalizeEmail(email)})
}

func (r *ProfileRepository) FindBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *ProfileRepository) FindByAttribute(ctx context.Context, key, value string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var row metaDoc
	if err := r.meta.FindOne(ctx, bson.M{"meta_key": key, "meta_value": value}).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find attribute %s: %w", key, err)
	}
	return r.FindByID(ctx, row.IdentityID)
}

// FindIdentityByEmail returns the identity with its password hash for login.
func (r *ProfileRepository) FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := r.identities.FindOne(ctx, bson.M{"email_lower": domain.NormalizeEmail(email)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toIdentity(), nil
}

func (r *ProfileRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"slug": slug}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := r.identities.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// Custom slug overrides share the public URL space with canonical slugs.
	custom := bson.M{"meta_key": domain.KeyCustomSlug, "meta_value": slug}
	if excludeID != "" {
		custom["identity_id"] = bson.M{"$ne": excludeID}
	}
	n, err = r.meta.CountDocuments(ctx, custom, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("custom slug exists: %w", err)
	}
	return n > 0, nil
}

// Create inserts the identity and its attribute rows in one transaction.
func (r *ProfileRepository) Create(ctx context.Context, identity *domain.Identity, p *domain.Profile) (*domain.Profile, error) {
	doc := identityDoc{
		ID:           primitive.NewObjectID(),
		Username:     identity.Username,
		Email:        strings.TrimSpace(identity.Email),
		EmailLower:   domain.NormalizeEmail(identity.Email),
		DisplayName:  identity.DisplayName,
		Slug:         identity.Slug,
		PasswordHash: identity.PasswordHash,
		Role:         identity.Role,
		CreatedAt:    identity.CreatedAt,
		UpdatedAt:    identity.UpdatedAt,
	}

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.identities.InsertOne(sc, doc); err != nil {
			return mapDuplicate(err)
		}
		return r.writeAttributes(sc, doc.ID.Hex(), domain.Flatten(p))
	})
	if err != nil {
		return nil, err
	}

	created := *p
	created.ID = doc.ID.Hex()
	created.Email = doc.Email
	created.Slug = doc.Slug
	created.DisplayName = doc.DisplayName
	created.CreatedAt = doc.CreatedAt
	created.UpdatedAt = doc.UpdatedAt
	created.EnsureCollections()
	identity.ID = created.ID
	return &created, nil
}

// Save rewrites the identity fields and every attribute row atomically: a
// uniqueness violation on the identity leaves no attribute write behind.
func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return domain.ErrProfileNotFound
	}

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := r.identities.UpdateByID(sc, oid, bson.M{"$set": bson.M{
			"email":        strings.TrimSpace(p.Email),
			"email_lower":  domain.NormalizeEmail(p.Email),
			"display_name": p.DisplayName,
			"slug":         p.Slug,
			"updated_at":   p.UpdatedAt,
		}})
		if err != nil {
			return mapDuplicate(err)
		}
		if res.MatchedCount == 0 {
			return domain.ErrProfileNotFound
		}
		return r.writeAttributes(sc, p.ID, domain.Flatten(p))
	})
}

func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrProfileNotFound
	}

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := r.identities.DeleteOne(sc, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete identity: %w", err)
		}
		if res.DeletedCount == 0 {
			return domain.ErrProfileNotFound
		}
		if _, err := r.meta.DeleteMany(sc, bson.M{"identity_id": id}); err != nil {
			return fmt.Errorf("delete attributes: %w", err)
		}
		return nil
	})
}

func (r *ProfileRepository) List(ctx context.Context, filter ports.ListProfilesFilter) ([]*domain.Profile, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, err := r.listQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.identities.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "display_name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.identities.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	var docs []identityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode profiles: %w", err)
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID.Hex()
	}
	attrs, err := r.loadAttributes(ctx, ids...)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]*domain.Profile, len(docs))
	for i := range docs {
		profiles[i] = docs[i].toProfile(attrs[ids[i]])
	}
	return profiles, total, nil
}

func (r *ProfileRepository) ListIDs(ctx context.Context) ([]string, error) {
	cursor, err := r.identities.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list identity ids: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cursor.Err()
}

// EnsureIndexes creates the uniqueness and lookup indexes.
func (r *ProfileRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.identities.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email_lower", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexEmailLower)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexSlug)},
		{Keys: bson.D{{Key: "display_name", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("identity indexes: %w", err)
	}

	_, err = r.meta.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "identity_id", Value: 1}, {Key: "meta_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "meta_key", Value: 1}, {Key: "meta_value", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("profile meta indexes: %w", err)
	}
	return nil
}

func (r *ProfileRepository) findOne(ctx context.Context, filter bson.M) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := r.identities.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}

	id := doc.ID.Hex()
	attrs, err := r.loadAttributes(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toProfile(attrs[id]), nil
}

// loadAttributes returns identity id → attribute map for every requested id.
func (r *ProfileRepository) loadAttributes(ctx context.Context, ids ...string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := r.meta.Find(ctx, bson.M{"identity_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("load attributes: %w", err)
	}
	var rows []metaDoc
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	for _, row := range rows {
		if out[row.IdentityID] == nil {
			out[row.IdentityID] = make(map[string]string)
		}
		out[row.IdentityID][row.Key] = row.Value
	}
	return out, nil
}

func (r *ProfileRepository) writeAttributes(ctx context.Context, identityID string, attrs map[string]string) error {
	models := make([]mongo.WriteModel, 0, len(attrs))
	for key, value := range attrs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"identity_id": identityID, "meta_key": key}).
			SetUpdate(bson.M{"$set": bson.M{"meta_value": value}}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return nil
	}
	if _, err := r.meta.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("write attributes: %w", err)
	}
	return nil
}

// listQuery translates attribute filters into an identity id constraint.
// Profiles without a stored status count as active.
func (r *ProfileRepository) listQuery(ctx context.Context, filter ports.ListProfilesFilter) (bson.M, error) {
	query := bson.M{}
	var include []string
	restricted := false

	intersect := func(ids []string) {
		if !restricted {
			include, restricted = ids, true
			return
		}
		keep := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			keep[id] = struct{}{}
		}
		filtered := include[:0]
		for _, id := range include {
			if _, ok := keep[id]; ok {
				filtered = append(filtered, id)
			}
		}
		include = filtered
	}

	for key, value := range map[string]string{
		domain.KeyPersonType: filter.PersonType,
		domain.KeyRegion:     filter.Region,
	} {
		if value == "" {
			continue
		}
		ids, err := r.identitiesWith(ctx, bson.M{"meta_key": key, "meta_value": value})
		if err != nil {
			return nil, err
		}
		intersect(ids)
	}

	var exclude []string
	switch filter.Status {
	case "":
	case domain.ProfileStatusActive:
		ids, err := r.identitiesWith(ctx, bson.M{
			"meta_key":   domain.KeyStatus,
			"meta_value": bson.M{"$nin": bson.A{"", domain.ProfileStatusActive}},
		})
		if err != nil {
			return nil, err
		}
		exclude = ids
	default:
		ids, err := r.identitiesWith(ctx, bson.M{"meta_key": domain.KeyStatus, "meta_value": filter.Status})
		if err != nil {
			return nil, err
		}
		intersect(ids)
	}

	idFilter := bson.M{}
	if restricted {
		idFilter["$in"] = toObjectIDs(include)
	}
	if len(exclude) > 0 {
		idFilter["$nin"] = toObjectIDs(exclude)
	}
	if len(idFilter) > 0 {
		query["_id"] = idFilter
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"display_name": pattern},
			bson.M{"email_lower": pattern},
		}
	}
	return query, nil
}

func (r *ProfileRepository) identitiesWith(ctx context.Context, filter bson.M) ([]string, error) {
	values, err := r.meta.Distinct(ctx, "identity_id", filter)
	if err != nil {
		return nil, fmt.Errorf("filter attributes: %w", err)
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *ProfileRepository) withTransaction(ctx context.Context, fn func(mongo.SessionContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func toObjectIDs(ids []string) bson.A {
	out := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

// mapDuplicate turns unique index violations into domain errors.
func mapDuplicate(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("write identity: %w", err)
	}
	if strings.Contains(err.Error(), indexSlug) {
		return domain.ErrSlugTaken
	}
	return domain.ErrEmailTaken
}
