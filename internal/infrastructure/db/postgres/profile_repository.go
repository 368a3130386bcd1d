package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/frs/profile-directory/internal/core/domain"
	"github.com/frs/profile-directory/internal/core/ports"
)

const (
	uniqueViolation = "23505"
	constraintSlug  = "identities_slug_unique"
	identityColumns = "id, username, email, display_name, slug, password_hash, role, created_at, updated_at"
	likeEscaper     = `\`
)

// ProfileRepository stores identities in `identities` and their attributes in
// `identity_meta`. Attribute rows cascade with their identity.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (*domain.Identity, error) {
	var i domain.Identity
	if err := row.Scan(&i.ID, &i.Username, &i.Email, &i.DisplayName, &i.Slug, &i.PasswordHash, &i.Role, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	i.CreatedAt, i.UpdatedAt = i.CreatedAt.UTC(), i.UpdatedAt.UTC()
	return &i, nil
}

func profileFrom(i *domain.Identity, attrs map[string]string) *domain.Profile {
	p := &domain.Profile{
		ID:          i.ID,
		Email:       i.Email,
		Slug:        i.Slug,
		DisplayName: i.DisplayName,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	domain.Hydrate(p, attrs)
	return p
}

func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrProfileNotFound
	}
	return r.findOne(ctx, "id = $1", id)
}

func (r *ProfileRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findOne(ctx, "LOWER(email) = $1", domain.NormalizeEmail(email))
}

func (r *ProfileRepository) FindBySlug(ctx context.Context, slug string) (*domain.Profile, error) {
	return r.findOne(ctx, "slug = $1", slug)
}

func (r *ProfileRepository) FindByAttribute(ctx context.Context, key, value string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT identity_id FROM identity_meta WHERE meta_key = $1 AND meta_value = $2 ORDER BY id LIMIT 1`,
		key, value,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find attribute %s: %w", key, err)
	}
	return r.findOne(ctx, "id = $1", id)
}

func (r *ProfileRepository) FindIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE LOWER(email) = $1`,
		domain.NormalizeEmail(email),
	)
	i, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return i, nil
}

func (r *ProfileRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Custom slug overrides share the public URL space with canonical slugs.
	query := `SELECT EXISTS (SELECT 1 FROM identities WHERE slug = $1)
		OR EXISTS (SELECT 1 FROM identity_meta WHERE meta_key = $2 AND meta_value = $1)`
	args := []any{slug, domain.KeyCustomSlug}
	if _, err := uuid.Parse(excludeID); err == nil {
		query = `SELECT EXISTS (SELECT 1 FROM identities WHERE slug = $1 AND id <> $3)
			OR EXISTS (SELECT 1 FROM identity_meta WHERE meta_key = $2 AND meta_value = $1 AND identity_id <> $3)`
		args = append(args, excludeID)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts the identity and its attributes in one transaction.
func (r *ProfileRepository) Create(ctx context.Context, identity *domain.Identity, p *domain.Profile) (*domain.Profile, error) {
	var id string
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO identities (username, email, display_name, slug, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			identity.Username, strings.TrimSpace(identity.Email), identity.DisplayName, identity.Slug,
			identity.PasswordHash, identity.Role, identity.CreatedAt, identity.UpdatedAt,
		).Scan(&id)
		if err != nil {
			return mapUnique(err)
		}
		return writeAttributes(ctx, tx, id, domain.Flatten(p))
	})
	if err != nil {
		return nil, err
	}

	created := *p
	created.ID = id
	created.Email = strings.TrimSpace(identity.Email)
	created.Slug = identity.Slug
	created.DisplayName = identity.DisplayName
	created.CreatedAt = identity.CreatedAt
	created.UpdatedAt = identity.UpdatedAt
	created.EnsureCollections()
	identity.ID = id
	return &created, nil
}

// Save updates the identity row and upserts every attribute in one
// transaction; a unique violation rolls back the attribute writes too.
func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return domain.ErrProfileNotFound
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE identities
			SET email = $2, display_name = $3, slug = $4, updated_at = $5
			WHERE id = $1`,
			p.ID, strings.TrimSpace(p.Email), p.DisplayName, p.Slug, p.UpdatedAt,
		)
		if err != nil {
			return mapUnique(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("save identity: %w", err)
		} else if n == 0 {
			return domain.ErrProfileNotFound
		}
		return writeAttributes(ctx, tx, p.ID, domain.Flatten(p))
	})
}

// Delete removes the identity; attribute rows follow through ON DELETE CASCADE.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrProfileNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) List(ctx context.Context, filter ports.ListProfilesFilter) ([]*domain.Profile, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	where, args := listConditions(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities i`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, filter.Limit, (page-1)*filter.Limit)
	query := fmt.Sprintf(
		`SELECT %s FROM identities i%s ORDER BY i.display_name, i.id LIMIT $%d OFFSET $%d`,
		prefixed("i.", identityColumns), where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var identities []*domain.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		identities = append(identities, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	ids := make([]string, len(identities))
	for n, i := range identities {
		ids[n] = i.ID
	}
	attrs, err := r.loadAttributes(ctx, ids...)
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]*domain.Profile, len(identities))
	for n, i := range identities {
		profiles[n] = profileFrom(i, attrs[i.ID])
	}
	return profiles, total, nil
}

func (r *ProfileRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM identities ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list identity ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ProfileRepository) findOne(ctx context.Context, cond string, arg any) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE `+cond, arg)
	i, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}

	attrs, err := r.loadAttributes(ctx, i.ID)
	if err != nil {
		return nil, err
	}
	return profileFrom(i, attrs[i.ID]), nil
}

func (r *ProfileRepository) loadAttributes(ctx context.Context, ids ...string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT identity_id, meta_key, meta_value FROM identity_meta WHERE identity_id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("load attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, key, value string
		if err := rows.Scan(&id, &key, &value); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		if out[id] == nil {
			out[id] = make(map[string]string)
		}
		out[id][key] = value
	}
	return out, rows.Err()
}

// writeAttributes upserts the whole attribute set in a single round trip.
func writeAttributes(ctx context.Context, tx *sql.Tx, identityID string, attrs map[string]string) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for n, k := range keys {
		values[n] = attrs[k]
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO identity_meta (identity_id, meta_key, meta_value)
		SELECT $1::uuid, k, v FROM unnest($2::text[], $3::text[]) AS t(k, v)
		ON CONFLICT (identity_id, meta_key) DO UPDATE SET
			meta_value = EXCLUDED.meta_value`,
		identityID, pq.Array(keys), pq.Array(values),
	)
	if err != nil {
		return fmt.Errorf("write attributes: %w", err)
	}
	return nil
}

// listConditions builds the WHERE clause for List. Profiles without a stored
// status count as active.
func listConditions(filter ports.ListProfilesFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	hasAttr := func(key, value string) string {
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM identity_meta m WHERE m.identity_id = i.id AND m.meta_key = %s AND m.meta_value = %s)",
			arg(key), arg(value),
		)
	}

	if filter.PersonType != "" {
		conds = append(conds, hasAttr(domain.KeyPersonType, filter.PersonType))
	}
	if filter.Region != "" {
		conds = append(conds, hasAttr(domain.KeyRegion, filter.Region))
	}
	switch filter.Status {
	case "":
	case domain.ProfileStatusActive:
		conds = append(conds, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM identity_meta m WHERE m.identity_id = i.id AND m.meta_key = %s AND m.meta_value NOT IN ('', %s))",
			arg(domain.KeyStatus), arg(domain.ProfileStatusActive),
		))
	default:
		conds = append(conds, hasAttr(domain.KeyStatus, filter.Status))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		p := arg("%" + escapeLike(search) + "%")
		conds = append(conds, fmt.Sprintf("(i.display_name ILIKE %s OR i.email ILIKE %s)", p, p))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscaper, likeEscaper+likeEscaper, "%", likeEscaper+"%", "_", likeEscaper+"_")
	return r.Replace(s)
}

func prefixed(prefix, columns string) string {
	cols := strings.Split(columns, ", ")
	for n := range cols {
		cols[n] = prefix + cols[n]
	}
	return strings.Join(cols, ", ")
}

func (r *ProfileRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// mapUnique turns unique index violations into domain errors.
func mapUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == constraintSlug {
			return domain.ErrSlugTaken
		}
		return domain.ErrEmailTaken
	}
	return fmt.Errorf("write identity: %w", err)
}
