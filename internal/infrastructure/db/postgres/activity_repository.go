package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/frs/profile-directory/internal/core/domain"
)

// ActivityRepository is the append-only audit trail in `activity_log`.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, e *domain.ActivityEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var meta []byte
	if len(e.Meta) > 0 {
		b, err := json.Marshal(e.Meta)
		if err != nil {
			return "", fmt.Errorf("encode activity meta: %w", err)
		}
		meta = b
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO activity_log (owner_id, actor_id, action, entity_type, entity_id, summary, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.OwnerID, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Summary, meta, e.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert activity: %w", err)
	}
	e.ID = strconv.FormatInt(id, 10)
	return e.ID, nil
}

func (r *ActivityRepository) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]domain.ActivityEntry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, actor_id, action, entity_type, entity_id, summary, meta, created_at
		FROM activity_log
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := []domain.ActivityEntry{}
	for rows.Next() {
		var (
			e    domain.ActivityEntry
			id   int64
			meta []byte
		)
		if err := rows.Scan(&id, &e.OwnerID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Summary, &meta, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		e.ID = strconv.FormatInt(id, 10)
		e.CreatedAt = e.CreatedAt.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, 0, fmt.Errorf("decode activity meta: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
