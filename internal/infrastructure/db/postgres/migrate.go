package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS identities (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    username text NOT NULL,
    email text NOT NULL,
    display_name text NOT NULL DEFAULT '',
    slug text NOT NULL,
    password_hash text NOT NULL DEFAULT '',
    role text NOT NULL DEFAULT 'member',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS identities_email_lower_unique
ON identities (LOWER(email));

CREATE UNIQUE INDEX IF NOT EXISTS identities_slug_unique
ON identities (slug);

CREATE TABLE IF NOT EXISTS identity_meta (
    id bigserial PRIMARY KEY,
    identity_id uuid NOT NULL REFERENCES identities(id) ON DELETE CASCADE,
    meta_key text NOT NULL,
    meta_value text NOT NULL DEFAULT '',
    CONSTRAINT identity_meta_key_unique UNIQUE (identity_id, meta_key)
);

CREATE INDEX IF NOT EXISTS identity_meta_lookup_idx
ON identity_meta (meta_key, meta_value);

CREATE TABLE IF NOT EXISTS activity_log (
    id bigserial PRIMARY KEY,
    owner_id text NOT NULL,
    actor_id text NOT NULL DEFAULT '',
    action text NOT NULL,
    entity_type text NOT NULL,
    entity_id text NOT NULL DEFAULT '',
    summary text NOT NULL DEFAULT '',
    meta jsonb,
    created_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS activity_log_owner_created_idx
ON activity_log (owner_id, created_at DESC);
`

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}
