package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// EnsureSchema creates the collection tables when they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.schemaStatements() {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) schemaStatements() []string {
	return []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL CHECK (btrim(name) <> ''),
				description TEXT NOT NULL CHECK (btrim(description) <> ''),
				image_url TEXT NOT NULL DEFAULT '',
				total_cost NUMERIC(14,2) NOT NULL CHECK (total_cost > 0),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, r.giftsTable),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				gift_id TEXT NOT NULL,
				name TEXT NOT NULL CHECK (btrim(name) <> ''),
				amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
				payment_method TEXT NOT NULL,
				proof_image_url TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, r.contributionsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)`,
			pq.QuoteIdentifier(r.collections.Gifts+"_created_at_idx"), r.giftsTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (status, gift_id)`,
			pq.QuoteIdentifier(r.collections.Contributions+"_status_gift_idx"), r.contributionsTable),
	}
}
