package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledgerguard/pkg/platform/sentinel"
)

// PostgresStore keeps keys in the verification_keys table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ResolveKey loads one key.
func (s *PostgresStore) ResolveKey(ctx context.Context, keyID string) (*Key, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT key_id, key_type, owner_id, public_key FROM verification_keys WHERE key_id = $1",
		keyID)

	var k Key
	err := row.Scan(&k.ID, &k.Type, &k.Owner, &k.PublicKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(keyID)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("load key %q: %w: %v", keyID, sentinel.ErrUnavailable, err)
	}
	return &k, nil
}

// Save inserts or replaces a key.
func (s *PostgresStore) Save(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO verification_keys (key_id, key_type, owner_id, public_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key_id) DO UPDATE SET
			key_type = EXCLUDED.key_type,
			owner_id = EXCLUDED.owner_id,
			public_key = EXCLUDED.public_key
	`
	if _, err := s.db.ExecContext(ctx, query, key.ID, key.Type, key.Owner, key.PublicKey); err != nil {
		return fmt.Errorf("save key %q: %w", key.ID, err)
	}
	return nil
}
