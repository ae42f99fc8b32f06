package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"qctracker/models"
)

const upsertKVSQL = `
INSERT INTO kv_entries ("key", value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT("key") DO UPDATE SET
  value = excluded.value,
  updated_at = CURRENT_TIMESTAMP`

// KVBackend stores raw key/value pairs in the kv_entries table.
type KVBackend struct {
	db *DB
}

func NewKVBackend(db *DB) *KVBackend {
	return &KVBackend{db: db}
}

func (b *KVBackend) GetRaw(ctx context.Context, key string) (string, bool, error) {
	var entry models.KVEntry
	err := b.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&entry).
			Column("key", "value").
			Where("? = ?", bun.Ident("key"), key).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (b *KVBackend) SetRaw(ctx context.Context, key, value string) error {
	return b.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, upsertKVSQL, key, value)
		return err
	})
}

func (b *KVBackend) DeleteRaw(ctx context.Context, key string) error {
	return b.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.KVEntry)(nil)).
			Where("? = ?", bun.Ident("key"), key).
			Exec(ctx)
		return err
	})
}

func (b *KVBackend) Entries(ctx context.Context) (map[string]string, error) {
	rows := make([]models.KVEntry, 0)
	err := b.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&rows).
			Column("key", "value").
			OrderExpr("? ASC", bun.Ident("key")).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// PutEntries upserts every pair inside one write transaction.
func (b *KVBackend) PutEntries(ctx context.Context, entries map[string]string) error {
	return b.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for key, value := range entries {
			if _, err := tx.ExecContext(ctx, upsertKVSQL, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}
