package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vaultScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS vault_events (
	id               TEXT PRIMARY KEY,
	chain_id         BIGINT,
	event_type       TEXT NOT NULL,
	vault_address    TEXT NOT NULL,
	block_number     NUMERIC,
	block_timestamp  NUMERIC,
	transaction_hash TEXT,
	payload          JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS vault_events_tx_idx ON vault_events (transaction_hash);

CREATE TABLE IF NOT EXISTS strategy_names (
	chain_id         BIGINT NOT NULL,
	strategy_address TEXT NOT NULL,
	name             TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, strategy_address)
);
`

// Store provides Postgres persistence for archived events and strategy names.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutEventBatch inserts or updates events keyed by id.
func (s *Store) PutEventBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.Header().ID, err)
		}
		h := e.Header()
		var chainID *int64
		if id, ok := model.ResolveChainID(e); ok {
			chainID = &id
		}
		batch.Queue(`
			INSERT INTO vault_events (
				id, chain_id, event_type, vault_address, block_number, block_timestamp, transaction_hash, payload, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7, $8, now(), now())
			ON CONFLICT (id)
			DO UPDATE SET
				chain_id = EXCLUDED.chain_id,
				event_type = EXCLUDED.event_type,
				vault_address = EXCLUDED.vault_address,
				block_number = EXCLUDED.block_number,
				block_timestamp = EXCLUDED.block_timestamp,
				transaction_hash = EXCLUDED.transaction_hash,
				payload = EXCLUDED.payload,
				updated_at = now()
		`,
			h.ID,
			chainID,
			string(e.Kind()),
			strings.ToLower(h.VaultAddress),
			nullableNumeric(h.BlockNumber),
			nullableNumeric(h.BlockTimestamp),
			nullableText(strings.ToLower(h.TransactionHash)),
			payload,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadStrategyNames returns stored names for the given "chain:address" keys.
func (s *Store) LoadStrategyNames(ctx context.Context, keys []string) (model.StrategyNames, error) {
	chainIDs, addresses, err := splitKeys(keys)
	if err != nil {
		return nil, err
	}
	out := make(model.StrategyNames)
	if len(chainIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT n.chain_id, n.strategy_address, n.name
		FROM strategy_names n
		JOIN unnest($1::bigint[], $2::text[]) AS k(chain_id, strategy_address)
			ON n.chain_id = k.chain_id AND n.strategy_address = k.strategy_address
	`, chainIDs, addresses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			chainID int64
			address string
			name    string
		)
		if err := rows.Scan(&chainID, &address, &name); err != nil {
			return nil, err
		}
		out[model.StrategyKey(chainID, address)] = name
	}
	return out, rows.Err()
}

// SaveStrategyNames upserts non-empty names.
func (s *Store) SaveStrategyNames(ctx context.Context, names model.StrategyNames) error {
	batch := &pgx.Batch{}
	for key, name := range names {
		if name == "" {
			continue
		}
		chainID, address, err := splitKey(key)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO strategy_names (chain_id, strategy_address, name, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (chain_id, strategy_address)
			DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		`, chainID, address, name)
	}
	if batch.Len() == 0 {
		return nil
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func splitKeys(keys []string) ([]int64, []string, error) {
	chainIDs := make([]int64, 0, len(keys))
	addresses := make([]string, 0, len(keys))
	for _, key := range keys {
		chainID, address, err := splitKey(key)
		if err != nil {
			return nil, nil, err
		}
		chainIDs = append(chainIDs, chainID)
		addresses = append(addresses, address)
	}
	return chainIDs, addresses, nil
}

func splitKey(key string) (int64, string, error) {
	chainPart, address, ok := strings.Cut(key, ":")
	if !ok || address == "" {
		return 0, "", fmt.Errorf("invalid strategy key %q", key)
	}
	chainID, err := strconv.ParseInt(chainPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid strategy key %q: %w", key, err)
	}
	return chainID, strings.ToLower(address), nil
}

func nullableNumeric(n model.Numeric) *string {
	if !n.IsSet() {
		return nil
	}
	v := string(n)
	return &v
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
