package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/corvid0/corvid/internal/log"
)

// Table schema constants; they match db/migrations.
const (
	chunksTable = "kb_chunks"

	upsertSQL = `INSERT INTO ` + chunksTable + ` (id, namespace, content, embedding, metadata)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET namespace = EXCLUDED.namespace,
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    metadata = EXCLUDED.metadata`

	querySQL = `SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
FROM ` + chunksTable + `
WHERE namespace = $2
ORDER BY embedding <=> $1
LIMIT $3`

	deleteSQL = `DELETE FROM ` + chunksTable + ` WHERE namespace = $1`
)

// Postgres is the production Index backed by PostgreSQL with the pgvector
// extension. Vectors are stored in a single table with a namespace column;
// all statements are parameterized and namespace-scoped.
type Postgres struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewPostgres creates a Postgres index over an existing connection pool.
// The pool must have pgvector types registered; see NewPool.
func NewPostgres(pool *pgxpool.Pool, logger log.Logger) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("connection pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Postgres{pool: pool, logger: logger}, nil
}

// NewPool creates a pgx connection pool with pgvector type support and
// verifies connectivity.
func NewPool(ctx context.Context, connURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// Upsert implements Index. All items are written in one batch; a failure on
// any statement fails the whole call.
func (p *Postgres) Upsert(ctx context.Context, namespace string, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		metadata, err := json.Marshal(it.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for %q: %w", it.ID, err)
		}
		batch.Queue(upsertSQL, it.ID, namespace, it.Text, pgvector.NewVector(it.Vector), metadata)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range items {
		if _, err := results.Exec(); err != nil {
			return classify(fmt.Errorf("upserting into namespace %q: %w", namespace, err))
		}
	}

	p.logger.Debug("upserted vectors", "namespace", namespace, "count", len(items))
	return nil
}

// Query implements Index.
func (p *Postgres) Query(ctx context.Context, namespace string, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := p.pool.Query(ctx, querySQL, pgvector.NewVector(vector), namespace, k)
	if err != nil {
		return nil, classify(fmt.Errorf("querying namespace %q: %w", namespace, err))
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m          Match
			metadata   []byte
			similarity float64
		)
		if err := rows.Scan(&m.ID, &m.Text, &metadata, &similarity); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		meta, err := decodeMetadata(metadata)
		if err != nil {
			p.logger.Warn("unparseable chunk metadata", "id", m.ID, "error", err)
		}
		m.Metadata = meta
		m.Similarity = float32(similarity)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("reading matches from namespace %q: %w", namespace, err))
	}

	return matches, nil
}

// decodeMetadata parses the JSONB metadata column. A missing or empty column
// yields nil metadata; malformed JSON yields nil metadata and the parse error.
func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// DeleteNamespace implements Index. Deleting a namespace with no rows is a
// successful no-op.
func (p *Postgres) DeleteNamespace(ctx context.Context, namespace string) error {
	tag, err := p.pool.Exec(ctx, deleteSQL, namespace)
	if err != nil {
		return classify(fmt.Errorf("deleting namespace %q: %w", namespace, err))
	}

	p.logger.Debug("deleted namespace", "namespace", namespace, "rows", tag.RowsAffected())
	return nil
}

// retryablePgClasses are the SQLSTATE classes where retrying can help:
// 08 connection exceptions, 40 transaction rollbacks (serialization,
// deadlock), 53 insufficient resources, 57 operator intervention (server
// shutdown).
var retryablePgClasses = map[string]bool{
	"08": true,
	"40": true,
	"53": true,
	"57": true,
}

// classify wraps connectivity failures as retryable ErrUnavailable. Context
// cancellation and deadline expiry pass through untouched so callers can
// distinguish their own timeouts from index outages. Errors the server
// reported against the statement itself (bad SQL, constraint violations,
// wrong vector dimension) are permanent and pass through unwrapped; a retry
// cannot fix them.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && retryablePgClasses[pgErr.Code[:2]] {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	// No server response at all: dial failures, resets, closed pools.
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
