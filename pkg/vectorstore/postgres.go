package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Backend on Postgres + pgvector. The index build
// time is tracked in a meta table so the staleness check works the same way
// it does for the on-disk backend.
type PostgresStore struct {
	DB   *pgxpool.Pool
	Dims int
}

// NewPostgresStore connects to Postgres. Dims is the embedding width of the
// configured model.
func NewPostgresStore(ctx context.Context, connStr string, dims int) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &PostgresStore{DB: db, Dims: dims}, nil
}

func (ps *PostgresStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_chunks (
                        id        TEXT PRIMARY KEY,
                        content   TEXT NOT NULL,
                        source    TEXT NOT NULL,
                        page      INT  NOT NULL DEFAULT 0,
                        embedding vector(%d) NOT NULL
                )`, ps.Dims),
		`CREATE TABLE IF NOT EXISTS rag_index_meta (
                        singleton BOOL PRIMARY KEY DEFAULT TRUE,
                        built_at  TIMESTAMPTZ NOT NULL
                )`,
	}
	for _, stmt := range stmts {
		if _, err := ps.DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (ps *PostgresStore) Create(ctx context.Context, records []Record) error {
	if err := ps.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := ps.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE rag_chunks`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if err := insertRecords(ctx, tx, records); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
                INSERT INTO rag_index_meta (singleton, built_at) VALUES (TRUE, now())
                ON CONFLICT (singleton) DO UPDATE SET built_at = now()
        `); err != nil {
		return fmt.Errorf("record build time: %w", err)
	}
	return tx.Commit(ctx)
}

func (ps *PostgresStore) Open(ctx context.Context) error {
	ok, err := ps.Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no index present in postgres")
	}
	return nil
}

func (ps *PostgresStore) Add(ctx context.Context, records []Record) error {
	tx, err := ps.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertRecords(ctx, tx, records); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (ps *PostgresStore) Search(ctx context.Context, query []float32, k int) ([]Record, error) {
	rows, err := ps.DB.Query(ctx, `
                SELECT id, content, source, page
                FROM rag_chunks
                ORDER BY embedding <-> $1::vector
                LIMIT $2
        `, vectorLiteral(query), k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Content, &rec.Source, &rec.Page); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (ps *PostgresStore) Exists(ctx context.Context) (bool, error) {
	var n int
	err := ps.DB.QueryRow(ctx, `
                SELECT count(*) FROM information_schema.tables
                WHERE table_name = 'rag_chunks'
        `).Scan(&n)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	err = ps.DB.QueryRow(ctx, `SELECT count(*) FROM rag_chunks`).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (ps *PostgresStore) BuiltAt(ctx context.Context) (time.Time, error) {
	var built time.Time
	err := ps.DB.QueryRow(ctx, `SELECT built_at FROM rag_index_meta WHERE singleton`).Scan(&built)
	if err != nil {
		return time.Time{}, fmt.Errorf("read build time: %w", err)
	}
	return built, nil
}

func (ps *PostgresStore) Drop(ctx context.Context) error {
	_, err := ps.DB.Exec(ctx, `DROP TABLE IF EXISTS rag_chunks, rag_index_meta`)
	return err
}

// Close releases the connection pool.
func (ps *PostgresStore) Close() {
	if ps != nil && ps.DB != nil {
		ps.DB.Close()
	}
}

func insertRecords(ctx context.Context, tx pgx.Tx, records []Record) error {
	for _, rec := range records {
		_, err := tx.Exec(ctx, `
                        INSERT INTO rag_chunks (id, content, source, page, embedding)
                        VALUES ($1, $2, $3, $4, $5::vector)
                        ON CONFLICT (id) DO NOTHING
                `, rec.ID, rec.Content, rec.Source, rec.Page, vectorLiteral(rec.Embedding))
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", rec.ID, err)
		}
	}
	return nil
}

func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
