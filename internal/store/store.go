package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a dataset id does not exist.
var ErrNotFound = errors.New("record not found")

// Record is one scraped dataset keyed by uuid.
type Record struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Data      json.RawMessage `json:"data"`
}

// Store wraps Postgres access for scraped datasets.
type Store struct {
	DB *sql.DB
}

func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// ListRecords returns all datasets, oldest first.
func (s *Store) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, created_at, data FROM datasets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Data); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	var r Record
	err := s.DB.QueryRowContext(ctx, `SELECT id, created_at, data FROM datasets WHERE id=$1`, id).Scan(&r.ID, &r.CreatedAt, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

// LatestRecord returns the most recently created dataset.
func (s *Store) LatestRecord(ctx context.Context) (Record, error) {
	var r Record
	err := s.DB.QueryRowContext(ctx, `SELECT id, created_at, data FROM datasets ORDER BY created_at DESC LIMIT 1`).Scan(&r.ID, &r.CreatedAt, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *Store) CreateRecord(ctx context.Context, data []byte) (Record, error) {
	rec := Record{ID: uuid.NewString(), Data: data}
	err := s.DB.QueryRowContext(ctx, `INSERT INTO datasets (id, data) VALUES ($1,$2) RETURNING created_at`, rec.ID, data).Scan(&rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) UpdateRecord(ctx context.Context, id string, data []byte) (Record, error) {
	rec := Record{ID: id, Data: data}
	err := s.DB.QueryRowContext(ctx, `UPDATE datasets SET data=$2 WHERE id=$1 RETURNING created_at`, id, data).Scan(&rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM datasets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
