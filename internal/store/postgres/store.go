// Package postgres is the durable visit record archive, enabled when a DSN
// is configured. Expects a visit_records table:
//
//	CREATE TABLE visit_records (
//	    session_id        text PRIMARY KEY,
//	    start_time        timestamptz NOT NULL,
//	    end_time          timestamptz NOT NULL,
//	    role              text NOT NULL,
//	    prescriptions     jsonb NOT NULL,
//	    patient_history   jsonb NOT NULL,
//	    safety_check      jsonb NOT NULL,
//	    clinician_note    text NOT NULL,
//	    patient_follow_up text NOT NULL,
//	    created_at        timestamptz NOT NULL
//	);
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sohamkundu27/AITelehealth/internal/domain"
)

type Store struct {
	pool    *pgxpool.Pool
	records *VisitRecordRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:    pool,
		records: NewVisitRecordRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Records() domain.VisitRecordRepository { return s.records }
