package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"

	"github.com/lib/pq"

	"github.com/example/ride-sim/internal/monitor"
)

//go:embed schema.sql
var schema string

var ErrDuplicateRun = errors.New("run already stored")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates the runs table if it is missing.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresStore) SaveRun(ctx context.Context, r *Run) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO simulation_runs(id, fingerprint, event_count, rider_wait_time, driver_total_distance, driver_ride_distance, created_at) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.Fingerprint, r.EventCount,
		nullable(r.Report.RiderWaitTime), nullable(r.Report.DriverTotalDistance), nullable(r.Report.DriverRideDistance),
		r.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, r.ID)
	}
	return err
}

func (p *PostgresStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		r              Run
		wait, tot, rde sql.NullFloat64
	)
	err := p.db.QueryRowContext(ctx, `SELECT id, fingerprint, event_count, rider_wait_time, driver_total_distance, driver_ride_distance, created_at FROM simulation_runs WHERE id=$1`, id).
		Scan(&r.ID, &r.Fingerprint, &r.EventCount, &wait, &tot, &rde, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Report = monitor.Report{
		RiderWaitTime:       fromNullable(wait),
		DriverTotalDistance: fromNullable(tot),
		DriverRideDistance:  fromNullable(rde),
	}
	return &r, nil
}

func (p *PostgresStore) Close() error { return p.db.Close() }

// NaN statistics are stored as NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
