package repositories

import (
	"context"
	"fmt"

	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to the database at connStr and brings its
// schema up to date.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	pool, err := connectDb(ctx, connStr)
	if err != nil {
		return nil, err
	}

	err = migrate(ctx, "postgres", func(ctx context.Context, q string) error {
		_, err := pool.Exec(ctx, q)
		return err
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{
		pool: pool,
	}, nil
}

func connectDb(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	log.Info("Connected to %s as %s", database, username)

	return pool, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	q := `
	INSERT INTO snapshots (session_id, frame, state, captured_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id;
	`
	err := r.pool.QueryRow(ctx, q, snapshot.SessionID, int64(snapshot.Frame), snapshot.State, snapshot.CapturedAt).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	return nil
}

func (r *PostgresRepository) LatestSnapshot(ctx context.Context, sessionID string) (*models.Snapshot, error) {
	q := `
	SELECT id, session_id, frame, state, captured_at FROM snapshots
	WHERE session_id = $1
	ORDER BY id DESC
	LIMIT 1;
	`
	var frame int64
	snapshot := &models.Snapshot{}
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(&snapshot.ID, &snapshot.SessionID, &frame, &snapshot.State, &snapshot.CapturedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan snapshot: %v", err)
	}
	snapshot.Frame = uint64(frame)

	return snapshot, nil
}

// ListSnapshots returns up to limit snapshots of a session, newest first.
func (r *PostgresRepository) ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*models.Snapshot, error) {
	q := `
	SELECT id, session_id, frame, state, captured_at FROM snapshots
	WHERE session_id = $1
	ORDER BY id DESC
	LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %v", err)
	}
	defer rows.Close()

	snapshots := make([]*models.Snapshot, 0)
	for rows.Next() {
		var frame int64
		snapshot := &models.Snapshot{}
		if err := rows.Scan(&snapshot.ID, &snapshot.SessionID, &frame, &snapshot.State, &snapshot.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %v", err)
		}
		snapshot.Frame = uint64(frame)
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %v", err)
	}

	return snapshots, nil
}
