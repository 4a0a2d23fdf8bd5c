package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cbodonnell/rewind/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at path and brings its schema up
// to date. Use ":memory:" for a throwaway archive.
func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a second connection to :memory: would see a different database
	db.SetMaxOpenConns(1)

	err = migrate(ctx, "sqlite", func(ctx context.Context, q string) error {
		_, err := db.ExecContext(ctx, q)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	q := `
	INSERT INTO snapshots (session_id, frame, state, captured_at)
	VALUES (?, ?, ?, ?);
	`
	result, err := r.db.ExecContext(ctx, q, snapshot.SessionID, int64(snapshot.Frame), snapshot.State, snapshot.CapturedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get snapshot id: %v", err)
	}
	snapshot.ID = id

	return nil
}

func (r *SQLiteRepository) LatestSnapshot(ctx context.Context, sessionID string) (*models.Snapshot, error) {
	snapshots, err := r.ListSnapshots(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, &ErrNotFound{}
	}
	return snapshots[0], nil
}

// ListSnapshots returns up to limit snapshots of a session, newest first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*models.Snapshot, error) {
	q := `
	SELECT id, session_id, frame, state, captured_at FROM snapshots
	WHERE session_id = ?
	ORDER BY id DESC
	LIMIT ?;
	`
	rows, err := r.db.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %v", err)
	}
	defer rows.Close()

	snapshots := make([]*models.Snapshot, 0)
	for rows.Next() {
		var frame int64
		var capturedAt int64
		snapshot := &models.Snapshot{}
		if err := rows.Scan(&snapshot.ID, &snapshot.SessionID, &frame, &snapshot.State, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %v", err)
		}
		snapshot.Frame = uint64(frame)
		snapshot.CapturedAt = time.UnixMilli(capturedAt).UTC()
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %v", err)
	}

	return snapshots, nil
}
