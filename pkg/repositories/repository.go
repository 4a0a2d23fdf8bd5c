package repositories

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/cbodonnell/rewind/pkg/repositories/models"
)

//go:embed migrations
var migrations embed.FS

// Repository archives pause snapshots. Frame history itself is never
// stored here.
type Repository interface {
	Close(ctx context.Context) error
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	LatestSnapshot(ctx context.Context, sessionID string) (*models.Snapshot, error)
	ListSnapshots(ctx context.Context, sessionID string, limit int) ([]*models.Snapshot, error)
}

type execFunc func(ctx context.Context, sql string) error

// migrate runs every migration for dialect in file name order.
func migrate(ctx context.Context, dialect string, exec execFunc) error {
	dir := path.Join("migrations", dialect)
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		migrationPath := path.Join(dir, entry.Name())
		migration, err := fs.ReadFile(migrations, migrationPath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if err := exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return nil
}
