package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/jobprep/internal/logger"
)

// SQLiteFile is the database file name under the data directory.
const SQLiteFile = "jobprep.db"

// Open returns the store for backend rooted at dataDir.
func Open(ctx context.Context, backend, dataDir string, log logger.Logger) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(dataDir, log)
	case BackendSQLite:
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return NewSQLiteStore(ctx, filepath.Join(dataDir, SQLiteFile))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
