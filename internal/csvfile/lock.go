package csvfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// Process-local mutex per absolute path. flock alone does not order
// goroutines that share one open file description.
var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

// Lock takes the exclusive writer lock for the table at path: a process-local
// mutex plus an advisory flock on path + ".lock" for other processes. The
// returned function releases both. Every read-modify-write of a table file
// must run between Lock and the release.
func Lock(path string) (unlock func(), err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	pathLocksMu.Lock()
	mu, ok := pathLocks[abs]
	if !ok {
		mu = &sync.Mutex{}
		pathLocks[abs] = mu
	}
	pathLocksMu.Unlock()

	mu.Lock()
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("creating directory: %w", err)
	}
	fl := flock.New(abs + ".lock")
	if err := fl.Lock(); err != nil {
		mu.Unlock()
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	return func() {
		_ = fl.Unlock()
		mu.Unlock()
	}, nil
}
