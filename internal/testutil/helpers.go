package testutil

import (
	"sync"
	"testing"

	"github.com/kyleking/starterdb/internal/models"
	"github.com/kyleking/starterdb/internal/notify"
	"github.com/kyleking/starterdb/internal/storage"
)

// OpenTestDatabase opens a temporary database holding every application
// table. Model failures are captured by the returned Recorder.
func OpenTestDatabase(t *testing.T) (*storage.Database, *storage.Conn, *notify.Recorder) {
	t.Helper()

	return storage.NewTestDatabase(t, models.Registry(), storage.WithMigrations(models.Migrations()...))
}

// RunConcurrent executes the given function concurrently n times.
// Waits for all goroutines to complete before returning.
// Any panics are captured and reported as test failures.
func RunConcurrent(t *testing.T, n int, fn func(workerID int)) {
	t.Helper()

	var wg sync.WaitGroup
	wg.Add(n)

	for i := range n {
		go func(workerID int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("worker %d panicked: %v", workerID, r)
				}
			}()
			fn(workerID)
		}(i)
	}

	wg.Wait()
}
