package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/locallibrary/catalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "catalog.db")

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE loans_probe (id INTEGER PRIMARY KEY AUTOINCREMENT, worker INTEGER NOT NULL)`)
	require.NoError(t, err)

	const workers = 10
	const writes = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers*writes)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				if _, err := db.Exec(`INSERT INTO loans_probe (worker) VALUES (?)`, worker); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected write error: %v", err)
	}

	var count int
	err = db.NewSelect().TableExpr("loans_probe").ColumnExpr("COUNT(*)").Scan(context.Background(), &count)
	require.NoError(t, err)
	assert.Equal(t, workers*writes, count)
}

func TestNew_EnablesForeignKeys(t *testing.T) {
	t.Parallel()

	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "catalog.db")

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	var enabled int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	assert.Equal(t, 1, enabled)
}
