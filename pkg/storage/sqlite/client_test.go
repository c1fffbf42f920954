package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fragent/fragent-go/pkg/storage/sqlite"
	"github.com/fragent/fragent-go/pkg/storage/storagetest"
)

func setupSQLiteTest(t *testing.T) *sqlite.Config {
	return &sqlite.Config{DBPath: filepath.Join(t.TempDir(), "data", "fragent.db")}
}

func TestSQLiteStore(t *testing.T) {
	store, err := sqlite.NewClient(setupSQLiteTest(t))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	storagetest.Run(t, store)
}

func TestSQLiteStore_ReopenKeepsSchema(t *testing.T) {
	cfg := setupSQLiteTest(t)

	store, err := sqlite.NewClient(cfg)
	require.NoError(t, err)
	agent := storagetest.NewAgent(t, store)
	require.NoError(t, store.Close())

	store, err = sqlite.NewClient(cfg)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.GetAgent(context.Background(), agent.ID)
	require.NoError(t, err)
}
