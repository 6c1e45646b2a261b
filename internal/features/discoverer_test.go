package features

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/ids"
	"github.com/repoanalysis/engine/internal/scanner"
)

func newTestDiscoverer(t *testing.T) (*Discoverer, *cache.Cache) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	log := logrus.NewEntry(logrus.New())
	c, err := cache.New(cache.Config{MaxMemoryBytes: 1 << 20, T2Path: dbPath}, log)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return New(c, log), c
}

func seedScan(t *testing.T, c *cache.Cache, root string) string {
	t.Helper()
	codebaseID := ids.CodebaseID(root)
	result := scanner.Result{CodebaseID: codebaseID, AbsolutePath: root}
	blob, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), cache.NamespaceScan, codebaseID, blob, time.Hour))
	return codebaseID
}

func TestDiscover_PreconditionWhenNotScanned(t *testing.T) {
	d, _ := newTestDiscoverer(t)
	_, _, err := d.Discover(context.Background(), "unknown", nil, false)
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.Precondition))
}

func TestDiscover_FindsConventionalDirectories(t *testing.T) {
	d, c := newTestDiscoverer(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "routes"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "components"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "hooks"), 0o755))
	codebaseID := seedScan(t, c, root)

	found, fromCache, err := d.Discover(context.Background(), codebaseID, nil, false)
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, found, 3)

	byCategory := map[Category]Feature{}
	for _, f := range found {
		byCategory[f.Category] = f
	}
	assert.Equal(t, PriorityHigh, byCategory[CategoryRoutes].Priority)
	assert.Equal(t, PriorityMedium, byCategory[CategoryComponents].Priority)
	assert.Equal(t, PriorityMedium, byCategory[CategoryHooks].Priority)
	assert.NotEmpty(t, byCategory[CategoryRoutes].ID)
}

func TestDiscover_CategoryFilter(t *testing.T) {
	d, c := newTestDiscoverer(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "utils"), 0o755))
	codebaseID := seedScan(t, c, root)

	found, _, err := d.Discover(context.Background(), codebaseID, []string{"api"}, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, CategoryAPI, found[0].Category)
}

func TestDiscover_AllCategoryMeansNoFilter(t *testing.T) {
	d, c := newTestDiscoverer(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages"), 0o755))
	codebaseID := seedScan(t, c, root)

	found, _, err := d.Discover(context.Background(), codebaseID, []string{"all"}, false)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDiscover_IgnoresNodeModules(t *testing.T) {
	d, c := newTestDiscoverer(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg", "routes"), 0o755))
	codebaseID := seedScan(t, c, root)

	found, _, err := d.Discover(context.Background(), codebaseID, nil, false)
	require.NoError(t, err)
	assert.Empty(t, found)
}
