package frameworks

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

func newTestDetector(t *testing.T) (*Detector, *cache.Cache) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	log := logrus.NewEntry(logrus.New())
	c, err := cache.New(cache.Config{MaxMemoryBytes: 1 << 20, T2Path: dbPath}, log)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return New(c, log), c
}

func seedScanResult(t *testing.T, c *cache.Cache, root string) string {
	t.Helper()
	codebaseID := ids.CodebaseID(root)
	result := scanner.Result{CodebaseID: codebaseID, AbsolutePath: root}
	blob, err := json.Marshal(result)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), cache.NamespaceScan, codebaseID, blob, time.Hour))
	return codebaseID
}

func TestDetect_PreconditionWhenNotScanned(t *testing.T) {
	d, _ := newTestDetector(t)
	_, _, err := d.Detect(context.Background(), "unknown-id", 0.7, false)
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.Precondition))
	assert.Contains(t, err.Error(), corerr.MsgCodebaseNotScanned)
}

func TestDetect_JavaScriptManifest(t *testing.T) {
	d, c := newTestDetector(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{
		"dependencies": {"react": "18.2.0", "express": "4.18.0"}
	}`), 0o644))
	codebaseID := seedScanResult(t, c, root)

	detections, fromCache, err := d.Detect(context.Background(), codebaseID, 0.7, true)
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, detections, 2)
	assert.Equal(t, "express", detections[0].Name) // confidence tie, name ascending
	assert.Equal(t, 0.99, detections[0].Confidence)
}

func TestDetect_MalformedManifestDoesNotFail(t *testing.T) {
	d, c := newTestDetector(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{not json`), 0o644))
	codebaseID := seedScanResult(t, c, root)

	detections, _, err := d.Detect(context.Background(), codebaseID, 0.7, false)
	require.NoError(t, err)
	assert.Empty(t, detections)
}

func TestDetect_ConfidenceThresholdFilters(t *testing.T) {
	d, c := newTestDetector(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "requirements.txt"), []byte("flask==2.0.0\npytest>=7.0\n"), 0o644))
	codebaseID := seedScanResult(t, c, root)

	detections, _, err := d.Detect(context.Background(), codebaseID, 0.99, false)
	require.NoError(t, err)
	assert.Empty(t, detections, "python detections at 0.95 confidence must be filtered out at threshold 0.99")
}

func TestDetect_ServesFromCacheOnSecondCall(t *testing.T) {
	d, c := newTestDetector(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"dependencies": {"vue": "3.0.0"}}`), 0o644))
	codebaseID := seedScanResult(t, c, root)

	_, fromCache1, err := d.Detect(context.Background(), codebaseID, 0.7, true)
	require.NoError(t, err)
	assert.False(t, fromCache1)

	_, fromCache2, err := d.Detect(context.Background(), codebaseID, 0.7, true)
	require.NoError(t, err)
	assert.True(t, fromCache2)
}
