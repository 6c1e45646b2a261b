package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/pkg/config"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Cache.MaxMemoryBytes = 1 << 20
	cfg.Cache.T2Path = dbPath
	log := logrus.NewEntry(logrus.New())
	d, err := New(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDispatcher_ScanThenAnalyzeCodebaseEndToEnd(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "math.go", "package sample\n\n// Add sums two integers.\nfunc Add(a, b int) int {\n\treturn a + b\n}\n")

	scanResult, err := d.ScanCodebase(ctx, root, 10, true)
	require.NoError(t, err)
	assert.False(t, scanResult.FromCache)

	analysis, err := d.AnalyzeCodebase(ctx, scanResult.CodebaseID, true)
	require.NoError(t, err)
	assert.Len(t, analysis.FileAnalyses, 1)
	assert.Equal(t, 1, analysis.AggregateMetrics.TotalFunctions)
}

func TestDispatcher_AnalyzeCodebaseFailsPreconditionWithoutScan(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.AnalyzeCodebase(context.Background(), "never-scanned", true)
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.Precondition))
}

func TestDispatcher_DetectPatternsAggregatesAcrossFiles(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "widget.jsx", "function useWidget() {\n\tconst [state, setState] = useState(0)\n\tuseEffect(() => {}, [])\n\treturn <div>{state}</div>\n}\n")

	scanResult, err := d.ScanCodebase(ctx, root, 10, true)
	require.NoError(t, err)

	patterns, err := d.DetectPatterns(ctx, scanResult.CodebaseID, true)
	require.NoError(t, err)

	var found bool
	for _, p := range patterns {
		if p.PatternType == "framework.react" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDispatcher_AnalyzeDependenciesReturnsGraphAndMetrics(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "a.go", "package sample\nfunc F() {}\n")

	scanResult, err := d.ScanCodebase(ctx, root, 10, true)
	require.NoError(t, err)

	deps, err := d.AnalyzeDependencies(ctx, scanResult.CodebaseID, true)
	require.NoError(t, err)
	assert.Len(t, deps.Graph.Nodes, 1)
	assert.Equal(t, 1, deps.Metrics.TotalFiles)
}

func TestDispatcher_GetResourceFailsPreconditionBeforeScan(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.GetResource(context.Background(), "structure")
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.Precondition))
}

func TestDispatcher_GetResourceServesScannedStructure(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "a.go", "package sample\nfunc F() {}\n")

	_, err := d.ScanCodebase(ctx, root, 10, true)
	require.NoError(t, err)

	blob, err := d.GetResource(ctx, "structure")
	require.NoError(t, err)
	assert.NotEmpty(t, blob)
}

func TestDispatcher_Call_UnknownProcedureIsBadInput(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Call(context.Background(), "nonexistent", nil)
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.BadInput))
}

func TestDispatcher_Call_ScanCodebaseByName(t *testing.T) {
	d := newTestDispatcher(t)
	root := t.TempDir()
	writeFile(t, root, "a.go", "package sample\nfunc F() {}\n")

	result, err := d.Call(context.Background(), "scan_codebase", map[string]any{"path": root, "max_depth": 10.0})
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestDispatcher_GetCacheStats(t *testing.T) {
	d := newTestDispatcher(t)
	stats, err := d.GetCacheStats(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.T1.Hits, int64(0))
}
