// Package features locates conventional feature directories within a
// scanned codebase (routes, components, api, utils, hooks) and assigns
// each a stable id and priority.
package features

import (
	"context"
	"encoding/json"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/ids"
	"github.com/repoanalysis/engine/internal/scanner"
)

var categoryDirNames = map[Category][]string{
	CategoryRoutes:     {"routes", "pages", "app"},
	CategoryComponents: {"components", "widgets"},
	CategoryAPI:        {"api", "endpoints", "controllers"},
	CategoryUtils:      {"utils", "helpers", "lib"},
	CategoryHooks:      {"hooks", "composables"},
}

var dirNameToCategory = func() map[string]Category {
	m := map[string]Category{}
	for cat, names := range categoryDirNames {
		for _, n := range names {
			m[n] = cat
		}
	}
	return m
}()

func categoryPriority(cat Category) Priority {
	switch cat {
	case CategoryRoutes, CategoryAPI:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Discoverer finds conventional feature directories for a codebase.
type Discoverer struct {
	cache *cache.Cache
	log   *logrus.Entry
}

// New constructs a Discoverer.
func New(c *cache.Cache, log *logrus.Entry) *Discoverer {
	return &Discoverer{cache: c, log: log}
}

// Discover returns the feature list for codebaseID, optionally filtered by
// category and optionally served from cache.
func (d *Discoverer) Discover(ctx context.Context, codebaseID string, categories []string, useCache bool) ([]Feature, bool, error) {
	if useCache {
		if cached, ok, err := d.loadCached(ctx, codebaseID); err == nil && ok {
			return filterCategories(cached, categories), true, nil
		}
	}

	root, err := d.scanRoot(ctx, codebaseID)
	if err != nil {
		return nil, false, err
	}

	all := d.walk(root)

	if err := d.persist(ctx, codebaseID, all); err != nil {
		d.log.WithError(err).Warn("failed to persist feature discovery to cache")
	}

	return filterCategories(all, categories), false, nil
}

func (d *Discoverer) walk(root string) []Feature {
	seen := map[string]bool{}
	var found []Feature

	filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil || !entry.IsDir() || path == root {
			return nil
		}
		name := strings.ToLower(entry.Name())
		if skipDirName(name) {
			return filepath.SkipDir
		}
		cat, ok := dirNameToCategory[name]
		if !ok {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil || seen[abs] {
			return nil
		}
		seen[abs] = true
		found = append(found, Feature{
			ID:           ids.FeatureID(abs),
			Name:         entry.Name(),
			Category:     cat,
			AbsolutePath: abs,
			Priority:     categoryPriority(cat),
		})
		return nil
	})

	sort.Slice(found, func(i, j int) bool { return found[i].AbsolutePath < found[j].AbsolutePath })
	return found
}

func skipDirName(name string) bool {
	switch name {
	case "node_modules", ".git", "dist", "build", ".next", "__pycache__", "venv", "env", ".venv", "target", "out", "coverage", ".pytest_cache":
		return true
	}
	return false
}

func filterCategories(all []Feature, categories []string) []Feature {
	if len(categories) == 0 || (len(categories) == 1 && categories[0] == "all") {
		return all
	}
	want := map[string]bool{}
	for _, c := range categories {
		want[c] = true
	}
	filtered := make([]Feature, 0, len(all))
	for _, f := range all {
		if want[string(f.Category)] {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

func (d *Discoverer) scanRoot(ctx context.Context, codebaseID string) (string, error) {
	blob, ok, err := d.cache.Get(ctx, cache.NamespaceScan, codebaseID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", corerr.New(corerr.Precondition, corerr.MsgCodebaseNotScanned)
	}
	var result scanner.Result
	if err := json.Unmarshal(blob, &result); err != nil {
		return "", corerr.Wrap(corerr.CacheError, "cached scan result could not be decoded", err)
	}
	return result.AbsolutePath, nil
}

func (d *Discoverer) persist(ctx context.Context, codebaseID string, all []Feature) error {
	blob, err := json.Marshal(all)
	if err != nil {
		return err
	}
	if err := d.cache.Set(ctx, cache.NamespaceFeatures, codebaseID, blob, time.Hour); err != nil {
		return err
	}
	return d.cache.Set(ctx, cache.NamespaceResource, "features", blob, time.Hour)
}

func (d *Discoverer) loadCached(ctx context.Context, codebaseID string) ([]Feature, bool, error) {
	blob, ok, err := d.cache.Get(ctx, cache.NamespaceFeatures, codebaseID)
	if err != nil || !ok {
		return nil, false, err
	}
	var all []Feature
	if err := json.Unmarshal(blob, &all); err != nil {
		return nil, false, nil
	}
	return all, true, nil
}
