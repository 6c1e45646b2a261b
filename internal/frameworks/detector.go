// Package frameworks parses dependency manifests at a codebase root and
// emits a ranked, evidence-backed list of detected frameworks.
package frameworks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/scanner"
)

// Detector runs all known manifest-based detection sources for a codebase.
type Detector struct {
	cache *cache.Cache
	log   *logrus.Entry
}

// New constructs a Detector.
func New(c *cache.Cache, log *logrus.Entry) *Detector {
	return &Detector{cache: c, log: log}
}

// Detect returns the ranked framework list for codebaseID, filtered by
// confidenceThreshold, optionally served from cache.
func (d *Detector) Detect(ctx context.Context, codebaseID string, confidenceThreshold float64, useCache bool) ([]Detection, bool, error) {
	if useCache {
		if cached, ok, err := d.loadCached(ctx, codebaseID, confidenceThreshold); err == nil && ok {
			return cached, true, nil
		}
	}

	root, err := d.scanRoot(ctx, codebaseID)
	if err != nil {
		return nil, false, err
	}

	var all []Detection
	all = append(all, detectJavaScript(root, d.log)...)
	all = append(all, detectPython(root, d.log)...)

	filtered := make([]Detection, 0, len(all))
	for _, det := range all {
		if det.Confidence >= confidenceThreshold {
			filtered = append(filtered, det)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Confidence != filtered[j].Confidence {
			return filtered[i].Confidence > filtered[j].Confidence
		}
		return filtered[i].Name < filtered[j].Name
	})

	if err := d.persist(ctx, codebaseID, all); err != nil {
		d.log.WithError(err).Warn("failed to persist framework detections to cache")
	}

	return filtered, false, nil
}

func (d *Detector) scanRoot(ctx context.Context, codebaseID string) (string, error) {
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

// persist caches the unfiltered detection set so a later call with a lower
// confidence_threshold still benefits from the cached manifest parse.
func (d *Detector) persist(ctx context.Context, codebaseID string, all []Detection) error {
	blob, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return d.cache.Set(ctx, cache.NamespaceFrameworks, codebaseID, blob, time.Hour)
}

func (d *Detector) loadCached(ctx context.Context, codebaseID string, confidenceThreshold float64) ([]Detection, bool, error) {
	blob, ok, err := d.cache.Get(ctx, cache.NamespaceFrameworks, codebaseID)
	if err != nil || !ok {
		return nil, false, err
	}
	var all []Detection
	if err := json.Unmarshal(blob, &all); err != nil {
		return nil, false, nil
	}
	filtered := make([]Detection, 0, len(all))
	for _, det := range all {
		if det.Confidence >= confidenceThreshold {
			filtered = append(filtered, det)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Confidence != filtered[j].Confidence {
			return filtered[i].Confidence > filtered[j].Confidence
		}
		return filtered[i].Name < filtered[j].Name
	})
	return filtered, true, nil
}

func manifestPath(root, name string) string {
	return filepath.Join(root, name)
}
