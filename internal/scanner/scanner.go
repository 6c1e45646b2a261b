// Package scanner performs a bounded-depth directory walk over a
// codebase, tallying languages and file types and deriving a summary
// characterization used by every downstream analysis component.
package scanner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/repoanalysis/engine/internal/cache"
	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/internal/ids"
	"github.com/repoanalysis/engine/pkg/utils"
)

var testDirPattern = regexp.MustCompile(`(?i)^(tests?|__tests__|spec)$`)

// Scanner walks codebases bounded by depth and ignore rules.
type Scanner struct {
	cache            *cache.Cache
	log              *logrus.Entry
	ignoreDirs       map[string]bool
	maxFileSizeBytes int64
	softBudget       time.Duration
}

// Config configures scanner limits; zero values fall back to spec defaults.
type Config struct {
	IgnoreDirs       []string
	MaxFileSizeBytes int64
	SoftBudgetMS     int
}

// New constructs a Scanner.
func New(c *cache.Cache, cfg Config, log *logrus.Entry) *Scanner {
	ignore := make(map[string]bool, len(cfg.IgnoreDirs))
	if len(cfg.IgnoreDirs) == 0 {
		ignore = ignoreDirNames
	} else {
		for _, d := range cfg.IgnoreDirs {
			ignore[d] = true
		}
	}

	maxFileSize := cfg.MaxFileSizeBytes
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}

	softBudget := time.Duration(cfg.SoftBudgetMS) * time.Millisecond
	if softBudget <= 0 {
		softBudget = 30 * time.Second
	}

	return &Scanner{cache: c, log: log, ignoreDirs: ignore, maxFileSizeBytes: maxFileSize, softBudget: softBudget}
}

// Scan walks absPath (already sanitized by the caller) up to maxDepth,
// optionally serving a cached ScanResult.
func (s *Scanner) Scan(ctx context.Context, absPath string, maxDepth int, useCache bool) (*Result, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	codebaseID := ids.CodebaseID(absPath)

	if useCache {
		if cached, ok, err := s.loadCached(ctx, codebaseID); err == nil && ok {
			cached.FromCache = true
			return cached, nil
		}
	}

	info, err := os.Stat(absPath)
	if err != nil || !info.IsDir() {
		return nil, corerr.New(corerr.NotFound, "path does not exist: "+absPath)
	}

	start := time.Now()
	structure := Structure{Languages: map[string]int{}, FileTypes: map[string]int{}}
	hasTests := false
	timedOut := false

	err = filepath.WalkDir(absPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable subdirectory/file: skip and continue
		}

		if !timedOut && time.Since(start) > s.softBudget {
			timedOut = true
		}

		rel, _ := filepath.Rel(absPath, path)
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}

		if d.IsDir() {
			name := d.Name()
			if path != absPath && s.ignoreDirs[name] {
				return filepath.SkipDir
			}
			if path != absPath {
				structure.TotalDirectories++
				if testDirPattern.MatchString(name) {
					hasTests = true
				}
			}
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		fi, statErr := d.Info()
		if statErr != nil {
			return nil // unreadable file: skip and continue
		}
		if fi.Size() > s.maxFileSizeBytes {
			return nil
		}

		lang, ok := classify(path)
		if !ok {
			return nil
		}

		structure.TotalFiles++
		structure.TotalSizeMB += float64(fi.Size()) / (1024 * 1024)
		structure.Languages[lang]++
		structure.FileTypes[filepath.Ext(path)]++
		return nil
	})
	if err != nil {
		return nil, corerr.Wrap(corerr.BadInput, "scan traversal failed", errors.WithStack(err))
	}

	result := &Result{
		CodebaseID:   codebaseID,
		AbsolutePath: absPath,
		Structure:    structure,
		Summary:      deriveSummary(structure, hasTests),
		ScanTimeMS:   time.Since(start).Milliseconds(),
		FromCache:    false,
		TimedOut:     timedOut,
	}

	if err := s.persist(ctx, codebaseID, result); err != nil {
		s.log.WithError(err).Warn("failed to persist scan result to cache")
	}

	return result, nil
}

// EnumerateFiles walks absPath under the same depth/ignore/size rules as
// Scan and returns the absolute paths of every recognized-language file,
// the candidate set spec.md §4.11 step 2 calls S.
func (s *Scanner) EnumerateFiles(absPath string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	var files []string
	err := filepath.WalkDir(absPath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		rel, _ := filepath.Rel(absPath, path)
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}

		if d.IsDir() {
			if path != absPath && s.ignoreDirs[d.Name()] {
				return filepath.SkipDir
			}
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		fi, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if fi.Size() > s.maxFileSizeBytes {
			return nil
		}
		if _, ok := classify(path); !ok {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, corerr.Wrap(corerr.BadInput, "file enumeration failed", errors.WithStack(err))
	}
	return files, nil
}

func deriveSummary(st Structure, hasTests bool) Summary {
	primary := primaryLanguage(st.Languages)

	jsTS := st.Languages[langJavaScript] + st.Languages[langTypeScript]
	projectType := ProjectUnknown
	if isDominant(jsTS, st.Languages, langJavaScript, langTypeScript) {
		projectType = ProjectWebApplication
	} else if isDominant(st.Languages[langPython], st.Languages, langPython) {
		projectType = ProjectPythonApplication
	}

	size := SizeSmall
	switch {
	case st.TotalFiles >= 1000:
		size = SizeLarge
	case st.TotalFiles >= 100:
		size = SizeMedium
	}

	return Summary{PrimaryLanguage: primary, ProjectType: projectType, HasTests: hasTests, SizeCategory: size}
}

func primaryLanguage(languages map[string]int) string {
	if len(languages) == 0 {
		return ""
	}
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if languages[name] > languages[best] {
			best = name
		}
	}
	return best
}

// isDominant reports whether the combined count of excludeGroup exceeds
// every other language's individual count.
func isDominant(groupCount int, languages map[string]int, excludeGroup ...string) bool {
	if groupCount == 0 {
		return false
	}
	excluded := map[string]bool{}
	for _, g := range excludeGroup {
		excluded[g] = true
	}
	for name, count := range languages {
		if excluded[name] {
			continue
		}
		if count >= groupCount {
			return false
		}
	}
	return true
}

func (s *Scanner) loadCached(ctx context.Context, codebaseID string) (*Result, bool, error) {
	blob, ok, err := s.cache.Get(ctx, cache.NamespaceScan, codebaseID)
	if err != nil || !ok {
		return nil, false, err
	}
	var result Result
	if err := json.Unmarshal(blob, &result); err != nil {
		return nil, false, nil
	}
	return &result, true, nil
}

func (s *Scanner) persist(ctx context.Context, codebaseID string, result *Result) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return utils.FormatError("marshal scan result", err)
	}
	if err := s.cache.Set(ctx, cache.NamespaceScan, codebaseID, blob, time.Hour); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, cache.NamespaceResource, "structure", blob, time.Hour); err != nil {
		return err
	}

	session := map[string]any{"phase": "scanned", "timestamp": time.Now().Unix()}
	sessionBlob, err := json.Marshal(session)
	if err != nil {
		return utils.FormatError("marshal session state", err)
	}
	return s.cache.Set(ctx, cache.NamespaceSession, codebaseID, sessionBlob, 0)
}
