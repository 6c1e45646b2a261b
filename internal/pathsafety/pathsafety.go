// Package pathsafety validates and canonicalizes filesystem paths supplied
// by callers before any other component touches the filesystem.
package pathsafety

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/repoanalysis/engine/pkg/types"
	"github.com/repoanalysis/engine/pkg/utils"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// Sanitizer rejects traversal and home-directory inputs and canonicalizes
// the remainder to an absolute path, optionally constrained to an allow-list
// of roots.
type Sanitizer struct {
	allowedRoots []string
}

// New creates a Sanitizer. An empty allowedRoots disables the allow-list check.
func New(allowedRoots []string) *Sanitizer {
	roots := make([]string, 0, len(allowedRoots))
	for _, r := range allowedRoots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		roots = append(roots, filepath.Clean(abs))
	}
	return &Sanitizer{allowedRoots: roots}
}

// Sanitize validates rawPath and returns its canonicalized absolute form.
func (s *Sanitizer) Sanitize(rawPath string) (string, error) {
	cleaned := s.normalize(rawPath)
	if cleaned == "" {
		return "", corerr.New(corerr.BadInput, "path must not be empty")
	}

	if err := s.detectTraversal(cleaned); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", corerr.Wrap(corerr.BadInput, "path could not be canonicalized", err)
	}
	abs = filepath.Clean(abs)

	if len(s.allowedRoots) > 0 && !s.withinAllowedRoots(abs) {
		return "", corerr.New(corerr.BadInput, "path is outside the configured allow-list of roots")
	}

	return abs, nil
}

// SanitizeToPath is Sanitize, but returns both the original input and its
// canonicalized form as a types.SanitizedPath - useful to callers that want
// to report what a user typed alongside what was actually resolved.
func (s *Sanitizer) SanitizeToPath(rawPath string) (types.SanitizedPath, error) {
	abs, err := s.Sanitize(rawPath)
	if err != nil {
		return types.SanitizedPath{}, err
	}
	return types.SanitizedPath{Raw: rawPath, Absolute: abs}, nil
}

func (s *Sanitizer) normalize(input string) string {
	cleaned := utils.TrimWhitespace(input)
	cleaned = controlChars.ReplaceAllString(cleaned, "")
	return cleaned
}

func (s *Sanitizer) detectTraversal(path string) error {
	if strings.HasPrefix(path, "~") {
		return corerr.New(corerr.BadInput, "path must not reference the home directory")
	}
	for _, segment := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return corerr.New(corerr.BadInput, "path must not contain parent-directory sequences")
		}
	}
	return nil
}

func (s *Sanitizer) withinAllowedRoots(abs string) bool {
	for _, root := range s.allowedRoots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
