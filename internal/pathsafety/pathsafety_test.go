package pathsafety

import (
	"path/filepath"
	"testing"

	"github.com/repoanalysis/engine/internal/corerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_RejectsTraversal(t *testing.T) {
	s := New(nil)
	_, err := s.Sanitize("../etc/passwd")
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.BadInput))
}

func TestSanitize_RejectsHomePrefix(t *testing.T) {
	s := New(nil)
	_, err := s.Sanitize("~/secrets")
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.BadInput))
}

func TestSanitize_RejectsEmpty(t *testing.T) {
	s := New(nil)
	_, err := s.Sanitize("   ")
	require.Error(t, err)
}

func TestSanitize_CanonicalizesRelativePath(t *testing.T) {
	s := New(nil)
	got, err := s.Sanitize("./some/project")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestSanitize_AllowList(t *testing.T) {
	tmp := t.TempDir()
	s := New([]string{tmp})

	inside := filepath.Join(tmp, "repo")
	got, err := s.Sanitize(inside)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(inside), got)

	_, err = s.Sanitize("/definitely/outside/this/root")
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.BadInput))
}

func TestSanitize_StripsControlChars(t *testing.T) {
	s := New(nil)
	got, err := s.Sanitize("./clean\x00path")
	require.NoError(t, err)
	assert.NotContains(t, got, "\x00")
}

func TestSanitizeToPath_CarriesRawAndAbsolute(t *testing.T) {
	s := New(nil)
	sanitized, err := s.SanitizeToPath("./some/project")
	require.NoError(t, err)
	assert.Equal(t, "./some/project", sanitized.Raw)
	assert.True(t, filepath.IsAbs(sanitized.Absolute))
}

func TestSanitizeToPath_PropagatesRejection(t *testing.T) {
	s := New(nil)
	_, err := s.SanitizeToPath("../etc/passwd")
	require.Error(t, err)
	assert.True(t, corerr.Is(err, corerr.BadInput))
}
