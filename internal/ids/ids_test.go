package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodebaseID_StableForSamePath(t *testing.T) {
	a := CodebaseID("/home/user/project")
	b := CodebaseID("/home/user/project")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestCodebaseID_DiffersAcrossPaths(t *testing.T) {
	a := CodebaseID("/home/user/project-a")
	b := CodebaseID("/home/user/project-b")
	assert.NotEqual(t, a, b)
}

func TestFeatureID_SameConstructionAsCodebaseID(t *testing.T) {
	path := "/home/user/project/src/routes"
	assert.Equal(t, CodebaseID(path), FeatureID(path))
}
