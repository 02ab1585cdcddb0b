package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 0, compareVersions("1.2.3", "1.2.3"))
	assert.Equal(t, 1, compareVersions("1.2.4", "1.2.3"))
	assert.Equal(t, -1, compareVersions("1.2.3", "1.3.0"))
	assert.Equal(t, 1, compareVersions("2.0", "1.9.9"))
	assert.Equal(t, 1, compareVersions("1.2.3.1", "1.2.3"))
}

func TestCompareVersions_PreReleaseSuffix(t *testing.T) {
	// Non-numeric segments compare as zero.
	assert.Equal(t, 0, compareVersions("1.2.0-rc1", "1.2.0"))
	assert.Equal(t, 0, compareVersions("dev", "0"))
}
