package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := GitCommit
	GitCommit = "abc123"
	defer func() { GitCommit = old }()

	assert.Contains(t, String(), Version)
	assert.Contains(t, String(), "commit abc123")
}
