package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsAreSetBeforeLdflagsOverride(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotEmpty(t, BuildTime)
}
