package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/automaton-auditor/internal/version"
)

func TestValue_DefaultsWhenUnstamped(t *testing.T) {
	assert.Equal(t, "v0.0.0", version.Value())
}
