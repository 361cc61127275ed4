package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifyMatchAndNoMatch(t *testing.T) {
	r, err := NewRule("^DEBUG:", 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Classify("DEBUG: hi"))
	assert.Equal(t, 0, r.Classify("INFO: hi"))
}

func TestRuleInvalidPattern(t *testing.T) {
	_, err := NewRule("(unterminated", 1, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegexCompile)
}

func TestRuleMatchAnywhereInText(t *testing.T) {
	r, err := NewRule("panic", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Classify("CRIT: panic now"))
}
