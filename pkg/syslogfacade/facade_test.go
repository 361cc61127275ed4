package syslogfacade

import (
	"log/syslog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario B/C from the component design: ignore/count/fail rules
// registered in order, exercised against a run of log calls.
func TestScenarioBAndC(t *testing.T) {
	f := New()
	require.NoError(t, f.Ignore("^DEBUG:"))
	require.NoError(t, f.Match("user .* logged in", 7))
	require.NoError(t, f.Fail("panic"))

	dis, msg := f.Log(syslog.LOG_DEBUG, "hi")
	assert.Equal(t, Ignore, dis)
	assert.Equal(t, "DEBUG: hi", msg)

	dis, msg = f.Log(syslog.LOG_INFO, "user alice logged in")
	assert.Equal(t, Count, dis)
	assert.Equal(t, "INFO: user alice logged in", msg)

	dis, _ = f.Log(syslog.LOG_INFO, "user bob logged in")
	assert.Equal(t, Count, dis)

	n, err := f.Count(7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	dis, msg = f.Log(syslog.LOG_CRIT, "panic now")
	assert.Equal(t, Fail, dis)
	assert.Equal(t, "CRIT: panic now", msg)
}

// Scenario E: querying a tag no rule carries fails with ErrUnmatchedTag.
func TestScenarioE(t *testing.T) {
	f := New()
	require.NoError(t, f.Ignore("^DEBUG:"))

	_, err := f.Count(-1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnmatchedTag)
}

func TestUnmatchedLogIsUnknown(t *testing.T) {
	f := New()
	require.NoError(t, f.Ignore("^DEBUG:"))

	dis, msg := f.Log(syslog.LOG_WARNING, "something unexpected")
	assert.Equal(t, Unknown, dis)
	assert.Equal(t, "WARNING: something unexpected", msg)
}

func TestTieBreakKeepsEarlierRule(t *testing.T) {
	f := New()
	require.NoError(t, f.Match("foo", 1))
	require.NoError(t, f.Match("foo", 2))

	dis, _ := f.Log(syslog.LOG_INFO, "foo")
	assert.Equal(t, Count, dis)

	n1, err := f.Count(1)
	require.NoError(t, err)
	n2, err := f.Count(2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n1)
	assert.EqualValues(t, 0, n2)
}

func TestMessageTrimsTrailingWhitespace(t *testing.T) {
	f := New()
	_, msg := f.Log(syslog.LOG_INFO, "hi there \n\t")
	assert.Equal(t, "INFO: hi there", msg)
}

func TestLoadRulesBytes(t *testing.T) {
	f := New()
	doc := []byte(`
rules:
  - ignore: "^DEBUG:"
  - match: "user .* logged in"
    tag: 7
  - fail: "panic"
`)
	require.NoError(t, LoadRulesBytes(f, doc))

	dis, _ := f.Log(syslog.LOG_INFO, "user alice logged in")
	assert.Equal(t, Count, dis)
	n, err := f.Count(7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestTagsListsRegisteredCountTags(t *testing.T) {
	f := New()
	require.NoError(t, f.Ignore("^DEBUG:"))
	require.NoError(t, f.Match("foo", 1))
	require.NoError(t, f.Match("bar", 2))

	assert.ElementsMatch(t, []int{1, 2}, f.Tags())
}

func TestInvalidRulePatternFails(t *testing.T) {
	f := New()
	err := f.Fail("(unterminated")
	require.Error(t, err)
}
