//go:build linux

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapsLine(t *testing.T) {
	m, ok, err := parseMapsLine("00400000-00452000 r-xp 00000000 08:02 173521      /usr/bin/dbus-daemon")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(0x400000), m.Lo)
	assert.Equal(t, uint64(0x452000), m.Hi)
	assert.True(t, m.Read)
	assert.False(t, m.Write)
	assert.True(t, m.Exec)
	assert.Equal(t, "/usr/bin/dbus-daemon", m.Path)
}

func TestParseMapsLineAnonymous(t *testing.T) {
	m, ok, err := parseMapsLine("7f0000000000-7f0000021000 rw-p 00000000 00:00 0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, m.Path)
	assert.True(t, m.Write)
	assert.False(t, m.Shared)
}

func TestParseMapsLineMalformed(t *testing.T) {
	_, ok, err := parseMapsLine("not a maps line")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelfMaps(t *testing.T) {
	mappings, err := SelfMaps()
	require.NoError(t, err)
	assert.NotEmpty(t, mappings)
}
