package logging

import (
	"bytes"
	"log/slog"
	"log/syslog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gregbanks/novaprova/pkg/syslogfacade"
)

func TestNewWritesToConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Level: slog.LevelInfo})

	logger.Info("hello there")

	assert.Contains(t, buf.String(), "hello there")
}

func TestNewFansOutToFacade(t *testing.T) {
	var buf bytes.Buffer
	facade := syslogfacade.New()
	require.NoError(t, facade.Match("hello there", 1))

	logger := New(Options{Writer: &buf, Level: slog.LevelInfo, Facade: facade})
	logger.Info("hello there")

	n, err := facade.Count(1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestLevelToPriority(t *testing.T) {
	assert.Equal(t, syslog.LOG_ERR, levelToPriority(slog.LevelError))
	assert.Equal(t, syslog.LOG_WARNING, levelToPriority(slog.LevelWarn))
	assert.Equal(t, syslog.LOG_INFO, levelToPriority(slog.LevelInfo))
	assert.Equal(t, syslog.LOG_DEBUG, levelToPriority(slog.LevelDebug))
}
