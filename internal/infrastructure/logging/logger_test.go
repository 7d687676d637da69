package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	logger, err := New(DevelopmentConfig())
	require.NoError(t, err)
	assert.NotNil(t, logger.Logger)
}

func TestForInvocation(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := &Logger{Logger: zap.New(core)}

	logger.Named("dispatch").ForInvocation("abc").Info("done")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dispatch", entries[0].LoggerName)
	assert.Equal(t, "abc", entries[0].ContextMap()["invocation_id"])
}
