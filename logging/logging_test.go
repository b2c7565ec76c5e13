package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAutoFormatIsJSONForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "auto", &buf)
	Component(logger, "audio").WithField(FieldPath, "a.wav").Debug("decoded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "audio", entry[FieldComponent])
	assert.Equal(t, "a.wav", entry[FieldPath])
	assert.Equal(t, "decoded", entry["msg"])
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	logger := New("chatty", "text", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
