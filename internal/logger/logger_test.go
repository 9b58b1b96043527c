package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleAddsField(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "debug")

	l := Module("inbox")
	l.Debug().Str("owner", "a").Msg("snapshot")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "inbox", line["module"])
	assert.Equal(t, "a", line["owner"])
	assert.Equal(t, "debug", line["level"])
	assert.Contains(t, line, "time")
}

func TestInitFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "chatty")

	Log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	Log.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}
