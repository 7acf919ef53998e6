package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter("prod", &buf)
	log.Debug("hidden")
	assert.Zero(t, buf.Len())

	log.Info("batch closed", "batch", "WAOI")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "batch closed", rec["msg"])
	assert.Equal(t, "WAOI", rec["batch"])
	assert.Equal(t, "voe-tracker", rec["service"])

	buf.Reset()
	NewWriter("dev", &buf).Debug("shown")
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}
