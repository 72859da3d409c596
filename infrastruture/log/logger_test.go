package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("tags lines with prefix and level", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New("BRIDGE", "\033[36m", &buf)
		require.NoError(t, err)

		l.Info("connected")
		l.Warning("dropped")
		l.Error("failed")

		out := buf.String()
		assert.Contains(t, out, "[BRIDGE]")
		assert.Contains(t, out, "[INFO]\033[0m connected")
		assert.Contains(t, out, "[WARNING]\033[0m dropped")
		assert.Contains(t, out, "[ERROR]\033[0m failed")
	})

	t.Run("rejects a nil writer", func(t *testing.T) {
		_, err := New("APP", "", nil)
		assert.ErrorIs(t, err, ErrNilWriter)
	})

	t.Run("discard logger is usable", func(t *testing.T) {
		assert.NotPanics(t, func() { Discard().Info("nothing") })
	})
}
