package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Run("defaults apply when unset or empty", func(t *testing.T) {
		t.Setenv("VINOM_LAB_TEST_EMPTY", "")
		assert.Equal(t, 60, getEnvAsIntWithDefault("VINOM_LAB_TEST_UNSET", 60))
		assert.Equal(t, 60, getEnvAsIntWithDefault("VINOM_LAB_TEST_EMPTY", 60))
		assert.True(t, getEnvAsBoolWithDefault("VINOM_LAB_TEST_UNSET", true))
		assert.Equal(t, "corridor", getEnvWithDefault("VINOM_LAB_TEST_UNSET", "corridor"))
	})

	t.Run("set values override defaults", func(t *testing.T) {
		t.Setenv("FRAME_RATE", "30")
		t.Setenv("AUTO_RESET", "true")
		t.Setenv("TASK_MODE", "maze")

		c := initConfig()
		assert.Equal(t, 30, c.FrameRate)
		assert.True(t, c.AutoReset)
		assert.Equal(t, "maze", c.TaskMode)
	})

	t.Run("empty string is kept for plain strings", func(t *testing.T) {
		t.Setenv("BRIDGE_ADDR", "")
		assert.Empty(t, initConfig().BridgeAddr)
	})
}
