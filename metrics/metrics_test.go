package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	t.Run("bridge state gauge follows transitions", func(t *testing.T) {
		RecordBridgeTransition("disconnected", "connecting")
		RecordBridgeTransition("connecting", "connected")

		assert.Equal(t, 1.0, testutil.ToFloat64(bridgeState.WithLabelValues("connected")))
		assert.Equal(t, 0.0, testutil.ToFloat64(bridgeState.WithLabelValues("connecting")))
		assert.Equal(t, 1.0, testutil.ToFloat64(bridgeTransitions.WithLabelValues("connecting", "connected")))
	})

	t.Run("trial config gauge is one-hot", func(t *testing.T) {
		SetTrialConfig("B", []string{"A", "B"})
		assert.Equal(t, 0.0, testutil.ToFloat64(trialConfig.WithLabelValues("A")))
		assert.Equal(t, 1.0, testutil.ToFloat64(trialConfig.WithLabelValues("B")))
	})

	t.Run("counters increase", func(t *testing.T) {
		before := testutil.ToFloat64(droppedMessages)
		RecordDroppedMessage()
		assert.Equal(t, before+1, testutil.ToFloat64(droppedMessages))

		beforeEpisodes := testutil.ToFloat64(episodesTotal.WithLabelValues("success"))
		RecordEpisode("success", 9.5)
		assert.Equal(t, beforeEpisodes+1, testutil.ToFloat64(episodesTotal.WithLabelValues("success")))
	})

	t.Run("motivation gauge", func(t *testing.T) {
		SetMotivated(false)
		assert.Equal(t, 0.0, testutil.ToFloat64(motivated))
		SetMotivated(true)
		assert.Equal(t, 1.0, testutil.ToFloat64(motivated))
	})
}
