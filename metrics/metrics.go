// Package metrics exposes the Prometheus collectors of the environment.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vinom_lab"

var (
	// episodesTotal counts finished episodes.
	// Labels: outcome (success, failure, reset)
	episodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "episode",
		Name:      "finished_total",
		Help:      "Total finished episodes by outcome",
	}, []string{"outcome"})

	// episodeReward observes the cumulative reward of finished episodes.
	episodeReward = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "episode",
		Name:      "reward",
		Help:      "Cumulative reward per finished episode",
		Buckets:   []float64{-20, -10, -5, -2, -1, 0, 1, 2, 5, 10},
	})

	// stepOutcomes counts evaluated steps.
	// Labels: kind (step, wall_collision, success, failure)
	stepOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "trial",
		Name:      "outcomes_total",
		Help:      "Total evaluated steps by outcome kind",
	}, []string{"kind"})

	// trialConfig reports the configuration of the running episode, 1 for the active one.
	// Labels: config (A, B)
	trialConfig = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "trial",
		Name:      "config",
		Help:      "Active trial configuration",
	}, []string{"config"})

	// motivated is 1 while the agent is motivated.
	motivated = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "trial",
		Name:      "motivated",
		Help:      "Motivation flag of the agent",
	})

	// bridgeState reports the connection state, 1 for the current one.
	// Labels: state (disconnected, connecting, connected)
	bridgeState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "bridge",
		Name:      "state",
		Help:      "Connection state of the bridge",
	}, []string{"state"})

	// bridgeTransitions counts connection state transitions.
	// Labels: from, to
	bridgeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bridge",
		Name:      "transitions_total",
		Help:      "Total connection state transitions",
	}, []string{"from", "to"})

	// droppedMessages counts inbound messages that failed to decode.
	droppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bridge",
		Name:      "dropped_messages_total",
		Help:      "Total malformed inbound messages dropped",
	})

	// observationsSent counts observations handed to the bridge writer.
	observationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bridge",
		Name:      "observations_sent_total",
		Help:      "Total observations offered to the connection",
	})

	// stepDuration measures the wall time of one controller step.
	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "episode",
		Name:      "step_duration_seconds",
		Help:      "Controller step duration in seconds",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
)

// RecordEpisode counts a finished episode and observes its reward.
func RecordEpisode(outcome string, reward float64) {
	episodesTotal.WithLabelValues(outcome).Inc()
	episodeReward.Observe(reward)
}

// RecordStep counts one evaluated step.
func RecordStep(kind string, durationSec float64) {
	stepOutcomes.WithLabelValues(kind).Inc()
	stepDuration.Observe(durationSec)
}

// SetTrialConfig marks cfg as the active configuration among all.
func SetTrialConfig(cfg string, all []string) {
	for _, c := range all {
		v := 0.0
		if c == cfg {
			v = 1
		}
		trialConfig.WithLabelValues(c).Set(v)
	}
}

// SetMotivated records the motivation flag.
func SetMotivated(m bool) {
	if m {
		motivated.Set(1)
		return
	}
	motivated.Set(0)
}

// RecordBridgeTransition counts a transition and updates the state gauge.
// The state labels are fixed so stale states read 0.
func RecordBridgeTransition(from, to string) {
	bridgeTransitions.WithLabelValues(from, to).Inc()
	for _, s := range []string{"disconnected", "connecting", "connected"} {
		v := 0.0
		if s == to {
			v = 1
		}
		bridgeState.WithLabelValues(s).Set(v)
	}
}

// RecordDroppedMessage counts one malformed inbound message.
func RecordDroppedMessage() {
	droppedMessages.Inc()
}

// RecordObservationSent counts one observation offered to the bridge.
func RecordObservationSent() {
	observationsSent.Inc()
}
