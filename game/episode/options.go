package episode

import (
	"github.com/beka-birhanu/vinom-lab/game/maze"
	"github.com/beka-birhanu/vinom-lab/game/trial"
	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
)

// WithLogger sets the logger. A nil logger keeps the discarding default.
func WithLogger(l general_i.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithRules replaces the default trial rules.
func WithRules(r trial.Rules) Option {
	return func(c *Controller) {
		c.rules = r
	}
}

// WithTransform replaces the default world-to-grid mapping.
func WithTransform(t maze.Transform) Option {
	return func(c *Controller) {
		c.transform = t
	}
}

// WithTrialPolicy replaces the uniform configuration draw.
func WithTrialPolicy(p TrialPolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithRecorder sets where finished episodes are sent.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithAutoReset starts a new episode right after every terminal outcome.
func WithAutoReset(on bool) Option {
	return func(c *Controller) {
		c.autoReset = on
	}
}
