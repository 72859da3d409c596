// Package trial implements the two-alternative forced-choice reward policy and the motivation state
// that modulates agent movement.
package trial

import (
	"errors"
	"fmt"
	"math"

	"github.com/beka-birhanu/vinom-lab/game"
)

var (
	ErrInvalidTrialConfig = errors.New("invalid trial configuration")
)

// Config selects which lateral branch is rewarded for an episode.
type Config string

const (
	ConfigA Config = "A" // Left branch (x < 0) rewarded.
	ConfigB Config = "B" // Right branch (x > 0) rewarded.
)

// Configs lists every valid configuration.
var Configs = []Config{ConfigA, ConfigB}

// Validate returns ErrInvalidTrialConfig for anything but A or B.
func (c Config) Validate() error {
	switch c {
	case ConfigA, ConfigB:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTrialConfig, string(c))
	}
}

// ParseConfig converts the wire discriminant into a Config.
func ParseConfig(s string) (Config, error) {
	c := Config(s)
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// rewarded reports whether lateral position x sits on the rewarded side.
// The center line (x == 0) is never on the rewarded side.
func (c Config) rewarded(x float64) bool {
	if c == ConfigA {
		return x < 0
	}
	return x > 0
}

// OutcomeKind classifies a single evaluation.
type OutcomeKind int

const (
	KindStep OutcomeKind = iota
	KindWallCollision
	KindSuccess
	KindFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case KindWallCollision:
		return "wall_collision"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return "step"
	}
}

// Outcome is the result of evaluating one step.
type Outcome struct {
	Reward   float64
	Terminal bool
	Kind     OutcomeKind
}

// Rules holds the thresholds and reward magnitudes of the policy.
type Rules struct {
	WallThreshold    float64 // Lateral offset beyond which the agent touches a wall.
	GoalThreshold    float64 // Forward position (world Z) the agent must pass to commit.
	SuccessReward    float64
	FailureReward    float64
	CollisionPenalty float64
	StepCost         float64
}

// DefaultRules returns the rules of the reference corridor task.
func DefaultRules() Rules {
	return Rules{
		WallThreshold:    7,
		GoalThreshold:    -35,
		SuccessReward:    10,
		FailureReward:    -5,
		CollisionPenalty: -1,
		StepCost:         -0.01,
	}
}

// Evaluate scores the agent position for one step. It is a pure function of its inputs.
// It panics on an invalid cfg, which can only come from a construction bug.
func (r Rules) Evaluate(pos game.Vec3, cfg Config, lick bool) Outcome {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	switch {
	case math.Abs(pos.X) > r.WallThreshold:
		return Outcome{Reward: r.CollisionPenalty, Kind: KindWallCollision}
	case pos.Z < r.GoalThreshold && lick:
		if cfg.rewarded(pos.X) {
			return Outcome{Reward: r.SuccessReward, Terminal: true, Kind: KindSuccess}
		}
		return Outcome{Reward: r.FailureReward, Terminal: true, Kind: KindFailure}
	default:
		return r.StepOutcome()
	}
}

// EvaluateContact scores the agent entering the goal volume of a maze.
func (r Rules) EvaluateContact() Outcome {
	return Outcome{Reward: r.SuccessReward, Terminal: true, Kind: KindSuccess}
}

// StepOutcome is the neutral per-step outcome.
func (r Rules) StepOutcome() Outcome {
	return Outcome{Reward: r.StepCost, Kind: KindStep}
}
