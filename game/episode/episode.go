/*
Package episode drives the per-frame trial cycle.

Each step reads the agent position, scores it with the trial rules, runs the sensory check, reports an
observation to the bridge and, on a consumed reset or a terminal outcome with auto-reset, starts a new
episode. A new episode is published with a single atomic pointer swap, so readers never see a grid
from one episode paired with the configuration of another.
*/
package episode

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
	"github.com/beka-birhanu/vinom-lab/game/maze"
	"github.com/beka-birhanu/vinom-lab/game/trial"
	"github.com/google/uuid"
)

var (
	ErrInvalidMode      = errors.New("invalid task mode")
	ErrInvalidFrameRate = errors.New("frame rate must be positive")
	ErrNilBody          = errors.New("nil body")
	ErrNilGenerator     = errors.New("nil grid generator")
)

// Mode selects the environment layout.
type Mode string

const (
	ModeCorridor Mode = "corridor" // Straight corridor ending in a two-sided choice.
	ModeMaze     Mode = "maze"     // Generated grid with a goal cell.
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeCorridor, ModeMaze:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Episode is one trial from spawn to a terminal outcome or reset. It is never mutated after publication.
type Episode struct {
	ID        uuid.UUID
	Number    int // 1-based episode counter.
	Mode      Mode
	Config    trial.Config
	Grid      *maze.Grid // Nil in corridor mode.
	StartedAt time.Time
}

// Record summarizes a finished episode.
type Record struct {
	ID          uuid.UUID
	Number      int
	Mode        Mode
	Config      trial.Config
	Outcome     string // success, failure or reset.
	TotalReward float64
	Steps       int
	StartedAt   time.Time
	EndedAt     time.Time
}

// Bridge is the part of the agent connection the controller needs.
type Bridge interface {
	Connected() bool
	TakeAction() game.Action
	SendObservation(game.Observation) bool
}

// GridGenerator produces a fresh grid for every maze episode.
type GridGenerator interface {
	Generate() *maze.Grid
}

// Recorder persists finished episodes.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// TrialPolicy picks the configuration of the next episode.
type TrialPolicy interface {
	Next() trial.Config
}

// UniformPolicy draws A or B with equal probability, independent of history.
type UniformPolicy struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// NewUniformPolicy creates a policy drawing from rng. A nil rng is seeded from the clock.
func NewUniformPolicy(rng *rand.Rand) *UniformPolicy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &UniformPolicy{rng: rng}
}

// Next implements TrialPolicy.
func (p *UniformPolicy) Next() trial.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return trial.Configs[p.rng.Intn(len(trial.Configs))]
}

// InputSample is everything the host captured for one step.
type InputSample struct {
	Action      game.Action
	GoalContact bool // The agent entered the goal volume this step.
}

// StepResult reports what one step did.
type StepResult struct {
	Observation game.Observation
	Outcome     trial.Outcome
	Sent        bool // The observation was handed to a connected bridge.
	Reset       bool // A new episode was started.
}

// GoalSensor turns the agent position into an edge-triggered goal contact.
// The sensor is a square centred on the end cell with a half-extent of one cell edge,
// so it also covers the approach from the neighbouring cells.
type GoalSensor struct {
	transform maze.Transform
	inside    bool
}

// NewGoalSensor creates a sensor using t to locate the goal.
func NewGoalSensor(t maze.Transform) *GoalSensor {
	return &GoalSensor{transform: t}
}

// Sample reports true only on the step the agent enters the goal sensor of g.
func (s *GoalSensor) Sample(g *maze.Grid, pos game.Vec3) bool {
	if g == nil {
		s.inside = false
		return false
	}
	in := s.covers(g, pos)
	entered := in && !s.inside
	s.inside = in
	return entered
}

func (s *GoalSensor) covers(g *maze.Grid, pos game.Vec3) bool {
	x, z := s.transform.ToWorld(g.End())
	half := s.transform.CellSize
	return math.Abs(pos.X-x) <= half && math.Abs(pos.Z-z) <= half
}

// Reset forgets whether the agent was inside the goal.
func (s *GoalSensor) Reset() {
	s.inside = false
}
