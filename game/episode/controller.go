package episode

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
	"github.com/beka-birhanu/vinom-lab/game/maze"
	"github.com/beka-birhanu/vinom-lab/game/trial"
	logger "github.com/beka-birhanu/vinom-lab/infrastruture/log"
	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
	"github.com/beka-birhanu/vinom-lab/metrics"
	"github.com/google/uuid"
)

const (
	spawnHeight   = 2
	maxStep       = 250 * time.Millisecond // Longer frame gaps are clamped so the body never jumps.
	recordTimeout = 5 * time.Second

	outcomeReset = "reset"
)

// CorridorSpawn is the fixed spawn point of the corridor layout.
var CorridorSpawn = game.Vec3{X: 0, Y: spawnHeight, Z: -2}

// Config holds the required collaborators of a Controller.
type Config struct {
	Mode      Mode
	Body      game.Body     // Physics collaborator owning the agent position.
	Generator GridGenerator // Required in maze mode.
	Bridge    Bridge        // Optional agent connection.
}

type Option func(*Controller)

// Stats is a point-in-time view of the controller.
type Stats struct {
	Episode     *Episode
	Steps       int
	TotalReward float64
	Finished    bool   // The current episode already reached a terminal outcome.
	LastOutcome string // Kind of the last evaluated step.
	Motivated   bool
	Position    game.Vec3
	Successes   int // Across all episodes.
	Failures    int // Across all episodes.
}

// Controller orchestrates one environment instance.
type Controller struct {
	mode       Mode
	body       game.Body
	generator  GridGenerator
	bridge     Bridge
	rules      trial.Rules
	transform  maze.Transform
	policy     TrialPolicy
	recorder   Recorder
	autoReset  bool
	logger     general_i.Logger
	motivation *trial.Motivation
	sensor     *GoalSensor

	current        atomic.Pointer[Episode]
	resetRequested atomic.Bool
	lastStep       time.Time

	mu          sync.RWMutex
	steps       int
	totalReward float64
	finished    bool
	lastOutcome trial.OutcomeKind
	successes   int
	failures    int

	wg sync.WaitGroup
}

// New creates a controller and publishes its first episode.
func New(c Config, options ...Option) (*Controller, error) {
	if c.Mode != ModeCorridor && c.Mode != ModeMaze {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, string(c.Mode))
	}
	if c.Body == nil {
		return nil, ErrNilBody
	}
	if c.Mode == ModeMaze && c.Generator == nil {
		return nil, ErrNilGenerator
	}

	ctrl := &Controller{
		mode:       c.Mode,
		body:       c.Body,
		generator:  c.Generator,
		bridge:     c.Bridge,
		rules:      trial.DefaultRules(),
		transform:  maze.DefaultTransform,
		motivation: trial.NewMotivation(),
	}

	for _, opt := range options {
		opt(ctrl)
	}

	if ctrl.logger == nil {
		ctrl.logger = logger.Discard()
	}
	if ctrl.policy == nil {
		ctrl.policy = NewUniformPolicy(nil)
	}
	ctrl.sensor = NewGoalSensor(ctrl.transform)

	ctrl.begin(time.Now(), 1)
	return ctrl, nil
}

// Current returns the published episode.
func (c *Controller) Current() *Episode {
	return c.current.Load()
}

// Mode returns the layout the controller runs.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Transform returns the world-to-grid mapping shared with the host.
func (c *Controller) Transform() maze.Transform {
	return c.transform
}

// RequestReset asks for a reset on the next step. Requests made before that step collapse into one.
func (c *Controller) RequestReset() {
	c.resetRequested.Store(true)
}

// Snapshot returns the current stats.
func (c *Controller) Snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Episode:     c.current.Load(),
		Steps:       c.steps,
		TotalReward: c.totalReward,
		Finished:    c.finished,
		LastOutcome: c.lastOutcome.String(),
		Motivated:   c.motivation.Motivated(time.Now()),
		Position:    c.body.Position(),
		Successes:   c.successes,
		Failures:    c.failures,
	}
}

// Sample captures the input for one step: the consumed bridge action and the goal contact.
// It must be called from the frame loop.
func (c *Controller) Sample() InputSample {
	var in InputSample
	if c.bridge != nil && c.bridge.Connected() {
		in.Action = c.bridge.TakeAction()
	}
	if c.mode == ModeMaze {
		in.GoalContact = c.sensor.Sample(c.current.Load().Grid, c.body.Position())
	}
	return in
}

// Step runs one frame of the trial cycle at time now.
func (c *Controller) Step(now time.Time, in InputSample) StepResult {
	started := time.Now()
	ep := c.current.Load()
	dt := c.elapsed(now)
	pos := c.body.Position()

	out := c.evaluate(ep, pos, in)
	c.sense(now, ep, pos)
	if out.Kind == trial.KindFailure {
		c.motivation.Suppress(now.Add(trial.FailureSuppression))
	}

	obs := game.Observation{
		Position:  pos.Z,
		X:         pos.X,
		TrialType: string(ep.Config),
		Reward:    out.Reward,
		Done:      out.Terminal,
	}
	res := StepResult{Observation: obs, Outcome: out}
	if c.bridge != nil && c.bridge.Connected() {
		res.Sent = c.bridge.SendObservation(obs)
		if res.Sent {
			metrics.RecordObservationSent()
		}
	}

	c.account(now, ep, out)

	requested := c.resetRequested.Swap(false)
	if in.Action.Reset || requested || (out.Terminal && c.autoReset) {
		c.reset(now)
		res.Reset = true
	} else {
		c.body.Apply(in.Action, c.motivation.Movement(now), dt)
	}

	metrics.SetMotivated(c.motivation.Motivated(now))
	metrics.RecordStep(out.Kind.String(), time.Since(started).Seconds())
	return res
}

func (c *Controller) evaluate(ep *Episode, pos game.Vec3, in InputSample) trial.Outcome {
	if c.mode == ModeMaze {
		if in.GoalContact {
			return c.rules.EvaluateContact()
		}
		return c.rules.StepOutcome()
	}
	return c.rules.Evaluate(pos, ep.Config, in.Action.Lick)
}

// sense runs the sensory check against the cell under the agent.
func (c *Controller) sense(now time.Time, ep *Episode, pos game.Vec3) {
	if ep.Grid == nil {
		return
	}
	if cell, ok := c.transform.CellAt(ep.Grid, pos.X, pos.Z); ok {
		c.motivation.Sense(now, cell.Role)
	}
}

func (c *Controller) elapsed(now time.Time) time.Duration {
	var dt time.Duration
	if !c.lastStep.IsZero() {
		dt = now.Sub(c.lastStep)
	}
	c.lastStep = now
	if dt < 0 {
		return 0
	}
	return min(dt, maxStep)
}

// account folds one outcome into the episode stats and records the first terminal outcome.
func (c *Controller) account(now time.Time, ep *Episode, out trial.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.steps++
	c.totalReward += out.Reward
	c.lastOutcome = out.Kind
	if !out.Terminal || c.finished {
		return
	}

	c.finished = true
	switch out.Kind {
	case trial.KindSuccess:
		c.successes++
	case trial.KindFailure:
		c.failures++
	}
	c.finishLocked(now, ep, out.Kind.String())
}

// reset finishes the current episode, if still open, and publishes the next one.
func (c *Controller) reset(now time.Time) {
	prev := c.current.Load()

	c.mu.Lock()
	if !c.finished {
		c.finishLocked(now, prev, outcomeReset)
	}
	c.mu.Unlock()

	c.begin(now, prev.Number+1)
}

func (c *Controller) begin(now time.Time, number int) {
	ep := &Episode{
		ID:        uuid.New(),
		Number:    number,
		Mode:      c.mode,
		Config:    c.policy.Next(),
		StartedAt: now,
	}
	if c.mode == ModeMaze {
		ep.Grid = c.generator.Generate()
	}

	c.mu.Lock()
	c.steps = 0
	c.totalReward = 0
	c.finished = false
	c.lastOutcome = trial.KindStep
	c.current.Store(ep)
	c.mu.Unlock()

	c.sensor.Reset()
	c.body.Respawn(c.spawn(ep))
	// Re-arms motivation unless a failure penalty is still running.
	c.motivation.Sense(now, maze.RoleSolution)

	metrics.SetTrialConfig(string(ep.Config), configNames())
	c.logger.Info(fmt.Sprintf("episode %d started: mode=%s config=%s id=%s", ep.Number, ep.Mode, ep.Config, ep.ID))
}

func (c *Controller) spawn(ep *Episode) game.Vec3 {
	if ep.Grid == nil {
		return CorridorSpawn
	}
	x, z := c.transform.ToWorld(ep.Grid.Start())
	return game.Vec3{X: x, Y: spawnHeight, Z: z}
}

// finishLocked reports the episode to metrics and hands it to the recorder without blocking.
func (c *Controller) finishLocked(now time.Time, ep *Episode, outcome string) {
	r := Record{
		ID:          ep.ID,
		Number:      ep.Number,
		Mode:        ep.Mode,
		Config:      ep.Config,
		Outcome:     outcome,
		TotalReward: c.totalReward,
		Steps:       c.steps,
		StartedAt:   ep.StartedAt,
		EndedAt:     now,
	}
	metrics.RecordEpisode(outcome, r.TotalReward)
	c.logger.Info(fmt.Sprintf("episode %d finished: outcome=%s reward=%.2f steps=%d", r.Number, r.Outcome, r.TotalReward, r.Steps))

	if c.recorder == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := c.recorder.Record(ctx, r); err != nil {
			c.logger.Error(fmt.Sprintf("recording episode %s: %v", r.ID, err))
		}
	}()
}

// Run steps the controller fps times per second until ctx is cancelled,
// then waits for pending records.
func (c *Controller) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		return ErrInvalidFrameRate
	}

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			return nil
		case now := <-ticker.C:
			c.Step(now, c.Sample())
		}
	}
}

// Wait blocks until every pending record has been handed to the recorder.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func configNames() []string {
	names := make([]string, len(trial.Configs))
	for k, cfg := range trial.Configs {
		names[k] = string(cfg)
	}
	return names
}
