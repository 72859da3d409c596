package game

import "time"

// Vec3 is a world-space position sample.
// Z is the forward axis (the agent advances toward negative Z) and X is lateral.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Action is the latest command from the external decision-maker.
type Action struct {
	Move  float64 // Forward drive, usually in [-1, 1].
	Turn  float64 // Turn drive, negative turns left.
	Lick  bool    // Consumption/commit signal for the current step.
	Reset bool    // One-shot episode reset request.
}

// Directive is a decoded inbound message.
// A reset directive carries no action fields.
type Directive struct {
	Reset  bool
	Action Action
}

// Observation is sent to the external decision-maker once per step.
type Observation struct {
	Position  float64 `json:"position"`  // Forward position (world Z).
	X         float64 `json:"x"`         // Lateral position (world X).
	TrialType string  `json:"trialType"` // Trial configuration discriminant.
	Reward    float64 `json:"reward"`    // Reward for this step.
	Done      bool    `json:"done"`      // True when the step ended the trial.
}

// MovementParams scales how the body reacts to an Action.
type MovementParams struct {
	MoveSpeed float64 // Units per second at full drive.
	TurnSpeed float64 // Radians per second at full drive.
	Motivated bool    // Motivation flag, used for animation cues.
}

// Encoder defines the wire codec between the environment and the external agent.
type Encoder interface {
	MarshalObservation(Observation) ([]byte, error)
	UnmarshalDirective([]byte) (Directive, error)
}

// Body is the physics collaborator owning the agent's position.
type Body interface {
	Position() Vec3
	Respawn(Vec3)
	Apply(a Action, m MovementParams, dt time.Duration)
}
