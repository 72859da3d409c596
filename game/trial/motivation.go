package trial

import (
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
	"github.com/beka-birhanu/vinom-lab/game/maze"
)

// FailureSuppression is how long a failed trial keeps the agent demotivated.
const FailureSuppression = 4 * time.Second

var (
	motivatedMovement   = game.MovementParams{MoveSpeed: 6, TurnSpeed: 12, Motivated: true}
	demotivatedMovement = game.MovementParams{MoveSpeed: 2.5, TurnSpeed: 3}
)

// Motivation is the arousal flag written by the sensory check.
// It is safe for concurrent use.
type Motivation struct {
	motivated       bool
	suppressedUntil time.Time
	sync.Mutex
}

// NewMotivation returns a motivated state.
func NewMotivation() *Motivation {
	return &Motivation{motivated: true}
}

// Sense updates the flag from the role of the cell under the agent.
// A dead-end clears it and a solution cell sets it, unless a suppression window is active.
func (m *Motivation) Sense(now time.Time, role maze.Role) {
	m.Lock()
	defer m.Unlock()

	if now.Before(m.suppressedUntil) {
		m.motivated = false
		return
	}

	switch role {
	case maze.RoleDeadEnd:
		m.motivated = false
	case maze.RoleSolution:
		m.motivated = true
	}
}

// Suppress clears the flag and keeps it cleared until the given time.
func (m *Motivation) Suppress(until time.Time) {
	m.Lock()
	defer m.Unlock()

	m.motivated = false
	if until.After(m.suppressedUntil) {
		m.suppressedUntil = until
	}
}

// Restore sets the flag and drops any suppression window.
func (m *Motivation) Restore() {
	m.Lock()
	defer m.Unlock()

	m.motivated = true
	m.suppressedUntil = time.Time{}
}

// Motivated reports the flag as seen at now.
// An expired suppression window reads as motivated, matching the timed restore of the task.
func (m *Motivation) Motivated(now time.Time) bool {
	m.Lock()
	defer m.Unlock()

	if !m.suppressedUntil.IsZero() && !now.Before(m.suppressedUntil) {
		m.suppressedUntil = time.Time{}
		m.motivated = true
	}
	return m.motivated
}

// Movement returns the speeds the body should use at now.
func (m *Motivation) Movement(now time.Time) game.MovementParams {
	if m.Motivated(now) {
		return motivatedMovement
	}
	return demotivatedMovement
}
