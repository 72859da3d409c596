// Package body provides a headless kinematic stand-in for the physics collaborator.
package body

import (
	"math"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
)

var _ game.Body = &Kinematic{}

// Kinematic integrates move/turn drives directly into position and heading.
// Heading 0 faces negative Z, the forward direction of the task.
type Kinematic struct {
	pos     game.Vec3
	heading float64 // Radians, positive turns toward positive X.
	sync.RWMutex
}

// NewKinematic creates a body at spawn facing forward.
func NewKinematic(spawn game.Vec3) *Kinematic {
	return &Kinematic{pos: spawn}
}

// Position implements game.Body.
func (k *Kinematic) Position() game.Vec3 {
	k.RLock()
	defer k.RUnlock()
	return k.pos
}

// Heading returns the current heading in radians.
func (k *Kinematic) Heading() float64 {
	k.RLock()
	defer k.RUnlock()
	return k.heading
}

// Respawn implements game.Body. It also resets the heading.
func (k *Kinematic) Respawn(p game.Vec3) {
	k.Lock()
	defer k.Unlock()
	k.pos = p
	k.heading = 0
}

// Apply implements game.Body.
func (k *Kinematic) Apply(a game.Action, m game.MovementParams, dt time.Duration) {
	secs := dt.Seconds()
	if secs <= 0 {
		return
	}

	k.Lock()
	defer k.Unlock()

	k.heading += a.Turn * m.TurnSpeed * secs
	dist := a.Move * m.MoveSpeed * secs
	k.pos.X += math.Sin(k.heading) * dist
	k.pos.Z -= math.Cos(k.heading) * dist
}
