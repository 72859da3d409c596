package body

import (
	"math"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-lab/game"
	"github.com/stretchr/testify/assert"
)

func TestKinematic(t *testing.T) {
	fast := game.MovementParams{MoveSpeed: 6, TurnSpeed: 12, Motivated: true}

	t.Run("forward drive advances toward negative z", func(t *testing.T) {
		k := NewKinematic(game.Vec3{Y: 2, Z: -2})
		k.Apply(game.Action{Move: 1}, fast, time.Second)

		p := k.Position()
		assert.InDelta(t, 0, p.X, 1e-9)
		assert.InDelta(t, -8, p.Z, 1e-9)
		assert.Equal(t, 2.0, p.Y)
	})

	t.Run("turning changes the heading at the turn speed", func(t *testing.T) {
		k := NewKinematic(game.Vec3{})
		k.Apply(game.Action{Turn: 1}, game.MovementParams{MoveSpeed: 1, TurnSpeed: math.Pi / 2}, time.Second)
		assert.InDelta(t, math.Pi/2, k.Heading(), 1e-9)

		k.Apply(game.Action{Move: 1}, game.MovementParams{MoveSpeed: 1}, time.Second)
		assert.InDelta(t, 1, k.Position().X, 1e-9)
		assert.InDelta(t, 0, k.Position().Z, 1e-9)
	})

	t.Run("respawn resets position and heading", func(t *testing.T) {
		k := NewKinematic(game.Vec3{})
		k.Apply(game.Action{Move: 1, Turn: 1}, fast, time.Second)
		k.Respawn(game.Vec3{X: -26, Y: 2, Z: -26})

		assert.Equal(t, game.Vec3{X: -26, Y: 2, Z: -26}, k.Position())
		assert.Zero(t, k.Heading())
	})

	t.Run("zero dt is ignored", func(t *testing.T) {
		k := NewKinematic(game.Vec3{Z: -2})
		k.Apply(game.Action{Move: 1}, fast, 0)
		assert.Equal(t, game.Vec3{Z: -2}, k.Position())
	})
}
