package jsonenc

import (
	"testing"

	"github.com/beka-birhanu/vinom-lab/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDirective(t *testing.T) {
	enc := &JSON{}

	t.Run("reset directive carries no action", func(t *testing.T) {
		d, err := enc.UnmarshalDirective([]byte(`{"type":"RESET","move":1}`))
		require.NoError(t, err)
		assert.True(t, d.Reset)
		assert.Equal(t, game.Action{}, d.Action)
	})

	t.Run("action message", func(t *testing.T) {
		d, err := enc.UnmarshalDirective([]byte(`{"move":0.5,"turn":-1,"lick":true}`))
		require.NoError(t, err)
		assert.False(t, d.Reset)
		assert.Equal(t, game.Action{Move: 0.5, Turn: -1, Lick: true}, d.Action)
	})

	t.Run("step type is ignored", func(t *testing.T) {
		d, err := enc.UnmarshalDirective([]byte(`{"type":"STEP","move":1,"turn":0,"lick":false}`))
		require.NoError(t, err)
		assert.False(t, d.Reset)
		assert.Equal(t, 1.0, d.Action.Move)
	})

	t.Run("missing fields are zero", func(t *testing.T) {
		d, err := enc.UnmarshalDirective([]byte(`{"lick":true}`))
		require.NoError(t, err)
		assert.Equal(t, game.Action{Lick: true}, d.Action)
	})

	t.Run("malformed payloads are rejected", func(t *testing.T) {
		for _, raw := range []string{``, `not json`, `{"move":`, `null`, `42`, `[1,2]`, `{"move":"fast"}`} {
			_, err := enc.UnmarshalDirective([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedAction, "payload %q", raw)
		}
	})
}

func TestMarshalObservation(t *testing.T) {
	enc := &JSON{}

	b, err := enc.MarshalObservation(game.Observation{Position: -36.5, X: -2, TrialType: "A", Reward: 10, Done: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":-36.5,"x":-2,"trialType":"A","reward":10,"done":true}`, string(b))
}
