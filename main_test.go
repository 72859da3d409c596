package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-lab/bridge"
	jsonenc "github.com/beka-birhanu/vinom-lab/game/json_encoder"
	"github.com/beka-birhanu/vinom-lab/game/maze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refusingTransport struct {
	dials atomic.Int32
}

func (t *refusingTransport) Dial(context.Context, string) (bridge.Conn, error) {
	t.dials.Add(1)
	return nil, errors.New("connection refused")
}

func TestPrintMaze(t *testing.T) {
	mazeFlags.seed = 42
	mazeFlags.size = 9
	defer func() { mazeFlags.seed, mazeFlags.size = 0, 0 }()

	var out bytes.Buffer
	mazeCmd.SetOut(&out)
	require.NoError(t, printMaze(mazeCmd, nil))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 10)
	assert.Contains(t, lines[0], "seed=42 size=9")
	assert.Equal(t, strings.Repeat("#", 9), lines[1])
	assert.Equal(t, byte('S'), lines[2][1])
}

func TestPrintMazeInvalidSize(t *testing.T) {
	mazeFlags.size = 2
	defer func() { mazeFlags.size = 0 }()

	assert.ErrorIs(t, printMaze(mazeCmd, nil), maze.ErrInvalidSize)
}

func TestKeepConnected(t *testing.T) {
	transport := &refusingTransport{}
	b, err := bridge.New(bridge.Config{Transport: transport, Encoder: &jsonenc.JSON{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- keepConnected(ctx, b, 10*time.Millisecond) }()

	t.Run("Redials the last address", func(t *testing.T) {
		b.Connect("ws://127.0.0.1:1")
		assert.Eventually(t, func() bool { return transport.dials.Load() >= 3 }, time.Second, 5*time.Millisecond)
	})

	t.Run("Stops after an explicit close", func(t *testing.T) {
		b.Close()
		time.Sleep(20 * time.Millisecond) // Let a dial started before Close reach the transport.
		settled := transport.dials.Load()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, settled, transport.dials.Load())
	})

	cancel()
	assert.NoError(t, <-done)
}
