package jsonenc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/beka-birhanu/vinom-lab/game"
	"github.com/goccy/go-json"
)

var _ game.Encoder = &JSON{}

var (
	ErrMalformedAction = errors.New("malformed action message")
)

const (
	resetType = "RESET"
)

// directive is the inbound wire shape.
// Both {"type":"RESET"} and {"move":n,"turn":n,"lick":b} decode into it; "type":"STEP" is accepted and ignored.
type directive struct {
	Type string  `json:"type,omitempty"`
	Move float64 `json:"move"`
	Turn float64 `json:"turn"`
	Lick bool    `json:"lick"`
}

// JSON implements game.Encoder on top of goccy/go-json.
type JSON struct{}

// MarshalObservation implements game.Encoder.
func (j *JSON) MarshalObservation(o game.Observation) ([]byte, error) {
	return json.Marshal(o)
}

// UnmarshalDirective implements game.Encoder.
// Payloads that are not JSON objects are rejected with ErrMalformedAction.
func (j *JSON) UnmarshalDirective(b []byte) (game.Directive, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return game.Directive{}, ErrMalformedAction
	}

	var d directive
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return game.Directive{}, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}

	if d.Type == resetType {
		return game.Directive{Reset: true}, nil
	}

	return game.Directive{
		Action: game.Action{Move: d.Move, Turn: d.Turn, Lick: d.Lick},
	}, nil
}
