// Package episodeapi exposes the running environment over HTTP.
package episodeapi

import (
	"strings"
	"time"

	"github.com/beka-birhanu/vinom-lab/game/episode"
	"github.com/beka-birhanu/vinom-lab/game/maze"
	"github.com/google/uuid"
)

// PositionResponse is a world-space point.
type PositionResponse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// EpisodeResponse describes the current episode and its running stats.
type EpisodeResponse struct {
	ID          uuid.UUID        `json:"id"`
	Number      int              `json:"number"`
	Mode        string           `json:"mode"`
	TrialType   string           `json:"trialType"`
	StartedAt   time.Time        `json:"startedAt"`
	Steps       int              `json:"steps"`
	TotalReward float64          `json:"totalReward"`
	Finished    bool             `json:"finished"`
	LastOutcome string           `json:"lastOutcome"`
	Motivated   bool             `json:"motivated"`
	Position    PositionResponse `json:"position"`
	Successes   int              `json:"successes"`
	Failures    int              `json:"failures"`
}

// CellPositionResponse is a grid coordinate.
type CellPositionResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GridResponse is the layout of the current maze episode.
type GridResponse struct {
	EpisodeID uuid.UUID              `json:"episodeId"`
	Size      int                    `json:"size"`
	Start     CellPositionResponse   `json:"start"`
	End       CellPositionResponse   `json:"end"`
	Solution  []CellPositionResponse `json:"solution"`
	Rows      []string               `json:"rows"` // One string per row: # wall, . solution, x dead-end, S start, E end.
}

// BridgeResponse reports the agent connection.
type BridgeResponse struct {
	State string `json:"state"`
	Addr  string `json:"addr"`
}

// ConnectRequest points the bridge at a new agent.
type ConnectRequest struct {
	Addr string `json:"addr" binding:"required"`
}

// RecordResponse is one finished episode.
type RecordResponse struct {
	ID          uuid.UUID `json:"id"`
	Number      int       `json:"number"`
	Mode        string    `json:"mode"`
	TrialType   string    `json:"trialType"`
	Outcome     string    `json:"outcome"`
	TotalReward float64   `json:"totalReward"`
	Steps       int       `json:"steps"`
	StartedAt   time.Time `json:"startedAt"`
	EndedAt     time.Time `json:"endedAt"`
}

func toEpisodeResponse(s episode.Stats) EpisodeResponse {
	return EpisodeResponse{
		ID:          s.Episode.ID,
		Number:      s.Episode.Number,
		Mode:        string(s.Episode.Mode),
		TrialType:   string(s.Episode.Config),
		StartedAt:   s.Episode.StartedAt,
		Steps:       s.Steps,
		TotalReward: s.TotalReward,
		Finished:    s.Finished,
		LastOutcome: s.LastOutcome,
		Motivated:   s.Motivated,
		Position:    PositionResponse{X: s.Position.X, Y: s.Position.Y, Z: s.Position.Z},
		Successes:   s.Successes,
		Failures:    s.Failures,
	}
}

func toGridResponse(ep *episode.Episode) GridResponse {
	g := ep.Grid
	solution := make([]CellPositionResponse, 0, len(g.SolutionPath()))
	for _, p := range g.SolutionPath() {
		solution = append(solution, toCellPosition(p))
	}
	return GridResponse{
		EpisodeID: ep.ID,
		Size:      g.Size(),
		Start:     toCellPosition(g.Start()),
		End:       toCellPosition(g.End()),
		Solution:  solution,
		Rows:      strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n"),
	}
}

func toCellPosition(p maze.CellPosition) CellPositionResponse {
	return CellPositionResponse{X: p.X, Y: p.Y}
}

func toRecordResponse(r episode.Record) RecordResponse {
	return RecordResponse{
		ID:          r.ID,
		Number:      r.Number,
		Mode:        string(r.Mode),
		TrialType:   string(r.Config),
		Outcome:     r.Outcome,
		TotalReward: r.TotalReward,
		Steps:       r.Steps,
		StartedAt:   r.StartedAt,
		EndedAt:     r.EndedAt,
	}
}
