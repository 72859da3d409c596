package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/vinom-lab/game/episode"
	"github.com/beka-birhanu/vinom-lab/game/trial"
	logger "github.com/beka-birhanu/vinom-lab/infrastruture/log"
	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
	"github.com/beka-birhanu/vinom-lab/service/i"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var _ episode.Recorder = &EpisodeRecorder{}

var (
	ErrNilQueue = errors.New("nil sorted queue")
)

const (
	defaultQueueKey  = "vinom-lab:episodes:recent"
	defaultMaxRecent = 100
)

// recordJSON is the queued form of an episode record.
type recordJSON struct {
	ID          uuid.UUID `json:"id"`
	Number      int       `json:"number"`
	Mode        string    `json:"mode"`
	Config      string    `json:"config"`
	Outcome     string    `json:"outcome"`
	TotalReward float64   `json:"totalReward"`
	Steps       int       `json:"steps"`
	StartedAt   time.Time `json:"startedAt"`
	EndedAt     time.Time `json:"endedAt"`
}

// RecorderConfig holds the collaborators of an EpisodeRecorder.
type RecorderConfig struct {
	Queue     i.SortedQueue    // Holds the most recent outcomes. Required.
	Repo      i.EpisodeRepo    // Durable episode log. Optional.
	QueueKey  string           // Defaults to vinom-lab:episodes:recent.
	MaxRecent int64            // Queue length kept after trimming. Defaults to 100.
	Logger    general_i.Logger // Defaults to a discarding logger.
}

// EpisodeRecorder stores finished episodes in the recent-outcome queue and, when configured, the episode log.
type EpisodeRecorder struct {
	queue     i.SortedQueue
	repo      i.EpisodeRepo
	queueKey  string
	maxRecent int64
	logger    general_i.Logger
}

// NewEpisodeRecorder creates a recorder from c.
func NewEpisodeRecorder(c RecorderConfig) (*EpisodeRecorder, error) {
	if c.Queue == nil {
		return nil, ErrNilQueue
	}

	r := &EpisodeRecorder{
		queue:     c.Queue,
		repo:      c.Repo,
		queueKey:  c.QueueKey,
		maxRecent: c.MaxRecent,
		logger:    c.Logger,
	}
	if r.queueKey == "" {
		r.queueKey = defaultQueueKey
	}
	if r.maxRecent <= 0 {
		r.maxRecent = defaultMaxRecent
	}
	if r.logger == nil {
		r.logger = logger.Discard()
	}
	return r, nil
}

// Record implements episode.Recorder.
// A failing episode log does not keep the outcome out of the queue.
func (r *EpisodeRecorder) Record(ctx context.Context, rec episode.Record) error {
	var repoErr error
	if r.repo != nil {
		if err := r.repo.Save(ctx, rec); err != nil {
			repoErr = fmt.Errorf("saving episode %s: %w", rec.ID, err)
		}
	}

	payload, err := json.Marshal(toJSON(rec))
	if err != nil {
		return errors.Join(repoErr, err)
	}
	if err := r.queue.Enqueue(ctx, r.queueKey, float64(rec.EndedAt.UnixMilli()), string(payload)); err != nil {
		return errors.Join(repoErr, fmt.Errorf("queueing episode %s: %w", rec.ID, err))
	}

	if _, err := r.queue.TrimTo(ctx, r.queueKey, r.maxRecent); err != nil {
		r.logger.Warning(fmt.Sprintf("trimming recent episodes: %v", err))
	}
	return repoErr
}

// Recent returns up to n finished episodes, most recent first.
// The episode log is preferred; the queue answers when there is none.
func (r *EpisodeRecorder) Recent(ctx context.Context, n int64) ([]episode.Record, error) {
	if r.repo != nil {
		return r.repo.Recent(ctx, n)
	}

	members, err := r.queue.Latest(ctx, r.queueKey, n)
	if err != nil {
		return nil, err
	}

	records := make([]episode.Record, 0, len(members))
	for _, m := range members {
		var rj recordJSON
		if err := json.Unmarshal([]byte(m), &rj); err != nil {
			r.logger.Warning(fmt.Sprintf("skipping unreadable queued episode: %v", err))
			continue
		}
		records = append(records, fromJSON(rj))
	}
	return records, nil
}

func toJSON(r episode.Record) recordJSON {
	return recordJSON{
		ID:          r.ID,
		Number:      r.Number,
		Mode:        string(r.Mode),
		Config:      string(r.Config),
		Outcome:     r.Outcome,
		TotalReward: r.TotalReward,
		Steps:       r.Steps,
		StartedAt:   r.StartedAt,
		EndedAt:     r.EndedAt,
	}
}

func fromJSON(rj recordJSON) episode.Record {
	return episode.Record{
		ID:          rj.ID,
		Number:      rj.Number,
		Mode:        episode.Mode(rj.Mode),
		Config:      trial.Config(rj.Config),
		Outcome:     rj.Outcome,
		TotalReward: rj.TotalReward,
		Steps:       rj.Steps,
		StartedAt:   rj.StartedAt,
		EndedAt:     rj.EndedAt,
	}
}
