package repo

import (
	"context"
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-lab/game/episode"
	"github.com/beka-birhanu/vinom-lab/game/trial"
	"github.com/beka-birhanu/vinom-lab/service/i"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ i.EpisodeRepo = &EpisodeRepo{}

var (
	ErrEpisodeNotFound = errors.New("episode not found")
)

// episodeDocument is the stored shape of an episode record.
type episodeDocument struct {
	ID          string    `bson:"_id"`
	Number      int       `bson:"number"`
	Mode        string    `bson:"mode"`
	Config      string    `bson:"config"`
	Outcome     string    `bson:"outcome"`
	TotalReward float64   `bson:"totalReward"`
	Steps       int       `bson:"steps"`
	StartedAt   time.Time `bson:"startedAt"`
	EndedAt     time.Time `bson:"endedAt"`
}

func (d episodeDocument) record() (episode.Record, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return episode.Record{}, err
	}
	return episode.Record{
		ID:          id,
		Number:      d.Number,
		Mode:        episode.Mode(d.Mode),
		Config:      trial.Config(d.Config),
		Outcome:     d.Outcome,
		TotalReward: d.TotalReward,
		Steps:       d.Steps,
		StartedAt:   d.StartedAt,
		EndedAt:     d.EndedAt,
	}, nil
}

// EpisodeRepo handles the persistence of finished episodes.
type EpisodeRepo struct {
	collection *mongo.Collection
}

// NewEpisodeRepo creates a new EpisodeRepo with the given MongoDB client, database name, and collection name.
func NewEpisodeRepo(client *mongo.Client, dbName, collectionName string) *EpisodeRepo {
	collection := client.Database(dbName).Collection(collectionName)
	return &EpisodeRepo{
		collection: collection,
	}
}

// Save inserts or updates an episode record.
// If the record already exists, it updates the existing one.
func (e *EpisodeRepo) Save(ctx context.Context, r episode.Record) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	filter := bson.M{"_id": r.ID.String()}
	update := bson.M{
		"$set": bson.M{
			"number":      r.Number,
			"mode":        string(r.Mode),
			"config":      string(r.Config),
			"outcome":     r.Outcome,
			"totalReward": r.TotalReward,
			"steps":       r.Steps,
			"startedAt":   r.StartedAt,
			"endedAt":     r.EndedAt,
			"updatedAt":   time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := e.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}
	return nil
}

// ByID retrieves an episode record by its ID.
// Returns ErrEpisodeNotFound if the record is not found.
func (e *EpisodeRepo) ByID(ctx context.Context, id uuid.UUID) (*episode.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var doc episodeDocument
	if err := e.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrEpisodeNotFound
		}
		return nil, errors.New("unexpected error: " + err.Error())
	}

	r, err := doc.record()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Recent returns up to `limit` records, most recently ended first.
func (e *EpisodeRepo) Recent(ctx context.Context, limit int64) ([]episode.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}}).SetLimit(limit)
	cursor, err := e.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	defer cursor.Close(ctx)

	var docs []episodeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}

	records := make([]episode.Record, 0, len(docs))
	for _, d := range docs {
		r, err := d.record()
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
