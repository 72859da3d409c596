package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/vinom-lab/api"
	episodeapi "github.com/beka-birhanu/vinom-lab/api/episode"
	api_i "github.com/beka-birhanu/vinom-lab/api/i"
	"github.com/beka-birhanu/vinom-lab/api/identity"
	"github.com/beka-birhanu/vinom-lab/bridge"
	"github.com/beka-birhanu/vinom-lab/config"
	"github.com/beka-birhanu/vinom-lab/game/body"
	"github.com/beka-birhanu/vinom-lab/game/episode"
	jsonenc "github.com/beka-birhanu/vinom-lab/game/json_encoder"
	"github.com/beka-birhanu/vinom-lab/game/maze"
	logger "github.com/beka-birhanu/vinom-lab/infrastruture/log"
	"github.com/beka-birhanu/vinom-lab/infrastruture/repo"
	"github.com/beka-birhanu/vinom-lab/infrastruture/sortedstorage"
	"github.com/beka-birhanu/vinom-lab/infrastruture/token"
	"github.com/beka-birhanu/vinom-lab/infrastruture/wstransport"
	"github.com/beka-birhanu/vinom-lab/metrics"
	"github.com/beka-birhanu/vinom-lab/service"
	"github.com/beka-birhanu/vinom-lab/service/i"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const connectTimeout = 10 * time.Second

var (
	runFlags struct {
		addr      string
		fps       int
		mode      string
		seed      int64
		autoReset bool
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the environment, the agent bridge and the status API",
		RunE:  runEnvironment,
	}
)

// services holds the optional stores opened for a run.
type services struct {
	mongoClient *mongo.Client
	redisClient *redis.Client
}

func (s *services) close(ctx context.Context) {
	if s.mongoClient != nil {
		_ = s.mongoClient.Disconnect(ctx)
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
}

func initMongo(ctx context.Context) (*mongo.Client, error) {
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%v", config.Envs.DBUser, config.Envs.DBPassword, config.Envs.DBHost, config.Envs.DBPort)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}
	appLogger.Info("Connected to MongoDB")
	return client, nil
}

func initRedis(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: config.Envs.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	appLogger.Info("Connected to Redis")
	return client, nil
}

// initRecorder wires the recent-outcome queue and, when a database is configured, the episode log.
func initRecorder(ctx context.Context, s *services) (*service.EpisodeRecorder, error) {
	var queue i.SortedQueue = sortedstorage.NewMemorySortedQueue()
	if config.Envs.RedisAddr != "" {
		client, err := initRedis(ctx)
		if err != nil {
			return nil, err
		}
		s.redisClient = client
		queue = sortedstorage.NewRedisSortedQueue(client, config.Envs.RedisHistoryTTL)
	}

	var episodeRepo i.EpisodeRepo
	if config.Envs.DBHost != "" {
		client, err := initMongo(ctx)
		if err != nil {
			return nil, err
		}
		s.mongoClient = client
		episodeRepo = repo.NewEpisodeRepo(client, config.Envs.DBName, "episodes")
	}

	recorderLogger, err := logger.New("RECORDER", config.ColorMagenta, os.Stdout)
	if err != nil {
		return nil, err
	}

	recorder, err := service.NewEpisodeRecorder(service.RecorderConfig{
		Queue:  queue,
		Repo:   episodeRepo,
		Logger: recorderLogger,
	})
	if err != nil {
		return nil, err
	}
	appLogger.Info("Episode recorder initialized")
	return recorder, nil
}

func initBridge() (*bridge.Bridge, error) {
	bridgeLogger, err := logger.New("BRIDGE", config.ColorCyan, os.Stdout)
	if err != nil {
		return nil, err
	}

	b, err := bridge.New(
		bridge.Config{
			Transport: wstransport.New(nil),
			Encoder:   &jsonenc.JSON{},
		},
		bridge.WithLogger(bridgeLogger),
		bridge.WithDialTimeout(time.Duration(config.Envs.DialTimeoutMs)*time.Millisecond),
		bridge.WithStateChangeHandler(func(from, to bridge.State) {
			metrics.RecordBridgeTransition(from.String(), to.String())
			bridgeLogger.Info(fmt.Sprintf("state %s -> %s", from, to))
		}),
		bridge.WithDropHandler(func(error) {
			metrics.RecordDroppedMessage()
		}),
	)
	if err != nil {
		return nil, err
	}
	appLogger.Info("Bridge initialized")
	return b, nil
}

func initController(mode episode.Mode, seed int64, b *bridge.Bridge, r episode.Recorder) (*episode.Controller, error) {
	gen, err := maze.NewGenerator(maze.DefaultSize, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}

	envLogger, err := logger.New("EPISODE", config.ColorYellow, os.Stdout)
	if err != nil {
		return nil, err
	}

	ctrl, err := episode.New(
		episode.Config{
			Mode:      mode,
			Body:      body.NewKinematic(episode.CorridorSpawn),
			Generator: gen,
			Bridge:    b,
		},
		episode.WithLogger(envLogger),
		episode.WithRecorder(r),
		episode.WithTrialPolicy(episode.NewUniformPolicy(rand.New(rand.NewSource(seed+1)))),
		episode.WithAutoReset(runFlags.autoReset),
	)
	if err != nil {
		return nil, err
	}
	appLogger.Info(fmt.Sprintf("Environment initialized: mode=%s seed=%d", mode, seed))
	return ctrl, nil
}

func initRouter(ctrl *episode.Controller, b *bridge.Bridge, r *service.EpisodeRecorder) (*api.Router, error) {
	var auth gin.HandlerFunc
	if config.Envs.JWTSecret != "" {
		tokenizer, err := token.NewJwtService(config.Envs.JWTSecret, config.Envs.JWTIssuer)
		if err != nil {
			return nil, err
		}
		auth = identity.Authoriz(tokenizer)
		appLogger.Info("JWT Tokenizer initialized")
	} else {
		appLogger.Warning("JWT_SECRET is not set, control routes are open")
	}

	router := api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", config.Envs.HostIP, config.Envs.RESTPort),
		BaseURL:                 "/api",
		Controllers:             []api_i.Controller{episodeapi.NewEpisodeController(ctrl, b, r)},
		AuthorizationMiddleware: auth,
		MetricsHandler:          promhttp.Handler(),
	})
	appLogger.Info("Router initialized")
	return router, nil
}

// keepConnected redials the last address whenever the bridge drops, until ctx is cancelled.
// An explicit disconnect clears the address and stops the redials.
func keepConnected(ctx context.Context, b *bridge.Bridge, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.Redial()
		}
	}
}

func runEnvironment(cmd *cobra.Command, _ []string) error {
	mode, err := episode.ParseMode(runFlags.mode)
	if err != nil {
		return err
	}
	if runFlags.fps <= 0 {
		return episode.ErrInvalidFrameRate
	}
	seed := runFlags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s services
	defer s.close(context.Background())

	initCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	recorder, err := initRecorder(initCtx, &s)
	cancel()
	if err != nil {
		return err
	}

	b, err := initBridge()
	if err != nil {
		return err
	}
	defer b.Close()

	ctrl, err := initController(mode, seed, b, recorder)
	if err != nil {
		return err
	}

	if runFlags.addr != "" {
		b.Connect(runFlags.addr)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(gctx, runFlags.fps)
	})

	if config.Envs.RESTPort > 0 {
		router, err := initRouter(ctrl, b, recorder)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return router.Run(gctx)
		})
	}

	if config.Envs.ReconnectIntervalMs > 0 {
		interval := time.Duration(config.Envs.ReconnectIntervalMs) * time.Millisecond
		g.Go(func() error {
			return keepConnected(gctx, b, interval)
		})
	}

	appLogger.Info(fmt.Sprintf("Running at %d fps", runFlags.fps))
	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("Shut down")
	return nil
}
