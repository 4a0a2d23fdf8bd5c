package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/rewind/pkg/api"
	"github.com/cbodonnell/rewind/pkg/demo"
	"github.com/cbodonnell/rewind/pkg/game"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/network"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/queue"
	"github.com/cbodonnell/rewind/pkg/repositories"
	"github.com/cbodonnell/rewind/pkg/session"
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/cbodonnell/rewind/pkg/state"
	"github.com/cbodonnell/rewind/pkg/version"
	"github.com/cbodonnell/rewind/pkg/workers"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level")
	apiPort := flag.Int("api-port", 8080, "API port to listen on")
	apiToken := flag.String("api-token", "", "Bearer token required by the API, empty to disable")
	tlsCert := flag.String("tls-cert", "", "TLS certificate file for the API")
	tlsKey := flag.String("tls-key", "", "TLS key file for the API")
	tickInterval := flag.Duration("tick-interval", 16*time.Millisecond, "Simulation tick interval")
	statusInterval := flag.Duration("status-interval", 100*time.Millisecond, "Interval for broadcasting status to companions")
	bulk := flag.Bool("bulk", false, "Large state mode, disables history capture and time travel")
	sqlitePath := flag.String("sqlite-path", "rewind.db", "SQLite snapshot archive, used when DATABASE_URL is not set")
	play := flag.Bool("play", false, "Start playing immediately")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting rewind version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repository, err := newRepository(ctx, *sqlitePath)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(context.Background())

	snapshotChan := make(workers.ChannelNotifier, workers.DefaultSnapshotChannelSize)
	saveSnapshotWorker := workers.NewSaveSnapshotWorker(workers.NewSaveSnapshotWorkerOptions{
		Repository:   repository,
		SnapshotChan: snapshotChan,
	})
	go saveSnapshotWorker.Start(ctx)

	companionHub := network.NewCompanionHub(logger.With("component", "companions"))

	world := sim.NewGame(demo.NewWorld(), demo.Systems()...)
	s, err := session.Attach(world, session.Options{
		Notifier: playback.MultiNotifier{companionHub, snapshotChan},
		Bulk:     *bulk,
		Logger:   logger,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to attach session: %v", err))
	}
	registry := session.NewRegistry()
	registry.Set(s)
	defer func() {
		registry.Clear(s)
		if err := s.Detach(); err != nil {
			log.Error("Failed to detach session: %v", err)
		}
	}()
	log.Info("Attached session %s", s.ID())

	if *play {
		if err := s.Controller().Play(); err != nil {
			panic(fmt.Sprintf("Failed to start playing: %v", err))
		}
	}

	commandQueue := queue.NewInMemoryQueue(queue.QueueBufferSize)
	statusManager := state.NewInMemoryStatusManager()

	broadcastStatusWorker := workers.NewBroadcastStatusWorker(workers.NewBroadcastStatusWorkerOptions{
		Broadcaster:   companionHub,
		StatusManager: statusManager,
		Interval:      *statusInterval,
	})
	go broadcastStatusWorker.Start(ctx)

	var tlsConfig *api.TLSConfig
	if *tlsCert != "" && *tlsKey != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *tlsCert,
			KeyFile:  *tlsKey,
		}
	}
	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:          *apiPort,
		TLS:           tlsConfig,
		Token:         *apiToken,
		CommandQueue:  commandQueue,
		StatusManager: statusManager,
		Repository:    repository,
		Companions:    companionHub,
	})
	go apiServer.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Error("Failed to stop API server: %v", err)
		}
	}()

	gameManager := game.NewGameManager(game.NewGameManagerOptions{
		Driver:           world,
		Registry:         registry,
		CommandQueue:     commandQueue,
		StatusManager:    statusManager,
		GameLoopInterval: *tickInterval,
	})

	log.Info("Starting game manager")
	if err := gameManager.Start(ctx); err != nil {
		log.Error("Game manager stopped: %v", err)
	}
	log.Info("Shutting down")
}

// newRepository archives to Postgres when DATABASE_URL is set and to SQLite
// otherwise.
func newRepository(ctx context.Context, sqlitePath string) (repositories.Repository, error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return repositories.NewPostgresRepository(ctx, connStr)
	}
	log.Info("DATABASE_URL not set, archiving snapshots to %s", sqlitePath)
	return repositories.NewSQLiteRepository(ctx, sqlitePath)
}
