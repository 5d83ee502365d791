package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/adwski/matchroom/backend/config"
	"github.com/adwski/matchroom/backend/router"
	httpServer "github.com/adwski/matchroom/backend/server/http"
	websocketServer "github.com/adwski/matchroom/backend/server/websocket"
	"github.com/adwski/matchroom/backend/service"
	store "github.com/adwski/matchroom/backend/storage/memory"
	sw "github.com/adwski/matchroom/backend/switch"
	"github.com/rs/zerolog"
)

type runner interface {
	Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error)
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	switchboard := sw.NewSwitch(&logger)
	svc := service.NewService(service.Config{
		RoomStore: store.NewMemStore(),
		Groups:    switchboard,
		Events: router.NewRouter(router.Config{
			Transport: switchboard,
			Logger:    &logger,
		}),
		Logger: &logger,
	})

	servers := []runner{
		websocketServer.NewServer(websocketServer.Config{
			Logger:         &logger,
			SessionHandler: svc,
			ListenAddr:     cfg.WSListenAddr,
		}),
	}
	if cfg.APIListenAddr != "" {
		servers = append(servers, httpServer.NewServer(httpServer.Config{
			Logger:      &logger,
			RoomService: svc,
			ListenAddr:  cfg.APIListenAddr,
		}))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, len(servers))
	)
	wg.Add(len(servers))
	for _, srv := range servers {
		go srv.Run(ctx, wg, errc)
	}

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected server error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()
}
