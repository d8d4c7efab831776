package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/fastcity/internal/ai"
	"github.com/udisondev/fastcity/internal/cityapi"
	"github.com/udisondev/fastcity/internal/config"
	"github.com/udisondev/fastcity/internal/fleet"
	"github.com/udisondev/fastcity/internal/geo"
)

const ConfigPath = "config/fastcity.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("FASTCITY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("fastcity starting",
		"server", cfg.API.ServerURL,
		"team", cfg.API.TeamName,
		"mode", cfg.Fleet.Mode,
		"policy", cfg.Fleet.Policy,
		"log_level", cfg.LogLevel)

	client, err := cityapi.New(cfg.API, nil)
	if err != nil {
		return fmt.Errorf("creating city client: %w", err)
	}

	orch := fleet.NewOrchestrator(client, newPolicy(&cfg.Fleet), &cfg.Fleet)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		switch cfg.Fleet.Mode {
		case config.ModeConcurrent:
			err = orch.RunConcurrent(gctx)
		default:
			err = orch.Run(gctx)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("fleet: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	if cfg.Fleet.StopOnExit {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.StopGame(stopCtx); err != nil {
			slog.Warn("stopping game on exit", "err", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	slog.Info("fastcity stopped")
	return nil
}

func newPolicy(cfg *config.Fleet) ai.Policy {
	switch cfg.Policy {
	case config.PolicyGoal:
		return ai.NewGoalPolicy(&geo.AStar{MaxIterations: cfg.MaxSearchIterations})
	default:
		return ai.NewReactivePolicy(ai.NewRand(cfg.Seed))
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
