package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Liev03/DOexpertSystem/internal/advisor"
	"github.com/Liev03/DOexpertSystem/internal/config"
	"github.com/Liev03/DOexpertSystem/internal/logger"
	"github.com/Liev03/DOexpertSystem/internal/period"
	"github.com/Liev03/DOexpertSystem/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load .env if present; deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	zlog := logger.WithComponent("main")

	policy, err := advisor.ParseSelectionPolicy(cfg.Policy, cfg.TopK)
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid selection policy")
	}

	engine, err := advisor.NewEngine(advisor.WithPolicy(policy))
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to build rule catalog")
	}

	periods, err := period.NewResolver(cfg.Timezone)
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid time zone")
	}

	zlog.Info().
		Int("rules", engine.CatalogSize()).
		Strs("profiles", engine.Profiles().IDs()).
		Str("policy", engine.Policy().String()).
		Str("timezone", periods.Location().String()).
		Msg("advisory engine ready")

	svc := service.New(cfg, engine, periods)

	// Run the service in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(ctx)
	}()

	// Wait for termination signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		zlog.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			zlog.Error().Err(err).Msg("service exited with error")
			os.Exit(1)
		}
	}
}
