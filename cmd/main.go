package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/francisforadreport/ethvsbtc/api"
	"github.com/francisforadreport/ethvsbtc/config"
	"github.com/francisforadreport/ethvsbtc/internal/fetch"
	"github.com/francisforadreport/ethvsbtc/internal/models"
	"github.com/francisforadreport/ethvsbtc/internal/scheduler"
	"github.com/francisforadreport/ethvsbtc/internal/source"
	"github.com/francisforadreport/ethvsbtc/internal/store"
	"github.com/francisforadreport/ethvsbtc/internal/synth"
)

func main() {
	// ── 1. Logger setup
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// ── 2. Root context setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Info().Msg("config loaded")

	// ── 4. Store + shared collaborators
	st := store.New()
	client := fetch.NewClient()
	gen := synth.NewGenerator(nil)

	// ── 5. Data source adapters + scheduler
	sched := scheduler.New(st)
	sched.Register(models.SectionPrices, cfg.PriceInterval, source.NewSpotAdapter(client, st, cfg.BinanceBaseURL))
	sched.Register(models.SectionPressure, cfg.PressureInterval, source.NewPressureAdapter(client, st, gen, cfg.BinanceBaseURL))
	sched.Register(models.SectionReserves, cfg.ReservesInterval, source.NewReserveAdapter(client, st, cfg.CoinGeckoBaseURL))
	sched.Register(models.SectionETF, cfg.ETFInterval, source.NewETFAdapter(st, gen))
	sched.Register(models.SectionNews, cfg.NewsInterval, source.NewNewsAdapter(client, st, cfg.NewsBaseURL, cfg.NewsAPIKey))
	sched.Register(models.SectionCandles, cfg.CandlesInterval, source.NewCandleAdapter(client, st, cfg.BinanceBaseURL))

	sched.Start(ctx)
	defer func() {
		sched.Stop()
		st.Close()
	}()

	// ── 6. Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "ethvsbtc",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// ── 7. Routes
	api.SetupRoutes(app, st, sched)

	// ── 8. Graceful shutdown listener
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	// ── 9. Start server (blocking)
	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
