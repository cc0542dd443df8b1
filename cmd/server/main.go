package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/antiqhall/go-auctionroom/internal/api"
	"github.com/antiqhall/go-auctionroom/internal/config"
	"github.com/antiqhall/go-auctionroom/internal/database"
	"github.com/antiqhall/go-auctionroom/internal/server"
	"github.com/antiqhall/go-auctionroom/internal/stats"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
	minIncrement   float64
	statsInterval  time.Duration
	debug          bool
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Float64Var(&minIncrement, "min-increment", 1.0, "default minimum bid increment for new auctions")
	flag.DurationVar(&statsInterval, "stats-interval", 15*time.Second, "interval between stats broadcasts to connected clients")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, minIncrement, statsInterval)
	if err != nil {
		logger.WithError(err).Fatal("config")
	}

	dbConn, err := database.NewPgAuctionRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.WithError(err).Fatal("db open")
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.WithError(err).Error("db close")
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	auctionServer, err := server.NewAuctionServer(logger, dbConn, statsUpdater, cfg.StatsInterval)
	if err != nil {
		logger.WithError(err).Fatal("new auction server")
	}

	app := api.NewAuctionApp(mux, logger, auctionServer, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go auctionServer.Run()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown")
		}

		logger.Info("shutting down auction server...")
		return auctionServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Fatal("server")
	}

	logger.Info("shutdown complete")
}
