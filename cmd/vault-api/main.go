package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/sparklabs/ideavault/api/config"
	"github.com/sparklabs/ideavault/api/gateway"
	"github.com/sparklabs/ideavault/api/handlers"
	"github.com/sparklabs/ideavault/api/metrics"
	"github.com/sparklabs/ideavault/api/vault"
	"github.com/sparklabs/ideavault/pkg/logger"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = "0.0.0.0:8080"
	defaultMetricsAddr = "0.0.0.0:9090"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "Address to listen on for the HTTP API")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics (empty to disable)")
	networkFlag := flag.String("network", string(config.NetworkDevnet), "Deployment network: mainnet-beta, devnet, or localnet (or set VAULT_NETWORK env var)")
	gatewayURLFlag := flag.String("gateway-url", "", "Token gateway JSON-RPC URL; empty runs the in-memory gateway (or set GATEWAY_URL env var)")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", 30*time.Second, "Maximum time to wait for in-flight requests during graceful shutdown")

	flag.Parse()

	log := logger.New(*verboseFlag)

	// Override flags with environment variables if set
	if envNetwork := os.Getenv("VAULT_NETWORK"); envNetwork != "" {
		*networkFlag = envNetwork
	}
	if envGatewayURL := os.Getenv("GATEWAY_URL"); envGatewayURL != "" {
		*gatewayURLFlag = envGatewayURL
	}

	network := config.Network(*networkFlag)
	if !config.ValidNetworks[network] {
		return fmt.Errorf("unknown network %q", *networkFlag)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgCfg, err := config.PgConfigFromEnv()
	if err != nil {
		return err
	}
	pool, err := config.LoadPostgres(ctx, log, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	var gw vault.TransferGateway
	if *gatewayURLFlag != "" {
		gw = gateway.NewRPC(*gatewayURLFlag)
		log.Info("using RPC transfer gateway", "url", *gatewayURLFlag)
	} else {
		gw = gateway.NewMemory()
		log.Warn("no gateway URL configured, using in-memory transfer gateway")
	}

	engine, err := vault.NewEngine(vault.EngineConfig{
		Store:   vault.NewPgStore(pool),
		Gateway: gw,
		Network: network,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	nonces := handlers.NewPgNonces(pool)
	go purgeNoncesLoop(ctx, log, nonces)

	handlers.Version, handlers.Commit, handlers.Date = version, commit, date
	h := handlers.New(handlers.Config{
		Engine: engine,
		Nonces: nonces,
		Logger: log,
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
	})

	httpServer := &http.Server{
		Addr:    *listenAddrFlag,
		Handler: h.Router(),
	}
	metricsServer := &http.Server{Addr: *metricsAddrFlag}

	g, gctx := errgroup.WithContext(ctx)

	// Metrics server
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer.Handler = mux

		g.Go(func() error {
			listener, err := net.Listen("tcp", *metricsAddrFlag)
			if err != nil {
				return fmt.Errorf("failed to start prometheus metrics server listener: %w", err)
			}
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
			if err := metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("prometheus metrics server error: %w", err)
			}
			return nil
		})
	}

	// API server
	g.Go(func() error {
		log.Info("HTTP API listening", "addr", *listenAddrFlag, "network", network, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Shutdown on signal or on the first server failure.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down, draining in-flight requests", "timeout", *shutdownTimeoutFlag)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), *shutdownTimeoutFlag)
		defer shutdownCancel()
		if *metricsAddrFlag != "" {
			_ = metricsServer.Shutdown(shutdownCtx)
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("HTTP server stopped")
	return nil
}

// purgeNoncesLoop removes expired auth nonces every few minutes.
func purgeNoncesLoop(ctx context.Context, log *slog.Logger, nonces *handlers.PgNonces) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := nonces.PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				log.Error("failed to purge expired nonces", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("purged expired nonces", "count", n)
			}
		}
	}
}
