/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the stock engine server. Handles configuration,
  dependency injection, the startup reconciliation pass, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load optional .env, parse command-line flags
  2. Initialize SQLite store
  3. Wire mutation service, notifier and reconciler
  4. Run a reconciliation sweep (repairs drift left by a crash)
  5. Start the background reconcile scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS / ENVIRONMENT:
  -port       / PORT                 HTTP server port (default: 8080)
  -db         / DB_PATH              SQLite database path (default: stock.db)
                                     Use ":memory:" for in-memory
  -log-level  / LOG_LEVEL            logrus level (default: info)
  -threshold  / LOW_STOCK_THRESHOLD  Low-stock alert level (default: 5)
  -reconcile-every / RECONCILE_INTERVAL
                                     Background sweep interval (default: 1h,
                                     0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close notifier and database
  4. Exit

EXAMPLES:
  ./server -db="./data/stock.db"
  ./server -db=":memory:" -threshold=10

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/warp/stock-engine/api"
	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/store/sqlite"
)

func main() {
	// A missing .env is fine; flags and defaults still apply.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "stock.db"), "SQLite database path")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	threshold := flag.Int("threshold", envInt("LOW_STOCK_THRESHOLD", inventory.DefaultLowStockThreshold), "low-stock alert level")
	reconcileEvery := flag.Duration("reconcile-every", envDuration("RECONCILE_INTERVAL", time.Hour), "interval between background reconciliation sweeps (0 disables)")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	notifier := inventory.NewNotifier(16)
	defer notifier.Close()
	notifier.Subscribe(func(ev inventory.LowStockEvent) {
		log.WithFields(logrus.Fields{
			"product": ev.Name,
			"stock":   ev.Quantity,
		}).Warn("low stock")
	})

	stock := inventory.NewService(store,
		inventory.WithNotifier(notifier),
		inventory.WithThreshold(*threshold),
		inventory.WithLogger(log),
	)

	// Repair any drift left behind by a previous unclean shutdown.
	reconciler := inventory.NewReconciler(store, log)
	if corrections, err := reconciler.Reconcile(context.Background()); err != nil {
		log.WithError(err).Warn("startup reconciliation failed")
	} else if len(corrections) > 0 {
		log.WithField("corrections", len(corrections)).Info("startup reconciliation repaired drift")
	}

	handler := api.NewHandler(stock, log)
	router := api.NewRouter(handler)

	scheduler := api.NewReconcileScheduler(reconciler, log)
	if *reconcileEvery > 0 {
		scheduler.Interval = *reconcileEvery
	} else {
		scheduler.Enabled = false
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
