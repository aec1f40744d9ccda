package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pefman/omega-duel/internal/config"
	"github.com/pefman/omega-duel/internal/game"
	"github.com/pefman/omega-duel/internal/logging"
	"github.com/pefman/omega-duel/internal/stats"
	"github.com/pefman/omega-duel/internal/store"
)

func loadCatalog(path string) (*game.Catalog, error) {
	if path == "" {
		return game.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return game.LoadCatalogYAML(f)
}

// newServer wires the service to the configured store. The returned func
// releases the store.
func newServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*server, func() error, error) {
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	matches, err := newMatchLog(cfg.MatchLogDir)
	if err != nil {
		return nil, nil, err
	}
	daily := stats.NewDaily()

	var (
		defences game.DefenceRegistry
		ledger   game.Ledger
		sinks    = game.Sinks{matches, daily}
		archive  = archives{matches}
		closer   = func() error { return nil }
	)
	switch cfg.Store {
	case config.StoreSQLite, config.StorePostgres:
		var db store.Store
		if cfg.Store == config.StoreSQLite {
			db, err = store.OpenSQLite(cfg.SQLitePath)
		} else {
			db, err = store.OpenPostgres(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			return nil, nil, err
		}
		defences, ledger, closer = db, db, db.Close
		sinks = append(game.Sinks{db}, sinks...)
		archive = append(archive, db)
	default:
		mem := stats.NewMemory()
		defences, ledger = mem, mem
	}

	svc := game.NewService(game.Options{
		Owner:    cfg.Owner,
		Catalog:  catalog,
		Defences: defences,
		Ledger:   ledger,
		Events:   sinks,
		Logger:   log.Named("game"),
	})
	log.Info("store ready", zap.String("store", cfg.Store), zap.Int("ships", len(catalog.Ships())))
	return &server{svc: svc, archive: archive, matches: matches, daily: daily, log: log}, closer, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	s, closeStore, err := newServer(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("startup", zap.Error(err))
	}
	defer closeStore()
	if cfg.Owner == "" {
		log.Warn("OWNER not set; catalog edits and manual tallies are disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      withCORS(s.routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("omega duel api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutting down", zap.Stringer("signal", sig))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
