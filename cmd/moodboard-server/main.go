package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/moodworks/moodboard/internal/api"
	"github.com/moodworks/moodboard/pkg/moodboard"
	"github.com/moodworks/moodboard/pkg/moodboard/annotate"
	"github.com/moodworks/moodboard/pkg/moodboard/classify"
	"github.com/moodworks/moodboard/pkg/moodboard/config"
	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/store"
	"github.com/moodworks/moodboard/pkg/moodboard/store/memstore"
	"github.com/moodworks/moodboard/pkg/moodboard/store/sqlite"
)

func main() {
	cfgPath := flag.String("config", "moodboard.yaml", "Configuration file")
	flag.Parse()

	// .env is optional; environment wins over the config file for PORT.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	port := cfg.Port
	if env := os.Getenv("PORT"); env != "" {
		port = env
	}

	classifiers, err := loadClassifiers(cfg.Models)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load classifier models")
	}

	ctx := context.Background()

	var cache store.Store
	if cfg.CachePath != "" {
		cache, err = sqlite.Open(ctx, cfg.CachePath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to open corpus cache")
		}
	} else {
		cache = memstore.New()
	}
	defer cache.Close()

	// Every source must either be on disk or already cached; a server
	// that cannot assemble its corpus should not come up at all.
	if err := probeSources(ctx, cfg, cache); err != nil {
		logger.WithError(err).Fatal("Source probe failed")
	}

	svc := moodboard.New(moodboard.Options{
		Sources:     sources(cfg),
		RowLimit:    cfg.RowLimit,
		ChunkSize:   cfg.ChunkSize,
		Store:       cache,
		Classifiers: classifiers,
	})

	logger.WithFields(logrus.Fields{
		"sources":   len(cfg.Sources),
		"row_limit": cfg.RowLimit,
	}).Info("Warming corpus")
	if _, err := svc.Table(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to build annotated corpus")
	}

	router := api.NewRouter(svc, logger)
	if err := serve(port, router, logger); err != nil {
		logger.WithError(err).Fatal("Server error")
	}
}

func loadClassifiers(m config.Models) (annotate.Classifiers, error) {
	toxicity, err := classify.LoadLinear(m.Toxicity)
	if err != nil {
		return annotate.Classifiers{}, err
	}
	subject, err := classify.LoadLinear(m.Subject)
	if err != nil {
		return annotate.Classifiers{}, err
	}
	sentiment, err := classify.LoadLinear(m.Sentiment)
	if err != nil {
		return annotate.Classifiers{}, err
	}
	return annotate.Classifiers{
		Toxicity:  toxicity,
		Subject:   subject,
		Sentiment: sentiment,
	}, nil
}

func sources(cfg *config.Config) []corpus.Source {
	out := make([]corpus.Source, len(cfg.Sources))
	for i, src := range cfg.Sources {
		out[i] = corpus.Source{Name: src.Name, Path: src.Path, Field: src.Field}
	}
	return out
}

func probeSources(ctx context.Context, cfg *config.Config, cache store.Store) error {
	for _, src := range cfg.Sources {
		key := store.CacheKey(src.Name, src.Field, cfg.RowLimit)
		if _, ok, err := cache.LoadCorpus(ctx, key); err == nil && ok {
			continue
		}
		if _, err := os.Stat(src.Path); err != nil {
			return err
		}
	}
	return nil
}

// serve runs the HTTP server until SIGINT or SIGTERM, then drains
// in-flight requests before returning.
func serve(port string, router http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
