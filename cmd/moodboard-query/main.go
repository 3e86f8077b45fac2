package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/moodworks/moodboard/pkg/moodboard"
	"github.com/moodworks/moodboard/pkg/moodboard/annotate"
	"github.com/moodworks/moodboard/pkg/moodboard/classify"
	"github.com/moodworks/moodboard/pkg/moodboard/config"
	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/store"
	"github.com/moodworks/moodboard/pkg/moodboard/store/memstore"
	"github.com/moodworks/moodboard/pkg/moodboard/store/sqlite"
)

// moodboard-query runs the full pipeline once, offline, and prints the
// aggregate to stdout. Useful for exporting a report without standing
// up the server.
func main() {
	var (
		cfgPath = flag.String("config", "moodboard.yaml", "Configuration file")
		query   = flag.String("query", "", "Filter expression (optional)")
		format  = flag.String("format", "json", "Output format: json or csv")
	)
	flag.Parse()

	if *format != "json" && *format != "csv" {
		log.Fatalf("unknown format %q", *format)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	toxicity, err := classify.LoadLinear(cfg.Models.Toxicity)
	if err != nil {
		log.Fatalf("load toxicity model: %v", err)
	}
	subject, err := classify.LoadLinear(cfg.Models.Subject)
	if err != nil {
		log.Fatalf("load subject model: %v", err)
	}
	sentiment, err := classify.LoadLinear(cfg.Models.Sentiment)
	if err != nil {
		log.Fatalf("load sentiment model: %v", err)
	}

	ctx := context.Background()

	var cache store.Store
	if cfg.CachePath != "" {
		cache, err = sqlite.Open(ctx, cfg.CachePath)
		if err != nil {
			log.Fatalf("open cache: %v", err)
		}
	} else {
		cache = memstore.New()
	}
	defer cache.Close()

	sources := make([]corpus.Source, len(cfg.Sources))
	for i, src := range cfg.Sources {
		sources[i] = corpus.Source{Name: src.Name, Path: src.Path, Field: src.Field}
	}

	svc := moodboard.New(moodboard.Options{
		Sources:   sources,
		RowLimit:  cfg.RowLimit,
		ChunkSize: cfg.ChunkSize,
		Store:     cache,
		Classifiers: annotate.Classifiers{
			Toxicity:  toxicity,
			Subject:   subject,
			Sentiment: sentiment,
		},
	})

	res, err := svc.Query(ctx, *query)
	if err != nil {
		log.Fatalf("query: %v", err)
	}

	if *format == "csv" {
		if err := res.WriteCSV(os.Stdout); err != nil {
			log.Fatalf("write csv: %v", err)
		}
		return
	}

	body, err := res.MarshalTable()
	if err != nil {
		log.Fatalf("marshal result: %v", err)
	}
	fmt.Println(string(body))
}
