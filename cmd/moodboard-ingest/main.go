package main

import (
	"context"
	"flag"
	"log"

	"github.com/moodworks/moodboard/pkg/moodboard/config"
	"github.com/moodworks/moodboard/pkg/moodboard/corpus"
	"github.com/moodworks/moodboard/pkg/moodboard/store"
	"github.com/moodworks/moodboard/pkg/moodboard/store/sqlite"
)

// moodboard-ingest reads every configured source dump and writes the
// deduplicated rows into the corpus cache, replacing any snapshot with
// the same key. The server then starts without touching the dumps.
func main() {
	var (
		cfgPath = flag.String("config", "moodboard.yaml", "Configuration file")
		refresh = flag.Bool("refresh", false, "Re-ingest sources that already have a snapshot")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.CachePath == "" {
		log.Fatal("cache_path required in config")
	}

	ctx := context.Background()

	cache, err := sqlite.Open(ctx, cfg.CachePath)
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	for _, src := range cfg.Sources {
		key := store.CacheKey(src.Name, src.Field, cfg.RowLimit)

		if !*refresh {
			if _, ok, err := cache.LoadCorpus(ctx, key); err != nil {
				log.Fatalf("check cache for %s: %v", src.Name, err)
			} else if ok {
				log.Printf("%s: snapshot exists, skipping (use --refresh to re-ingest)", src.Name)
				continue
			}
		}

		log.Printf("%s: ingesting %s", src.Name, src.Path)
		res, err := corpus.Ingest(corpus.Source{
			Name:  src.Name,
			Path:  src.Path,
			Field: src.Field,
		}, cfg.RowLimit, cfg.ChunkSize)
		if err != nil {
			log.Fatalf("ingest %s: %v", src.Name, err)
		}

		id, err := cache.SaveCorpus(ctx, key, res.Rows)
		if err != nil {
			log.Fatalf("save snapshot for %s: %v", src.Name, err)
		}
		log.Printf("%s: %d rows (dupes %d, malformed %d, missing field %d) snapshot %s",
			src.Name, len(res.Rows), res.Dupes, res.Malformed, res.FieldMiss, id.ID)
	}

	snaps, err := cache.Snapshots(ctx)
	if err != nil {
		log.Fatalf("list snapshots: %v", err)
	}
	log.Printf("cache holds %d snapshots", len(snaps))
}
