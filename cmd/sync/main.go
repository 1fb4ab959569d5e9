package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"stayfinder/internal/adapters/feed"
	"stayfinder/internal/adapters/observability"
	redisad "stayfinder/internal/adapters/redis"
	"stayfinder/internal/app"
	"stayfinder/internal/shared"
	mysqlrepo "stayfinder/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if len(cfg.FeedURLs) == 0 {
		log.Fatal().Msg("FEED_URLS is empty; nothing to sync")
	}
	log.Info().
		Int("feeds", len(cfg.FeedURLs)).
		Int("workers", cfg.Workers).
		Msg("availability sync starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	ing := app.NewIngestionService(repo, cache, cfg.Cache.TagPrefix)
	client := feed.New(cfg.FeedRPS)

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, u := range cfg.FeedURLs {
		u := u

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			defer sem.Release(int64(1))

			var payload app.AvailabilityPayload
			if err := client.Fetch(ctx, url, &payload); err != nil {
				log.Warn().Str("url", url).Err(err).Msg("feed fetch failed")
				return
			}
			fd, err := app.MapFeed(payload)
			if err != nil {
				log.Warn().Str("url", url).Err(err).Msg("feed payload rejected")
				return
			}
			if err := ing.Ingest(ctx, fd); err != nil {
				log.Warn().Str("url", url).Str("property_id", fd.PropertyID).Err(err).Msg("ingest failed")
				return
			}
			log.Info().Str("url", url).Str("property_id", fd.PropertyID).Msg("feed synced")
		}(u)
	}

	wg.Wait()
	log.Info().Msg("availability sync completed")
}
