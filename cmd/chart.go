package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"gojam/cache"
	"gojam/config"
	"gojam/core/assets"
	"gojam/core/catalog"
	"gojam/core/shazam"
	"gojam/db"
	"gojam/repository"
	"gojam/storage"

	"github.com/spf13/cobra"
)

var (
	chartCountry string
	chartGenre   string
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Fetch a chart and ingest it into the catalog",
	Long:  `Pull the current chart for a country (optionally filtered by genre) from the recognition service and store every track locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		if !shazam.ValidCountry(chartCountry) {
			log.Fatalf("Unknown country code: %s", chartCountry)
		}
		if chartGenre != "" && !shazam.ValidGenre(chartCountry, chartGenre) {
			log.Fatalf("Genre %q is not charted for country %s", chartGenre, chartCountry)
		}

		if err := db.ConnectDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.DB.Close()

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()

		if err := db.InitDB(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}

		objectStore, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}

		trackRepo := repository.NewMySQLTrackRepository(db.DB)
		artistRepo := repository.NewMySQLArtistRepository(db.DB)

		client := shazam.NewClient(cfg.ShazamAPIURL, cfg.ShazamAPITimeout)
		store := catalog.NewStore(trackRepo, artistRepo)
		fetcher := assets.NewFetcher(objectStore, cfg.AssetFetchLimit, cfg.AssetFetchTimeout)
		chartCache := cache.NewChartCache(db.RedisClient, cfg.ChartCacheTTL)
		pipeline := catalog.NewPipeline(client, store, fetcher, nil, chartCache, cfg.ChartLimit)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		fmt.Printf("Fetching chart for %s", chartCountry)
		if chartGenre != "" {
			fmt.Printf(" (%s)", chartGenre)
		}
		fmt.Println("...")

		entries, err := pipeline.IngestChart(ctx, chartCountry, chartGenre)
		if err != nil {
			log.Fatalf("Chart ingestion failed: %v", err)
		}

		fmt.Printf("\nIngested %d tracks:\n", len(entries))
		for i, entry := range entries {
			fmt.Printf("%d. %s - %s (local id %d)\n", i+1, entry.Hit.Title, entry.Hit.Band, entry.LocalID)
		}
	},
}

func init() {
	chartCmd.Flags().StringVarP(&chartCountry, "country", "c", shazam.WorldChart, "country code, or 'world' for the global chart")
	chartCmd.Flags().StringVarP(&chartGenre, "genre", "g", "", "genre filter")
	rootCmd.AddCommand(chartCmd)
}
