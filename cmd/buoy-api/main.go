// Package main provides the buoy data HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ngmaloney/buoy-terminal/internal/api"
	"github.com/ngmaloney/buoy-terminal/internal/cities"
	"github.com/ngmaloney/buoy-terminal/internal/config"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/stations"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("buoy-api version %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Apply()
	config.SetupLogging(cfg.LogLevel, os.Stderr)

	dbPath := cfg.DatabasePath()
	log.Info().Msg("Starting buoy API server...")
	log.Info().Str("port", cfg.Port).Str("db", dbPath).Str("ndbc", cfg.BaseURL).Msg("configuration")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	store := cfg.Cache(ctx)
	cancel()
	if store != nil {
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.CacheTTL).Msg("response cache enabled")
	}
	client := ndbc.NewClient(cfg.ClientOptions(store)...)

	// Station metadata comes from the provisioned table when present,
	// otherwise straight from NDBC.
	var stationStore api.StationStore
	if needs, err := stations.NeedsProvisioning(dbPath); err == nil && !needs {
		stationStore = stations.NewStore(dbPath)
		log.Info().Msg("serving station metadata from the local database")
	} else {
		log.Info().Msg("station table not provisioned, reading station metadata from NDBC")
	}

	handler := api.NewHandler(client, stationStore, loadCityIndex(dbPath))
	router := api.SetupRouter(handler, cfg.CORSAllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().Msgf("Server listening on %s", addr)
	log.Info().Msgf("Health check: http://localhost:%s/health", cfg.Port)

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

// loadCityIndex returns nil when the cities table has not been provisioned
func loadCityIndex(dbPath string) ndbc.CityLocator {
	needs, err := cities.NeedsProvisioning(dbPath)
	if err != nil || needs {
		return nil
	}
	db, err := database.Open(dbPath)
	if err != nil {
		log.Warn().Err(err).Msg("opening cities database")
		return nil
	}
	defer db.Close()

	index, err := cities.LoadIndex(db)
	if err != nil || index.Len() == 0 {
		log.Warn().Err(err).Msg("closest cities disabled")
		return nil
	}
	log.Info().Int("cities", index.Len()).Msg("loaded city index")
	return index
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Buoy API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  buoy-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -config PATH   YAML config file (optional)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  BUOY_BASE_URL           NDBC web root (default: https://www.ndbc.noaa.gov)")
	fmt.Println("  BUOY_DATA_DIR           Data directory (default: ./data)")
	fmt.Println("  BUOY_DB_PATH            SQLite database (default: $BUOY_DATA_DIR/buoy-terminal.db)")
	fmt.Println("  BUOY_HTTP_TIMEOUT       Per request timeout, e.g. 30s")
	fmt.Println("  BUOY_RETRIES            Retries for failed NDBC requests (default: 2)")
	fmt.Println("  REDIS_ADDR              Redis address for the response cache (optional)")
	fmt.Println("  REDIS_PASSWORD          Redis password")
	fmt.Println("  REDIS_DB                Redis database number")
	fmt.Println("  CACHE_TTL               Cached response lifetime, e.g. 10m")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start server with default settings")
	fmt.Println("  buoy-api")
	fmt.Println()
	fmt.Println("  # Start server on custom port with a Redis cache")
	fmt.Println("  PORT=3000 REDIS_ADDR=localhost:6379 buoy-api")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                          Health check")
	fmt.Println("  GET /v1/datasets                     List datasets")
	fmt.Println("  GET /v1/stations                     List stations, or nearby with lat, lon, radius")
	fmt.Println("  GET /v1/stations/:id                 Station metadata")
	fmt.Println("  GET /v1/stations/:id/available       Files available for a dataset and timeframe")
	fmt.Println("  GET /v1/stations/:id/data            Dataset as json, csv, parquet or arrow")
	fmt.Println("  GET /v1/stations/:id/latest          Latest observation")
	fmt.Println()
}
