// Command buoy-fetch downloads one station's dataset from NDBC and writes
// it as CSV, JSON, Parquet or Arrow.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ngmaloney/buoy-terminal/internal/config"
	"github.com/ngmaloney/buoy-terminal/internal/export"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/rs/zerolog/log"
)

func main() {
	station := flag.String("station", "", "NDBC station ID (e.g. 41013)")
	dataset := flag.String("dataset", "standard", "Dataset name, see -list")
	timeframe := flag.String("timeframe", "", "all, real_time, current_year or historical (default from config)")
	years := flag.String("years", "", "Archive years, e.g. 2019,2020 or 2015-2018")
	format := flag.String("format", "csv", "Output format: csv, json, parquet or arrow")
	out := flag.String("out", "", "Output file (default stdout)")
	rename := flag.Bool("rename", true, "Rename NDBC columns to descriptive names")
	dedupe := flag.Bool("dedupe", true, "Drop rows with duplicate timestamps")
	list := flag.Bool("list", false, "List datasets, or a station's files when -station is set, and exit")
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.Apply()
	config.SetupLogging(cfg.LogLevel, os.Stderr)

	if *timeframe == "" {
		*timeframe = cfg.Timeframe
	}
	tf, err := models.ParseTimeframe(*timeframe)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -timeframe")
	}

	if *list && *station == "" {
		printDatasets()
		return
	}
	if *station == "" {
		fmt.Fprintln(os.Stderr, "Error: -station is required")
		flag.Usage()
		os.Exit(2)
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -format")
	}
	yearList, err := ndbc.ParseYears(*years)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -years")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := cfg.Cache(ctx)
	n := ndbc.New(ndbc.NewClient(cfg.ClientOptions(store)...), tf, nil)

	if *list {
		if err := printAvailable(ctx, n, *station, *dataset); err != nil {
			log.Fatal().Err(err).Msg("listing files")
		}
		return
	}

	opts := ndbc.StationOptions{RenameColumns: *rename, DropDuplicates: *dedupe, Years: yearList}
	tbl, err := n.GetStation(ctx, *station, *dataset, opts)
	if err != nil {
		log.Fatal().Err(err).Str("station", *station).Str("dataset", *dataset).Msg("fetching station data")
	}
	log.Info().Str("station", strings.ToUpper(*station)).Int("rows", tbl.Len()).Int("columns", len(tbl.Columns)).Msg("fetched")

	if *out == "" {
		if err := export.Write(os.Stdout, f, tbl); err != nil {
			log.Fatal().Err(err).Msg("writing output")
		}
		return
	}
	if err := export.WriteFile(*out, f, tbl); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("writing output")
	}
	log.Info().Str("path", *out).Str("format", string(f)).Msg("wrote file")
}

func printDatasets() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tGROUPS\tDESCRIPTION")
	for _, ds := range ndbc.Datasets() {
		var groups []string
		for _, g := range models.DataGroups {
			if ds.Supports(g) {
				groups = append(groups, string(g))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", ds.Name, strings.Join(groups, ","), ds.Description)
	}
	w.Flush()
}

func printAvailable(ctx context.Context, n *ndbc.NDBC, station, dataset string) error {
	avail, err := n.AvailableData(ctx, dataset)
	if err != nil {
		return err
	}
	files := ndbc.ForStation(avail, station)
	if len(files) == 0 {
		fmt.Printf("No %s files for station %s (%s)\n", dataset, strings.ToUpper(station), n.Timeframe())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tFILE\tYEAR\tMODIFIED\tSIZE\tURL")
	for _, a := range files {
		year := "-"
		if a.Year > 0 {
			year = fmt.Sprint(a.Year)
		}
		modified := "-"
		if !a.LastModified.IsZero() {
			modified = a.LastModified.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", a.DataGroup, a.FileName, year, modified, humanize.Bytes(a.Size), a.TxtURL)
	}
	return w.Flush()
}
