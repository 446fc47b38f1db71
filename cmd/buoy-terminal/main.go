package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ngmaloney/buoy-terminal/internal/config"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/ui"
)

func main() {
	station := flag.String("station", "", "NDBC station ID to load directly (e.g., 44013)")
	dataset := flag.String("dataset", "standard", "Dataset to load with --station or --saved")
	location := flag.String("location", "", "Search for stations near a location (zipcode, city, state or lat,lon)")
	saved := flag.String("saved", "", "Label of a saved station to load directly")
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	if *station != "" && *saved != "" {
		fmt.Println("Error: use either --station or --saved, not both.")
		os.Exit(1)
	}
	if _, err := ndbc.Lookup(*dataset); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.Apply()

	logFile, err := config.LogToFile(cfg.LogLevel, filepath.Join(cfg.DataDir, "buoy-terminal.log"))
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	tf, err := models.ParseTimeframe(cfg.Timeframe)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	m := ui.NewModel(ui.Options{
		Client:     ndbc.NewClient(cfg.ClientOptions(nil)...),
		Timeframe:  tf,
		DBPath:     cfg.DatabasePath(),
		Station:    *station,
		Dataset:    *dataset,
		Location:   *location,
		SavedLabel: *saved,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
