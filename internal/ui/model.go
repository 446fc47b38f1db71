package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/ngmaloney/buoy-terminal/internal/database"
	"github.com/ngmaloney/buoy-terminal/internal/geocoding"
	"github.com/ngmaloney/buoy-terminal/internal/models"
	"github.com/ngmaloney/buoy-terminal/internal/ndbc"
	"github.com/ngmaloney/buoy-terminal/internal/watchlist"
)

// AppState represents the current state of the application
type AppState int

const (
	StateSearch       AppState = iota // Search for location (zipcode/city/state)
	StateStationList                  // Show list of nearby buoy stations
	StateDatasetList                  // Pick a dataset for the selected station
	StateLoading                      // Fetching station data
	StateDisplay                      // Table tail and sparkline
	StateSaved                        // Saved stations
	StateProvisioning                 // Initial data provisioning (downloading/building DB)
	StateError                        // Error state
)

// Options configure a Model. Station, Location and SavedLabel open the
// app somewhere other than the search screen.
type Options struct {
	Client    *ndbc.Client
	Timeframe models.Timeframe
	DBPath    string

	Station    string
	Dataset    string
	Location   string
	SavedLabel string
}

// Model represents the application's state
type Model struct {
	state  AppState
	width  int
	height int
	err    error
	status string // one line notice, e.g. "Saved"

	dbPath string
	clock  clockwork.Clock
	opts   Options

	// Search
	searchInput textinput.Model
	geocoder    *geocoding.Geocoder
	searchQuery string
	location    *geocoding.Location

	// Stations
	stations    []models.Station
	stationList list.Model
	selected    *models.Station

	// Datasets
	datasetList list.Model
	dataset     string

	// Data
	ndbc          *ndbc.NDBC
	table         *models.Table
	latest        *models.LatestObservation
	column        int
	loadingData   bool
	loadingLatest bool

	// Watchlist
	watchlist  *watchlist.Repository
	saved      []models.SavedStation
	savedList  list.Model
	labelInput textinput.Model
	naming     bool

	// Provisioning
	spinner           spinner.Model
	provisionStatus   string
	provisionChannels *provisioningStartedMsg
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	if opts.DBPath == "" {
		opts.DBPath = database.DBPath()
	}
	if opts.Client == nil {
		opts.Client = ndbc.NewClient()
	}
	if opts.Dataset == "" {
		opts.Dataset = "standard"
	}

	ti := textinput.New()
	ti.Placeholder = "Enter zipcode, city, state or lat,lon (e.g. 02633 or Chatham, MA)..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60

	li := textinput.New()
	li.Placeholder = "Label for this station"
	li.CharLimit = 40
	li.Width = 40

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if opts.Location != "" {
		ti.SetValue(opts.Location)
		ti.CursorEnd()
	}

	return Model{
		state:       StateSearch,
		dbPath:      opts.DBPath,
		clock:       clockwork.NewRealClock(),
		opts:        opts,
		searchInput: ti,
		searchQuery: opts.Location,
		labelInput:  li,
		geocoder:    geocoding.NewGeocoder(geocoding.WithDBPath(opts.DBPath)),
		stationList: createStationList(nil, 0, 0),
		datasetList: createDatasetList(0, 0),
		savedList:   createSavedList(nil, 0, 0),
		ndbc:        ndbc.New(opts.Client, opts.Timeframe, nil),
		watchlist:   watchlist.NewRepository(opts.DBPath),
		dataset:     opts.Dataset,
		spinner:     s,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	needed, err := needsProvisioning(m.dbPath)
	if err == nil && needed {
		return tea.Batch(m.spinner.Tick, initiateProvisioning(m.opts.Client, m.dbPath))
	}
	return m.startup()
}

// startup honors the command line shortcuts
func (m Model) startup() tea.Cmd {
	switch {
	case m.opts.SavedLabel != "":
		return loadSavedStation(m.watchlist, m.dbPath, m.opts.SavedLabel)
	case m.opts.Station != "":
		return loadStation(m.dbPath, strings.ToUpper(m.opts.Station), m.opts.Dataset)
	case m.opts.Location != "":
		return geocodeLocation(m.geocoder, m.opts.Location)
	}
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		m.stationList.SetSize(msg.Width-4, msg.Height-10)
		m.datasetList.SetSize(msg.Width-4, msg.Height-10)
		m.savedList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil
	}

	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case provisioningStartedMsg:
		m.state = StateProvisioning
		m.provisionStatus = "Starting data provisioning..."
		m.provisionChannels = &msg
		return m, tea.Batch(
			waitForProvisionStatus(msg.progressChan),
			waitForProvisionResult(msg.resultChan),
		)

	case provisionStatusMsg:
		m.provisionStatus = string(msg)
		if m.provisionChannels != nil {
			return m, waitForProvisionStatus(m.provisionChannels.progressChan)
		}
		return m, nil

	case provisionResultMsg:
		m.provisionChannels = nil
		if msg.err != nil {
			m.err = fmt.Errorf("provisioning failed: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.state = StateSearch
		m.searchInput.Focus()
		return m, m.startup()

	case geocodeMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("geocoding failed: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.location = msg.location
		return m, findNearbyStations(m.dbPath, msg.location.Latitude, msg.location.Longitude)

	case stationsFoundMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("finding stations failed: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		if len(msg.stations) == 0 {
			m.err = fmt.Errorf("no buoy stations found near '%s'", m.searchQuery)
			m.state = StateError
			return m, nil
		}
		m.stations = msg.stations
		m.stationList = createStationList(msg.stations, m.width-4, m.height-10)
		m.state = StateStationList
		return m, nil

	case stationLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.selected = msg.station
		return m.startFetch(msg.dataset)

	case dataFetchedMsg:
		m.loadingData = false
		if msg.err != nil {
			m.err = describeFetchError(msg.err, m.selected, m.dataset)
			m.state = StateError
			return m, nil
		}
		m.table = msg.table
		m.column = 0
		if !m.loadingLatest {
			m.state = StateDisplay
		}
		return m, nil

	case latestFetchedMsg:
		m.loadingLatest = false
		if msg.err == nil {
			m.latest = msg.latest
		}
		if !m.loadingData && m.table != nil && m.state == StateLoading {
			m.state = StateDisplay
		}
		return m, nil

	case savedListMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("loading saved stations: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.saved = msg.saved
		m.savedList = createSavedList(msg.saved, m.width-4, m.height-10)
		m.state = StateSaved
		return m, nil

	case stationSavedMsg:
		m.naming = false
		m.labelInput.Blur()
		if msg.err != nil {
			m.status = errorStyle.Render("✗ " + msg.err.Error())
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("✓ Saved %s as %q", msg.saved.StationID, msg.saved.Label))
		return m, nil

	case savedDeletedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("✗ " + msg.err.Error())
			return m, nil
		}
		m.status = successStyle.Render(fmt.Sprintf("✓ Removed %q", msg.label))
		return m, fetchSavedStations(m.watchlist)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if keyMsg.String() == "q" && !m.typing() {
			return m, tea.Quit
		}

		switch m.state {
		case StateSearch:
			return m.handleSearchInput(keyMsg)
		case StateStationList:
			return m.handleStationList(msg)
		case StateDatasetList:
			return m.handleDatasetList(msg)
		case StateDisplay:
			return m.handleDisplay(keyMsg)
		case StateSaved:
			return m.handleSavedList(msg)
		case StateError:
			// Any key returns to search (except quit keys)
			return m.resetToSearch()
		}
	}

	switch m.state {
	case StateProvisioning, StateLoading:
		m.spinner, cmd = m.spinner.Update(msg)
	case StateSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	case StateStationList:
		m.stationList, cmd = m.stationList.Update(msg)
	case StateDatasetList:
		m.datasetList, cmd = m.datasetList.Update(msg)
	case StateSaved:
		m.savedList, cmd = m.savedList.Update(msg)
	}

	return m, cmd
}

// typing reports whether a text input has focus, so "q" is text
func (m Model) typing() bool {
	return m.state == StateSearch || m.naming ||
		(m.state == StateDatasetList && m.datasetList.SettingFilter()) ||
		(m.state == StateSaved && m.savedList.SettingFilter())
}

func (m Model) resetToSearch() (tea.Model, tea.Cmd) {
	m.state = StateSearch
	m.err = nil
	m.status = ""
	m.selected = nil
	m.table = nil
	m.latest = nil
	m.stations = nil
	m.location = nil
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.searchInput.Focus()
	return m, textinput.Blink
}

// startFetch loads the dataset and latest observation of the selected station
func (m Model) startFetch(dataset string) (tea.Model, tea.Cmd) {
	if dataset == "" {
		dataset = m.opts.Dataset
	}
	m.dataset = dataset
	m.state = StateLoading
	m.loadingData = true
	m.loadingLatest = true
	m.table = nil
	m.latest = nil
	m.status = ""
	return m, tea.Batch(
		m.spinner.Tick,
		fetchStationData(m.ndbc, m.selected.ID, dataset),
		fetchLatest(m.ndbc, m.selected.ID),
	)
}

// handleSearchInput handles keyboard input in search state
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.err != nil && msg.Type != tea.KeyEnter {
		m.err = nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			return m, nil
		}
		m.searchQuery = query
		m.err = nil
		m.state = StateLoading
		return m, tea.Batch(m.spinner.Tick, geocodeLocation(m.geocoder, query))
	case tea.KeyTab:
		m.searchInput.Blur()
		return m, fetchSavedStations(m.watchlist)
	}

	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleStationList handles keyboard input in station list state
func (m Model) handleStationList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEnter {
			if item, ok := m.stationList.SelectedItem().(stationItem); ok {
				station := item.station
				m.selected = &station
				m.datasetList = createDatasetList(m.width-4, m.height-10)
				m.state = StateDatasetList
				return m, nil
			}
		}
		if keyMsg.String() == "s" || keyMsg.Type == tea.KeyEsc {
			return m.resetToSearch()
		}
	}

	m.stationList, cmd = m.stationList.Update(msg)
	return m, cmd
}

func (m Model) handleDatasetList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.datasetList.SettingFilter() {
		switch keyMsg.Type {
		case tea.KeyEnter:
			if item, ok := m.datasetList.SelectedItem().(datasetItem); ok {
				return m.startFetch(item.dataset.Name)
			}
		case tea.KeyEsc:
			if len(m.stations) > 0 {
				m.state = StateStationList
				return m, nil
			}
			return m.resetToSearch()
		}
	}

	m.datasetList, cmd = m.datasetList.Update(msg)
	return m, cmd
}

// handleDisplay handles keys on the data view
func (m Model) handleDisplay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.naming {
		switch msg.Type {
		case tea.KeyEnter:
			label := strings.TrimSpace(m.labelInput.Value())
			if label == "" {
				return m, nil
			}
			return m, saveStation(m.watchlist, m.selected.ID, label, m.dataset)
		case tea.KeyEsc:
			m.naming = false
			m.labelInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.labelInput, cmd = m.labelInput.Update(msg)
		return m, cmd
	}

	switch {
	case msg.Type == tea.KeyTab:
		if n := len(m.table.NumericColumns()); n > 0 {
			m.column = (m.column + 1) % n
		}
	case msg.Type == tea.KeyShiftTab:
		if n := len(m.table.NumericColumns()); n > 0 {
			m.column = (m.column - 1 + n) % n
		}
	case msg.String() == "s":
		return m.resetToSearch()
	case msg.String() == "d":
		m.datasetList = createDatasetList(m.width-4, m.height-10)
		m.state = StateDatasetList
	case msg.String() == "r":
		m.ndbc.Refresh()
		return m.startFetch(m.dataset)
	case msg.String() == "w":
		m.naming = true
		m.labelInput.SetValue(m.selected.ID)
		m.labelInput.CursorEnd()
		m.labelInput.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// handleSavedList handles keyboard input in the saved stations list
func (m Model) handleSavedList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.savedList.SettingFilter() {
		item, selected := m.savedList.SelectedItem().(savedItem)
		switch {
		case keyMsg.Type == tea.KeyEnter && selected:
			return m, loadStation(m.dbPath, item.saved.StationID, item.saved.Dataset)
		case keyMsg.String() == "x" && selected:
			return m, deleteSavedStation(m.watchlist, item.saved.Label)
		case keyMsg.Type == tea.KeyEsc || keyMsg.String() == "s":
			return m.resetToSearch()
		}
	}

	m.savedList, cmd = m.savedList.Update(msg)
	return m, cmd
}

// describeFetchError turns sentinel errors into a sentence
func describeFetchError(err error, station *models.Station, dataset string) error {
	id := ""
	if station != nil {
		id = station.ID
	}
	switch {
	case errors.Is(err, ndbc.ErrNoData):
		return fmt.Errorf("station %s has no %s data: %w", id, dataset, err)
	case errors.Is(err, ndbc.ErrUnknownDataset):
		return fmt.Errorf("unknown dataset %q", dataset)
	}
	return fmt.Errorf("fetching %s data for %s: %w", dataset, id, err)
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateProvisioning:
		return m.viewProvisioning()
	case StateSearch:
		return m.viewSearch()
	case StateStationList:
		return m.viewStationList()
	case StateDatasetList:
		return m.viewDatasetList()
	case StateLoading:
		return m.viewLoading()
	case StateDisplay:
		return m.viewDisplay()
	case StateSaved:
		return m.viewSaved()
	case StateError:
		return m.viewError()
	}

	return ""
}

// viewProvisioning renders the initial setup screen
func (m Model) viewProvisioning() string {
	title := titleStyle.Render("⚓ Buoy Terminal Setup")
	status := mutedStyle.Render(m.provisionStatus)
	info := helpStyle.Render("One-time setup: downloading stations, cities and zipcodes...")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), status),
		"",
		info,
	)
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}

	help := helpStyle.Render("Press any key to return to search • Q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, "", errorMsg, "", help)
}

// viewSearch renders the search view
func (m Model) viewSearch() string {
	sections := []string{
		titleStyle.Render("⚓ Buoy Terminal"),
		mutedStyle.Render("NDBC buoy observations"),
		"",
		searchBoxStyle.Render(m.searchInput.View()),
	}

	if m.err != nil {
		sections = append(sections, "", errorStyle.Padding(0, 2).Render("✗ "+m.err.Error()))
	}
	if m.status != "" {
		sections = append(sections, "", m.status)
	}

	sections = append(sections,
		"",
		mutedStyle.Render("Examples: 02633 | Chatham, MA | Wilmington, NC | 33.44,-77.76"),
		"",
		helpStyle.Render("Enter: Search • Tab: Saved stations • Ctrl+C: Quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewStationList() string {
	subtitle := fmt.Sprintf("Found %d stations within %.0f miles of %s", len(m.stations), searchRadiusMiles, m.searchQuery)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("⚓ Buoy Stations"),
		mutedStyle.Render(subtitle),
		"",
		m.stationList.View(),
		"",
		helpStyle.Render("↑/↓: Navigate • Enter: Select • S/Esc: Back to search • Q: Quit"),
	)
}

func (m Model) viewDatasetList() string {
	name := ""
	if m.selected != nil {
		name = stationItem{station: *m.selected}.Title()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("⚓ "+name),
		"",
		m.datasetList.View(),
		"",
		helpStyle.Render("↑/↓: Navigate • Enter: Load • /: Filter • Esc: Back • Q: Quit"),
	)
}

// viewLoading renders the loading view
func (m Model) viewLoading() string {
	if m.selected == nil {
		return fmt.Sprintf("%s Searching for %s...", m.spinner.View(), m.searchQuery)
	}

	s := fmt.Sprintf("%s Loading %s data for %s...\n\n", m.spinner.View(), m.dataset, m.selected.ID)
	if m.loadingData {
		s += "⏳ Fetching and merging files\n"
	} else {
		s += "✓ Data loaded\n"
	}
	if m.loadingLatest {
		s += "⏳ Fetching latest observation\n"
	} else {
		s += "✓ Latest observation loaded\n"
	}
	return s
}

// viewDisplay renders the data view
func (m Model) viewDisplay() string {
	if m.selected == nil || m.table == nil {
		return "No station selected"
	}

	header := sectionHeaderStyle.Render(fmt.Sprintf("⚓ %s • %s", stationItem{station: *m.selected}.Title(), m.dataset))
	sections := []string{header, mutedStyle.Render(summary(m.table, m.clock.Now()))}

	active := m.activeColumn()
	if active != "" {
		width := m.width - 8
		if width > 120 {
			width = 120
		}
		chart := renderSparkline(m.table.Numbers(active), width, sparklineHeight)
		sections = append(sections,
			sectionHeaderStyle.Render("〰 "+active),
			sectionBoxStyle.Render(chart),
		)
	}

	sections = append(sections,
		sectionHeaderStyle.Render("LATEST ROWS"),
		renderTail(m.table, active),
		sectionHeaderStyle.Render("LATEST OBSERVATION"),
		renderLatest(m.latest),
	)

	if m.naming {
		sections = append(sections, "", labelStyle.Render("Save as: ")+m.labelInput.View())
	} else if m.status != "" {
		sections = append(sections, "", m.status)
	}

	help := helpStyle.Render("Tab: Next column • D: Datasets • W: Save • R: Refresh • S: New search • Q: Quit")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewSaved() string {
	sections := []string{titleStyle.Render("⚓ Saved Stations"), ""}
	if len(m.saved) == 0 {
		sections = append(sections, warningStyle.Render("No saved stations yet. Press W on a station to save it."))
	} else {
		sections = append(sections, m.savedList.View())
	}
	if m.status != "" {
		sections = append(sections, "", m.status)
	}
	sections = append(sections, helpStyle.Render("Enter: Open • X: Remove • Esc: Back to search • Q: Quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
