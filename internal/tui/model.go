package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/vitaminmoo/bw16-tool/internal/encoder"
	"github.com/vitaminmoo/bw16-tool/internal/engine"
	"github.com/vitaminmoo/bw16-tool/internal/protocol"
	"github.com/vitaminmoo/bw16-tool/internal/store"
)

// View represents the current screen in the TUI.
type View int

const (
	ViewMain View = iota
	ViewNetworks
	ViewNetworkDetail
	ViewBLE
	ViewCredentials
	ViewConsole
	ViewInfo
	ViewStore
	ViewStoreDetail
)

// MenuItem represents an item in a menu.
type MenuItem struct {
	Title       string
	Description string
	View        View
}

// refreshInterval is how often the view re-reads engine state.
const refreshInterval = 500 * time.Millisecond

// Model is the main TUI model.
type Model struct {
	// Navigation
	view          View
	cursor        int
	cursorHistory map[View]int
	menuItems     []MenuItem

	width  int
	height int

	eng    *engine.Engine
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	snap     engine.Snapshot
	selected int // network shown in the detail view

	scans     []store.IndexEntry
	savedScan *store.Scan

	errorMsg  string
	statusMsg string
	showHelp  bool

	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	progress ProgressState
	console  viewport.Model
	styles   Styles
}

// Messages

type tickMsg time.Time

type opDoneMsg struct {
	op     string
	status string
	err    error
}

type scansLoadedMsg struct {
	entries []store.IndexEntry
	err     error
}

type scanLoadedMsg struct {
	scan *store.Scan
	err  error
}

// NewModel creates a model driving e. Detection starts as soon as the
// program does.
func NewModel(e *engine.Engine, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		view:          ViewMain,
		cursorHistory: make(map[View]int),
		menuItems: []MenuItem{
			{Title: "Networks", Description: "Scan results and WiFi attacks", View: ViewNetworks},
			{Title: "BLE Devices", Description: "Bluetooth LE scan results", View: ViewBLE},
			{Title: "Credentials", Description: "Captured portal submissions", View: ViewCredentials},
			{Title: "Console", Description: "Unrecognised device output", View: ViewConsole},
			{Title: "Device", Description: "Firmware, status and link", View: ViewInfo},
			{Title: "Saved Scans", Description: "Browse the local scan store", View: ViewStore},
		},
		eng:      e,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		snap:     e.Snapshot(),
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		progress: NewProgressState(),
		console:  viewport.New(80, 12),
		styles:   DefaultStyles(),
	}
	m.progress.Start("Detecting firmware", opts.DetectEstimate)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		m.opCmd("Detecting firmware", detectOp(m.eng)),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// operation is a long-running engine call. It returns a status line.
type operation func(ctx context.Context) (string, error)

func (m Model) opCmd(desc string, fn operation) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		status, err := fn(ctx)
		return opDoneMsg{op: desc, status: status, err: err}
	}
}

// start launches fn unless another operation is still running.
func (m Model) start(desc string, expected time.Duration, fn operation) (Model, tea.Cmd) {
	if m.progress.IsActive() {
		m.statusMsg = "Busy: " + m.progress.Description()
		return m, nil
	}
	m.errorMsg = ""
	m.statusMsg = ""
	m.progress.Start(desc, expected)
	return m, m.opCmd(desc, fn)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.console.Width = max(20, msg.Width-8)
		m.console.Height = max(5, msg.Height-12)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		m.refresh()
		m.progress.Advance(time.Time(msg))
		return m, tickCmd()

	case opDoneMsg:
		m.progress.Complete()
		m.refresh()
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("%s: %v", msg.op, msg.err)
		} else {
			m.statusMsg = msg.status
		}
		return m, nil

	case scansLoadedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Store: %v", msg.err)
		}
		m.scans = msg.entries
		m.clampCursor()
		return m, nil

	case scanLoadedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Store: %v", msg.err)
			return m, nil
		}
		m.savedScan = msg.scan
		m.navigateTo(ViewStoreDetail)
		return m, nil
	}

	if m.view == ViewConsole {
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(msg)
		return m, cmd
	}
	return m, nil
}

// refresh re-reads engine state and keeps the cursor in range.
func (m *Model) refresh() {
	m.snap = m.eng.Snapshot()
	follow := m.console.AtBottom()
	m.console.SetContent(m.snap.Console)
	if follow {
		m.console.GotoBottom()
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if n := m.maxCursor(); m.cursor > n {
		m.cursor = n
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.view == ViewMain || msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		return m.goBack()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Back):
		return m.goBack()

	case key.Matches(msg, m.keys.Up):
		if m.view == ViewConsole {
			var cmd tea.Cmd
			m.console, cmd = m.console.Update(msg)
			return m, cmd
		}
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.view == ViewConsole {
			var cmd tea.Cmd
			m.console, cmd = m.console.Update(msg)
			return m, cmd
		}
		if m.cursor < m.maxCursor() {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.handleSelect()

	case key.Matches(msg, m.keys.Scan):
		m.navigateTo(ViewNetworks)
		return m.start("Scanning WiFi", m.opts.ScanEstimate, scanOp(m.eng))

	case key.Matches(msg, m.keys.Deauth):
		i, ok := m.targetNetwork()
		if !ok {
			m.statusMsg = "Select a network first"
			return m, nil
		}
		return m.start("Toggling deauth", 0, deauthOp(m.eng, i))

	case key.Matches(msg, m.keys.Evil):
		i, ok := m.targetNetwork()
		if !ok {
			m.statusMsg = "Select a network first"
			return m, nil
		}
		return m.start("Starting evil twin", 0, evilTwinOp(m.eng, i))

	case key.Matches(msg, m.keys.Beacon):
		return m.start("Beacon spam", 0, beaconOp(m.eng, m.snap.Status.BeaconActive))

	case key.Matches(msg, m.keys.StopAll):
		return m.start("Stopping all", 0, stopAllOp(m.eng))

	case key.Matches(msg, m.keys.BLEScan):
		m.navigateTo(ViewBLE)
		return m.start("Scanning BLE", m.opts.BLEEstimate, bleScanOp(m.eng))

	case key.Matches(msg, m.keys.Monitor):
		return m.start("Toggling monitor", 0, monitorOp(m.eng))

	case key.Matches(msg, m.keys.Detect):
		return m.start("Detecting firmware", m.opts.DetectEstimate, detectOp(m.eng))

	case key.Matches(msg, m.keys.Save):
		if m.opts.Store == nil {
			m.errorMsg = "No scan store configured"
			return m, nil
		}
		return m.start("Saving scan", 0, saveOp(m.opts.Store, m.snap, m.opts.Sighting))

	case key.Matches(msg, m.keys.Clear):
		if m.view == ViewConsole {
			m.eng.ClearConsole()
			m.refresh()
		}
		return m, nil
	}

	return m, nil
}

// targetNetwork is the network an attack key applies to.
func (m Model) targetNetwork() (int, bool) {
	switch m.view {
	case ViewNetworks:
		if m.cursor < len(m.snap.Inventory.Networks) {
			return m.cursor, true
		}
	case ViewNetworkDetail:
		if m.selected < len(m.snap.Inventory.Networks) {
			return m.selected, true
		}
	}
	return 0, false
}

func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewMain:
		if m.cursor < len(m.menuItems) {
			item := m.menuItems[m.cursor]
			m.navigateTo(item.View)
			if item.View == ViewStore {
				return m, loadScansCmd(m.opts.Store)
			}
		}

	case ViewNetworks:
		if m.cursor < len(m.snap.Inventory.Networks) {
			m.selected = m.cursor
			m.navigateTo(ViewNetworkDetail)
		}

	case ViewNetworkDetail:
		if m.cursor < len(m.snap.Inventory.ClientsOf(m.selected)) {
			return m.start("Deauthing client", 0, deauthClientOp(m.eng, m.selected, m.cursor))
		}

	case ViewStore:
		if m.cursor < len(m.scans) {
			return m, loadScanCmd(m.opts.Store, m.scans[m.cursor].Hash)
		}
	}
	return m, nil
}

func (m *Model) navigateTo(v View) {
	if v == m.view {
		return
	}
	m.cursorHistory[m.view] = m.cursor
	m.view = v
	m.cursor = m.cursorHistory[v]
	m.clampCursor()
}

func (m Model) goBack() (tea.Model, tea.Cmd) {
	m.errorMsg = ""
	switch m.view {
	case ViewMain:
		m.cancel()
		return m, tea.Quit
	case ViewNetworkDetail:
		m.navigateTo(ViewNetworks)
		m.cursor = m.selected
		m.clampCursor()
	case ViewStoreDetail:
		m.navigateTo(ViewStore)
	default:
		m.navigateTo(ViewMain)
	}
	return m, nil
}

func (m Model) maxCursor() int {
	n := 0
	switch m.view {
	case ViewMain:
		n = len(m.menuItems)
	case ViewNetworks:
		n = len(m.snap.Inventory.Networks)
	case ViewNetworkDetail:
		n = len(m.snap.Inventory.ClientsOf(m.selected))
	case ViewBLE:
		n = len(m.snap.Inventory.BLE)
	case ViewStore:
		n = len(m.scans)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// View renders the current screen.
func (m Model) View() string {
	var content string
	switch m.view {
	case ViewMain:
		content = m.viewMain()
	case ViewNetworks:
		content = m.viewNetworks()
	case ViewNetworkDetail:
		content = m.viewNetworkDetail()
	case ViewBLE:
		content = m.viewBLE()
	case ViewCredentials:
		content = m.viewCredentials()
	case ViewConsole:
		content = m.viewConsole()
	case ViewInfo:
		content = m.viewInfo()
	case ViewStore:
		content = m.viewStore()
	case ViewStoreDetail:
		content = m.viewStoreDetail()
	}

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")

	if m.progress.IsActive() {
		b.WriteString("\n")
		b.WriteString(m.spinner.View() + " " + m.progress.View())
		b.WriteString("\n")
	}
	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render("Error: " + m.errorMsg))
		b.WriteString("\n")
	} else if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Success.Render(m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))

	return m.styles.App.Render(b.String())
}

func (m Model) renderTitleBar(title string) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("BW16 " + title))
	b.WriteString("  ")

	switch {
	case m.snap.Detected:
		d := m.snap.Detection
		label := "● " + d.Profile.String()
		if d.Version != "" {
			label += " " + d.Version
		}
		b.WriteString(m.styles.LinkUp.Render(label))
	default:
		b.WriteString(m.styles.Muted.Render(m.spinner.View() + " detecting"))
	}
	if m.snap.Link != "" && m.snap.Link != "closed" {
		b.WriteString("  ")
		b.WriteString(m.styles.LinkDown.Render("link " + m.snap.Link))
	}

	for _, badge := range activeBadges(m.snap) {
		b.WriteString(" ")
		b.WriteString(m.styles.BadgeActive.Render(badge))
	}
	return b.String()
}

// activeBadges names every operation currently running on the device.
func activeBadges(snap engine.Snapshot) []string {
	st := snap.Status
	var out []string
	if st.Scanning {
		out = append(out, "SCAN")
	}
	deauths := 0
	for _, n := range snap.Inventory.Networks {
		if n.DeauthActive {
			deauths++
		}
	}
	if deauths > 0 {
		out = append(out, fmt.Sprintf("DEAUTH×%d", deauths))
	}
	if st.KickTarget != "" {
		out = append(out, "KICK")
	}
	if st.APActive {
		out = append(out, "AP")
	}
	if st.BeaconActive {
		out = append(out, "BEACON")
	}
	if st.MonitorActive {
		out = append(out, "MONITOR")
	}
	if st.BLEScanning {
		out = append(out, "BLE SCAN")
	}
	if st.BLESpamActive {
		out = append(out, "BLE SPAM")
	}
	for a := protocol.Attack(0); a < protocol.NumAttacks; a++ {
		if st.Advanced[a] {
			out = append(out, strings.ToUpper(a.String()))
		}
	}
	return out
}

func (m Model) viewMain() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Auditor"))
	b.WriteString("\n\n")

	inv := m.snap.Inventory
	counts := map[View]string{
		ViewNetworks:    fmt.Sprintf("%d networks, %d clients", len(inv.Networks), len(inv.Clients)),
		ViewBLE:         fmt.Sprintf("%d devices", len(inv.BLE)),
		ViewCredentials: fmt.Sprintf("%d lines", credentialLines(inv.Credentials)),
	}

	for i, item := range m.menuItems {
		title := item.Title
		if c, ok := counts[item.View]; ok {
			title += m.styles.Muted.Render("  (" + c + ")")
		}
		if i == m.cursor {
			b.WriteString(m.styles.MenuItemSelected.Render("> " + title))
		} else {
			b.WriteString(m.styles.MenuItem.Render("  " + title))
		}
		b.WriteString("\n")
		b.WriteString(m.styles.MenuItemDim.Render(item.Description))
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the slice of n rows to draw so that cursor stays visible.
func window(n, cursor, size int) (int, int) {
	if size <= 0 || n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

func (m Model) visibleRows() int {
	if m.height == 0 {
		return 20
	}
	return max(5, m.height-14)
}

func (m Model) viewNetworks() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Networks"))
	b.WriteString("\n\n")

	nets := m.snap.Inventory.Networks
	if len(nets) == 0 {
		if m.snap.Status.Scanning {
			b.WriteString(m.styles.Muted.Render("Scanning..."))
		} else {
			b.WriteString(m.styles.Muted.Render("No networks. Press 's' to scan."))
		}
		return b.String()
	}

	b.WriteString(m.styles.Header.Render(fmt.Sprintf("    %3s %-24s %-17s %3s %5s %-12s %s",
		"#", "SSID", "BSSID", "CH", "RSSI", "SECURITY", "CLIENTS")))
	b.WriteString("\n")

	start, end := window(len(nets), m.cursor, m.visibleRows())
	for i := start; i < end; i++ {
		n := nets[i]
		marker := " "
		if n.DeauthActive {
			marker = "*"
		}
		line := fmt.Sprintf("%s %3d %-24s %-17s %3d %5d %-12s %d",
			marker, i, truncate(n.DisplaySSID(), 24), n.BSSID, n.Channel, n.RSSI,
			truncate(n.Security, 12), n.ClientCount())
		if i == m.cursor {
			b.WriteString(m.styles.RowSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if end-start < len(nets) {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(nets))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewNetworkDetail() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Network"))
	b.WriteString("\n\n")

	nets := m.snap.Inventory.Networks
	if m.selected >= len(nets) {
		b.WriteString(m.styles.Error.Render("Network no longer listed"))
		return b.String()
	}
	n := nets[m.selected]

	band := "2.4 GHz"
	if n.Is5GHz {
		band = "5 GHz"
	}
	b.WriteString(m.renderField("SSID", n.DisplaySSID()))
	b.WriteString(m.renderField("BSSID", n.BSSID))
	b.WriteString(m.renderField("Channel", fmt.Sprintf("%d (%s)", n.Channel, band)))
	b.WriteString(m.renderField("RSSI", fmt.Sprintf("%d dBm", n.RSSI)))
	b.WriteString(m.renderField("Security", n.Security))
	if n.PMF {
		b.WriteString(m.renderField("PMF", "required"))
	}
	if n.DeauthActive {
		b.WriteString(m.styles.Label.Render("Deauth:") + " " + m.styles.Warning.Render("active") + "\n")
	} else {
		b.WriteString(m.renderField("Deauth", "off"))
	}

	clients := m.snap.Inventory.ClientsOf(m.selected)
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("Clients (%d, reported %d)", len(clients), n.ReportedClients)))
	b.WriteString("\n")
	if len(clients) == 0 {
		b.WriteString(m.styles.Muted.Render("  none detected"))
		b.WriteString("\n")
		return b.String()
	}
	for i, c := range clients {
		line := fmt.Sprintf("%-17s %4d dBm", c.MAC, c.RSSI)
		if i == m.cursor {
			b.WriteString(m.styles.RowSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Muted.Render("  enter: deauth client"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewBLE() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("BLE"))
	b.WriteString("\n\n")

	devs := m.snap.Inventory.BLE
	if len(devs) == 0 {
		if m.snap.Status.BLEScanning {
			b.WriteString(m.styles.Muted.Render("Scanning..."))
		} else {
			b.WriteString(m.styles.Muted.Render("No devices. Press 'l' to scan."))
		}
		return b.String()
	}

	b.WriteString(m.styles.Header.Render(fmt.Sprintf("  %-17s %5s  %s", "ADDRESS", "RSSI", "NAME")))
	b.WriteString("\n")
	start, end := window(len(devs), m.cursor, m.visibleRows())
	for i := start; i < end; i++ {
		d := devs[i]
		line := fmt.Sprintf("%-17s %5d  %s", d.Address, d.RSSI, truncate(d.Name, 32))
		if i == m.cursor {
			b.WriteString(m.styles.RowSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func credentialLines(s string) int {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func (m Model) viewCredentials() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Credentials"))
	b.WriteString("\n\n")

	creds := strings.TrimRight(m.snap.Inventory.Credentials, "\n")
	if creds == "" {
		b.WriteString(m.styles.Muted.Render("Nothing captured. Start an evil twin with 'e' from the network list."))
		return b.String()
	}
	for _, line := range strings.Split(creds, "\n") {
		b.WriteString(m.styles.Highlight.Render(line))
		b.WriteString("\n")
	}
	if m.opts.Store != nil {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Also appended to " + m.opts.Store.Dir() + "/credentials.log"))
	}
	return b.String()
}

func (m Model) viewConsole() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Console"))
	b.WriteString("\n\n")
	if m.snap.Console == "" {
		b.WriteString(m.styles.Muted.Render("No unrecognised output."))
		return b.String()
	}
	b.WriteString(m.styles.Console.Render(m.console.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%3.f%%  c: clear", m.console.ScrollPercent()*100)))
	return b.String()
}

func (m Model) viewInfo() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Device"))
	b.WriteString("\n\n")

	d := m.snap.Detection
	b.WriteString(m.styles.Subtitle.Render("Firmware"))
	b.WriteString("\n")
	if !m.snap.Detected {
		b.WriteString(m.styles.Muted.Render("  not detected yet, press 'i'"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderField("Profile", d.Profile.String()))
		if d.Version != "" {
			b.WriteString(m.renderField("Version", d.Version))
		}
		if d.Banner != "" {
			b.WriteString(m.renderField("Banner", truncate(d.Banner, 48)))
		}
		b.WriteString(m.renderField("Features", d.Capabilities.String()))
	}

	dev := m.snap.Status.Device
	if dev.Version != "" || dev.Networks > 0 || dev.Channel > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Subtitle.Render("Device"))
		b.WriteString("\n")
		if dev.Version != "" {
			b.WriteString(m.renderField("Version", dev.Version))
		}
		b.WriteString(m.renderField("Networks", fmt.Sprintf("%d", dev.Networks)))
		b.WriteString(m.renderField("Clients", fmt.Sprintf("%d", dev.Clients)))
		b.WriteString(m.renderField("Channel", fmt.Sprintf("%d", dev.Channel)))
		b.WriteString(m.renderField("Deauths", fmt.Sprintf("%d", dev.DeauthCount)))
	}

	c := m.snap.Counters
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Link"))
	b.WriteString("\n")
	b.WriteString(m.renderField("Received", humanize.Bytes(c.BytesRX)))
	b.WriteString(m.renderField("Sent", humanize.Bytes(c.BytesTX)))
	if c.Dropped > 0 {
		b.WriteString(m.renderField("Dropped", fmt.Sprintf("%d", c.Dropped)))
	}
	b.WriteString(m.renderField("Breaker", m.snap.Link))
	return b.String()
}

func (m Model) viewStore() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Saved Scans"))
	b.WriteString("\n\n")

	if len(m.scans) == 0 {
		b.WriteString(m.styles.Muted.Render("No saved scans. Press 'w' after a scan to save it."))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%d scan(s)\n\n", len(m.scans)))

	start, end := window(len(m.scans), m.cursor, m.visibleRows())
	for i := start; i < end; i++ {
		e := m.scans[i]
		line := fmt.Sprintf("%-12s  %3d nets  %3d clients  %-20s %s",
			store.ShortHash(e.Hash), e.Networks, e.Clients,
			truncate(e.Strongest, 20), humanize.Time(e.CreatedAt))
		if i == m.cursor {
			b.WriteString(m.styles.MenuItemSelected.Render("> " + line))
		} else {
			b.WriteString(m.styles.MenuItem.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewStoreDetail() string {
	var b strings.Builder
	b.WriteString(m.renderTitleBar("Scan"))
	b.WriteString("\n\n")

	s := m.savedScan
	if s == nil {
		b.WriteString(m.styles.Error.Render("No scan selected"))
		return b.String()
	}

	b.WriteString(m.renderField("Hash", store.ShortHash(s.ContentHash)))
	b.WriteString(m.renderField("Firmware", s.Profile))
	b.WriteString(m.renderField("First seen", humanize.Time(s.CreatedAt)))
	b.WriteString(m.renderField("Last seen", humanize.Time(s.UpdatedAt)))
	b.WriteString(m.renderField("Sightings", fmt.Sprintf("%d", len(s.Sightings))))
	b.WriteString("\n")

	for i, n := range s.Networks {
		if i >= m.visibleRows() {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(s.Networks)-i)))
			b.WriteString("\n")
			break
		}
		b.WriteString(m.styles.Row.Render(fmt.Sprintf("  %-24s %-17s %3d %5d",
			truncate(n.DisplaySSID(), 24), n.BSSID, n.Channel, n.RSSI)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderField(label, value string) string {
	return m.styles.Label.Render(label+":") + " " + m.styles.Value.Render(value) + "\n"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// --- Operations ---

func detectOp(e *engine.Engine) operation {
	return func(ctx context.Context) (string, error) {
		res, err := e.Detect(ctx)
		if err != nil {
			return "", err
		}
		return "Detected " + res.Profile.String(), nil
	}
}

func scanOp(e *engine.Engine) operation {
	return func(ctx context.Context) (string, error) {
		n, err := e.Scan(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Found %d network(s)", n), nil
	}
}

func deauthOp(e *engine.Engine, i int) operation {
	return func(ctx context.Context) (string, error) {
		on, err := e.Deauth(ctx, i)
		if err != nil {
			return "", err
		}
		if on {
			return fmt.Sprintf("Deauth started on network %d", i), nil
		}
		return fmt.Sprintf("Deauth stopped on network %d", i), nil
	}
}

func deauthClientOp(e *engine.Engine, i, c int) operation {
	return func(ctx context.Context) (string, error) {
		if err := e.DeauthClient(ctx, i, c); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deauthing client %d of network %d", c, i), nil
	}
}

func evilTwinOp(e *engine.Engine, i int) operation {
	return func(ctx context.Context) (string, error) {
		if err := e.EvilTwin(ctx, i); err != nil {
			return "", err
		}
		return fmt.Sprintf("Evil twin of network %d started", i), nil
	}
}

func beaconOp(e *engine.Engine, active bool) operation {
	return func(ctx context.Context) (string, error) {
		if active {
			if err := e.StopBeacon(ctx); err != nil {
				return "", err
			}
			return "Beacon spam stopped", nil
		}
		if err := e.Beacon(ctx, encoder.BeaconRandom, ""); err != nil {
			return "", err
		}
		return "Random beacon spam started", nil
	}
}

func stopAllOp(e *engine.Engine) operation {
	return func(ctx context.Context) (string, error) {
		if err := e.StopAll(ctx); err != nil {
			return "", err
		}
		return "All operations stopped", nil
	}
}

func bleScanOp(e *engine.Engine) operation {
	return func(ctx context.Context) (string, error) {
		n, err := e.BLEScan(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Found %d device(s)", n), nil
	}
}

func monitorOp(e *engine.Engine) operation {
	return func(ctx context.Context) (string, error) {
		on, err := e.ToggleMonitor(ctx)
		if err != nil {
			return "", err
		}
		if on {
			return "Monitor mode on", nil
		}
		return "Monitor mode off", nil
	}
}

func saveOp(st *store.Store, snap engine.Snapshot, seen store.Sighting) operation {
	return func(context.Context) (string, error) {
		if len(snap.Inventory.Networks) == 0 && len(snap.Inventory.BLE) == 0 {
			return "", fmt.Errorf("nothing to save, scan first")
		}
		seen.Timestamp = time.Now()
		hash, isNew, err := st.SaveScan(store.NewScan(snap.Inventory, snap.Detection.Profile.String()), seen)
		if err != nil {
			return "", err
		}
		if isNew {
			return "Saved scan " + store.ShortHash(hash), nil
		}
		return "Scan " + store.ShortHash(hash) + " already stored (added sighting)", nil
	}
}

func loadScansCmd(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		if st == nil {
			return scansLoadedMsg{}
		}
		entries, err := st.List()
		return scansLoadedMsg{entries: entries, err: err}
	}
}

func loadScanCmd(st *store.Store, hash string) tea.Cmd {
	return func() tea.Msg {
		s, err := st.GetScan(hash)
		return scanLoadedMsg{scan: s, err: err}
	}
}
