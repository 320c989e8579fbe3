package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"keyscope/debug"
	"keyscope/frame"
	"keyscope/midi"
	"keyscope/spectrogram"
	"keyscope/theme"
	"keyscope/widgets"
)

const (
	keyboardRows = 6
	maxFrameGap  = 250 * time.Millisecond
)

// layoutBounds holds cached layout info
type layoutBounds struct {
	rasterTop    int
	rasterHeight int
}

type Model struct {
	Driver    *frame.Driver
	Exporter  *spectrogram.Exporter
	Theme     *theme.Theme
	Feed      *midi.Feed
	DeviceMgr *midi.DeviceManager

	fps      int
	keys     keyMap
	help     help.Model
	raster   *spectrogram.PixelSurface
	bounds   *layoutBounds
	lastTick time.Time
	paused   bool
	width    int
	height   int
	status   string
	err      error
	quitting bool
}

type tickMsg time.Time

type DeviceEventMsg midi.DeviceEvent

type exportedMsg struct {
	path string
	err  error
}

// NewModel wires the driver into a bubbletea model. raster must be the
// surface the driver's spectrogram presents to.
func NewModel(driver *frame.Driver, raster *spectrogram.PixelSurface, exporter *spectrogram.Exporter, th *theme.Theme, fps int) Model {
	if fps < 1 {
		fps = 30
	}
	return Model{
		Driver:   driver,
		Exporter: exporter,
		Theme:    th,
		fps:      fps,
		keys:     defaultKeys(),
		help:     help.New(),
		raster:   raster,
		bounds:   &layoutBounds{},
		width:    80,
		height:   40,
	}
}

// WithMIDI attaches live keyboards found by deviceMgr to feed.
func (m Model) WithMIDI(deviceMgr *midi.DeviceManager, feed *midi.Feed) Model {
	m.DeviceMgr = deviceMgr
	m.Feed = feed
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.RotateLeft):
			m.Driver.Palette.Rotate(-1)
		case key.Matches(msg, m.keys.RotateRight):
			m.Driver.Palette.Rotate(1)
		case key.Matches(msg, m.keys.Mode):
			m.status = "key colors: " + m.Driver.ToggleMode().String()
		case key.Matches(msg, m.keys.Export):
			return m, m.export()
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.inRaster(msg.Y) {
			return m, m.export()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tickMsg:
		now := time.Time(msg)
		dt := time.Duration(0)
		if !m.lastTick.IsZero() {
			dt = now.Sub(m.lastTick)
		}
		m.lastTick = now
		if dt > maxFrameGap {
			dt = maxFrameGap
		}
		if !m.paused {
			if _, err := m.Driver.Step(dt); err != nil {
				m.err = err
				debug.Log("frame", "step: %v", err)
			} else {
				m.err = nil
			}
		}
		return m, m.tick()

	case exportedMsg:
		if msg.err != nil {
			m.err = msg.err
			debug.Log("export", "%v", msg.err)
		} else {
			m.status = "saved " + msg.path
		}

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		switch event.Type {
		case midi.DeviceConnected:
			m.Feed.Attach(event.Controller)
			m.status = "connected " + event.ID
		case midi.DeviceDisconnected:
			m.Feed.Detach(event.ID)
			m.status = "disconnected " + event.ID
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

// export snapshots the buffer now; only the file write runs off the frame
// loop.
func (m Model) export() tea.Cmd {
	img := m.Driver.Buffer.Image()
	exporter := m.Exporter
	return func() tea.Msg {
		path, err := exporter.Export(img)
		return exportedMsg{path: path, err: err}
	}
}

func (m Model) inRaster(y int) bool {
	return y >= m.bounds.rasterTop && y < m.bounds.rasterTop+m.bounds.rasterHeight
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "PLAY"
	if m.paused {
		playState = "PAUSE"
	}
	if !m.Driver.State.Ready() {
		playState = "WAIT"
	}
	inputs := ""
	if m.Feed != nil {
		inputs = fmt.Sprintf("  midi:%d", m.Feed.Inputs())
	}
	header := headerStyle.Render(fmt.Sprintf("keyscope  %s  frame:%d  %s  rot:%d  notes:%d%s",
		playState, m.Driver.Frames(), m.Driver.Mode, m.Driver.Palette.Rotation(),
		m.Driver.State.Sounding(), inputs))

	cols := m.width
	if cols < 10 {
		cols = 10
	}
	kbView := widgets.RenderKeyboard(m.Driver.Keyboard, cols, keyboardRows)

	helpView := dimStyle.Render(m.help.View(m.keys))
	statusLine := dimStyle.Render(m.status)
	if m.err != nil {
		issue := fmsg.GetIssue(m.err)
		if issue == "" {
			issue = m.err.Error()
		}
		statusLine = warnStyle.Render(issue)
	}

	headerHeight := lipgloss.Height(header)
	used := 1 + headerHeight + 1 + keyboardRows + 1 + 1 + 1
	rows := m.height - used
	if rows < 2 {
		rows = 2
	}
	rasterView := ""
	if m.raster.Pix != nil {
		rasterView = widgets.RenderRaster(m.raster.Pix, m.raster.Width, m.raster.Height, cols, rows)
	}

	m.bounds.rasterTop = 1 + headerHeight + 1 + keyboardRows
	m.bounds.rasterHeight = rows

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(kbView)
	out.WriteString("\n")
	out.WriteString(rasterView)
	out.WriteString("\n")
	out.WriteString(helpView)
	out.WriteString("\n")
	out.WriteString(statusLine)

	return out.String()
}
