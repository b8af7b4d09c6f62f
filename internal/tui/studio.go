package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JPM1118/spritegif/internal/ctxlog"
	"github.com/JPM1118/spritegif/internal/export"
	"github.com/JPM1118/spritegif/internal/notify"
	"github.com/JPM1118/spritegif/internal/params"
	"github.com/JPM1118/spritegif/internal/player"
	"github.com/JPM1118/spritegif/internal/render"
	"github.com/JPM1118/spritegif/internal/session"
	"github.com/JPM1118/spritegif/internal/sheet"
	"github.com/JPM1118/spritegif/internal/watch"
)

const (
	minWidth    = 40
	minHeight   = 12
	headerLines = 3 // header + subheader + blank
	footerLines = 5 // blank + counter + parameters + notification bar + status bar

	// DefaultTickInterval is roughly one display refresh at 30Hz.
	DefaultTickInterval = 33 * time.Millisecond
)

// Messages

type sourceLoadedMsg struct {
	src    *sheet.Source
	err    error
	reload bool
}

type tickMsg struct {
	gen int
	t   time.Time
}

type exportFinishedMsg struct {
	saved export.Saved
	err   error
}

type watchMsg struct {
	update watch.Update
}

// Options configures a Studio.
type Options struct {
	Path         string
	Params       params.Playback
	Exporter     *export.Exporter
	Surface      *render.Surface
	Bell         *notify.Bell
	Updates      <-chan watch.Update
	Rescan       func()
	TickInterval time.Duration
	Autoplay     bool
	Loader       watch.Loader
	Context      context.Context
	Now          func() time.Time
}

// Studio is the main Bubble Tea model: it owns the session, drives the
// preview player and starts exports.
type Studio struct {
	ctx       context.Context
	path      string
	loader    watch.Loader
	rescan    func()
	sess      session.Session
	player    *player.Player
	exporter  *export.Exporter
	surface   *render.Surface
	bar       *notify.Bar
	bell      *notify.Bell
	updates   <-chan watch.Update
	tick      time.Duration
	autoplay  bool
	now       func() time.Time
	gen       int
	exporting bool
	loading   bool
	width     int
	height    int
}

// NewStudio creates a studio for the spritesheet at opts.Path.
func NewStudio(opts Options) (Studio, error) {
	sess, err := session.New(opts.Params)
	if err != nil {
		return Studio{}, err
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Loader == nil {
		opts.Loader = sheet.Load
	}
	if opts.Surface == nil {
		opts.Surface = render.NewSurface(os.Stdout)
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Studio{
		ctx:      opts.Context,
		path:     opts.Path,
		loader:   opts.Loader,
		rescan:   opts.Rescan,
		sess:     sess,
		player:   player.New(0, opts.Params),
		exporter: opts.Exporter,
		surface:  opts.Surface,
		bar:      notify.NewBar(20),
		bell:     opts.Bell,
		updates:  opts.Updates,
		tick:     opts.TickInterval,
		autoplay: opts.Autoplay,
		now:      opts.Now,
		loading:  true,
	}, nil
}

// Session returns the current session value.
func (m Studio) Session() session.Session {
	return m.sess
}

// Init loads the source image and starts listening for file changes.
func (m Studio) Init() tea.Cmd {
	return tea.Batch(m.load(false), m.waitForUpdate())
}

func (m Studio) load(reload bool) tea.Cmd {
	path, loader := m.path, m.loader
	return func() tea.Msg {
		src, err := loader(path)
		return sourceLoadedMsg{src: src, err: err, reload: reload}
	}
}

func (m Studio) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return watchMsg{update: u}
	}
}

func (m Studio) scheduleTick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, t: t}
	})
}

// Update handles messages.
func (m Studio) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		// A tick from an older run or after leaving Playing renders nothing.
		if msg.gen != m.gen || m.player.State() != player.Playing {
			return m, nil
		}
		if m.player.Tick(msg.t) {
			return m, m.scheduleTick()
		}
		return m, nil

	case sourceLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.post(notify.KindLoadFailed, msg.err.Error())
			return m, nil
		}
		kind := notify.KindInfo
		if msg.reload {
			kind = notify.KindReloaded
		}
		return m.applySource(msg.src, kind)

	case watchMsg:
		m.loading = false
		u := msg.update
		if u.Err != nil {
			text := u.Err.Error()
			if u.Broken {
				text = "still failing: " + text
			}
			m.post(notify.KindLoadFailed, text)
			return m, m.waitForUpdate()
		}
		next, cmd := m.applySource(u.Source, notify.KindReloaded)
		return next, tea.Batch(cmd, m.waitForUpdate())

	case exportFinishedMsg:
		m.exporting = false
		if msg.err != nil {
			m.post(notify.KindExportFailed, msg.err.Error())
			return m, nil
		}
		m.post(notify.KindExported, fmt.Sprintf("%s (%s)", msg.saved.Path, export.FormatSize(msg.saved.Size)))
		return m, nil
	}

	return m, nil
}

// applySource replaces the uploaded image wholesale. On failure the previous
// source and frames stay in place.
func (m Studio) applySource(src *sheet.Source, kind notify.Kind) (tea.Model, tea.Cmd) {
	sess, err := m.sess.WithSource(src)
	if err != nil {
		m.post(notify.KindLoadFailed, err.Error())
		return m, nil
	}
	first := !m.sess.HasFrames()
	m.sess = sess
	m.bar.ClearKind(notify.KindLoadFailed)
	m.post(kind, fmt.Sprintf("%s %dx%d, %d frames", filepath.Base(src.Path), src.Width(), src.Height(), len(sess.Frames())))

	m.reconfigure(true)
	if first && m.autoplay && m.player.Play(m.now()) {
		m.gen++
		return m, m.scheduleTick()
	}
	return m, nil
}

// reconfigure pushes the session's sequence and parameters into the player.
// When timing changed during playback the run restarts from the first frame;
// the pending tick keeps driving it.
func (m Studio) reconfigure(timingChanged bool) {
	m.player.Configure(len(m.sess.Sequenced()), m.sess.Params())
	if timingChanged && m.player.State() == player.Playing {
		m.player.Stop()
		m.player.Play(m.now())
	}
}

func (m Studio) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.sess.Params()

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ", "p":
		if m.player.State() == player.Playing {
			m.player.Pause(m.now())
			m.gen++
			return m, nil
		}
		if m.player.Play(m.now()) {
			m.gen++
			return m, m.scheduleTick()
		}
		return m, nil

	case "s":
		m.player.Stop()
		m.gen++
		return m, nil

	case "r":
		return m.setParams(p.StepRows(1))
	case "R":
		return m.setParams(p.StepRows(-1))
	case "c":
		return m.setParams(p.StepCols(1))
	case "C":
		return m.setParams(p.StepCols(-1))
	case "d":
		return m.setParams(p.StepDuration(1))
	case "D":
		return m.setParams(p.StepDuration(-1))
	case "z", "+":
		return m.setParams(p.StepScale(1))
	case "Z", "-":
		return m.setParams(p.StepScale(-1))
	case "l":
		return m.setParams(p.WithLoopMode(p.LoopMode.Toggle()))
	case "m":
		return m.setParams(p.WithDirection(p.Direction.Next()))

	case "e":
		return m.startExport()

	case "o":
		m.loading = true
		// With a watcher running the reload goes through it so its
		// fingerprint and backoff stay in step; the result arrives as a watchMsg.
		if m.rescan != nil {
			m.rescan()
			return m, nil
		}
		return m, m.load(true)

	case "b":
		if m.bell != nil {
			if m.bell.Toggle() {
				m.post(notify.KindInfo, "bell on")
			} else {
				m.post(notify.KindInfo, "bell off")
			}
		}
		return m, nil
	}

	return m, nil
}

// setParams installs a new parameter value. An in-flight export keeps the
// snapshot it started with.
func (m Studio) setParams(next params.Playback) (tea.Model, tea.Cmd) {
	prev := m.sess.Params()
	if next == prev {
		return m, nil
	}
	sess, err := m.sess.WithParams(next)
	if err != nil {
		m.post(notify.KindInfo, err.Error())
		return m, nil
	}
	prevLen := len(m.sess.Sequenced())
	m.sess = sess

	timing := prev.FrameDuration() != next.FrameDuration() ||
		prev.LoopMode != next.LoopMode ||
		prevLen != len(sess.Sequenced())
	m.reconfigure(timing)
	return m, nil
}

func (m Studio) startExport() (tea.Model, tea.Cmd) {
	if m.exporting || m.exporter == nil {
		return m, nil
	}
	snap, err := m.sess.Snapshot()
	if err != nil {
		m.post(notify.KindExportFailed, err.Error())
		return m, nil
	}
	m.exporting = true
	ctx, exp := m.ctx, m.exporter
	ctxlog.FromContext(ctx).Debug("export requested", "frames", len(snap.Frames), "width", snap.Width, "height", snap.Height)
	return m, func() tea.Msg {
		saved, err := exp.Export(ctx, snap)
		return exportFinishedMsg{saved: saved, err: err}
	}
}

func (m Studio) post(k notify.Kind, text string) {
	now := m.now()
	m.bar.Push(notify.Notification{Kind: k, Message: text, Timestamp: now})
	m.bell.Ring(k, now)
}

// View renders the studio.
func (m Studio) View() string {
	if m.width < minWidth || m.height < minHeight {
		return fmt.Sprintf("\n  Terminal too small (need %dx%d, got %dx%d)\n", minWidth, minHeight, m.width, m.height)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSubheader())
	b.WriteString("\n\n")

	frameHeight := m.height - headerLines - footerLines
	b.WriteString(m.renderFrame(frameHeight))
	b.WriteString("\n")

	b.WriteString(m.renderCounter())
	b.WriteString("\n")
	b.WriteString(m.renderParams())
	b.WriteString("\n")
	b.WriteString(m.renderNotificationBar())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m Studio) renderHeader() string {
	title := headerStyle.Render("spritegif")

	right := stateStyle(m.player.State()).Render(stateLabel(m.player.State()))
	if m.exporting {
		right = badgeStyle.Render("[exporting…]") + " " + right
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return title + strings.Repeat(" ", gap) + right
}

func (m Studio) renderSubheader() string {
	src := m.sess.Source()
	switch {
	case m.loading && src == nil:
		return subheaderStyle.Render("Loading " + m.path + "...")
	case src == nil:
		return subheaderStyle.Render("No image loaded")
	}
	cw, ch := sheet.CellSize(src.Width(), src.Height(), m.sess.Params().Grid)
	text := fmt.Sprintf("%s  %dx%d  cell %dx%d", filepath.Base(src.Path), src.Width(), src.Height(), cw, ch)
	return subheaderStyle.Render(truncate(text, m.width))
}

func (m Studio) renderFrame(height int) string {
	seq := m.sess.Sequenced()
	if len(seq) == 0 {
		msg := "  Nothing to preview.\n\n  Check the image path, then press o to reload.\n"
		if m.loading {
			msg = "  Loading image...\n"
		}
		return padLines(msg, height)
	}

	idx := m.player.Index()
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	art := m.surface.Frame(seq[idx].Image, m.sess.Params().Scale, m.width, height)
	return padLines(art+"\n", height)
}

func (m Studio) renderCounter() string {
	n := len(m.sess.Sequenced())
	if n == 0 {
		return labelStyle.Render("frame -/-")
	}
	return labelStyle.Render("frame ") + valueStyle.Render(fmt.Sprintf("%d/%d", m.player.Index()+1, n))
}

func (m Studio) renderParams() string {
	p := m.sess.Params()
	field := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}
	parts := []string{
		field("grid", fmt.Sprintf("%dx%d", p.Grid.Rows, p.Grid.Cols)),
		field("dur", fmt.Sprintf("%.1fs", p.Duration)),
		field("loop", string(p.LoopMode)),
		field("dir", string(p.Direction)),
		field("scale", fmt.Sprintf("%.1fx", p.Scale)),
	}
	if m.bell != nil {
		bell := "on"
		if m.bell.IsSuspended() {
			bell = "off"
		}
		parts = append(parts, field("bell", bell))
	}
	return strings.Join(parts, "  ")
}

func (m Studio) renderNotificationBar() string {
	text := m.bar.Render(m.width-4, m.now())
	return barStyle(m.bar).Render("  " + text)
}

func (m Studio) renderStatusBar() string {
	help := "  space:play/pause  s:stop  r/c:grid  d:dur  z:scale  l:loop  m:dir  e:export  q:quit"
	return statusBarStyle.Render(truncate(help, m.width))
}

// Helpers

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:max(maxLen, 0)])
	}
	return string(runes[:maxLen-1]) + "…"
}

func padLines(content string, height int) string {
	lines := strings.Count(content, "\n")
	padding := height - lines
	if padding > 0 {
		content += strings.Repeat("\n", padding)
	}
	return content
}
