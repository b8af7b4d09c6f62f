package tui

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/JPM1118/spritegif/internal/encode"
	"github.com/JPM1118/spritegif/internal/export"
	"github.com/JPM1118/spritegif/internal/notify"
	"github.com/JPM1118/spritegif/internal/params"
	"github.com/JPM1118/spritegif/internal/player"
	"github.com/JPM1118/spritegif/internal/render"
	"github.com/JPM1118/spritegif/internal/sheet"
	"github.com/JPM1118/spritegif/internal/testutil"
	"github.com/JPM1118/spritegif/internal/watch"
)

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func sheetSource(w, h int) *sheet.Source {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	return &sheet.Source{Path: "/sprites/hero.png", Format: "png", Image: img}
}

func staticLoader(src *sheet.Source, err error) watch.Loader {
	return func(string) (*sheet.Source, error) {
		return src, err
	}
}

// testStudio creates a Studio with the load already applied and a 2x2 grid.
func testStudio(t *testing.T, opts Options) (Studio, *clock) {
	t.Helper()
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	if opts.Params == (params.Playback{}) {
		opts.Params = params.Defaults().WithGrid(2, 2)
	}
	if opts.Loader == nil {
		opts.Loader = staticLoader(sheetSource(16, 16), nil)
	}
	opts.Path = "/sprites/hero.png"
	opts.Surface = render.NewSurfaceWithProfile(termenv.Ascii)
	opts.Now = clk.now

	m, err := NewStudio(opts)
	if err != nil {
		t.Fatalf("NewStudio: %v", err)
	}
	m.width = 100
	m.height = 40

	// Simulate Init() completing
	updated, _ := m.Update(m.load(false)())
	return updated.(Studio), clk
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Studio, keys ...string) (Studio, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tea.Model
		updated, cmd = m.Update(keyMsg(k))
		m = updated.(Studio)
	}
	return m, cmd
}

func send(m Studio, msg tea.Msg) (Studio, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Studio), cmd
}

func TestLoad_SlicesSource(t *testing.T) {
	m, _ := testStudio(t, Options{})

	if m.loading {
		t.Error("loading should be cleared after the source arrives")
	}
	if got := len(m.Session().Frames()); got != 4 {
		t.Errorf("frames = %d, want 4", got)
	}
	if m.player.FrameCount() != 4 {
		t.Errorf("player frame count = %d, want 4", m.player.FrameCount())
	}
	if m.player.State() != player.Stopped {
		t.Errorf("state = %v, want STOPPED without autoplay", m.player.State())
	}
}

func TestLoad_FailureShowsNotification(t *testing.T) {
	m, _ := testStudio(t, Options{Loader: staticLoader(nil, sheet.ErrDecode)})

	if m.Session().HasFrames() {
		t.Error("failed load should leave the session empty")
	}
	n, ok := m.bar.Latest()
	if !ok || n.Kind != notify.KindLoadFailed {
		t.Fatalf("latest notification = %+v, want load failure", n)
	}
	view := m.View()
	if !strings.Contains(view, "Nothing to preview") {
		t.Errorf("View() should explain the empty preview, got:\n%s", view)
	}
	if !strings.Contains(view, "frame -/-") {
		t.Errorf("View() should show an empty counter, got:\n%s", view)
	}
}

func TestAutoplay_StartsTickChain(t *testing.T) {
	clk := &clock{t: time.Unix(100, 0)}
	m, err := NewStudio(Options{
		Path:     "/sprites/hero.png",
		Params:   params.Defaults().WithGrid(2, 2),
		Loader:   staticLoader(sheetSource(16, 16), nil),
		Surface:  render.NewSurfaceWithProfile(termenv.Ascii),
		Autoplay: true,
		Now:      clk.now,
	})
	if err != nil {
		t.Fatal(err)
	}

	m, cmd := send(m, m.load(false)())
	if m.player.State() != player.Playing {
		t.Fatalf("state = %v, want PLAYING", m.player.State())
	}
	if cmd == nil {
		t.Error("autoplay should schedule a tick")
	}
}

func TestPlay_TickAdvancesFrame(t *testing.T) {
	m, clk := testStudio(t, Options{})

	m, cmd := press(t, m, " ")
	if m.player.State() != player.Playing {
		t.Fatalf("state = %v, want PLAYING", m.player.State())
	}
	if cmd == nil {
		t.Fatal("play should schedule a tick")
	}

	// 0.5s per frame; 1.2s in is the third frame.
	m, cmd = send(m, tickMsg{gen: m.gen, t: clk.advance(1200 * time.Millisecond)})
	if m.player.Index() != 2 {
		t.Errorf("index = %d, want 2", m.player.Index())
	}
	if cmd == nil {
		t.Error("playing tick should schedule the next tick")
	}
	if !strings.Contains(m.View(), "3/4") {
		t.Errorf("View() should show frame 3/4, got:\n%s", m.View())
	}
}

func TestPause_CancelsPendingTick(t *testing.T) {
	m, clk := testStudio(t, Options{})

	m, _ = press(t, m, " ")
	staleGen := m.gen
	m, _ = send(m, tickMsg{gen: staleGen, t: clk.advance(600 * time.Millisecond)})

	m, _ = press(t, m, " ")
	if m.player.State() != player.Paused {
		t.Fatalf("state = %v, want PAUSED", m.player.State())
	}

	m, cmd := send(m, tickMsg{gen: staleGen, t: clk.advance(time.Second)})
	if cmd != nil {
		t.Error("stale tick should not schedule another tick")
	}
	if m.player.Index() != 1 {
		t.Errorf("stale tick moved index to %d, want 1", m.player.Index())
	}
}

func TestResume_ContinuesFromPausedFrame(t *testing.T) {
	m, clk := testStudio(t, Options{})

	m, _ = press(t, m, " ")
	m, _ = send(m, tickMsg{gen: m.gen, t: clk.advance(1100 * time.Millisecond)})
	m, _ = press(t, m, " ") // pause at elapsed 1.1s

	clk.advance(10 * time.Second)
	m, cmd := press(t, m, " ") // resume
	if cmd == nil {
		t.Fatal("resume should schedule a tick")
	}

	m, _ = send(m, tickMsg{gen: m.gen, t: clk.advance(100 * time.Millisecond)})
	if m.player.Index() != 2 {
		t.Errorf("index after resume = %d, want 2 (elapsed 1.2s)", m.player.Index())
	}
}

func TestStop_ResetsIndex(t *testing.T) {
	m, clk := testStudio(t, Options{})

	m, _ = press(t, m, " ")
	gen := m.gen
	m, _ = send(m, tickMsg{gen: gen, t: clk.advance(1600 * time.Millisecond)})
	m, _ = press(t, m, "s")

	if m.player.State() != player.Stopped {
		t.Errorf("state = %v, want STOPPED", m.player.State())
	}
	if m.player.Index() != 0 {
		t.Errorf("index = %d, want 0 after stop", m.player.Index())
	}
	if _, cmd := send(m, tickMsg{gen: gen, t: clk.advance(time.Second)}); cmd != nil {
		t.Error("tick after stop should be ignored")
	}
}

func TestLoopOnce_HaltsOnLastFrame(t *testing.T) {
	p := params.Defaults().WithGrid(2, 2).WithLoopMode(params.LoopOnce)
	m, clk := testStudio(t, Options{Params: p})

	m, _ = press(t, m, " ")
	m, cmd := send(m, tickMsg{gen: m.gen, t: clk.advance(2500 * time.Millisecond)})

	if cmd != nil {
		t.Error("exhausted once-mode should not schedule another tick")
	}
	if m.player.State() != player.Stopped {
		t.Errorf("state = %v, want STOPPED", m.player.State())
	}
	if m.player.Index() != 3 {
		t.Errorf("index = %d, want last frame 3", m.player.Index())
	}
}

func TestKeys_EditParameters(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		check func(p params.Playback) bool
	}{
		{"rows up", []string{"r"}, func(p params.Playback) bool { return p.Grid.Rows == 3 }},
		{"rows down", []string{"R"}, func(p params.Playback) bool { return p.Grid.Rows == 1 }},
		{"rows clamp", []string{"R", "R", "R"}, func(p params.Playback) bool { return p.Grid.Rows == 1 }},
		{"cols up", []string{"c"}, func(p params.Playback) bool { return p.Grid.Cols == 3 }},
		{"duration up", []string{"d"}, func(p params.Playback) bool { return p.Duration == 0.6 }},
		{"duration down", []string{"D", "D"}, func(p params.Playback) bool { return p.Duration == 0.3 }},
		{"scale up", []string{"z"}, func(p params.Playback) bool { return p.Scale == 1.1 }},
		{"scale down", []string{"-"}, func(p params.Playback) bool { return p.Scale == 0.9 }},
		{"loop toggle", []string{"l"}, func(p params.Playback) bool { return p.LoopMode == params.LoopOnce }},
		{"direction cycle", []string{"m", "m"}, func(p params.Playback) bool { return p.Direction == params.PingPong }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := testStudio(t, Options{})
			m, _ = press(t, m, tt.keys...)
			if p := m.Session().Params(); !tt.check(p) {
				t.Errorf("params after %v = %+v", tt.keys, p)
			}
		})
	}
}

func TestKeys_DirectionResequences(t *testing.T) {
	m, _ := testStudio(t, Options{})

	m, _ = press(t, m, "m", "m") // forward -> reverse -> pingpong
	if got := len(m.Session().Sequenced()); got != 6 {
		t.Errorf("pingpong sequence length = %d, want 6", got)
	}
	if m.player.FrameCount() != 6 {
		t.Errorf("player frame count = %d, want 6", m.player.FrameCount())
	}
	if !strings.Contains(m.View(), "pingpong") {
		t.Error("View() should show the direction")
	}
}

func TestKeys_GridChangeClampsIndex(t *testing.T) {
	m, clk := testStudio(t, Options{})

	m, _ = press(t, m, " ")
	m, _ = send(m, tickMsg{gen: m.gen, t: clk.advance(1600 * time.Millisecond)})
	m, _ = press(t, m, " ") // pause on the last frame
	m, _ = press(t, m, "R", "C")

	if m.player.FrameCount() != 1 {
		t.Fatalf("frame count = %d, want 1", m.player.FrameCount())
	}
	if m.player.Index() != 0 {
		t.Errorf("index = %d, want clamped to 0", m.player.Index())
	}
}

func newExporter(t *testing.T, codec *testutil.RecordingCodec) (*export.Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	return export.New(encode.NewAdapter(codec.Factory(), encode.DefaultQuality), nil, dir), dir
}

func TestExport_WritesFileAndNotifies(t *testing.T) {
	codec := &testutil.RecordingCodec{Data: []byte("GIF89a-test")}
	exp, dir := newExporter(t, codec)
	var bell bytes.Buffer
	m, _ := testStudio(t, Options{
		Exporter: exp,
		Bell:     notify.NewBell(&bell, time.Second, notify.KindExported, notify.KindExportFailed),
	})

	m, cmd := press(t, m, "e")
	if cmd == nil {
		t.Fatal("export should return a command")
	}
	if !m.exporting {
		t.Error("exporting flag should be set")
	}
	if !strings.Contains(m.View(), "exporting") {
		t.Error("View() should show the exporting badge")
	}

	m, _ = send(m, cmd())
	if m.exporting {
		t.Error("exporting flag should clear when the export finishes")
	}
	n, ok := m.bar.Latest()
	if !ok || n.Kind != notify.KindExported {
		t.Fatalf("latest notification = %+v, want export success", n)
	}
	if !strings.HasPrefix(n.Message, dir) {
		t.Errorf("notification %q should name the written file", n.Message)
	}
	if bell.String() != "\a" {
		t.Errorf("bell output = %q, want one BEL", bell.String())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "animation_") {
		t.Errorf("output dir entries = %v, want one animation_*.gif", entries)
	}
}

func TestExport_IgnoredWhileInFlight(t *testing.T) {
	codec := &testutil.RecordingCodec{Data: []byte("GIF89a")}
	exp, _ := newExporter(t, codec)
	m, _ := testStudio(t, Options{Exporter: exp})

	m, first := press(t, m, "e")
	m, second := press(t, m, "e")
	if first == nil {
		t.Fatal("first export should start")
	}
	if second != nil {
		t.Error("second export while one is in flight should be ignored")
	}
}

func TestExport_UsesSnapshotFromRequest(t *testing.T) {
	codec := &testutil.RecordingCodec{Data: []byte("GIF89a")}
	exp, _ := newExporter(t, codec)
	m, _ := testStudio(t, Options{Exporter: exp})

	m, cmd := press(t, m, "e")
	m, _ = press(t, m, "c", "m") // edit while the export is pending
	m, _ = send(m, cmd())

	if got := codec.FrameCount(); got != 4 {
		t.Errorf("encoded frames = %d, want 4 from the 2x2 forward snapshot", got)
	}
	if m.Session().Params().Grid.Cols != 3 {
		t.Error("edits made during the export should still apply to the session")
	}
}

func TestExport_FailureClearsFlag(t *testing.T) {
	codec := &testutil.RecordingCodec{Err: errors.New("codec crashed")}
	exp, _ := newExporter(t, codec)
	m, _ := testStudio(t, Options{Exporter: exp})

	m, cmd := press(t, m, "e")
	m, _ = send(m, cmd())

	if m.exporting {
		t.Error("failure should clear the exporting flag")
	}
	n, _ := m.bar.Latest()
	if n.Kind != notify.KindExportFailed {
		t.Errorf("latest kind = %v, want export failed", n.Kind)
	}
	if _, again := press(t, m, "e"); again == nil {
		t.Error("export should be available again after a failure")
	}
}

func TestExport_NoSource(t *testing.T) {
	codec := &testutil.RecordingCodec{Data: []byte("GIF89a")}
	exp, _ := newExporter(t, codec)
	m, _ := testStudio(t, Options{Exporter: exp, Loader: staticLoader(nil, errors.New("missing"))})

	m, cmd := press(t, m, "e")
	if cmd != nil {
		t.Error("export without frames should not start")
	}
	n, _ := m.bar.Latest()
	if n.Kind != notify.KindExportFailed {
		t.Errorf("latest kind = %v, want export failed", n.Kind)
	}
	if codec.Renders != 0 {
		t.Error("codec should not be invoked")
	}
}

func TestWatch_ReplacesSource(t *testing.T) {
	updates := make(chan watch.Update, 1)
	m, _ := testStudio(t, Options{Updates: updates})

	updates <- watch.Update{Source: sheetSource(32, 8)}
	cmd := m.waitForUpdate()
	if cmd == nil {
		t.Fatal("waitForUpdate should return a command when watching")
	}
	m, next := send(m, cmd())

	if got := m.Session().Source().Width(); got != 32 {
		t.Errorf("source width = %d, want 32", got)
	}
	if next == nil {
		t.Error("studio should keep listening for updates")
	}
	n, _ := m.bar.Latest()
	if n.Kind != notify.KindReloaded {
		t.Errorf("latest kind = %v, want reloaded", n.Kind)
	}
}

func TestWatch_FailureKeepsPreviousSource(t *testing.T) {
	m, _ := testStudio(t, Options{})
	before := m.Session().Source()

	m, _ = send(m, watchMsg{update: watch.Update{Err: sheet.ErrDecode, Broken: true}})

	if m.Session().Source() != before {
		t.Error("failed reload should keep the previous source")
	}
	n, _ := m.bar.Latest()
	if n.Kind != notify.KindLoadFailed || !strings.Contains(n.Message, "still failing") {
		t.Errorf("latest notification = %+v", n)
	}
}

func TestReloadKey_WithWatcher(t *testing.T) {
	rescans := 0
	updates := make(chan watch.Update, 1)
	m, _ := testStudio(t, Options{Updates: updates, Rescan: func() { rescans++ }})

	m, cmd := press(t, m, "o")
	if rescans != 1 {
		t.Fatalf("rescan called %d times, want 1", rescans)
	}
	if cmd != nil {
		t.Error("reload should be left to the watcher")
	}
	if !m.loading {
		t.Error("studio should show loading until the watcher reports")
	}

	m, _ = send(m, watchMsg{update: watch.Update{Source: sheetSource(24, 24)}})
	if m.loading {
		t.Error("watch update should clear loading")
	}
	if got := m.Session().Source().Width(); got != 24 {
		t.Errorf("source width = %d, want 24", got)
	}
}

func TestReloadKey(t *testing.T) {
	m, _ := testStudio(t, Options{})

	m, cmd := press(t, m, "o")
	if cmd == nil {
		t.Fatal("o should reload the source")
	}
	m, _ = send(m, cmd())
	n, _ := m.bar.Latest()
	if n.Kind != notify.KindReloaded {
		t.Errorf("latest kind = %v, want reloaded", n.Kind)
	}
}

func TestView_ShowsFrameAndParameters(t *testing.T) {
	m, _ := testStudio(t, Options{})
	view := m.View()

	for _, want := range []string{"spritegif", "hero.png", "16x16", "cell 8x8", "1/4", "2x2", "0.5s", "infinite", "forward", "1.0x", "STOPPED", "▀"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestView_TooSmall(t *testing.T) {
	m, _ := testStudio(t, Options{})
	m, _ = send(m, tea.WindowSizeMsg{Width: 20, Height: 5})

	if !strings.Contains(m.View(), "Terminal too small") {
		t.Error("View() should warn about a small terminal")
	}
}

func TestQuit(t *testing.T) {
	m, _ := testStudio(t, Options{})
	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := press(t, m, k)
		if cmd == nil {
			t.Fatalf("%s should quit", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should produce tea.QuitMsg", k)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long text", 8, "too lon…"},
		{"ab", 1, "a"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
