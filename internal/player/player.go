package player

import (
	"time"

	"github.com/JPM1118/spritegif/internal/params"
)

// State is the preview player's playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// Player tracks which sequenced frame is on screen. It owns no timers: the
// caller feeds it the current time on every tick, which keeps it usable from
// a single-threaded event loop and deterministic under test.
type Player struct {
	state      State
	index      int
	frameCount int
	frameDur   time.Duration
	loop       params.LoopMode

	anchor  time.Time     // start of the current Playing run, shifted by time spent paused
	elapsed time.Duration // captured on pause
}

// New creates a stopped player.
func New(frameCount int, p params.Playback) *Player {
	return &Player{
		frameCount: frameCount,
		frameDur:   p.FrameDuration(),
		loop:       p.LoopMode,
	}
}

// State returns the current playback state.
func (p *Player) State() State {
	return p.state
}

// Index returns the sequenced frame currently displayed.
func (p *Player) Index() int {
	return p.index
}

// FrameCount returns the length of the sequence being played.
func (p *Player) FrameCount() int {
	return p.frameCount
}

// Configure applies new parameters or a new sequence length without
// interrupting playback. The displayed index is clamped into range.
func (p *Player) Configure(frameCount int, pb params.Playback) {
	p.frameCount = frameCount
	p.frameDur = pb.FrameDuration()
	p.loop = pb.LoopMode
	if p.index >= frameCount {
		p.index = max(0, frameCount-1)
	}
}

// Play starts or resumes playback. Resuming from Paused continues from the
// elapsed time captured by Pause. It returns false if there is nothing to play.
func (p *Player) Play(now time.Time) bool {
	if p.frameCount == 0 || p.frameDur <= 0 {
		return false
	}
	switch p.state {
	case Playing:
		return true
	case Paused:
		p.anchor = now.Add(-p.elapsed)
	default:
		p.anchor = now
		p.elapsed = 0
	}
	p.state = Playing
	return true
}

// Pause freezes playback at the current elapsed time.
func (p *Player) Pause(now time.Time) {
	if p.state != Playing {
		return
	}
	p.elapsed = now.Sub(p.anchor)
	p.state = Paused
}

// Stop halts playback and rewinds to the first frame.
func (p *Player) Stop() {
	p.state = Stopped
	p.index = 0
	p.anchor = time.Time{}
	p.elapsed = 0
}

// Tick advances the displayed index for the given time. It returns true while
// the player is still playing; once-mode exhaustion returns false and leaves
// the index on the final frame.
func (p *Player) Tick(now time.Time) bool {
	if p.state != Playing {
		return false
	}
	if p.frameCount == 0 || p.frameDur <= 0 {
		p.Stop()
		return false
	}
	elapsed := now.Sub(p.anchor)
	if elapsed < 0 {
		elapsed = 0
	}

	total := p.frameDur * time.Duration(p.frameCount)
	if p.loop == params.LoopOnce && elapsed >= total {
		p.index = p.frameCount - 1
		p.state = Stopped
		p.anchor = time.Time{}
		p.elapsed = 0
		return false
	}

	p.index = FrameIndex(elapsed, p.frameDur, p.frameCount)
	return true
}

// FrameIndex computes floor((elapsed mod total) / frameDur) where
// total = frameDur * frameCount.
func FrameIndex(elapsed, frameDur time.Duration, frameCount int) int {
	if frameCount <= 0 || frameDur <= 0 {
		return 0
	}
	total := frameDur * time.Duration(frameCount)
	return int((elapsed % total) / frameDur)
}
