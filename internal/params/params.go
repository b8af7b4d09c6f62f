package params

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Bounds for user-adjustable parameters.
const (
	MinGrid = 1
	MaxGrid = 8

	MinDuration  = 0.1
	MaxDuration  = 5.0
	DurationStep = 0.1

	MinScale  = 0.1
	MaxScale  = 2.0
	ScaleStep = 0.1
)

// ErrOutOfRange is returned when a parameter falls outside its allowed bounds.
var ErrOutOfRange = errors.New("parameter out of range")

// LoopMode controls whether playback halts after one pass.
type LoopMode string

const (
	LoopOnce     LoopMode = "once"
	LoopInfinite LoopMode = "infinite"
)

// Direction controls the order frames are played in.
type Direction string

const (
	Forward  Direction = "forward"
	Reverse  Direction = "reverse"
	PingPong Direction = "pingpong"
)

// Directions lists every direction in the order the TUI cycles through them.
var Directions = []Direction{Forward, Reverse, PingPong}

// ParseLoopMode converts a flag or config value to a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch LoopMode(strings.ToLower(strings.TrimSpace(s))) {
	case LoopOnce:
		return LoopOnce, nil
	case LoopInfinite:
		return LoopInfinite, nil
	}
	return "", fmt.Errorf("unknown loop mode %q (want once or infinite)", s)
}

// ParseDirection converts a flag or config value to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Forward:
		return Forward, nil
	case Reverse:
		return Reverse, nil
	case PingPong, "ping-pong":
		return PingPong, nil
	}
	return "", fmt.Errorf("unknown direction %q (want forward, reverse or pingpong)", s)
}

// Next returns the direction that follows d in Directions.
func (d Direction) Next() Direction {
	for i, candidate := range Directions {
		if candidate == d {
			return Directions[(i+1)%len(Directions)]
		}
	}
	return Forward
}

// Toggle flips between once and infinite.
func (m LoopMode) Toggle() LoopMode {
	if m == LoopOnce {
		return LoopInfinite
	}
	return LoopOnce
}

// GridSpec is the rows x cols layout of a spritesheet.
type GridSpec struct {
	Rows int
	Cols int
}

// Cells returns the number of frames the grid produces.
func (g GridSpec) Cells() int {
	return g.Rows * g.Cols
}

// Validate checks both dimensions against [MinGrid, MaxGrid].
func (g GridSpec) Validate() error {
	if g.Rows < MinGrid || g.Rows > MaxGrid {
		return fmt.Errorf("rows must be between %d and %d, got %d: %w", MinGrid, MaxGrid, g.Rows, ErrOutOfRange)
	}
	if g.Cols < MinGrid || g.Cols > MaxGrid {
		return fmt.Errorf("cols must be between %d and %d, got %d: %w", MinGrid, MaxGrid, g.Cols, ErrOutOfRange)
	}
	return nil
}

// Playback is the full configuration driving both preview and export.
//
// Playback is a value type. The With* methods return a modified copy and
// never touch the receiver, so a snapshot taken for an export cannot observe
// later edits.
type Playback struct {
	Grid      GridSpec
	Duration  float64 // seconds each frame is shown
	LoopMode  LoopMode
	Direction Direction
	Scale     float64
}

// Defaults returns the parameters a fresh session starts with.
func Defaults() Playback {
	return Playback{
		Grid:      GridSpec{Rows: 4, Cols: 4},
		Duration:  0.5,
		LoopMode:  LoopInfinite,
		Direction: Forward,
		Scale:     1.0,
	}
}

// Validate checks every field against its bounds.
func (p Playback) Validate() error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	if err := ValidateDuration(p.Duration); err != nil {
		return err
	}
	if !inRange(p.Scale, MinScale, MaxScale) {
		return fmt.Errorf("scale must be between %.1f and %.1f, got %g: %w", MinScale, MaxScale, p.Scale, ErrOutOfRange)
	}
	if _, err := ParseLoopMode(string(p.LoopMode)); err != nil {
		return err
	}
	if _, err := ParseDirection(string(p.Direction)); err != nil {
		return err
	}
	return nil
}

// ValidateDuration checks a frame duration in seconds against
// [MinDuration, MaxDuration]. NaN and infinities are rejected.
func ValidateDuration(seconds float64) error {
	if !inRange(seconds, MinDuration, MaxDuration) {
		return fmt.Errorf("duration must be between %.1fs and %.1fs, got %g: %w", MinDuration, MaxDuration, seconds, ErrOutOfRange)
	}
	return nil
}

// inRange is written so that NaN fails it.
func inRange(v, lo, hi float64) bool {
	return v >= lo-epsilon && v <= hi+epsilon
}

// FrameDuration is Duration converted to the scheduling clock (milliseconds).
func (p Playback) FrameDuration() time.Duration {
	return time.Duration(p.DelayMillis()) * time.Millisecond
}

// DelayMillis is the per-frame delay handed to the encoder.
func (p Playback) DelayMillis() int {
	return int(math.Round(p.Duration * 1000))
}

// WithGrid returns a copy with the grid replaced.
func (p Playback) WithGrid(rows, cols int) Playback {
	p.Grid = GridSpec{Rows: rows, Cols: cols}
	return p
}

// WithDuration returns a copy with the frame duration replaced.
func (p Playback) WithDuration(seconds float64) Playback {
	p.Duration = seconds
	return p
}

// WithLoopMode returns a copy with the loop mode replaced.
func (p Playback) WithLoopMode(m LoopMode) Playback {
	p.LoopMode = m
	return p
}

// WithDirection returns a copy with the direction replaced.
func (p Playback) WithDirection(d Direction) Playback {
	p.Direction = d
	return p
}

// WithScale returns a copy with the scale replaced.
func (p Playback) WithScale(scale float64) Playback {
	p.Scale = scale
	return p
}

const epsilon = 1e-9

// StepRows moves rows by delta, clamped to the grid bounds.
func (p Playback) StepRows(delta int) Playback {
	return p.WithGrid(clampInt(p.Grid.Rows+delta, MinGrid, MaxGrid), p.Grid.Cols)
}

// StepCols moves cols by delta, clamped to the grid bounds.
func (p Playback) StepCols(delta int) Playback {
	return p.WithGrid(p.Grid.Rows, clampInt(p.Grid.Cols+delta, MinGrid, MaxGrid))
}

// StepDuration moves the duration by steps increments of DurationStep.
func (p Playback) StepDuration(steps int) Playback {
	return p.WithDuration(snap(p.Duration+float64(steps)*DurationStep, MinDuration, MaxDuration))
}

// StepScale moves the scale by steps increments of ScaleStep.
func (p Playback) StepScale(steps int) Playback {
	return p.WithScale(snap(p.Scale+float64(steps)*ScaleStep, MinScale, MaxScale))
}

// snap clamps v into [lo, hi] and rounds it to one decimal place, matching
// the 0.1 step of the slider controls.
func snap(v, lo, hi float64) float64 {
	v = math.Round(v*10) / 10
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
