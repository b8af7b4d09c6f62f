package optimize

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Binary is the gifsicle executable looked up on PATH.
const Binary = "gifsicle"

// MaxLossy is the strongest --lossy setting gifsicle accepts.
const MaxLossy = 200

// Timeout bounds a single optimization run.
const Timeout = 30 * time.Second

// Gifsicle wraps the gifsicle command-line tool.
type Gifsicle struct {
	// Level is the -O optimization level (1-3). Zero means 3.
	Level int
	// Lossy enables --lossy=N when positive. gifsicle accepts up to MaxLossy.
	Lossy int
}

var _ Optimizer = (*Gifsicle)(nil)

// Args returns the command-line arguments for a stdin-to-stdout run.
func (g *Gifsicle) Args() []string {
	level := g.Level
	if level < 1 || level > 3 {
		level = 3
	}
	args := []string{fmt.Sprintf("-O%d", level)}
	if g.Lossy > 0 {
		args = append(args, fmt.Sprintf("--lossy=%d", g.Lossy))
	}
	return append(args, "-")
}

// Optimize pipes data through gifsicle and returns its output. If the result
// is not smaller the input is returned unchanged.
func (g *Gifsicle) Optimize(ctx context.Context, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, Binary, g.Args()...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return nil, fmt.Errorf("gifsicle: %s", errMsg)
	}

	out := stdout.Bytes()
	if !looksLikeGIF(out) {
		return nil, fmt.Errorf("gifsicle: unexpected output (%d bytes)", len(out))
	}
	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

func looksLikeGIF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a"))
}

// CheckGifsicle verifies that gifsicle is installed and accessible.
func CheckGifsicle() error {
	_, err := exec.LookPath(Binary)
	if err != nil {
		return fmt.Errorf("%s not found in PATH. Install it from https://www.lcdf.org/gifsicle/", Binary)
	}
	return nil
}

// Select returns gifsicle when enabled and installed, otherwise Nop. A
// non-nil error means optimization was requested but is unavailable.
func Select(enabled bool, level, lossy int) (Optimizer, error) {
	if !enabled {
		return Nop{}, nil
	}
	if err := CheckGifsicle(); err != nil {
		return Nop{}, err
	}
	return &Gifsicle{Level: level, Lossy: lossy}, nil
}
