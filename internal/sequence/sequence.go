// Package sequence orders sliced frames for playback.
package sequence

import (
	"github.com/JPM1118/spritegif/internal/params"
	"github.com/JPM1118/spritegif/internal/sheet"
)

// Sequence returns the frames in the order they are played for direction.
// The input slice is never modified; the result is always a fresh slice.
//
// Ping-pong appends the reversed list without its two endpoints, so
// [A B C D] plays as [A B C D C B] and the loop point never shows the same
// frame twice in a row.
func Sequence(frames []sheet.Frame, dir params.Direction) []sheet.Frame {
	switch dir {
	case params.Reverse:
		return reversed(frames)
	case params.PingPong:
		out := make([]sheet.Frame, 0, pingPongLen(len(frames)))
		out = append(out, frames...)
		if len(frames) > 2 {
			back := reversed(frames)
			out = append(out, back[1:len(back)-1]...)
		}
		return out
	default:
		return append([]sheet.Frame(nil), frames...)
	}
}

// Len returns how many frames Sequence produces for n input frames.
func Len(n int, dir params.Direction) int {
	if dir == params.PingPong {
		return pingPongLen(n)
	}
	return n
}

func pingPongLen(n int) int {
	if n <= 2 {
		return n
	}
	return 2*n - 2
}

func reversed(frames []sheet.Frame) []sheet.Frame {
	out := make([]sheet.Frame, len(frames))
	for i, f := range frames {
		out[len(frames)-1-i] = f
	}
	return out
}
