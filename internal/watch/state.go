package watch

import (
	"time"
)

const (
	// MaxBackoff is the maximum interval between checks of a failing source.
	MaxBackoff = 30 * time.Second

	// BrokenThreshold is the number of consecutive failures before the
	// source is reported as broken.
	BrokenThreshold = 3
)

// FileState tracks what the watcher last saw of the source file.
type FileState struct {
	Path          string
	Current       Fingerprint
	Previous      Fingerprint
	LastCheckTime time.Time
	ConsecFails   int
	BackoffUntil  time.Time
	LastErr       error
}

// ShouldCheck returns true if the file is ready to be checked.
func (s *FileState) ShouldCheck(now time.Time) bool {
	return now.After(s.BackoffUntil) || now.Equal(s.BackoffUntil)
}

// RecordSuccess records a successful check.
// Returns true if the fingerprint changed since the last successful check.
func (s *FileState) RecordSuccess(fp Fingerprint, now time.Time) bool {
	s.Previous = s.Current
	s.Current = fp
	s.LastCheckTime = now
	s.ConsecFails = 0
	s.BackoffUntil = time.Time{}
	s.LastErr = nil
	return s.IsChange()
}

// RecordFailure records a failed check or reload and calculates backoff.
func (s *FileState) RecordFailure(err error, baseInterval time.Duration, now time.Time) {
	s.ConsecFails++
	s.LastCheckTime = now
	s.LastErr = err

	// Exponential backoff: base * 2^(fails-1), capped at MaxBackoff
	backoff := baseInterval
	for i := 1; i < s.ConsecFails; i++ {
		backoff *= 2
		if backoff > MaxBackoff {
			backoff = MaxBackoff
			break
		}
	}
	s.BackoffUntil = now.Add(backoff)
}

// Broken reports whether the source has failed BrokenThreshold times in a row.
func (s *FileState) Broken() bool {
	return s.ConsecFails >= BrokenThreshold
}

// IsChange returns true if the current fingerprint differs from the previous.
func (s *FileState) IsChange() bool {
	return !s.Previous.IsZero() && s.Previous != s.Current
}
