package watch

import (
	"fmt"
	"os"
	"time"
)

// Fingerprint identifies one version of the watched file.
type Fingerprint struct {
	Size    int64
	ModTime time.Time
}

// IsZero reports whether the fingerprint was never set.
func (f Fingerprint) IsZero() bool {
	return f.Size == 0 && f.ModTime.IsZero()
}

// Probe stats path and returns its fingerprint.
func Probe(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Fingerprint{}, fmt.Errorf("%s is a directory", path)
	}
	return Fingerprint{Size: info.Size(), ModTime: info.ModTime()}, nil
}
