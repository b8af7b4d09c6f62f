package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedFormat marks a file whose declared type is not accepted.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrDecode marks a source image that could not be decoded.
	ErrDecode = errors.New("decode image")

	// ErrNoSourceImage is returned when no accepted image is available.
	ErrNoSourceImage = errors.New("no source image")
)

// AcceptedTypes are the declared MIME types an upload may have.
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// DeclaredType returns the MIME type implied by a file name, or "" if the
// extension is unknown.
func DeclaredType(path string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(path))]
}

// Accept filters paths down to the single upload that will be used.
// Unsupported paths are skipped; the first supported one wins.
func Accept(paths []string) (string, error) {
	for _, p := range paths {
		if isAccepted(DeclaredType(p)) {
			return p, nil
		}
	}
	return "", ErrNoSourceImage
}

func isAccepted(mime string) bool {
	for _, t := range AcceptedTypes {
		if mime == t {
			return true
		}
	}
	return false
}

// Source is the uploaded spritesheet. It is never modified after Load; a new
// upload produces a new Source.
type Source struct {
	Path   string
	Format string
	Image  image.Image
}

// Width returns the pixel width of the source image.
func (s *Source) Width() int {
	return s.Image.Bounds().Dx()
}

// Height returns the pixel height of the source image.
func (s *Source) Height() int {
	return s.Image.Bounds().Dy()
}

// Load reads and decodes the image at path.
func Load(path string) (*Source, error) {
	if !isAccepted(DeclaredType(path)) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	src, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.Path = path
	return src, nil
}

// Decode decodes raw image bytes. For animated GIF input only the first
// frame is used.
func Decode(data []byte) (*Source, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	return &Source{Format: format, Image: img}, nil
}
