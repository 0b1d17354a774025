package rom

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Extension is appended to output names that lack it.
const Extension = ".gba"

// OutputName appends Extension to filename unless it already ends with it.
func OutputName(filename string) string {
	if filepath.Ext(filename) != Extension {
		filename += Extension
	}
	return filename
}

// DefaultOutputName derives "<dir>/<base>-corrupt.gba" from an input path.
func DefaultOutputName(input string) string {
	base := filepath.Base(input)
	for _, ext := range []string{".gz", ".zip", Extension} {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(filepath.Dir(input), base+"-corrupt"+Extension)
}

// Save writes the image. A non-empty saveFile wins over filename and is used
// as given; filename gets Extension appended when missing. It returns the
// path written.
func (im *Image) Save(filename, saveFile string) (string, error) {
	name := saveFile
	if name == "" {
		if strings.TrimSpace(filename) == "" {
			return "", fmt.Errorf("%w: no output name given", ErrInvalidOutputPath)
		}
		name = OutputName(filename)
	}

	if base := filepath.Base(name); base == "." || base == string(filepath.Separator) || strings.HasSuffix(name, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputPath, name)
	}

	if err := os.WriteFile(name, im.data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOutputPath, err)
	}

	slog.Info("Saved ROM", "path", name, "size", len(im.data))
	return name, nil
}
