package rom

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte("PK\x03\x04")
)

// unpack returns the ROM bytes carried by raw. Dumps are often distributed
// gzipped or zipped; anything without a known magic is treated as a bare image.
func unpack(raw []byte, path string) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, gzipMagic):
		return gunzipROM(raw, path)
	case bytes.HasPrefix(raw, zipMagic):
		return unzipROM(raw, path)
	default:
		return raw, nil
	}
}

func gunzipROM(raw []byte, path string) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate %s: %w", path, err)
	}
	slog.Debug("Unpacked gzip ROM", "path", path, "packed", len(raw), "size", len(data))
	return data, nil
}

func unzipROM(raw []byte, path string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", path, err)
	}

	entry := pickArchiveEntry(zr.File)
	if entry == nil {
		return nil, errors.New("zip archive holds no ROM")
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in %s: %w", entry.Name, path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("extract %s from %s: %w", entry.Name, path, err)
	}
	slog.Debug("Unpacked zipped ROM", "path", path, "entry", entry.Name, "size", len(data))
	return data, nil
}

// pickArchiveEntry prefers the first .gba entry, then the first regular file.
func pickArchiveEntry(files []*zip.File) *zip.File {
	var first *zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(f.Name), Extension) {
			return f
		}
		if first == nil {
			first = f
		}
	}
	return first
}
