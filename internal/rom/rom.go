// Package rom owns a GBA ROM image for the length of a corruption session:
// loading (optionally from gzip or zip), header validation, byte writes, and saving.
package rom

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"corrupt/internal/gba"
)

var (
	// ErrInvalidImage is returned when a buffer does not carry a valid cartridge header.
	ErrInvalidImage = errors.New("invalid ROM image")

	// ErrInvalidOutputPath is returned when the image cannot be written to the requested name.
	ErrInvalidOutputPath = errors.New("invalid output file name")
)

// Image is a mutable ROM buffer. Its length never changes after load.
type Image struct {
	Path   string
	header *gba.Header
	data   []byte
}

// Load reads a ROM from disk and validates its header.
func Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}

	data, err := unpack(raw, path)
	if err != nil {
		return nil, err
	}

	return New(path, data)
}

// New wraps an in-memory buffer. The image takes ownership of data.
func New(path string, data []byte) (*Image, error) {
	if !gba.Valid(data) {
		return nil, fmt.Errorf("%w: %s: header check failed (%d bytes)", ErrInvalidImage, path, len(data))
	}

	h, err := gba.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	slog.Debug("Loaded ROM", "path", path, "size", len(data), "title", h.Title, "code", h.GameCode)
	return &Image{Path: path, header: h, data: data}, nil
}

// Header returns the parsed cartridge header.
func (im *Image) Header() *gba.Header {
	return im.header
}

// Bytes returns the live buffer. Callers may read it concurrently but must
// write through Set.
func (im *Image) Bytes() []byte {
	return im.data
}

// Len returns the image size in bytes.
func (im *Image) Len() int {
	return len(im.data)
}

// At returns the byte at off.
func (im *Image) At(off int) (byte, error) {
	if off < 0 || off >= len(im.data) {
		return 0, fmt.Errorf("offset %#x outside image of %#x bytes", off, len(im.data))
	}
	return im.data[off], nil
}

// Set overwrites the byte at off. Header bytes are refused.
func (im *Image) Set(off int, b byte) error {
	if off < 0 || off >= len(im.data) {
		return fmt.Errorf("offset %#x outside image of %#x bytes", off, len(im.data))
	}
	if off < gba.HeaderSize {
		return fmt.Errorf("offset %#x is inside the cartridge header", off)
	}
	im.data[off] = b
	return nil
}

// Digest returns the sha256 of the current contents.
func (im *Image) Digest() string {
	sum := sha256.Sum256(im.data)
	return hex.EncodeToString(sum[:])
}
