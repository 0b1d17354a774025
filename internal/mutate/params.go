// Package mutate drives a corruption session: it proposes candidate offsets,
// asks the classifier about each one, and overwrites the approved bytes.
package mutate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Mode selects how a new byte value is derived from the old one.
type Mode string

const (
	ModeRandom Mode = "random" // replace with a random byte
	ModeAdd    Mode = "add"    // add Intensity, wrapping
	ModeXor    Mode = "xor"    // flip the bits set in Intensity
	ModeSet    Mode = "set"    // write Intensity
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeRandom, ModeAdd, ModeXor, ModeSet}

const (
	// DefaultCount is the number of bytes mutated when no count is given.
	DefaultCount = 100

	// AttemptsFactor bounds the candidates drawn per requested mutation.
	AttemptsFactor = 64
)

var (
	// ErrInvalidParams is returned for parameters that cannot describe a session.
	ErrInvalidParams = errors.New("invalid corruption parameters")

	// ErrExhausted is returned when no candidate could be changed.
	ErrExhausted = errors.New("no eligible bytes could be changed")
)

// Params configures a corruption session.
type Params struct {
	Count     int    `json:"count" jsonschema:"title=Count,description=Number of bytes to corrupt,minimum=1,default=100"`
	Start     int    `json:"start,omitempty" jsonschema:"title=Start,description=First file offset that may be corrupted,minimum=0"`
	End       int    `json:"end,omitempty" jsonschema:"title=End,description=Offset one past the last corruptible byte (0 means end of image),minimum=0"`
	Mode      Mode   `json:"mode,omitempty" jsonschema:"title=Mode,description=How new byte values are chosen,enum=random,enum=add,enum=xor,enum=set,default=random"`
	Intensity uint8  `json:"intensity,omitempty" jsonschema:"title=Intensity,description=Operand for the add/xor/set modes (non-zero for add and xor),minimum=0,maximum=255,default=1"`
	Seed      uint64 `json:"seed,omitempty" jsonschema:"title=Seed,description=Random seed (0 picks one from the clock)"`
	Workers   int    `json:"workers,omitempty" jsonschema:"title=Workers,description=Concurrent word groups per round,minimum=1,default=1"`
	SaveFile  string `json:"saveFile,omitempty" jsonschema:"title=Save File,description=Explicit output path; overrides the output file name"`
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Count:     DefaultCount,
		Mode:      ModeRandom,
		Intensity: 1,
		Workers:   1,
	}
}

// LoadParams reads a JSON parameter file on top of DefaultParams.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("%w: %s: %v", ErrInvalidParams, path, err)
	}
	return p, nil
}

// normalize fills defaults and checks the parameters against an image of
// the given size.
func (p Params) normalize(size int) (Params, error) {
	if p.Mode == "" {
		p.Mode = ModeRandom
	}
	if p.Workers <= 0 {
		p.Workers = 1
	}
	if p.End == 0 || p.End > size {
		p.End = size
	}

	switch {
	case p.Count <= 0:
		return p, fmt.Errorf("%w: count must be positive, got %d", ErrInvalidParams, p.Count)
	case p.Start < 0:
		return p, fmt.Errorf("%w: start must not be negative, got %d", ErrInvalidParams, p.Start)
	case p.End < 0:
		return p, fmt.Errorf("%w: end must not be negative, got %d", ErrInvalidParams, p.End)
	case p.Start >= p.End:
		return p, fmt.Errorf("%w: empty range [%#x, %#x)", ErrInvalidParams, p.Start, p.End)
	case p.Count > p.End-p.Start:
		// A session cannot change more distinct bytes than the range holds.
		return p, fmt.Errorf("%w: count %d exceeds range of %d bytes", ErrInvalidParams, p.Count, p.End-p.Start)
	case p.Intensity == 0 && (p.Mode == ModeAdd || p.Mode == ModeXor):
		return p, fmt.Errorf("%w: %s with intensity 0 changes nothing", ErrInvalidParams, p.Mode)
	}

	for _, m := range Modes {
		if p.Mode == m {
			return p, nil
		}
	}
	return p, fmt.Errorf("%w: unknown mode %q", ErrInvalidParams, p.Mode)
}

// Validate checks the parameters against an image of the given size.
func (p Params) Validate(size int) error {
	_, err := p.normalize(size)
	return err
}
