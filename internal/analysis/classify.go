package analysis

import (
	"corrupt/internal/disasm"
	"corrupt/internal/gba"
)

var headerVerdict = Verdict{Eligible: false, Class: ClassHeader, Rule: "cartridge-header"}

// Classify decides whether the byte at location may be overwritten. The
// header check runs before any decoding so header bytes are protected
// regardless of content. The only error is a location that does not address
// a complete word.
func Classify(rom []byte, location int) (Verdict, error) {
	if location < gba.HeaderSize {
		if location < 0 || location >= len(rom) {
			return Verdict{Class: ClassOutOfBounds, Rule: "bounds"}, disasm.ErrOutOfBounds
		}
		return headerVerdict, nil
	}

	f, err := disasm.Decode(rom, location)
	if err != nil {
		return Verdict{Class: ClassOutOfBounds, Rule: "bounds"}, err
	}
	return ClassifyFields(f), nil
}

// IsCorruptible reports whether the byte at location is eligible for
// mutation. Locations outside the image are never eligible.
func IsCorruptible(rom []byte, location int) bool {
	v, err := Classify(rom, location)
	return err == nil && v.Eligible
}
