// Package gba describes the Game Boy Advance cartridge header and validates it.
package gba

import (
	"encoding/binary"
	"errors"
	"strings"
)

const (
	// HeaderSize is the length of the fixed-format cartridge header at the start of every ROM.
	HeaderSize = 0xC0

	// FixedValue must appear at FixedValueOffset in every genuine header.
	FixedValue       = 0x96
	FixedValueOffset = 0xB2

	// ROMBase is the bus address the cartridge is mapped at (wait state 0).
	ROMBase = 0x0800_0000
)

// Header field offsets
const (
	offEntryPoint  = 0x00
	offLogo        = 0x04
	offTitle       = 0xA0
	offGameCode    = 0xAC
	offMakerCode   = 0xB0
	offUnitCode    = 0xB3
	offDeviceType  = 0xB4
	offVersion     = 0xBC
	offComplement  = 0xBD
	logoSize       = offTitle - offLogo
	complementBias = 0x19
)

// ErrShortHeader is returned when a buffer cannot hold a full header.
var ErrShortHeader = errors.New("buffer shorter than cartridge header")

// Header is a read-only view over the first HeaderSize bytes of a ROM image.
type Header struct {
	EntryPoint uint32 // ARM branch executed after the BIOS boot sequence
	Logo       [logoSize]byte
	Title      string // 0xA0-0xAB, uppercase ASCII
	GameCode   string // 0xAC-0xAF
	MakerCode  string // 0xB0-0xB1
	Fixed      byte   // 0xB2, must be 0x96
	UnitCode   byte   // 0xB3
	DeviceType byte   // 0xB4
	Version    byte   // 0xBC
	Complement byte   // 0xBD, header checksum
}

// ParseHeader decodes the header fields. It does not validate them; see Valid.
func ParseHeader(rom []byte) (*Header, error) {
	if len(rom) < HeaderSize {
		return nil, ErrShortHeader
	}

	h := &Header{
		EntryPoint: binary.LittleEndian.Uint32(rom[offEntryPoint:]),
		Title:      trimField(rom[offTitle:offGameCode]),
		GameCode:   trimField(rom[offGameCode:offMakerCode]),
		MakerCode:  trimField(rom[offMakerCode:FixedValueOffset]),
		Fixed:      rom[FixedValueOffset],
		UnitCode:   rom[offUnitCode],
		DeviceType: rom[offDeviceType],
		Version:    rom[offVersion],
		Complement: rom[offComplement],
	}
	copy(h.Logo[:], rom[offLogo:offTitle])
	return h, nil
}

// ComplementCheck computes the header checksum expected at 0xBD.
// The buffer must hold at least HeaderSize bytes.
func ComplementCheck(rom []byte) byte {
	var chk byte
	for _, b := range rom[offTitle:offComplement] {
		chk -= b
	}
	return chk - complementBias
}

// Valid reports whether rom starts with a genuine cartridge header. Short
// buffers are reported as invalid rather than causing a failure.
func Valid(rom []byte) bool {
	if len(rom) < HeaderSize {
		return false
	}
	if rom[FixedValueOffset] != FixedValue {
		return false
	}
	return rom[offComplement] == ComplementCheck(rom)
}

// ChecksumOK reports whether the stored complement matches the header contents.
func (h *Header) ChecksumOK(rom []byte) bool {
	return len(rom) >= HeaderSize && h.Complement == ComplementCheck(rom)
}

// trimField strips NUL padding and surrounding spaces from fixed-width ASCII fields.
func trimField(b []byte) string {
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// Fix stamps the fixed value and recomputes the complement check in place,
// the way gbafix-style tools repair a header after editing its fields.
func Fix(rom []byte) error {
	if len(rom) < HeaderSize {
		return ErrShortHeader
	}
	rom[FixedValueOffset] = FixedValue
	rom[offComplement] = ComplementCheck(rom)
	return nil
}

// EntryOffset resolves the entry point branch to a file offset. ok is false
// when the entry word is not an unconditional ARM branch.
func (h *Header) EntryOffset() (off int, ok bool) {
	if h.EntryPoint>>24 != 0xEA {
		return 0, false
	}
	imm := int32(h.EntryPoint<<8) >> 8 // sign-extend the 24-bit offset
	return offEntryPoint + 8 + int(imm)*4, true
}
