package disasm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WordSize is the width of an ARM instruction.
const WordSize = 4

// ErrOutOfBounds is returned when a location does not address a complete aligned word.
var ErrOutOfBounds = errors.New("location out of bounds")

/*
Format for ARM7 instructions:

	+-----------------------------------------------------+
	|31  28|27      20|19               8|7        4|3   0|
	|-----------------------------------------------------|
	| COND | OPCODE 1 | PARAMETERS/OTHER | OPCODE 2 | RM  |
	+-----------------------------------------------------+
*/

// Fields holds the parts of an ARM word that the eligibility rules look at.
// Register and operand bits are not decoded.
type Fields struct {
	Instruction uint32

	// Condition keeps bits 31-24 (condition nibble plus the top nibble of
	// Opcode1). Nothing consults it.
	Condition uint8
	Opcode1   uint8 // bits 27-20
	Opcode2   uint8 // bits 7-4
}

// FieldsOf splits an instruction word into its opcode fields.
func FieldsOf(instruction uint32) Fields {
	return Fields{
		Instruction: instruction,
		Condition:   uint8((instruction & 0xF000_0000) >> 24),
		Opcode1:     uint8((instruction & 0x0FF0_0000) >> 20),
		Opcode2:     uint8((instruction & 0x0000_00F0) >> 4),
	}
}

// Align returns the offset of the word containing location.
func Align(location int) int {
	return location - location%WordSize
}

// Word reads the little-endian 32-bit word containing location.
func Word(rom []byte, location int) (uint32, error) {
	if location < 0 || location >= len(rom) {
		return 0, fmt.Errorf("%w: %#x (size %#x)", ErrOutOfBounds, location, len(rom))
	}
	aligned := Align(location)
	if aligned+WordSize > len(rom) {
		return 0, fmt.Errorf("%w: truncated word at %#x", ErrOutOfBounds, aligned)
	}
	return binary.LittleEndian.Uint32(rom[aligned:]), nil
}

// Decode extracts the opcode fields of the aligned word containing location.
func Decode(rom []byte, location int) (Fields, error) {
	instruction, err := Word(rom, location)
	if err != nil {
		return Fields{}, err
	}
	return FieldsOf(instruction), nil
}
