// Package disasm defines a common instruction representation used
// across the corrupter's decoding and display paths.
package disasm

// Inst is a simplified decoded instruction.
type Inst struct {
	VA     uint32  // bus address of instruction
	Offset int     // file offset of the aligned word
	Text   string  // formatted disassembly string
	Op     string  // mnemonic in lowercase
	Raw    [4]byte // raw encoding, little-endian
	Fields Fields  // opcode fields used for eligibility
}

// Stream is a linear sequence of instructions.
type Stream []Inst
