package disasm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
)

// Disassemble renders up to n ARM words starting at the word containing start.
// base is the bus address the image is mapped at. Words that do not decode
// are rendered as data.
func Disassemble(rom []byte, base uint32, start, n int) Stream {
	if start < 0 {
		start = 0
	}
	var out Stream
	for off := Align(start); off+WordSize <= len(rom) && len(out) < n; off += WordSize {
		out = append(out, decodeAt(rom, base, off))
	}
	return out
}

func decodeAt(rom []byte, base uint32, off int) Inst {
	raw := rom[off : off+WordSize]
	in := Inst{
		VA:     base + uint32(off),
		Offset: off,
	}
	copy(in.Raw[:], raw)

	word, _ := Word(rom, off)
	in.Fields = FieldsOf(word)

	inst, err := armasm.Decode(raw, armasm.ModeARM)
	if err != nil {
		in.Text = fmt.Sprintf(".word 0x%08x", word)
		in.Op = ".word"
		return in
	}

	in.Text = armasm.GNUSyntax(inst)
	if f := strings.Fields(in.Text); len(f) > 0 {
		in.Op = strings.ToLower(f[0])
	}
	return in
}
