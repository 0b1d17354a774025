package analysis

import "corrupt/internal/disasm"

// rule is one entry of the ordered eligibility table. The first rule whose
// match returns true decides the verdict.
type rule struct {
	name  string
	class Class
	match func(f disasm.Fields) bool
}

func inBand(op, lo, hi uint8) bool {
	return op >= lo && op < hi
}

// rules hold the opcode bands that cover jumps and memory access. Band
// boundaries and masks follow the ARM7 encoding table and must not be
// reordered.
var rules = []rule{
	{
		name:  "branch-or-block-transfer",
		class: ClassControlFlow,
		match: func(f disasm.Fields) bool {
			return inBand(f.Opcode1, 0x80, 0xE0)
		},
	},
	{
		name:  "register-offset-transfer",
		class: ClassLoadStore,
		match: func(f disasm.Fields) bool {
			return inBand(f.Opcode1, 0x60, 0x80) && f.Opcode2%2 == 0
		},
	},
	{
		name:  "immediate-offset-transfer",
		class: ClassLoadStore,
		match: func(f disasm.Fields) bool {
			return inBand(f.Opcode1, 0x40, 0x60)
		},
	},
	{
		name:  "halfword-transfer",
		class: ClassLoadStore,
		match: func(f disasm.Fields) bool {
			return inBand(f.Opcode1, 0x00, 0x20) && f.Opcode2&0x0B == 0x0B
		},
	},
	{
		name:  "signed-transfer",
		class: ClassLoadStore,
		match: func(f disasm.Fields) bool {
			return inBand(f.Opcode1, 0x00, 0x20) && f.Opcode1%2 == 1 &&
				(f.Opcode2&0x0D == 0x0D || f.Opcode2&0x0F == 0x0F)
		},
	},
}

// Rules returns the names of the opcode rules in evaluation order.
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// ClassifyFields applies the opcode rules to an already decoded word.
func ClassifyFields(f disasm.Fields) Verdict {
	for _, r := range rules {
		if r.match(f) {
			return Verdict{Eligible: false, Class: r.class, Rule: r.name}
		}
	}
	return Verdict{Eligible: true, Class: ClassOther, Rule: "none"}
}
