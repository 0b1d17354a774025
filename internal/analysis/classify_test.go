package analysis

import (
	"encoding/binary"
	"errors"
	"testing"

	"corrupt/internal/disasm"
	"corrupt/internal/gba"
)

// romWithWord returns a header-sized zero buffer followed by the given words.
func romWithWord(words ...uint32) []byte {
	rom := make([]byte, gba.HeaderSize+4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(rom[gba.HeaderSize+4*i:], w)
	}
	return rom
}

// word builds an instruction with the given opcode fields and zero elsewhere.
func word(opcode1, opcode2 uint8) uint32 {
	return uint32(opcode1)<<20 | uint32(opcode2&0x0F)<<4
}

func TestHeaderNeverEligible(t *testing.T) {
	// Every word in the buffer would otherwise be eligible.
	rom := make([]byte, 0x200)
	for i := 0; i < len(rom); i += 4 {
		binary.LittleEndian.PutUint32(rom[i:], 0xE3000040)
	}

	for loc := 0; loc < gba.HeaderSize; loc++ {
		if IsCorruptible(rom, loc) {
			t.Fatalf("header location %#x reported eligible", loc)
		}
		v, err := Classify(rom, loc)
		if err != nil {
			t.Fatalf("Classify(%#x) failed: %v", loc, err)
		}
		if v.Class != ClassHeader {
			t.Errorf("Classify(%#x).Class = %v, want header", loc, v.Class)
		}
	}
	if !IsCorruptible(rom, gba.HeaderSize) {
		t.Error("first body byte with eligible word reported ineligible")
	}
}

func TestControlFlowBand(t *testing.T) {
	for op1 := 0x80; op1 < 0xE0; op1++ {
		for op2 := 0; op2 < 16; op2++ {
			rom := romWithWord(word(uint8(op1), uint8(op2)))
			for loc := gba.HeaderSize; loc < gba.HeaderSize+4; loc++ {
				v, err := Classify(rom, loc)
				if err != nil {
					t.Fatalf("Classify failed: %v", err)
				}
				if v.Eligible || v.Class != ClassControlFlow {
					t.Fatalf("opcode1 %#02x opcode2 %#x at +%d = %+v, want control-flow", op1, op2, loc-gba.HeaderSize, v)
				}
			}
		}
	}
}

func TestRegisterOffsetBand(t *testing.T) {
	for op1 := 0x60; op1 < 0x80; op1++ {
		for op2 := 0; op2 < 16; op2++ {
			rom := romWithWord(word(uint8(op1), uint8(op2)))
			got := IsCorruptible(rom, gba.HeaderSize)
			want := op2%2 == 1
			if got != want {
				t.Errorf("opcode1 %#02x opcode2 %#x: eligible = %v, want %v", op1, op2, got, want)
			}
		}
	}
}

func TestImmediateOffsetBand(t *testing.T) {
	for op1 := 0x40; op1 < 0x60; op1++ {
		for op2 := 0; op2 < 16; op2++ {
			if IsCorruptible(romWithWord(word(uint8(op1), uint8(op2))), gba.HeaderSize+1) {
				t.Errorf("opcode1 %#02x opcode2 %#x reported eligible", op1, op2)
			}
		}
	}
}

func TestHalfwordMask(t *testing.T) {
	// The mask is applied to whatever value the field holds, so every value
	// ending in 0xB is rejected.
	for op1 := 0x00; op1 < 0x20; op1++ {
		for op2 := 0x0B; op2 <= 0xFB; op2 += 0x10 {
			v := ClassifyFields(disasm.Fields{Opcode1: uint8(op1), Opcode2: uint8(op2)})
			if v.Eligible {
				t.Errorf("opcode1 %#02x opcode2 %#02x reported eligible", op1, op2)
			}
			if v.Rule != "halfword-transfer" {
				t.Errorf("opcode1 %#02x opcode2 %#02x matched %q", op1, op2, v.Rule)
			}
		}
	}
}

func TestLowBand(t *testing.T) {
	tests := []struct {
		name     string
		opcode1  uint8
		opcode2  uint8
		eligible bool
		rule     string
	}{
		{name: "even opcode1 plain data processing", opcode1: 0x00, opcode2: 0x0, eligible: true, rule: "none"},
		{name: "even opcode1 ldrh pattern", opcode1: 0x1C, opcode2: 0xB, eligible: false, rule: "halfword-transfer"},
		{name: "odd opcode1 ldrsb pattern", opcode1: 0x1D, opcode2: 0xD, eligible: false, rule: "signed-transfer"},
		{name: "odd opcode1 ldrsh pattern", opcode1: 0x11, opcode2: 0xF, eligible: false, rule: "halfword-transfer"},
		{name: "even opcode1 ldrsb pattern allowed", opcode1: 0x1C, opcode2: 0xD, eligible: true, rule: "none"},
		{name: "odd opcode1 multiply pattern", opcode1: 0x01, opcode2: 0x9, eligible: true, rule: "none"},
		{name: "odd opcode1 low nibble", opcode1: 0x13, opcode2: 0x1, eligible: true, rule: "none"},
		{name: "band edge 0x1F signed", opcode1: 0x1F, opcode2: 0xD, eligible: false, rule: "signed-transfer"},
		{name: "just above band", opcode1: 0x21, opcode2: 0xD, eligible: true, rule: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ClassifyFields(disasm.Fields{Opcode1: tt.opcode1, Opcode2: tt.opcode2})
			if v.Eligible != tt.eligible {
				t.Errorf("Eligible = %v, want %v", v.Eligible, tt.eligible)
			}
			if v.Rule != tt.rule {
				t.Errorf("Rule = %q, want %q", v.Rule, tt.rule)
			}
		})
	}
}

func TestBandBoundaries(t *testing.T) {
	tests := []struct {
		opcode1  uint8
		opcode2  uint8
		eligible bool
	}{
		{0x20, 0xB, true},
		{0x3F, 0x0, true},
		{0x40, 0x1, false},
		{0x5F, 0x1, false},
		{0x60, 0x1, true},
		{0x60, 0x0, false},
		{0x7F, 0x2, false},
		{0x80, 0x1, false},
		{0xDF, 0x1, false},
		{0xE0, 0x0, true},
		{0xFF, 0xB, true},
	}

	for _, tt := range tests {
		v := ClassifyFields(disasm.Fields{Opcode1: tt.opcode1, Opcode2: tt.opcode2})
		if v.Eligible != tt.eligible {
			t.Errorf("opcode1 %#02x opcode2 %#x: eligible = %v, want %v", tt.opcode1, tt.opcode2, v.Eligible, tt.eligible)
		}
	}
}

func TestRuleOrder(t *testing.T) {
	want := []string{
		"branch-or-block-transfer",
		"register-offset-transfer",
		"immediate-offset-transfer",
		"halfword-transfer",
		"signed-transfer",
	}
	got := Rules()
	if len(got) != len(want) {
		t.Fatalf("Rules() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rule %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		location int
		eligible bool
		class    Class
	}{
		{
			name:     "0x0B000000 decodes to opcode1 0xB0",
			word:     0x0B000000,
			location: gba.HeaderSize + 2,
			eligible: false,
			class:    ClassControlFlow,
		},
		{
			name:     "odd opcode1 with opcode2 0xD at header boundary",
			word:     word(0x01, 0x0D),
			location: gba.HeaderSize,
			eligible: false,
			class:    ClassLoadStore,
		},
		{
			name:     "opcode1 0x30 opcode2 0x4 matches nothing",
			word:     word(0x30, 0x04),
			location: gba.HeaderSize + 3,
			eligible: true,
			class:    ClassOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rom := romWithWord(tt.word)
			v, err := Classify(rom, tt.location)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if v.Eligible != tt.eligible || v.Class != tt.class {
				t.Errorf("Classify = %+v, want eligible %v class %v", v, tt.eligible, tt.class)
			}
		})
	}
}

func TestIdempotent(t *testing.T) {
	rom := romWithWord(0xE1D100B0, 0xE0810002, 0xEAFFFFFE, 0x03000040)
	for loc := 0; loc < len(rom); loc++ {
		first, err1 := Classify(rom, loc)
		second, err2 := Classify(rom, loc)
		if first != second || !errors.Is(err1, err2) {
			t.Fatalf("Classify(%#x) not idempotent: %+v / %+v", loc, first, second)
		}
	}
}

func TestVerdictFollowsContent(t *testing.T) {
	rom := romWithWord(word(0x30, 0x04))
	loc := gba.HeaderSize + 1
	if !IsCorruptible(rom, loc) {
		t.Fatal("word expected eligible before mutation")
	}
	// Overwrite the top byte so opcode1 lands in the control-flow band.
	rom[gba.HeaderSize+3] = 0x0A
	if IsCorruptible(rom, loc) {
		t.Error("verdict did not change after neighbouring byte changed")
	}
}

func TestOutOfBounds(t *testing.T) {
	rom := romWithWord(word(0x30, 0x04))
	rom = append(rom, 0x00, 0x00)

	for _, loc := range []int{-1, len(rom), len(rom) - 1} {
		if IsCorruptible(rom, loc) {
			t.Errorf("IsCorruptible(%d) = true", loc)
		}
		v, err := Classify(rom, loc)
		if !errors.Is(err, disasm.ErrOutOfBounds) {
			t.Errorf("Classify(%d) error = %v, want ErrOutOfBounds", loc, err)
		}
		if v.Class != ClassOutOfBounds {
			t.Errorf("Classify(%d).Class = %v", loc, v.Class)
		}
	}
}

func TestSurvey(t *testing.T) {
	rom := romWithWord(
		word(0x30, 0x04), // eligible
		0x0B000000,       // control flow
		word(0x50, 0x00), // load/store
		word(0x61, 0x01), // eligible, odd opcode2
	)

	s := Survey(rom, 0, 0)
	if s.End != len(rom) {
		t.Errorf("End = %d, want %d", s.End, len(rom))
	}
	if s.Eligible != 8 {
		t.Errorf("Eligible = %d, want 8", s.Eligible)
	}
	if s.ByClass[ClassHeader] != gba.HeaderSize {
		t.Errorf("header bytes = %d", s.ByClass[ClassHeader])
	}
	if s.ByClass[ClassControlFlow] != 4 || s.ByClass[ClassLoadStore] != 4 {
		t.Errorf("ByClass = %v", s.ByClass)
	}

	partial := Survey(rom, gba.HeaderSize+2, gba.HeaderSize+6)
	if partial.Eligible != 2 || partial.ByClass[ClassControlFlow] != 2 {
		t.Errorf("partial survey = %+v", partial)
	}
	if r := partial.Ratio(); r != 0.5 {
		t.Errorf("Ratio() = %v, want 0.5", r)
	}
}

func TestClassString(t *testing.T) {
	if ClassLoadStore.String() != "load-store" || Class(99).String() != "unknown" {
		t.Error("unexpected class names")
	}
}

func TestDisplayField(t *testing.T) {
	if got := DisplayField("POKEMON\x01"); got != `POKEMON\u0001` {
		t.Errorf("DisplayField = %q", got)
	}
	if got := DisplayField("ABCDEFGHIJKLMNOP"); got != "ABCDEFGHIJKL" {
		t.Errorf("DisplayField did not truncate: %q", got)
	}
}
