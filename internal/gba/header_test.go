package gba

import (
	"encoding/binary"
	"testing"
)

func newHeader(t *testing.T, title, code, maker string) []byte {
	t.Helper()
	rom := make([]byte, 0x200)
	binary.LittleEndian.PutUint32(rom, 0xEA00002E) // b 0x080000C0
	copy(rom[offTitle:], title)
	copy(rom[offGameCode:], code)
	copy(rom[offMakerCode:], maker)
	rom[offVersion] = 1
	if err := Fix(rom); err != nil {
		t.Fatalf("Fix failed: %v", err)
	}
	return rom
}

func TestValid(t *testing.T) {
	good := newHeader(t, "GLITCHTEST", "AGTE", "01")

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   bool
	}{
		{
			name:   "genuine header",
			mutate: func(b []byte) []byte { return b },
			want:   true,
		},
		{
			name:   "empty buffer",
			mutate: func(b []byte) []byte { return nil },
			want:   false,
		},
		{
			name:   "shorter than header",
			mutate: func(b []byte) []byte { return b[:HeaderSize-1] },
			want:   false,
		},
		{
			name:   "exactly header size",
			mutate: func(b []byte) []byte { return b[:HeaderSize] },
			want:   true,
		},
		{
			name: "wrong fixed value",
			mutate: func(b []byte) []byte {
				b[FixedValueOffset] = 0x00
				return b
			},
			want: false,
		},
		{
			name: "bad complement",
			mutate: func(b []byte) []byte {
				b[offComplement]++
				return b
			},
			want: false,
		},
		{
			name: "title edited without fixing checksum",
			mutate: func(b []byte) []byte {
				b[offTitle] = 'X'
				return b
			},
			want: false,
		},
		{
			name: "body bytes do not affect validity",
			mutate: func(b []byte) []byte {
				b[HeaderSize] ^= 0xFF
				b[offLogo] ^= 0xFF
				return b
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte(nil), good...)
			if got := Valid(tt.mutate(buf)); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidArbitraryData(t *testing.T) {
	data := make([]byte, 64)
	for i := range data {
		data[i] = byte(i * 7)
	}
	if Valid(data) {
		t.Error("short arbitrary data reported as valid header")
	}
}

func TestComplementCheck(t *testing.T) {
	rom := make([]byte, HeaderSize)
	// All-zero header fields: chk = -0x19 = 0xE7
	if got := ComplementCheck(rom); got != 0xE7 {
		t.Errorf("ComplementCheck(zero) = %#02x, want 0xe7", got)
	}

	rom[FixedValueOffset] = FixedValue
	if got := ComplementCheck(rom); got != 0xE7-FixedValue {
		t.Errorf("ComplementCheck() = %#02x, want %#02x", got, byte(0xE7-FixedValue))
	}
}

func TestParseHeader(t *testing.T) {
	rom := newHeader(t, "GLITCHTEST", "AGTE", "01")

	h, err := ParseHeader(rom)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if h.Title != "GLITCHTEST" {
		t.Errorf("Title = %q", h.Title)
	}
	if h.GameCode != "AGTE" {
		t.Errorf("GameCode = %q", h.GameCode)
	}
	if h.MakerCode != "01" {
		t.Errorf("MakerCode = %q", h.MakerCode)
	}
	if h.EntryPoint != 0xEA00002E {
		t.Errorf("EntryPoint = %#08x", h.EntryPoint)
	}
	if h.Fixed != FixedValue || h.Version != 1 {
		t.Errorf("Fixed = %#02x, Version = %d", h.Fixed, h.Version)
	}
	if !h.ChecksumOK(rom) {
		t.Error("ChecksumOK() = false for fixed header")
	}

	if _, err := ParseHeader(rom[:HeaderSize-1]); err != ErrShortHeader {
		t.Errorf("ParseHeader(short) error = %v, want ErrShortHeader", err)
	}
}

func TestFixShort(t *testing.T) {
	if err := Fix(make([]byte, 10)); err != ErrShortHeader {
		t.Errorf("Fix(short) error = %v, want ErrShortHeader", err)
	}
}

func TestEntryOffset(t *testing.T) {
	tests := []struct {
		name  string
		entry uint32
		want  int
		ok    bool
	}{
		{name: "standard entry", entry: 0xEA00002E, want: 0xC0, ok: true},
		{name: "branch to self", entry: 0xEAFFFFFE, want: 0, ok: true},
		{name: "conditional branch", entry: 0x0A00002E, ok: false},
		{name: "not a branch", entry: 0xE3A00000, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Header{EntryPoint: tt.entry}
			got, ok := h.EntryOffset()
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("EntryOffset() = %#x, %v, want %#x, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
