package colorize

import (
	"strings"
	"testing"
)

func TestColorizeDisabled(t *testing.T) {
	t.Setenv("CORRUPT_NO_COLOR", "1")

	line := "080000c0 add r0, r1, r2"
	if got := ColorizeInstructionLine(line); got != line {
		t.Errorf("ColorizeInstructionLine() = %q, want unchanged", got)
	}
	if got, err := ColorizeAssembly("b 0x80000c0"); err != nil || got != "b 0x80000c0" {
		t.Errorf("ColorizeAssembly() = %q, %v", got, err)
	}
}

func TestColorizeKeepsText(t *testing.T) {
	t.Setenv("CORRUPT_NO_COLOR", "")

	line := "080000c0 ldr r0, [r1]"
	got := ColorizeInstructionLine(line)
	if !strings.Contains(got, "\033[") {
		t.Errorf("no escape codes in %q", got)
	}
	if plain := StripANSI(got); strings.TrimSpace(plain) != line {
		t.Errorf("StripANSI(colored) = %q, want %q", plain, line)
	}
}

func TestIsHexString(t *testing.T) {
	for s, want := range map[string]bool{"080000c0": true, "DEADbeef": true, "": false, "0x10": false, "ldr": false} {
		if got := isHexString(s); got != want {
			t.Errorf("isHexString(%q) = %v, want %v", s, got, want)
		}
	}
}
