package analysis

import (
	"corrupt/internal/disasm"
	"corrupt/internal/gba"
)

// Summary counts byte verdicts over a range of the image.
type Summary struct {
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Eligible int            `json:"eligible"`
	ByClass  map[Class]int  `json:"by_class"`
	ByRule   map[string]int `json:"by_rule"`
}

// Ratio returns the share of eligible bytes in the range.
func (s Summary) Ratio() float64 {
	if s.End <= s.Start {
		return 0
	}
	return float64(s.Eligible) / float64(s.End-s.Start)
}

// Survey classifies every byte in [start, end). end <= 0 means the image
// length. Each word is decoded once since its four bytes share a verdict.
func Survey(rom []byte, start, end int) Summary {
	if end <= 0 || end > len(rom) {
		end = len(rom)
	}
	if start < 0 {
		start = 0
	}
	s := Summary{
		Start:   start,
		End:     end,
		ByClass: make(map[Class]int),
		ByRule:  make(map[string]int),
	}

	for off := start; off < end; {
		n := disasm.WordSize - off%disasm.WordSize
		if off < gba.HeaderSize && off+n > gba.HeaderSize {
			n = gba.HeaderSize - off
		}
		if off+n > end {
			n = end - off
		}

		v, _ := Classify(rom, off)
		s.ByClass[v.Class] += n
		s.ByRule[v.Rule] += n
		if v.Eligible {
			s.Eligible += n
		}
		off += n
	}
	return s
}
