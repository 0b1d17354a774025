package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"corrupt/internal/analysis"
	"corrupt/internal/corrupt/styles"
	"corrupt/internal/disasm"
	"corrupt/internal/rom"
	"corrupt/internal/ui/colorize"
)

var checkCmd = &cobra.Command{
	Use:   "check <rom> <offset>...",
	Short: "Report whether individual offsets may be corrupted",
	Example: `
corrupt check game.gba 0xB2 0x1000 4100
  `,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := rom.Load(args[0])
		if err != nil {
			return err
		}

		offsets := make([]int, 0, len(args)-1)
		for _, a := range args[1:] {
			off, err := parseOffset(a)
			if err != nil {
				return err
			}
			offsets = append(offsets, off)
		}

		results := checkOffsets(img.Bytes(), offsets)
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		writeCheckResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

// CheckResult is the verdict for one offset
type CheckResult struct {
	Offset   int    `json:"offset"`
	Word     string `json:"word,omitempty"`
	Eligible bool   `json:"eligible"`
	Class    string `json:"class"`
	Rule     string `json:"rule"`
}

func checkOffsets(data []byte, offsets []int) []CheckResult {
	results := make([]CheckResult, 0, len(offsets))
	for _, off := range offsets {
		v, _ := analysis.Classify(data, off)
		res := CheckResult{
			Offset:   off,
			Eligible: v.Eligible,
			Class:    v.Class.String(),
			Rule:     v.Rule,
		}
		if w, werr := disasm.Word(data, off); werr == nil {
			res.Word = fmt.Sprintf("%08x", w)
		}
		results = append(results, res)
	}
	return results
}

func writeCheckResults(w io.Writer, results []CheckResult) {
	color := !colorize.Disabled()
	for _, r := range results {
		addr := fmt.Sprintf("0x%06x", r.Offset)
		if color {
			addr = styles.Address.Render(addr)
		}
		word := r.Word
		if word == "" {
			word = "--------"
		}
		writeLine(w, "%s  %s  %s  %-13s %s", addr, word, styles.VerdictLabel(r.Eligible, color), r.Class, r.Rule)
	}
}
