package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"corrupt/internal/analysis"
	"corrupt/internal/corrupt/styles"
	"corrupt/internal/disasm"
	"corrupt/internal/gba"
	"corrupt/internal/rom"
	"corrupt/internal/ui/colorize"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <rom>",
	Short: "Show the header, eligibility survey and a disassembly window",
	Long: `Inspect prints the cartridge header, how many bytes the classifier would
allow to be corrupted, and an ARM disassembly window annotated with the
verdict for each word.`,
	Example: `
# Disassemble from the entry point
corrupt inspect game.gba

# 32 words starting at a file offset
corrupt inspect game.gba --offset 0x1000 --words 32
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := rom.Load(args[0])
		if err != nil {
			return err
		}

		start := -1
		if cmd.Flags().Changed("offset") {
			s, _ := cmd.Flags().GetString("offset")
			if start, err = parseOffset(s); err != nil {
				return err
			}
		}
		words, _ := cmd.Flags().GetInt("words")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		rep := buildInspectReport(img, start, words)
		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		writeInspectReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

func init() {
	inspectCmd.Flags().String("offset", "", "File offset of the disassembly window (default: entry point)")
	inspectCmd.Flags().Int("words", analysis.DefaultWindow, "Number of ARM words to disassemble")
	inspectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

// InspectReport is the inspect command output
type InspectReport struct {
	Path       string           `json:"path"`
	Size       int              `json:"size"`
	Title      string           `json:"title"`
	GameCode   string           `json:"game_code"`
	MakerCode  string           `json:"maker_code"`
	Version    int              `json:"version"`
	Checksum   string           `json:"checksum"`
	ChecksumOK bool             `json:"checksum_ok"`
	Entry      string           `json:"entry"`
	Survey     analysis.Summary `json:"survey"`
	Listing    []ListingLine    `json:"listing"`
}

// ListingLine is one disassembled word with its verdict
type ListingLine struct {
	Address  string `json:"address"`
	Offset   int    `json:"offset"`
	Raw      string `json:"raw"`
	Text     string `json:"text"`
	Eligible bool   `json:"eligible"`
	Class    string `json:"class"`
	Rule     string `json:"rule"`
}

func buildInspectReport(img *rom.Image, start, words int) InspectReport {
	h := img.Header()
	data := img.Bytes()

	entry := "not an ARM branch"
	if off, ok := h.EntryOffset(); ok {
		entry = fmt.Sprintf("0x%08x", gba.ROMBase+off)
		if start < 0 {
			start = off
		}
	}
	if start < 0 {
		start = gba.HeaderSize
	}

	rep := InspectReport{
		Path:       img.Path,
		Size:       img.Len(),
		Title:      analysis.DisplayField(h.Title),
		GameCode:   analysis.DisplayField(h.GameCode),
		MakerCode:  analysis.DisplayField(h.MakerCode),
		Version:    int(h.Version),
		Checksum:   fmt.Sprintf("0x%02x", h.Complement),
		ChecksumOK: h.ChecksumOK(data),
		Entry:      entry,
		Survey:     analysis.Survey(data, gba.HeaderSize, 0),
	}

	for _, in := range disasm.Disassemble(data, gba.ROMBase, start, words) {
		v, _ := analysis.Classify(data, in.Offset)
		rep.Listing = append(rep.Listing, ListingLine{
			Address:  fmt.Sprintf("%08x", in.VA),
			Offset:   in.Offset,
			Raw:      fmt.Sprintf("%08x", in.Fields.Instruction),
			Text:     in.Text,
			Eligible: v.Eligible,
			Class:    v.Class.String(),
			Rule:     v.Rule,
		})
	}
	return rep
}

func inspectMarkdown(rep InspectReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rep.Title)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Game code | `%s` |\n", rep.GameCode)
	fmt.Fprintf(&b, "| Maker code | `%s` |\n", rep.MakerCode)
	fmt.Fprintf(&b, "| Version | %d |\n", rep.Version)
	status := "ok"
	if !rep.ChecksumOK {
		status = "mismatch"
	}
	fmt.Fprintf(&b, "| Complement check | `%s` (%s) |\n", rep.Checksum, status)
	fmt.Fprintf(&b, "| Entry point | `%s` |\n", rep.Entry)
	fmt.Fprintf(&b, "| Size | %d bytes |\n\n", rep.Size)

	s := rep.Survey
	b.WriteString("## Eligibility\n\n")
	fmt.Fprintf(&b, "**%d** of %d body bytes may be corrupted (%.1f%%).\n\n", s.Eligible, s.End-s.Start, 100*s.Ratio())

	classes := make([]analysis.Class, 0, len(s.ByClass))
	for c := range s.ByClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, c := range classes {
		fmt.Fprintf(&b, "- %s: %d\n", c, s.ByClass[c])
	}
	return b.String()
}

func writeInspectReport(w io.Writer, rep InspectReport) {
	md := inspectMarkdown(rep)
	if colorize.Disabled() {
		fmt.Fprintln(w, md)
	} else {
		width := 80
		if tw, _, err := term.GetSize(os.Stdout.Fd()); err == nil && tw > 0 {
			width = tw
		}
		fmt.Fprint(w, styles.RenderMarkdown(md, width))
	}

	color := !colorize.Disabled()
	for _, l := range rep.Listing {
		line := fmt.Sprintf("%s %-32s", l.Address, l.Text)
		if color {
			line = colorize.ColorizeInstructionLine(line)
		}
		rule := l.Rule
		if color {
			rule = styles.Muted.Render(rule)
		}
		writeLine(w, "%s ; %s %s %s", line, l.Raw, styles.VerdictLabel(l.Eligible, color), rule)
	}
}
