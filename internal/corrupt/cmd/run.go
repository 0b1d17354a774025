package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"corrupt/internal/analysis"
	"corrupt/internal/corrupt/styles"
	"corrupt/internal/mutate"
	"corrupt/internal/rom"
	"corrupt/internal/ui/colorize"
)

// corruptOptions is everything a corruption run needs, resolved from flags
// and the optional config file.
type corruptOptions struct {
	Input  string
	Output string
	Params mutate.Params
	JSON   bool
	DryRun bool
}

// JSONOutput is the machine-readable corruption report
type JSONOutput struct {
	Input     string            `json:"input"`
	Output    string            `json:"output,omitempty"`
	Title     string            `json:"title"`
	GameCode  string            `json:"game_code"`
	Digest    string            `json:"digest"`
	Seed      uint64            `json:"seed"`
	Mode      mutate.Mode       `json:"mode"`
	Applied   int               `json:"applied"`
	Attempts  int               `json:"attempts"`
	Unchanged int               `json:"unchanged"`
	Skipped   map[string]int    `json:"skipped"`
	Mutations []mutate.Mutation `json:"mutations"`
}

func optionsFromFlags(cmd *cobra.Command, args []string) (corruptOptions, error) {
	opts := corruptOptions{
		Input:  args[0],
		Params: mutate.DefaultParams(),
	}
	if len(args) > 1 {
		opts.Output = args[1]
	}

	flags := cmd.Flags()
	if cfg, _ := flags.GetString("config"); cfg != "" {
		p, err := mutate.LoadParams(cfg)
		if err != nil {
			return opts, err
		}
		opts.Params = p
	}

	// Flags override the config file only when given explicitly
	if flags.Changed("count") {
		opts.Params.Count, _ = flags.GetInt("count")
	}
	if flags.Changed("start") {
		s, _ := flags.GetString("start")
		v, err := parseOffset(s)
		if err != nil {
			return opts, err
		}
		opts.Params.Start = v
	}
	if flags.Changed("end") {
		s, _ := flags.GetString("end")
		v, err := parseOffset(s)
		if err != nil {
			return opts, err
		}
		opts.Params.End = v
	}
	if flags.Changed("mode") {
		m, _ := flags.GetString("mode")
		opts.Params.Mode = mutate.Mode(m)
	}
	if flags.Changed("intensity") {
		opts.Params.Intensity, _ = flags.GetUint8("intensity")
	}
	if flags.Changed("seed") {
		opts.Params.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("workers") {
		opts.Params.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("save-file") {
		opts.Params.SaveFile, _ = flags.GetString("save-file")
	}

	opts.JSON, _ = flags.GetBool("json")
	opts.DryRun, _ = flags.GetBool("dry-run")
	return opts, nil
}

// runCorrupt loads, corrupts and saves one ROM. Errors are returned to the
// command; nothing here exits the process.
func runCorrupt(ctx context.Context, w io.Writer, opts corruptOptions) error {
	img, err := rom.Load(opts.Input)
	if err != nil {
		return err
	}

	c, err := mutate.New(img, opts.Params)
	if err != nil {
		return err
	}
	slog.Debug("Starting corruption", "input", opts.Input, "params", fmt.Sprintf("%+v", c.Params()))

	report, err := c.Run(ctx)
	if err != nil {
		return err
	}

	saved := ""
	if !opts.DryRun {
		output := opts.Output
		if output == "" {
			output = rom.DefaultOutputName(opts.Input)
		}
		saved, err = img.Save(output, opts.Params.SaveFile)
		if err != nil {
			return err
		}
	}

	if opts.JSON {
		return writeJSONReport(w, opts.Input, saved, img, report)
	}
	writeSummary(w, opts.Input, saved, img, report)
	return nil
}

func skippedByName(report *mutate.Report) map[string]int {
	out := make(map[string]int, len(report.Skipped))
	for class, n := range report.Skipped {
		out[class.String()] = n
	}
	return out
}

func writeJSONReport(w io.Writer, input, saved string, img *rom.Image, report *mutate.Report) error {
	out := JSONOutput{
		Input:     input,
		Output:    saved,
		Title:     analysis.DisplayField(img.Header().Title),
		GameCode:  analysis.DisplayField(img.Header().GameCode),
		Digest:    img.Digest(),
		Seed:      report.Seed,
		Mode:      report.Mode,
		Applied:   report.Applied(),
		Attempts:  report.Attempts,
		Unchanged: report.Unchanged,
		Skipped:   skippedByName(report),
		Mutations: report.Mutations,
	}
	if out.Mutations == nil {
		out.Mutations = []mutate.Mutation{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func writeSummary(w io.Writer, input, saved string, img *rom.Image, report *mutate.Report) {
	color := !colorize.Disabled()
	render := func(s string, style interface{ Render(...string) string }) string {
		if !color {
			return s
		}
		return style.Render(s)
	}

	writeLine(w, "%s  %s (%s)", render("ROM", styles.Muted), analysis.DisplayField(img.Header().Title), img.Header().GameCode)
	writeLine(w, "%s  %d of %d candidates applied, seed %d, mode %s",
		render("Corrupted", styles.Eligible), report.Applied(), report.Attempts, report.Seed, report.Mode)

	names := make([]string, 0, len(report.Skipped))
	skipped := skippedByName(report)
	for name := range skipped {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeLine(w, "%s  %-13s %d", render("Skipped", styles.Protected), name, skipped[name])
	}

	if report.Unchanged > 0 {
		writeLine(w, "%s  %-13s %d", render("Skipped", styles.Protected), "unchanged", report.Unchanged)
	}
	if saved != "" {
		writeLine(w, "%s  %s", render("Saved", styles.Eligible), saved)
	} else {
		writeLine(w, "%s  dry run, %s not written", render("Saved", styles.Muted), input)
	}
	writeLine(w, "%s  %s", render("SHA256", styles.Muted), img.Digest())
}
