package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"corrupt/internal/corrupt/log"
)

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	addCorruptFlags(rootCmd)

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(checkCmd)
}

// addCorruptFlags registers the corruption parameters on cmd.
func addCorruptFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("count", "n", 100, "Number of bytes to corrupt")
	cmd.Flags().String("start", "0", "First offset that may be corrupted (decimal or 0x hex)")
	cmd.Flags().String("end", "0", "Offset one past the last corruptible byte (0 = end of ROM)")
	cmd.Flags().StringP("mode", "m", "random", "Mutation mode: random, add, xor, set")
	cmd.Flags().Uint8P("intensity", "i", 1, "Operand for the add, xor and set modes")
	cmd.Flags().Uint64P("seed", "s", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().IntP("workers", "w", 1, "Word groups processed concurrently")
	cmd.Flags().StringP("save-file", "o", "", "Explicit output path, overrides [output]")
	cmd.Flags().String("config", "", "JSON file with corruption parameters (flags override it)")
	cmd.Flags().BoolP("json", "j", false, "Print the corruption report as JSON")
	cmd.Flags().Bool("dry-run", false, "Corrupt in memory but do not write the ROM")
	cmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().String("memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "corrupt <rom> [output]",
	Short: "Instruction-aware Game Boy Advance ROM corrupter",
	Long: `Corrupt overwrites random bytes of a GBA ROM to produce glitch-art variants.
The cartridge header is never touched, and bytes of ARM instructions that jump,
load or store are skipped so the image is less likely to crash outright.`,
	Example: `
# Corrupt 200 bytes and write game-corrupt.gba next to the input
corrupt game.gba -n 200

# Reproducible run, xor mode, explicit output
corrupt game.gba glitched.gba --seed 42 --mode xor --intensity 0x10

# Report as JSON without writing anything
corrupt game.gba --dry-run --json
  `,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(debug)

		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor || !term.IsTerminal(os.Stdout.Fd()) {
			os.Setenv("CORRUPT_NO_COLOR", "1")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		opts, err := optionsFromFlags(cmd, args)
		if err != nil {
			return err
		}
		return runCorrupt(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

// parseOffset accepts decimal or 0x-prefixed hex offsets.
func parseOffset(s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid offset %q: negative", s)
	}
	return int(v), nil
}

// Execute runs the CLI and exits non-zero on error. This is the only place
// the process is terminated.
func Execute() {
	// Bypass fang's styled output for machine-readable runs
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "--json" || arg == "-j" {
			plain = true
			break
		}
	}

	if plain {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// writeLine writes to w, ignoring errors like fmt.Println does.
func writeLine(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, format+"\n", a...)
}
