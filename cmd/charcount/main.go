// Command charcount is the assignment program: it counts the characters of
// an input file and writes one "Character(code)<TAB>Frequency" line per
// distinct character, ordered by code.
//
//	charcount <inFile> <outFile>
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"charcounter/internal/domain/entity"
	"charcounter/internal/observability/logging"
	"charcounter/internal/usecase/frequency"
	"charcounter/internal/utils/text"
)

type options struct {
	maxInput int
	maxRows  int
	sanitize bool
}

func main() {
	slog.SetDefault(logging.FromEnv(os.Stderr))
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "charcount <inFile> <outFile>",
		Short: "Count character frequencies in a text file",
		Long: `Reads inFile and writes the frequency of every distinct character to outFile,
one line per character in the form Character(code)<TAB>Frequency, ordered by code.`,
		Example:      "  charcount myInput.txt Count.txt",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd, args[0], args[1], opts)
		},
	}
	cmd.Flags().IntVar(&opts.maxInput, "max-input", 0, "count at most this many characters (0 = whole file)")
	cmd.Flags().IntVar(&opts.maxRows, "max-rows", 0, "write at most this many lines (0 = all)")
	cmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, `replace literal \n placeholders with newlines before counting`)
	return cmd
}

func runCount(cmd *cobra.Command, inPath, outPath string, opts options) error {
	limits := entity.Limits{MaxInputChars: opts.maxInput, MaxOutputRows: opts.maxRows}
	if err := limits.Validate(); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidInput, err)
	}

	// #nosec G304 -- the input path is the command's argument
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	content := string(data)
	if opts.sanitize {
		content = text.Sanitize(content)
	}

	maxInput, maxRows := limits.Resolve()
	tally := frequency.NewTally(content, maxInput)
	obs := tally.Observations()
	if len(obs) > maxRows {
		obs = obs[:maxRows]
	}

	if err := writeObservations(outPath, obs); err != nil {
		return err
	}

	slog.Debug("frequencies written",
		slog.String("input", inPath),
		slog.String("output", outPath),
		slog.Int("processed", tally.Processed),
		slog.Int("distinct", len(tally.Counts)),
		slog.Int("rows", len(obs)))
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%d characters, %d distinct, %d lines written to %s\n",
		tally.Processed, len(tally.Counts), len(obs), outPath); err != nil {
		return err
	}
	if len(obs) < len(tally.Counts) {
		_, err = fmt.Fprintf(out, "row limit reached: written lines cover %d of %d characters\n",
			frequency.Total(obs), tally.Processed)
	}
	return err
}

func writeObservations(path string, obs []entity.Observation) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	for _, o := range obs {
		if _, err := fmt.Fprintln(w, o.String()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return w.Flush()
}
