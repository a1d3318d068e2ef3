package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pollscript/pkg/script"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Seed         uint64
	Count        int
	BlockRatio   float64
	LimitedRatio float64
	ErrRatio     float64
	MaxLimit     int
}

// GenerateResult is the JSON output of generate.
type GenerateResult struct {
	Seed  uint64   `json:"seed"`
	Steps []string `json:"steps"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random step script",
		Long: `Print a seeded random step script in scenario syntax.

The same seed and ratios always print the same steps, so a generated
script can be pasted into a scenario file and replayed.

Examples:
  pollscript generate --seed 7 --count 12
  pollscript generate --seed 7 --limited-ratio 0.3 --err-ratio 0.1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&opts.Count, "count", 8, "number of steps")
	cmd.Flags().Float64Var(&opts.BlockRatio, "block-ratio", 0.25, "share of would_block steps")
	cmd.Flags().Float64Var(&opts.LimitedRatio, "limited-ratio", 0, "share of limited steps")
	cmd.Flags().Float64Var(&opts.ErrRatio, "err-ratio", 0, "share of err steps")
	cmd.Flags().IntVar(&opts.MaxLimit, "max-limit", 4, "largest limited count")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	if opts.Count < 0 {
		return NewExitError(ExitCommandError, "count must be non-negative")
	}
	total := opts.BlockRatio + opts.LimitedRatio + opts.ErrRatio
	if opts.BlockRatio < 0 || opts.LimitedRatio < 0 || opts.ErrRatio < 0 || total > 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("ratios must be non-negative and sum to at most 1 (got %.2f)", total))
	}

	g := script.NewGenerator(opts.Seed)
	g.BlockRatio = opts.BlockRatio
	g.LimitedRatio = opts.LimitedRatio
	g.ErrRatio = opts.ErrRatio
	g.MaxLimit = opts.MaxLimit

	steps := make([]string, 0, opts.Count)
	for _, step := range g.Steps(opts.Count) {
		steps = append(steps, step.String())
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.JSON() {
		return formatter.Success(GenerateResult{Seed: opts.Seed, Steps: steps})
	}

	fmt.Fprintln(formatter.Writer, "steps:")
	for _, s := range steps {
		fmt.Fprintf(formatter.Writer, "  - %s\n", s)
	}
	return nil
}
