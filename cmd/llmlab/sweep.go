package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/llmlab/internal/app"
	"github.com/spf13/cobra"
)

var (
	sweepMode      string
	sweepValues    []float64
	sweepSamples   int
	sweepMaxTokens int
	sweepModel     string
	sweepOutputs   bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [prompt]",
	Short: "Sample a prompt across temperature or top-p values",
	Long: `Sample the same prompt several times at each value of temperature or top-p
and count the distinct outputs per value. Higher values should not produce
fewer distinct outputs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepMode, "mode", string(app.SweepTemperature), "control to vary: temperature or top_p")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", []float64{0, 0.5, 1}, "values to sample at")
	sweepCmd.Flags().IntVarP(&sweepSamples, "samples", "n", 0, "samples per value (default: sweep.samples)")
	sweepCmd.Flags().IntVar(&sweepMaxTokens, "max-tokens", app.DefaultSweepMaxTokens, "maximum tokens per sample")
	sweepCmd.Flags().StringVarP(&sweepModel, "model", "m", "", "model (default: llm.completion_model)")
	sweepCmd.Flags().BoolVar(&sweepOutputs, "outputs", false, "print every sampled output")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	prompt, err := readText(cmd, args)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.app.Sweep(cmd.Context(), app.SweepRequest{
		Prompt:    prompt,
		Model:     sweepModel,
		Mode:      app.SweepMode(sweepMode),
		Values:    sweepValues,
		Samples:   sweepSamples,
		MaxTokens: sweepMaxTokens,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = colorBold.Fprintf(w, "Sweep %s over %s (run %s)\n", res.Model, res.Mode, res.RunID)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tSAMPLES\tDISTINCT\n", strings.ToUpper(string(res.Mode)))
	for _, p := range res.Points {
		fmt.Fprintf(tw, "%g\t%d\t%d\n", p.Value, len(p.Outputs), p.Distinct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if sweepOutputs {
		for _, p := range res.Points {
			_, _ = colorCyan.Fprintf(w, "\n%s=%g\n", res.Mode, p.Value)
			for i, o := range p.Outputs {
				fmt.Fprintf(w, "  %d. %q\n", i+1, o)
			}
		}
	}

	if !res.Monotonic() {
		_, _ = colorYellow.Fprintln(w, "distinct outputs decrease as the value grows; try more samples")
	}
	return nil
}
