package main

import (
	"fmt"

	"github.com/newthinker/llmlab/internal/llm"
	"github.com/spf13/cobra"
)

var (
	completeModel     string
	completeMaxTokens int
	completeQuiet     bool
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Generate a completion for a prompt",
	Long: `Send a prompt to the completion endpoint. Set at most one of --temperature
and --top-p; with neither the provider default applies.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().StringVarP(&completeModel, "model", "m", "", "model (default: llm.completion_model)")
	completeCmd.Flags().IntVar(&completeMaxTokens, "max-tokens", 64, "maximum tokens to generate")
	completeCmd.Flags().BoolVarP(&completeQuiet, "quiet", "q", false, "print only the generated text")
	addSamplingFlags(completeCmd)

	rootCmd.AddCommand(completeCmd)
}

// addSamplingFlags registers --temperature and --top-p on cmd.
func addSamplingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("temperature", "t", 0, "sampling temperature in [0, 2]")
	cmd.Flags().Float64("top-p", 0, "nucleus sampling probability in (0, 1]")
	cmd.MarkFlagsMutuallyExclusive("temperature", "top-p")
}

// samplingFromFlags builds the Sampling chosen on the command line. Only
// flags the user set are applied.
func samplingFromFlags(cmd *cobra.Command) (llm.Sampling, error) {
	var s llm.Sampling
	if cmd.Flags().Changed("temperature") {
		t, err := cmd.Flags().GetFloat64("temperature")
		if err != nil {
			return s, err
		}
		s.Temperature = &t
	}
	if cmd.Flags().Changed("top-p") {
		p, err := cmd.Flags().GetFloat64("top-p")
		if err != nil {
			return s, err
		}
		s.TopP = &p
	}
	return s, s.Validate()
}

func runComplete(cmd *cobra.Command, args []string) error {
	prompt, err := readText(cmd, args)
	if err != nil {
		return err
	}
	sampling, err := samplingFromFlags(cmd)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res, rec, err := rt.app.Complete(cmd.Context(), llm.GenerationRequest{
		Prompt:    prompt,
		MaxTokens: completeMaxTokens,
		Sampling:  sampling,
	}, completeModel)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, res.Text)
	if !completeQuiet {
		printUsage(cmd.ErrOrStderr(), rec, res.FinishReason)
	}
	return nil
}
