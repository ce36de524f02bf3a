package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "llmlab",
	Short: "llmlab - tokenizer, completion and chat workbench",
	Long: `llmlab wraps an OpenAI-compatible text generation API. It tokenizes text,
samples completions across temperature or top-p values, runs chat
conversations and records the token usage of every call.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
