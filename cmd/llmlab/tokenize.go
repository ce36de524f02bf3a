package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/tokenizer"
	"github.com/spf13/cobra"
)

var (
	tokenizeModel string
	tokenizeCount bool
	tokenizeJSON  bool
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [text]",
	Short: "Encode text into token ids",
	Long:  "Encode text with the tokenizer of a model. Without an argument, or with \"-\", the text is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokenize,
}

var detokenizeCmd = &cobra.Command{
	Use:   "detokenize <id>...",
	Short: "Decode token ids back into text",
	Long:  "Decode token ids given as arguments, separated by spaces or commas.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDetokenize,
}

func init() {
	tokenizeCmd.Flags().StringVarP(&tokenizeModel, "model", "m", "", "model whose tokenizer to use (default: completion model)")
	tokenizeCmd.Flags().BoolVar(&tokenizeCount, "count", false, "print only the number of tokens")
	tokenizeCmd.Flags().BoolVar(&tokenizeJSON, "json", false, "print tokens as a JSON array")
	detokenizeCmd.Flags().StringVarP(&tokenizeModel, "model", "m", "", "model whose tokenizer to use (default: completion model)")

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(detokenizeCmd)
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func runTokenize(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, args)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	tokens, err := rt.app.Tokenize(tokenizeModel, text)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case tokenizeCount:
		fmt.Fprintln(w, len(tokens))
	case tokenizeJSON:
		return json.NewEncoder(w).Encode(tokens)
	default:
		fmt.Fprintln(w, formatTokens(tokens))
	}
	return nil
}

func runDetokenize(cmd *cobra.Command, args []string) error {
	tokens, err := parseTokenIDs(args)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	text, err := rt.app.Detokenize(tokenizeModel, tokens)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func formatTokens(tokens tokenizer.TokenSequence) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, " ")
}

// parseTokenIDs accepts ids as separate arguments or comma separated, with
// optional JSON array brackets.
func parseTokenIDs(args []string) (tokenizer.TokenSequence, error) {
	joined := strings.Trim(strings.Join(args, " "), "[] \n")
	fields := strings.FieldsFunc(joined, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})

	tokens := make(tokenizer.TokenSequence, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, core.Errorf(core.ErrInvalidTokenID, "%q is not a token id", f)
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}
