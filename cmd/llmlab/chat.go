package main

import (
	"fmt"
	"os"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/llm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	chatFile   string
	chatSystem string
	chatUser   []string
	chatModel  string
	chatEcho   bool
	chatAppend bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a conversation to the chat endpoint",
	Long: `Send a conversation to the chat endpoint and print the assistant reply.

The conversation is read from a YAML file and extended with --system and
--user flags:

  messages:
    - role: system
      content: You are terse.
    - role: user
      content: Say hello

With --append the reply is written back to the file so the next call
continues the conversation.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "YAML conversation file")
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system message placed before the conversation")
	chatCmd.Flags().StringArrayVarP(&chatUser, "user", "u", nil, "user message appended to the conversation (repeatable)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model (default: llm.chat_model)")
	chatCmd.Flags().BoolVar(&chatEcho, "echo", false, "print the conversation before the reply")
	chatCmd.Flags().BoolVar(&chatAppend, "append", false, "append the reply to --file")
	addSamplingFlags(chatCmd)

	rootCmd.AddCommand(chatCmd)
}

// conversationFile is the on-disk conversation format.
type conversationFile struct {
	Messages []llm.Message `yaml:"messages"`
}

func loadConversation(path string) ([]llm.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading conversation: %w", err)
	}
	var f conversationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, core.WrapError(core.ErrInvalidRequest, fmt.Errorf("parsing %s: %w", path, err))
	}
	return f.Messages, nil
}

func saveConversation(path string, conv []llm.Message) error {
	data, err := yaml.Marshal(conversationFile{Messages: conv})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// buildConversation assembles the conversation in order: --system, the file,
// then each --user message.
func buildConversation(file, system string, users []string) ([]llm.Message, error) {
	var conv []llm.Message
	if system != "" {
		conv = append(conv, llm.System(system))
	}
	if file != "" {
		msgs, err := loadConversation(file)
		if err != nil {
			return nil, err
		}
		conv = append(conv, msgs...)
	}
	for _, u := range users {
		conv = append(conv, llm.User(u))
	}
	return conv, llm.ValidateConversation(conv)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatAppend && chatFile == "" {
		return fmt.Errorf("--append requires --file")
	}
	conv, err := buildConversation(chatFile, chatSystem, chatUser)
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

	res, rec, err := rt.app.Chat(cmd.Context(), conv, chatModel, sampling)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if chatEcho {
		for _, m := range conv {
			fmt.Fprintf(w, "%s %s\n", roleLabel(m.Role), m.Content)
		}
	}
	fmt.Fprintf(w, "%s %s\n", roleLabel(res.Role), res.Content)
	printUsage(cmd.ErrOrStderr(), rec, res.FinishReason)

	if chatAppend {
		if err := saveConversation(chatFile, append(conv, res.Message())); err != nil {
			return fmt.Errorf("saving conversation: %w", err)
		}
	}
	return nil
}
