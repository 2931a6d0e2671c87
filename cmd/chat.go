package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gaurav-prasanna/docpipe/chat"
	"github.com/gaurav-prasanna/docpipe/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var flagChatModel string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a model; URLs in your messages are crawled and attached",
	Long: `Chat starts a line-oriented conversation. Any http(s) URL in a message is
fetched and its normalized content appended to the turn before it is sent.

Paste an API key (sk-...) as a message to store it in the OS keyring.
Type /reset to clear the conversation and /quit to exit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&flagChatModel, "model", "", "Model name (default gpt-3.5-turbo)")
}

func runChat(cmd *cobra.Command, _ []string) error {
	if flagChatModel != "" {
		cfg.Chat.Model = flagChatModel
	}

	creds := store.NewCredentials()
	if cfg.Chat.APIKey == "" {
		key, err := creds.Get()
		switch {
		case err == nil:
			cfg.Chat.APIKey = key
		case errors.Is(err, store.ErrNoCredential):
		default:
			logger.Warn().Err(err).Msg("Keyring unavailable")
		}
	}

	completer := chat.NewOpenAICompleter(cfg.Chat.BaseURL, logger)
	session := chat.NewSession(cfg.Chat, newPipeline(), completer, creds, logger)

	if !session.HasAPIKey() {
		pterm.Info.Println("No API key configured. Paste your OpenAI API key (sk-...) to begin.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			session.Reset()
			pterm.Info.Println("Conversation cleared")
			continue
		}

		reply, err := session.Send(cmd.Context(), line)
		switch {
		case errors.Is(err, chat.ErrNoAPIKey):
			pterm.Warning.Println("Please provide your OpenAI API key first (paste a key starting with sk-).")
			continue
		case err != nil:
			pterm.Error.Printfln("Error: %v", err)
			continue
		}

		if reply.KeyStored {
			pterm.Success.Println(reply.Text)
			continue
		}
		if reply.Summary != nil {
			pterm.Info.Printfln("Crawled %d URL(s): %d successful, %d failed",
				reply.Summary.Total(), reply.Summary.SuccessCount, reply.Summary.ErrorCount)
		}
		fmt.Fprintln(os.Stdout, reply.Text)
	}
	return scanner.Err()
}
