package cmd

import (
	"fmt"

	"github.com/gaurav-prasanna/docpipe/chat"
	"github.com/gaurav-prasanna/docpipe/store"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored chat API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Store an API key in the OS keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if !chat.LooksLikeAPIKey(args[0]) {
			return fmt.Errorf("that does not look like an API key (expected sk-...)")
		}
		if err := store.NewCredentials().Set(args[0]); err != nil {
			return err
		}
		pterm.Success.Println("API key stored")
		return nil
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := store.NewCredentials().Delete(); err != nil {
			return err
		}
		pterm.Success.Println("API key removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keySetCmd, keyClearCmd)
}
