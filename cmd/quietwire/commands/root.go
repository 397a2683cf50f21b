package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quietwire/internal/services/conversation"
	"quietwire/internal/store"
)

var (
	home       string
	passphrase string

	convs *conversation.Service
)

// Execute runs the quietwire CLI.
func Execute() error {
	root := &cobra.Command{
		Use:   "quietwire",
		Short: "End-to-end encrypted messaging core",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".quietwire")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			convs = conversation.New(
				store.NewKeyStoreFileStore(home),
				store.NewIssuedPreKeyFileStore(home),
				store.NewConversationFileStore(home),
			)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.quietwire)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the key store")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		prekeysCmd(),
		exportBundleCmd(),
		startSessionCmd(),
		sealCmd(),
		openCmd(),
		endSessionCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}
