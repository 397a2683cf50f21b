package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quietwire/internal/domain"
)

// startSessionCmd performs the X3DH handshake against a peer's exported
// bundle and persists a seeded ratchet session.
func startSessionCmd() *cobra.Command {
	var bundlePath string
	cmd := &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Establish a secure session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peer := args[0]

			raw, err := os.ReadFile(bundlePath)
			if err != nil {
				return err
			}
			var bundle domain.KeyBundle
			if err := json.Unmarshal(raw, &bundle); err != nil {
				return fmt.Errorf("parsing bundle %q: %w", bundlePath, err)
			}

			if err := convs.Start(passphrase, peer, bundle); err != nil {
				return fmt.Errorf("starting session with %q: %w", peer, err)
			}
			fmt.Printf("Session created with %s.\n", peer)
			return nil
		},
	}
	cmd.Flags().StringVar(&bundlePath, "bundle", "", "path to the peer's exported bundle")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}
