package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quietwire/internal/domain"
)

// open <file>: decrypt an envelope file and print the plaintext.
func openCmd() *cobra.Command {
	var me string
	cmd := &cobra.Command{
		Use:   "open <envelope-file>",
		Short: "Decrypt an envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var env domain.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return fmt.Errorf("parsing envelope %q: %w", args[0], err)
			}

			pt, err := convs.Open(passphrase, me, env)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", env.From, pt)
			return nil
		},
	}
	cmd.Flags().StringVar(&me, "me", "", "local name the envelope was addressed to")
	return cmd
}
