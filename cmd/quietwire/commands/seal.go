package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// seal <peer> <message>: encrypt a message into an envelope file.
func sealCmd() *cobra.Command {
	var from, out string
	cmd := &cobra.Command{
		Use:   "seal <peer> <message>",
		Short: "Encrypt a message for a peer into an envelope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peer := args[0]

			env, err := convs.Seal(passphrase, from, peer, []byte(args[1]))
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return err
			}
			if out == "" {
				fmt.Println(string(raw))
				return nil
			}
			if err := os.WriteFile(out, raw, 0o644); err != nil {
				return err
			}
			fmt.Printf("Envelope written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "sender name recorded on the envelope")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
