package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// endSessionCmd removes the ratchet state for a peer. Messages already
// received stay readable in whatever form the user kept them; new envelopes
// from the peer need a fresh handshake.
func endSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end-session <peer>",
		Short: "Tear down the session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := convs.End(args[0]); err != nil {
				return err
			}
			fmt.Printf("Session with %s removed.\n", args[0])
			return nil
		},
	}
}
