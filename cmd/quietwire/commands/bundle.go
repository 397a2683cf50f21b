package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exportBundleCmd writes the public key bundle to a file for peers to fetch.
// Every export consumes one one-time prekey from the pool.
func exportBundleCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-bundle",
		Short: "Write the public key bundle for peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			b, err := convs.ExportBundle(passphrase)
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(b, "", "  ")
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
			fmt.Printf("Bundle written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
