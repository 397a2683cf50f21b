package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var oneTime int
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate identity keys and prekeys, stored encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			fp, err := convs.Init(passphrase, oneTime)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nFingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().IntVar(&oneTime, "one-time", 20, "number of one-time prekeys to generate")
	return cmd
}
