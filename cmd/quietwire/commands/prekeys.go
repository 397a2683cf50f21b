package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func prekeysCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "prekeys",
		Short: "Top up the one-time prekey pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			remaining, err := convs.ReplenishOneTime(passphrase, count)
			if err != nil {
				return err
			}
			fmt.Printf("Generated %d one-time prekeys (%d in pool).\n", count, remaining)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 20, "number of one-time prekeys to add")
	return cmd
}
