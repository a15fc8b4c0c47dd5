package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wheelway/wheelway/internal/client"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending local changes to the server now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := configFromViper()
			if err != nil {
				return err
			}
			c, err := client.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.SyncNow(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Synced: %s  Failed: %s\n",
				green.Render(fmt.Sprint(result.ItemsSynced)),
				red.Render(fmt.Sprint(result.ItemsFailed)),
			)
			for _, itemErr := range result.Errors {
				marker := yellow.Render("retry")
				if itemErr.Terminal {
					marker = red.Render("dropped")
				}
				fmt.Printf("  %s %s %s: %s\n",
					marker, itemErr.Type, itemErr.RecordID, gray.Render(itemErr.Message))
			}
			if !result.Success {
				return fmt.Errorf("%d items failed", result.ItemsFailed)
			}
			return nil
		},
	}
}
