package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wheelway/wheelway/internal/client"
)

func init() {
	rootCmd.AddCommand(newMergeCmd())
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Pull your remote records into the local store",
		Long:  "Fetches all records owned by your account and merges them into local storage. Records already present locally are kept as-is.",
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

			if err := c.MergeFromRemote(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(green.Render("Merge complete"))
			return nil
		},
	}
}
