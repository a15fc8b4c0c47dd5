package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wheelway/wheelway/internal/client"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync queue depth and connectivity",
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

			c.CheckConnectivity(cmd.Context())
			status := c.SyncStatus(cmd.Context())

			online := red.Render("offline")
			if status.IsOnline {
				online = green.Render("online")
			}
			lastSync := gray.Render("never")
			if !status.LastSyncTime.IsZero() {
				lastSync = lightGray.Render(humanize.Time(status.LastSyncTime))
			}

			fmt.Printf("Server:    %s\n", online)
			fmt.Printf("Pending:   %s\n", cyan.Render(fmt.Sprint(status.QueueLength)))
			fmt.Printf("Last sync: %s\n", lastSync)
			return nil
		},
	}
}
