package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wheelway/wheelway/internal/client"
)

func init() {
	rootCmd.AddCommand(newQueueCmd())
}

func newQueueCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List or clear pending local changes",
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

			if clear {
				if err := c.ClearQueue(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Queue cleared")
				return nil
			}

			items, err := c.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Println(gray.Render("Nothing pending"))
				return nil
			}

			for _, item := range items {
				age := humanize.Time(time.UnixMilli(item.Timestamp))
				line := fmt.Sprintf("%-13s %-6s %-24s %s",
					item.Type, item.Operation, item.Data.RecordID(), gray.Render(age))
				if item.RetryCount > 0 {
					line += yellow.Render(fmt.Sprintf("  retries=%d", item.RetryCount))
				}
				if item.Error != "" {
					line += "  " + red.Render(item.Error)
				}
				fmt.Println(line)
			}
			fmt.Printf("\n%d pending\n", len(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "drop all pending changes")
	return cmd
}
