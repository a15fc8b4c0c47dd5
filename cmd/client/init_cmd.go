package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wheelway/wheelway/internal/client/config"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var email string
	var dataDir string
	var serverURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Wheelway client",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			configPath, _ := cmd.Flags().GetString("config")

			if cfg, err := config.LoadFromFile(configPath); err == nil {
				fmt.Println("Wheelway already initialized")
				printConfig(cfg)
				return nil
			}

			if email == "" {
				return fmt.Errorf("%s email is required", red.Render("ERROR"))
			}

			cfg := &config.Config{
				Email:     email,
				DataDir:   dataDir,
				ServerURL: serverURL,
				Path:      configPath,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Println("Wheelway initialized")
			printConfig(cfg)
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&dataDir, "data-dir", "d", config.DefaultDataDir, "data directory")
	cmd.Flags().StringVarP(&serverURL, "server-url", "u", config.DefaultServerURL, "server URL, empty for offline-only")

	return cmd
}

func printConfig(cfg *config.Config) {
	server := cfg.ServerURL
	if server == "" {
		server = yellow.Render("offline-only")
	} else {
		server = cyan.Render(server)
	}
	fmt.Printf("Config:   %s\n", green.Render(cfg.Path))
	fmt.Printf("Email:    %s\n", cyan.Render(cfg.Email))
	fmt.Printf("Data Dir: %s\n", cyan.Render(cfg.DataDir))
	fmt.Printf("Server:   %s\n", server)
}
