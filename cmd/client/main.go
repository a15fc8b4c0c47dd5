package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wheelway/wheelway/internal/client"
	"github.com/wheelway/wheelway/internal/client/config"
	"github.com/wheelway/wheelway/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var rootCmd = &cobra.Command{
	Use:     "wheelway",
	Short:   "Wheelway accessibility mapping client",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper()
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true
		showHeader()

		c, err := client.New(cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		defer slog.Info("Bye!")
		return c.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("email", "e", "", "email for the Wheelway account")
	rootCmd.Flags().StringP("datadir", "d", config.DefaultDataDir, "Wheelway data directory")
	rootCmd.Flags().StringP("server", "s", config.DefaultServerURL, "Wheelway server")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Wheelway config file")
}

func main() {
	setupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogger() {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".wheelway"))
		viper.AddConfigPath(filepath.Join(home, ".config/wheelway"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read %q: %w", viper.ConfigFileUsed(), err)
		}
	}

	if f := cmd.Flags().Lookup("email"); f != nil {
		viper.BindPFlag("email", f)
	}
	if f := cmd.Flags().Lookup("datadir"); f != nil {
		viper.BindPFlag("data_dir", f)
	}
	if f := cmd.Flags().Lookup("server"); f != nil {
		viper.BindPFlag("server_url", f)
	}

	viper.SetEnvPrefix("WHEELWAY")
	viper.AutomaticEnv()

	return nil
}

// configFromViper assembles and validates the effective config from file,
// flags and environment.
func configFromViper() (*config.Config, error) {
	cfg := &config.Config{
		Path:      viper.ConfigFileUsed(),
		Email:     viper.GetString("email"),
		DataDir:   viper.GetString("data_dir"),
		ServerURL: viper.GetString("server_url"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
