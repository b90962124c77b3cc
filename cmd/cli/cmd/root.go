package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "postctl",
	Short: "Postctl is a command line tool for interacting with the postplane platform",
	Long: `postctl is the command-line interface for the Postplane social publishing platform.

Postplane lets you schedule posts for LinkedIn, Twitter, and Facebook at an
exact future time. A poller claims due schedules and publishes them through
per-platform adapters, with bounded retries on transient failures.

Common workflows:

  Connect a platform account:
    postctl accounts link --platform linkedin --access-token <token> --account-id <id>

  Schedule a post:
    postctl schedule --platform linkedin --content "Hello" --at 2026-01-02T15:04:05Z --media photo.png

  Check schedule status:
    postctl status <schedule-id>

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    POSTPLANE_URL      API endpoint (default: http://localhost:8080)
    POSTPLANE_TOKEN    API token for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".postctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".postctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "POSTPLANE_VARNAME"
	viper.SetEnvPrefix("POSTPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.postctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Postplane Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API Token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
