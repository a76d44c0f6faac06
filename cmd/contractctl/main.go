// Command contractctl renders, validates and submits contract submissions from
// the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "contractctl",
		Short:         "Operate the contract pipeline from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v, configFile)
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $HOME/.contractctl.yaml)")
	root.PersistentFlags().String("server", "http://localhost:8080", "contractflow server base URL")
	root.PersistentFlags().String("api-key", "", "API key for the webhook")
	root.PersistentFlags().Bool("strict", false, "reject unknown contract types")
	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("api_key", root.PersistentFlags().Lookup("api-key"))
	_ = v.BindPFlag("strict", root.PersistentFlags().Lookup("strict"))

	root.AddCommand(renderCmd(v))
	root.AddCommand(validateCmd(v))
	root.AddCommand(submitCmd(v))
	return root
}

// loadConfig merges an optional YAML file with CONTRACTCTL_* env vars; flags win.
func loadConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("contractctl")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigName(".contractctl")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
