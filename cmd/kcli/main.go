// Package main provides the kcli entry point. kcli inspects Kafka clusters:
// topics, brokers, consumer group lag, and live tailing with field filters.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keaz/kcli/pkg/config"
	"github.com/keaz/kcli/pkg/kafka"
)

var version = "version"
var commit = "commit"
var date = "date"

var rootCmd = &cobra.Command{
	Use:   "kcli",
	Short: "Inspect Kafka clusters from the command line",
	Long: `kcli is an operator tool for Kafka clusters. It lists topics, brokers
and consumer groups, reports consumer lag, and tails topics live with
field filters applied to JSON payloads.

Connections use the active environment from the config file, or the
--brokers flag / KCLI_BROKERS env var when set.`,
	Version:       fmt.Sprintf("%s (%s) %s", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if viper.GetBool("verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("brokers", "", "Comma separated bootstrap brokers, overrides the active environment")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Bind flags to viper
	_ = viper.BindPFlag("brokers", rootCmd.PersistentFlags().Lookup("brokers"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(consumerCmd)
	rootCmd.AddCommand(brokersCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

func initConfig() {
	// Initialize Viper configuration
	viper.SetEnvPrefix("KCLI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// brokerConfig resolves where to connect: the --brokers flag or KCLI_BROKERS
// env var when set, otherwise the active environment from the config file.
func brokerConfig() (*kafka.Config, error) {
	if brokers := viper.GetString("brokers"); brokers != "" {
		return &kafka.Config{BootstrapServers: strings.Split(brokers, ","), Logger: log.StandardLogger()}, nil
	}

	store, err := config.NewStore()
	if err != nil {
		return nil, err
	}
	env, err := store.Active()
	if err != nil {
		if errors.Is(err, config.ErrNoActiveEnvironment) {
			return nil, fmt.Errorf("no active environment; run 'kcli config' to add one or pass --brokers")
		}
		return nil, err
	}
	log.WithField("environment", env.Name).Debug("using active environment")
	return &kafka.Config{BootstrapServers: env.Brokers, Logger: log.StandardLogger()}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
