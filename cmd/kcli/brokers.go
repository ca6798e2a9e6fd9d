package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keaz/kcli/pkg/kafka"
	"github.com/keaz/kcli/pkg/output"
)

var brokersCmd = &cobra.Command{
	Use:   "brokers",
	Short: "Inspect cluster brokers",
}

var brokersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List brokers and the controller",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		cluster, err := kafka.DescribeCluster(cfg)
		if err != nil {
			return err
		}
		fmt.Println(output.Brokers(cluster))
		return nil
	},
}

func init() {
	brokersCmd.AddCommand(brokersListCmd)
}
