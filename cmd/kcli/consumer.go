package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keaz/kcli/pkg/kafka"
	"github.com/keaz/kcli/pkg/output"
)

var consumerCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Inspect consumer groups and their lag",
	Long: `Without flags or with --list, prints every consumer group in the
cluster. With --consumer, prints one group's members and its lag on
every partition of every topic it has offsets for.

Partitions the group never committed to show "-" and are excluded from
the total, which is then reported as a lower bound. --pending restricts
the lag table to partitions that still have messages to consume.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		group, _ := cmd.Flags().GetString("consumer")
		pending, _ := cmd.Flags().GetBool("pending")

		cfg, err := brokerConfig()
		if err != nil {
			return err
		}

		if group == "" {
			groups, err := kafka.ListGroups(cfg)
			if err != nil {
				return err
			}
			fmt.Println(output.Groups(groups))
			return nil
		}

		detail, err := kafka.DescribeGroup(cfg, group)
		if err != nil {
			return err
		}
		report, err := kafka.GroupLag(cfg, group)
		if err != nil {
			return err
		}
		if pending {
			report = report.PendingOnly()
		}

		fmt.Println(output.GroupDetail(detail))
		fmt.Println(output.Lag(report))
		return nil
	},
}

func init() {
	consumerCmd.Flags().BoolP("list", "l", false, "List consumer groups")
	consumerCmd.Flags().StringP("consumer", "c", "", "Consumer group to describe")
	consumerCmd.Flags().BoolP("pending", "p", false, "Only partitions with messages left to consume")
	consumerCmd.MarkFlagsMutuallyExclusive("list", "consumer")
	_ = consumerCmd.RegisterFlagCompletionFunc("consumer", completeGroups)
}
