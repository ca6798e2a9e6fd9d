package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keaz/kcli/pkg/filter"
	"github.com/keaz/kcli/pkg/kafka"
	"github.com/keaz/kcli/pkg/output"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Inspect and manage topics",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List topics in the cluster",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		topics, err := kafka.ListTopics(cfg)
		if err != nil {
			return err
		}
		fmt.Println(output.Topics(topics))
		return nil
	},
}

var topicsDetailsCmd = &cobra.Command{
	Use:   "details",
	Short: "Show partitions, replicas and log offsets of a topic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		detail, err := kafka.DescribeTopic(cfg, topic)
		if err != nil {
			return err
		}
		fmt.Println(output.TopicDetail(detail))
		return nil
	},
}

var topicsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a topic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		partitions, _ := cmd.Flags().GetInt32("partitions")
		replicationFactor, _ := cmd.Flags().GetInt16("replication-factor")

		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		if err := kafka.CreateTopic(cfg, topic, partitions, replicationFactor); err != nil {
			return err
		}
		fmt.Printf("Topic %s created.\n", topic)
		return nil
	},
}

var topicsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a topic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes && !confirm(fmt.Sprintf("Delete topic %s?", topic)) {
			fmt.Println("Aborted.")
			return nil
		}

		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		if err := kafka.DeleteTopic(cfg, topic); err != nil {
			return err
		}
		fmt.Printf("Topic %s deleted.\n", topic)
		return nil
	},
}

var topicsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Tail a topic live",
	Long: `Tail consumes every partition of a topic and prints one line per
message. JSON payloads are compacted and colorized, anything else is
printed raw.

--before rewinds each partition N messages before its log end, clamped
to the oldest retained offset. Without it only new messages appear.

--filter keeps messages whose payload satisfies a field expression such
as data.attributes.name=19 or items[2].sku="A-7". Payloads that are not
well-formed JSON never match. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		before, _ := cmd.Flags().GetInt64("before")
		filterExpr, _ := cmd.Flags().GetString("filter")
		max, _ := cmd.Flags().GetInt("max")

		var expr *filter.Expression
		if filterExpr != "" {
			var err error
			expr, err = filter.Parse(filterExpr)
			if err != nil {
				return err
			}
		}

		cfg, err := brokerConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tc := kafka.TailConfig{Topic: topic, Before: before, Filter: expr, Max: max}
		return kafka.Tail(ctx, cfg, tc, func(msg kafka.TailMessage) {
			fmt.Printf("%s %s\n", output.Meta(msg.Partition, msg.Offset), output.Message(msg.Value))
		})
	},
}

var topicsProduceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Produce messages to a topic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		key, _ := cmd.Flags().GetString("key")
		messages, _ := cmd.Flags().GetStringArray("message")

		if len(messages) == 0 {
			return fmt.Errorf("no messages given, use --message")
		}

		cfg, err := brokerConfig()
		if err != nil {
			return err
		}
		produced, err := kafka.Produce(cfg, topic, key, messages)
		if err != nil {
			return err
		}
		fmt.Println(output.Produced(produced))
		return nil
	},
}

// confirm asks a yes/no question on stdin and defaults to no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	topicsDetailsCmd.Flags().StringP("topic", "t", "", "Topic name")
	_ = topicsDetailsCmd.MarkFlagRequired("topic")

	topicsCreateCmd.Flags().StringP("topic", "t", "", "Topic name")
	topicsCreateCmd.Flags().Int32P("partitions", "p", 1, "Number of partitions")
	topicsCreateCmd.Flags().Int16P("replication-factor", "r", 1, "Replication factor")
	_ = topicsCreateCmd.MarkFlagRequired("topic")

	topicsDeleteCmd.Flags().StringP("topic", "t", "", "Topic name")
	topicsDeleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	_ = topicsDeleteCmd.MarkFlagRequired("topic")

	topicsTailCmd.Flags().StringP("topic", "t", "", "Topic name")
	topicsTailCmd.Flags().Int64P("before", "b", 0, "Start N messages before the log end of each partition")
	topicsTailCmd.Flags().StringP("filter", "f", "", "Field filter, e.g. data.attributes.name=19")
	topicsTailCmd.Flags().Int("max", 0, "Stop after N messages (0 tails until interrupted)")
	_ = topicsTailCmd.MarkFlagRequired("topic")

	topicsProduceCmd.Flags().StringP("topic", "t", "", "Topic name")
	topicsProduceCmd.Flags().StringP("key", "k", "", "Message key, one key for all messages")
	topicsProduceCmd.Flags().StringArrayP("message", "m", nil, "Message payload, repeatable")
	_ = topicsProduceCmd.MarkFlagRequired("topic")

	for _, cmd := range []*cobra.Command{topicsDetailsCmd, topicsDeleteCmd, topicsTailCmd, topicsProduceCmd} {
		_ = cmd.RegisterFlagCompletionFunc("topic", completeTopics)
	}

	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsDetailsCmd)
	topicsCmd.AddCommand(topicsCreateCmd)
	topicsCmd.AddCommand(topicsDeleteCmd)
	topicsCmd.AddCommand(topicsTailCmd)
	topicsCmd.AddCommand(topicsProduceCmd)
}
