package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/keaz/kcli/pkg/filter"
	"github.com/keaz/kcli/pkg/kafka"
)

var (
	CONSUMER_TIMEOUT = 15 * time.Second
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func ListTopicsTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("listTopics",
			mcp.WithDescription("List topics present in the cluster"),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			topics, err := kafka.ListTopics(cfg)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(topics)
		}
}

func TopicOffsetsTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("topicOffsets",
			mcp.WithDescription("Fetches partition metadata with start and end offsets for a Kafka topic."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("The name of the Kafka topic."),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			topic := request.Params.Arguments["name"].(string)

			detail, err := kafka.DescribeTopic(cfg, topic)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(detail)
		}
}

func DescribeClusterTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("describeCluster",
			mcp.WithDescription("Describe the Kafka cluster. Returns brokers and controllerID."),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cluster, err := kafka.DescribeCluster(cfg)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(cluster)
		}
}

func ListConsumerGroupsTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("listConsumerGroups",
			mcp.WithDescription("List consumer groups present in the cluster"),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			groups, err := kafka.ListGroups(cfg)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(groups)
		}
}

func ConsumerGroupLagTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("consumerGroupLag",
			mcp.WithDescription("Report a consumer group's committed offsets and lag per partition. Partitions without a committed offset have null lag, and the total is a lower bound when any lag is unknown."),
			mcp.WithString("group",
				mcp.Required(),
				mcp.Description("The consumer group id."),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			group := request.Params.Arguments["group"].(string)

			report, err := kafka.GroupLag(cfg, group)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(report)
		}
}

func ConsumeMessagesTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("consumeMessages",
			mcp.WithDescription("Consumes numMessages from a topic starting from the beginning (offset -2) or from the end i.e. latest (offset -1). An optional field filter keeps only matching JSON payloads. If there are not enough messages, we time out after 15 seconds."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("The name of the topic to consume messages from."),
			),
			mcp.WithNumber("numMessages",
				mcp.Required(),
				mcp.Description("Number of messages to consume."),
			),
			mcp.WithNumber("offset",
				mcp.Required(),
				mcp.Description("Offset to start consuming from. -2 means starting from the beginning, -1 means starting from the end (latest)."),
			),
			mcp.WithString("filter",
				mcp.Description("Field filter applied to each payload, e.g. data.attributes.name=19."),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			topic := request.Params.Arguments["name"].(string)
			numMessages := request.Params.Arguments["numMessages"].(float64)
			offset := request.Params.Arguments["offset"].(float64)
			filterExpr, _ := request.Params.Arguments["filter"].(string)

			var before int64
			switch offset {
			case -2:
				before = -1
			case -1:
				before = 0
			default:
				err := fmt.Errorf("offset should be -1 or -2")
				return mcp.NewToolResultError(err.Error()), err
			}

			var expr *filter.Expression
			if filterExpr != "" {
				var err error
				expr, err = filter.Parse(filterExpr)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), err
				}
			}

			ctx, cancel := context.WithTimeout(ctx, CONSUMER_TIMEOUT)
			defer cancel()

			var messages []kafka.TailMessage
			tc := kafka.TailConfig{Topic: topic, Before: before, Filter: expr, Max: int(numMessages)}
			err := kafka.Tail(ctx, cfg, tc, func(msg kafka.TailMessage) {
				messages = append(messages, msg)
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(messages)
		}
}

func ProduceMessagesTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("produceMessages",
			mcp.WithDescription("Produces messages to a Kafka topic."),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("The name of the topic to produce messages to."),
			),
			mcp.WithArray("messages",
				mcp.Required(),
				mcp.Description("List of messages to produce."),
			),
			mcp.WithString("key",
				mcp.Description("Optional key applied to every message."),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			topic := request.Params.Arguments["name"].(string)
			messages := request.Params.Arguments["messages"].([]any)
			key, _ := request.Params.Arguments["key"].(string)

			values := make([]string, 0, len(messages))
			for _, m := range messages {
				values = append(values, m.(string))
			}

			produced, err := kafka.Produce(cfg, topic, key, values)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return jsonResult(produced)
		}
}

func CreateTopicTool(cfg *kafka.Config) (tool mcp.Tool, handler server.ToolHandlerFunc) {
	return mcp.NewTool("createTopic",
			mcp.WithDescription("Create a topic in the kafka cluster"),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("The name of the topic"),
			),
			mcp.WithNumber("replicationFactor",
				mcp.Required(),
				mcp.Description("Replication factor"),
			),
			mcp.WithNumber("numPartitions",
				mcp.Required(),
				mcp.Description("Number of partitions"),
			),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			name := request.Params.Arguments["name"].(string)
			replicationFactor := request.Params.Arguments["replicationFactor"].(float64)
			numPartitions := request.Params.Arguments["numPartitions"].(float64)

			if err := kafka.CreateTopic(cfg, name, int32(numPartitions), int16(replicationFactor)); err != nil {
				return mcp.NewToolResultError(err.Error()), err
			}
			return mcp.NewToolResultText("Topic created."), nil
		}
}
