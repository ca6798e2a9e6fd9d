package kafka

import (
	"fmt"
	"sort"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// OffsetSource supplies partition lists and log offsets. sarama.Client
// implements it.
type OffsetSource interface {
	Partitions(topic string) ([]int32, error)
	GetOffset(topic string, partitionID int32, time int64) (int64, error)
}

// CommittedSource supplies a group's committed offsets. sarama.ClusterAdmin
// implements it.
type CommittedSource interface {
	ListConsumerGroupOffsets(group string, topicPartitions map[string][]int32) (*sarama.OffsetFetchResponse, error)
}

// GroupLag fetches the group's committed offsets and computes per-partition
// lag against the current log end offsets.
func GroupLag(cfg *Config, group string) (*LagReport, error) {
	client, err := cfg.Connect()
	if err != nil {
		return nil, err
	}
	admin, err := sarama.NewClusterAdminFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}
	// Closing the admin closes the underlying client as well.
	defer admin.Close()

	return groupLag(group, admin, client, cfg.logger())
}

// groupLag walks every partition of every topic the group has offsets for.
// The partition set is the union of the topic's live partitions and the
// partitions named in the offset fetch response, so partitions the group
// never committed to still show up, with nil Committed and Lag.
func groupLag(group string, committed CommittedSource, offsets OffsetSource, logger *log.Logger) (*LagReport, error) {
	resp, err := committed.ListConsumerGroupOffsets(group, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching offsets for group %s: %w", ErrBrokerUnavailable, group, err)
	}

	report := &LagReport{Group: group, Complete: true}

	topics := make([]string, 0, len(resp.Blocks))
	for topic := range resp.Blocks {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		blocks := resp.Blocks[topic]

		partitionSet := make(map[int32]bool, len(blocks))
		live, err := offsets.Partitions(topic)
		if err != nil {
			logger.WithField("topic", topic).WithError(err).Warn("failed to list partitions")
			report.Complete = false
		}
		for _, p := range live {
			partitionSet[p] = true
		}
		for p := range blocks {
			partitionSet[p] = true
		}
		partitions := make([]int32, 0, len(partitionSet))
		for p := range partitionSet {
			partitions = append(partitions, p)
		}
		sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

		for _, partition := range partitions {
			entry := LagEntry{Topic: topic, Partition: partition, EndOffset: -1}

			end, err := offsets.GetOffset(topic, partition, sarama.OffsetNewest)
			if err != nil {
				logger.WithField("partition", topicPartition(topic, partition)).WithError(err).Warn("failed to fetch end offset")
			} else {
				entry.EndOffset = end
			}

			block := blocks[partition]
			switch {
			case block != nil && block.Err != sarama.ErrNoError:
				logger.WithField("partition", topicPartition(topic, partition)).WithError(block.Err).Warn("failed to fetch committed offset")
			case block != nil && block.Offset >= 0:
				current := block.Offset
				entry.Committed = &current
			}

			if entry.Committed != nil && entry.EndOffset >= 0 {
				lag := entry.EndOffset - *entry.Committed
				if lag < 0 {
					// A commit can be ahead of an end offset fetched moments
					// later. Never report negative lag.
					lag = 0
				}
				entry.Lag = &lag
				report.Total += lag
			} else {
				report.Complete = false
			}

			report.Entries = append(report.Entries, entry)
		}
	}
	return report, nil
}

// PendingOnly filters a report down to partitions that still have messages
// to consume, keeping entries whose lag is positive or unknown.
func (r *LagReport) PendingOnly() *LagReport {
	filtered := &LagReport{Group: r.Group, Total: r.Total, Complete: r.Complete}
	for _, entry := range r.Entries {
		if entry.Lag == nil || *entry.Lag > 0 {
			filtered.Entries = append(filtered.Entries, entry)
		}
	}
	return filtered
}
