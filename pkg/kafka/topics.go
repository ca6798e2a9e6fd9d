package kafka

import (
	"fmt"
	"sort"

	"github.com/IBM/sarama"
)

// ListTopics returns every topic in the cluster, sorted by name.
func ListTopics(cfg *Config) ([]TopicInfo, error) {
	admin, err := cfg.connectAdmin()
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	details, err := admin.ListTopics()
	if err != nil {
		return nil, fmt.Errorf("%w: listing topics: %w", ErrBrokerUnavailable, err)
	}

	topics := make([]TopicInfo, 0, len(details))
	for name, detail := range details {
		topics = append(topics, TopicInfo{
			Name:              name,
			Partitions:        detail.NumPartitions,
			ReplicationFactor: detail.ReplicationFactor,
		})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}

// DescribeTopic fetches partition metadata and log boundaries for one topic.
func DescribeTopic(cfg *Config, name string) (*TopicDetail, error) {
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

	metadata, err := admin.DescribeTopics([]string{name})
	if err != nil {
		return nil, fmt.Errorf("%w: describing topic %s: %w", ErrBrokerUnavailable, name, err)
	}
	if len(metadata) == 0 {
		return nil, fmt.Errorf("topic %s not found", name)
	}
	topic := metadata[0]
	if topic.Err != sarama.ErrNoError {
		return nil, fmt.Errorf("describing topic %s: %w", name, topic.Err)
	}

	detail := &TopicDetail{Name: topic.Name}
	for _, p := range topic.Partitions {
		oldest, err := client.GetOffset(topic.Name, p.ID, sarama.OffsetOldest)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrOffsetUnavailable, topicPartition(topic.Name, p.ID), err)
		}
		end, err := client.GetOffset(topic.Name, p.ID, sarama.OffsetNewest)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrOffsetUnavailable, topicPartition(topic.Name, p.ID), err)
		}
		detail.TotalMessages += end - oldest
		detail.Partitions = append(detail.Partitions, PartitionInfo{
			ID:           p.ID,
			Leader:       p.Leader,
			Replicas:     p.Replicas,
			InSync:       p.Isr,
			OldestOffset: oldest,
			EndOffset:    end,
		})
	}
	sort.Slice(detail.Partitions, func(i, j int) bool { return detail.Partitions[i].ID < detail.Partitions[j].ID })
	return detail, nil
}

// CreateTopic creates a topic with the given partition count and replication
// factor.
func CreateTopic(cfg *Config, name string, partitions int32, replicationFactor int16) error {
	admin, err := cfg.connectAdmin()
	if err != nil {
		return err
	}
	defer admin.Close()

	detail := &sarama.TopicDetail{NumPartitions: partitions, ReplicationFactor: replicationFactor}
	if err := admin.CreateTopic(name, detail, false); err != nil {
		return fmt.Errorf("creating topic %s: %w", name, err)
	}
	return nil
}

// DeleteTopic removes a topic from the cluster.
func DeleteTopic(cfg *Config, name string) error {
	admin, err := cfg.connectAdmin()
	if err != nil {
		return err
	}
	defer admin.Close()

	if err := admin.DeleteTopic(name); err != nil {
		return fmt.Errorf("deleting topic %s: %w", name, err)
	}
	return nil
}
