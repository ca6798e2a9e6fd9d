package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Produce sends each value as one message to the topic and returns where it
// landed. An empty key leaves partitioning to the default partitioner;
// otherwise every message carries the same key.
func Produce(cfg *Config, topic, key string, values []string) ([]ProducedMessage, error) {
	producer, err := sarama.NewSyncProducer(cfg.BootstrapServers, cfg.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: starting producer: %w", ErrBrokerUnavailable, err)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.logger().WithError(err).Warn("failed to close producer cleanly")
		}
	}()

	produced := make([]ProducedMessage, 0, len(values))
	for _, value := range values {
		msg := &sarama.ProducerMessage{
			Topic: topic,
			Value: sarama.StringEncoder(value),
		}
		if key != "" {
			msg.Key = sarama.StringEncoder(key)
		}

		partition, offset, err := producer.SendMessage(msg)
		if err != nil {
			return produced, fmt.Errorf("sending message to %s: %w", topic, err)
		}
		cfg.logger().WithFields(log.Fields{
			"topic":     topic,
			"partition": partition,
			"offset":    offset,
		}).Debug("message produced")
		produced = append(produced, ProducedMessage{Partition: partition, Offset: offset})
	}
	return produced, nil
}
