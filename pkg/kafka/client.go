// Package kafka wraps the sarama client with the operations the CLI and the
// MCP server expose: topic and cluster metadata, consumer group lag, tailing
// and producing.
package kafka

import (
	"errors"
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrBrokerUnavailable wraps connection and metadata failures so callers
	// can map them to an exit code without string matching.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrOffsetUnavailable is returned when a partition's log offsets cannot
	// be fetched while setting up a tail.
	ErrOffsetUnavailable = errors.New("offset unavailable")
)

// Config carries the connection settings shared by every operation.
type Config struct {
	BootstrapServers []string
	ClientID         string
	Logger           *log.Logger
}

func (c *Config) saramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = c.ClientID
	if config.ClientID == "" {
		config.ClientID = "kcli-" + uuid.NewString()[:8]
	}
	config.Consumer.Return.Errors = true
	config.Producer.Return.Successes = true
	return config
}

// Connect opens a sarama client against the configured brokers.
func (c *Config) Connect() (sarama.Client, error) {
	client, err := sarama.NewClient(c.BootstrapServers, c.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %w", ErrBrokerUnavailable, strings.Join(c.BootstrapServers, ","), err)
	}
	return client, nil
}

func (c *Config) connectAdmin() (sarama.ClusterAdmin, error) {
	admin, err := sarama.NewClusterAdmin(c.BootstrapServers, c.saramaConfig())
	if err != nil {
		return nil, fmt.Errorf("%w at %s: %w", ErrBrokerUnavailable, strings.Join(c.BootstrapServers, ","), err)
	}
	return admin, nil
}

func (c *Config) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.StandardLogger()
}

// topicPartition takes in a topic and partition and returns `{topic}-{partition}`
func topicPartition(topic string, partition int32) string {
	return fmt.Sprintf("%v-%v", topic, partition)
}
